// Package bootstrap wires configuration, storage and the extensibility
// services into a runnable application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artpar/cmscore/adapters/clock"
	"github.com/artpar/cmscore/adapters/hasher"
	httpadapter "github.com/artpar/cmscore/adapters/http"
	"github.com/artpar/cmscore/adapters/http/admin"
	"github.com/artpar/cmscore/adapters/idgen"
	"github.com/artpar/cmscore/adapters/metrics"
	"github.com/artpar/cmscore/adapters/sqlite"
	"github.com/artpar/cmscore/adapters/tracing"
	"github.com/artpar/cmscore/app"
	"github.com/artpar/cmscore/config"
	"github.com/artpar/cmscore/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Version is set at build time.
var Version = "dev"

// App is the application context. It owns every registry; nothing is global.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	DB     *sqlite.DB

	Metrics  *metrics.Collector
	Registry *prometheus.Registry
	Tracing  *tracing.Provider

	HookStore   ports.HookStore
	ModuleStore ports.ModuleStore
	ThemeStore  ports.ThemeStore
	Permissions ports.PermissionStore

	Handlers *app.HandlerRegistry
	Hooks    *app.HookRegistry
	Modules  *app.ModuleManager
	Themes   *app.ThemeManager

	HTTPServer *http.Server

	holder *config.Holder
}

// New creates an App from the config file at path, falling back to
// environment variables when the file does not exist.
func New(path string) (*App, error) {
	cfg, err := config.LoadWithFallback(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	a, err := NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			a.watchConfig(path)
		}
	}
	return a, nil
}

// NewWithConfig creates an App from an already loaded config.
func NewWithConfig(cfg *config.Config) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: setupLogger(cfg.Logging),
	}

	if err := a.initDatabase(); err != nil {
		return nil, err
	}

	if err := a.initObservability(); err != nil {
		a.DB.Close()
		return nil, err
	}

	a.initServices()

	if err := a.initHTTPServer(); err != nil {
		a.DB.Close()
		return nil, err
	}

	return a, nil
}

func (a *App) initDatabase() error {
	db, err := sqlite.Open(a.Config.Database.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return fmt.Errorf("migrate database: %w", err)
	}

	a.DB = db
	a.Logger.Info().Str("dsn", a.Config.Database.DSN).Msg("database initialized")
	return nil
}

func (a *App) initObservability() error {
	if a.Config.Metrics.Enabled {
		a.Registry = prometheus.NewRegistry()
		a.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.Metrics = metrics.NewWithRegistry(a.Registry)
	}

	tc := a.Config.Tracing
	provider, err := tracing.NewProvider(tracing.Config{
		Enabled:      tc.Enabled,
		Exporter:     tc.Exporter,
		OTLPEndpoint: tc.OTLPEndpoint,
		SampleRate:   tc.SampleRate,
		ServiceName:  tc.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.Tracing = provider
	if provider.Enabled() {
		a.Logger.Info().Str("exporter", tc.Exporter).Msg("tracing enabled")
	}
	return nil
}

func (a *App) observability() app.Observability {
	obs := app.Observability{Tracer: a.Tracing.Tracer()}
	if a.Metrics != nil {
		obs.Metrics = a.Metrics
	}
	return obs
}

func (a *App) initServices() {
	newID := idgen.Func(idgen.UUID{})
	a.HookStore = sqlite.NewHookStore(a.DB, newID)
	a.ModuleStore = sqlite.NewModuleStore(a.DB)
	a.ThemeStore = sqlite.NewThemeStore(a.DB)
	a.Permissions = sqlite.NewPermissionStore(a.DB, newID)

	obs := a.observability()

	a.Handlers = app.NewHandlerRegistry(a.Logger)
	RegisterBuiltinHandlers(a.Handlers, a.Logger)

	a.Hooks = app.NewHookRegistry(a.HookStore, a.Handlers, a.Logger, app.HookRegistryConfig{
		ListenerTimeout: a.Config.Hooks.ListenerTimeout,
		Clock:           clock.Real{},
		Observability:   obs,
	})
	a.Modules = app.NewModuleManager(a.ModuleStore, a.Permissions, a.Hooks, idgen.UUID{}, clock.Real{}, a.Logger, app.ModuleManagerConfig{
		Observability: obs,
	})
	a.Themes = app.NewThemeManager(a.ThemeStore, idgen.UUID{}, clock.Real{}, a.Logger, app.ThemeManagerConfig{
		CacheTTL:      a.Config.Themes.CacheTTL,
		Observability: obs,
	})
}

func (a *App) initHTTPServer() error {
	bcrypt := hasher.NewBcrypt(a.Config.Admin.BcryptCost)
	tokenHash, err := hasher.TokenHash(bcrypt, a.Config.Admin.Token)
	if err != nil {
		return err
	}
	if tokenHash == nil {
		a.Logger.Warn().Msg("admin token not configured, admin API is disabled")
	}

	api := admin.NewHandler(admin.Deps{
		Hooks:     a.Hooks,
		Modules:   a.Modules,
		Themes:    a.Themes,
		Hasher:    bcrypt,
		TokenHash: tokenHash,
		Logger:    a.Logger,
	})

	routerCfg := httpadapter.RouterConfig{
		Metrics:       a.Metrics,
		MetricsPath:   a.Config.Metrics.Path,
		EnableOpenAPI: a.Config.OpenAPI.Enabled,
		Version:       Version,
		AdminHandler:  api.Router(),
		PublicHandler: api.PublicRouter(),
		Health:        httpadapter.NewHealthHandler(a.DB),
	}
	if a.Registry != nil {
		routerCfg.MetricsHandler = promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})
	}
	router := httpadapter.NewRouter(a.Logger, routerCfg)

	sc := a.Config.Server
	a.HTTPServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", sc.Host, sc.Port),
		Handler:      router,
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
	}
	return nil
}

// Init rebuilds the hook chains, seeds a fresh install when configured and
// loads every enabled module. It must run before serving traffic.
func (a *App) Init(ctx context.Context) error {
	if err := a.Hooks.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize hooks: %w", err)
	}
	if a.Config.Database.Seed {
		if err := a.Seed(ctx); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	if err := a.Modules.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize modules: %w", err)
	}
	return nil
}

func (a *App) watchConfig(path string) {
	holder, err := config.NewHolder(path, a.Logger)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("config hot reload disabled")
		return
	}
	holder.OnChange(a.applyConfig)
	holder.OnError(a.Metrics.ConfigReloaded)
	if err := holder.WatchFile(); err != nil {
		a.Logger.Warn().Err(err).Msg("config file watch failed")
	}
	holder.WatchSignals()
	a.holder = holder
}

// applyConfig picks up the hot-reloadable fields.
func (a *App) applyConfig(cfg *config.Config) {
	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	a.Themes.SetCacheTTL(cfg.Themes.CacheTTL)
	a.Metrics.ConfigReloaded(nil)
}

// Run starts the HTTP server and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", a.HTTPServer.Addr).Str("version", Version).Msg("starting server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown fires system.shutdown, drains the HTTP server and releases
// tracing and database resources.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()

	if a.holder != nil {
		a.holder.Stop()
	}

	if a.Modules != nil {
		a.Modules.Shutdown(ctx)
	}

	var errs []error
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
			errs = append(errs, err)
		}
	}

	if a.Tracing != nil {
		if err := a.Tracing.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("tracing shutdown error")
			errs = append(errs, err)
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
			errs = append(errs, err)
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return errors.Join(errs...)
}

func (a *App) shutdownTimeout() time.Duration {
	if t := a.Config.Server.ShutdownTimeout; t > 0 {
		return t
	}
	return 30 * time.Second
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
