package config

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// reloadDebounce coalesces the burst of events editors emit on save.
const reloadDebounce = 100 * time.Millisecond

// field is one watched config value.
type field struct {
	name       string
	reloadable bool
	value      func(*Config) string
}

var fields = []field{
	{"logging.level", true, func(c *Config) string { return c.Logging.Level }},
	{"themes.cache_ttl", true, func(c *Config) string { return c.Themes.CacheTTL.String() }},
	{"server.host", false, func(c *Config) string { return c.Server.Host }},
	{"server.port", false, func(c *Config) string { return fmt.Sprint(c.Server.Port) }},
	{"database.dsn", false, func(c *Config) string { return c.Database.DSN }},
	{"admin.token", false, func(c *Config) string { return c.Admin.Token }},
	{"hooks.listener_timeout", false, func(c *Config) string { return c.Hooks.ListenerTimeout.String() }},
	{"metrics", false, func(c *Config) string { return fmt.Sprint(c.Metrics.Enabled, c.Metrics.Path) }},
	{"tracing", false, func(c *Config) string {
		t := c.Tracing
		return fmt.Sprint(t.Enabled, t.Exporter, t.OTLPEndpoint, t.SampleRate, t.ServiceName)
	}},
}

// Change is a field that differs between two configs.
type Change struct {
	Field      string
	Old, New   string
	Reloadable bool
}

// Diff lists the watched fields that differ between old and new.
func Diff(old, new *Config) []Change {
	var changes []Change
	for _, f := range fields {
		o, n := f.value(old), f.value(new)
		if o == n {
			continue
		}
		changes = append(changes, Change{Field: f.name, Old: o, New: n, Reloadable: f.reloadable})
	}
	return changes
}

// ReloadableFields returns the fields applied without restart.
func ReloadableFields() []string { return fieldNames(true) }

// NonReloadableFields returns the fields that need a restart.
func NonReloadableFields() []string { return fieldNames(false) }

func fieldNames(reloadable bool) []string {
	var out []string
	for _, f := range fields {
		if f.reloadable == reloadable {
			out = append(out, f.name)
		}
	}
	sort.Strings(out)
	return out
}

// Holder owns the live configuration and reloads it from disk on file
// changes or SIGHUP. A failed reload keeps the previous config.
type Holder struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	logger   zerolog.Logger
	onChange []func(*Config)
	onError  []func(error)

	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewHolder loads path and returns a holder for it.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	return &Holder{
		config: cfg,
		path:   absPath,
		logger: logger.With().Str("component", "config").Logger(),
		stopCh: make(chan struct{}),
	}, nil
}

// Get returns the current configuration.
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.config
}

// OnChange registers a callback run after every successful reload.
func (h *Holder) OnChange(fn func(*Config)) {
	h.mu.Lock()
	h.onChange = append(h.onChange, fn)
	h.mu.Unlock()
}

// OnError registers a callback run when a reload fails.
func (h *Holder) OnError(fn func(error)) {
	h.mu.Lock()
	h.onError = append(h.onError, fn)
	h.mu.Unlock()
}

// Reload re-reads the file and returns the fields that changed.
func (h *Holder) Reload() ([]Change, error) {
	next, err := Load(h.path)
	if err != nil {
		err = fmt.Errorf("reload config: %w", err)
		h.logger.Error().Err(err).Msg("config reload failed, keeping old config")
		h.mu.RLock()
		callbacks := append([]func(error){}, h.onError...)
		h.mu.RUnlock()
		for _, fn := range callbacks {
			fn(err)
		}
		return nil, err
	}

	h.mu.Lock()
	prev := h.config
	h.config = next
	callbacks := append([]func(*Config){}, h.onChange...)
	h.mu.Unlock()

	changes := Diff(prev, next)
	for _, c := range changes {
		ev := h.logger.Info()
		msg := "config field changed"
		if !c.Reloadable {
			ev = h.logger.Warn()
			msg = "config field changed, takes effect after restart"
		}
		if c.Field == "admin.token" {
			ev.Str("field", c.Field).Msg(msg)
			continue
		}
		ev.Str("field", c.Field).Str("old", c.Old).Str("new", c.New).Msg(msg)
	}

	for _, fn := range callbacks {
		fn(next)
	}
	h.logger.Info().Int("changed", len(changes)).Msg("configuration reloaded")
	return changes, nil
}

// WatchFile reloads on writes to the config file. The directory is watched
// so atomic saves (rename over the file) are seen.
func (h *Holder) WatchFile() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	h.watcher = watcher

	go h.watchLoop()
	h.logger.Info().Str("path", h.path).Msg("watching config file")
	return nil
}

// WatchSignals reloads on SIGHUP until Stop.
func (h *Holder) WatchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	go func() {
		defer signal.Stop(sigCh)
		for {
			select {
			case <-sigCh:
				h.logger.Info().Msg("received SIGHUP")
				_, _ = h.Reload()
			case <-h.stopCh:
				return
			}
		}
	}()
}

// Stop ends file and signal watching. It is safe to call more than once.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		if h.watcher != nil {
			h.watcher.Close()
		}
	})
}

func (h *Holder) watchLoop() {
	name := filepath.Base(h.path)
	var pending *time.Timer
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			h.logger.Debug().Str("event", event.Op.String()).Msg("config file changed")
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(reloadDebounce, func() {
				select {
				case <-h.stopCh:
				default:
					_, _ = h.Reload()
				}
			})

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("config watcher error")

		case <-h.stopCh:
			return
		}
	}
}
