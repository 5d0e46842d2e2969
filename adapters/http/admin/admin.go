// Package admin provides HTTP handlers for the extensibility admin API and
// the public read-only endpoints the rendering layer consumes.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/artpar/cmscore/app"
	"github.com/artpar/cmscore/domain/cmserr"
	"github.com/artpar/cmscore/domain/hook"
	"github.com/artpar/cmscore/domain/module"
	"github.com/artpar/cmscore/domain/settings"
	"github.com/artpar/cmscore/domain/theme"
	"github.com/artpar/cmscore/ports"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds request bodies (manifests included).
const maxBodyBytes = 1 << 20

// HookService is the hook registry surface the API uses.
type HookService interface {
	CreateHook(ctx context.Context, name, description string) (hook.Hook, error)
	GetHook(ctx context.Context, name string) (hook.Hook, error)
	ListHooks(ctx context.Context) ([]hook.Hook, error)
	DeleteHook(ctx context.Context, name string) error
	RegisterListener(ctx context.Context, spec app.ListenerSpec) (hook.Listener, error)
	UpdateListener(ctx context.Context, id string, patch app.ListenerPatch) (hook.Listener, error)
	RemoveListener(ctx context.Context, hookName, module string) error
	RegisteredHooks() []string
	Handlers(name string) []hook.Entry
}

// ModuleService is the module lifecycle surface the API uses.
type ModuleService interface {
	List(ctx context.Context, filter module.Filter) ([]module.Module, error)
	Get(ctx context.Context, slug string) (module.Module, error)
	Permissions(ctx context.Context, slug string) ([]module.Permission, error)
	Install(ctx context.Context, d module.Descriptor) (module.Module, error)
	Uninstall(ctx context.Context, slug string) error
	Enable(ctx context.Context, slug string) (module.Module, error)
	Disable(ctx context.Context, slug string) (module.Module, error)
	GetSettings(ctx context.Context, slug string) (settings.Values, error)
	UpdateSettings(ctx context.Context, slug string, patch settings.Values) (settings.Values, error)
	Loaded() []module.Loaded
	Dependents(slug string) []string
}

// ThemeService is the theme management surface the API uses.
type ThemeService interface {
	ActiveTheme(ctx context.Context) (*theme.Active, error)
	List(ctx context.Context, filter theme.Filter) ([]theme.Theme, error)
	Get(ctx context.Context, slug string) (theme.Theme, error)
	Templates(ctx context.Context, slug string) ([]theme.Template, error)
	Regions(ctx context.Context, slug string) ([]theme.Region, error)
	Install(ctx context.Context, d theme.Descriptor) (theme.Theme, []string, error)
	Activate(ctx context.Context, slug string) (theme.Theme, error)
	Deactivate(ctx context.Context, slug string) (*theme.Theme, error)
	Uninstall(ctx context.Context, slug string) error
	GetSettings(ctx context.Context, slug string) (settings.Values, error)
	UpdateSettings(ctx context.Context, slug string, patch settings.Values) (settings.Values, error)
	ResetSettings(ctx context.Context, slug string) (settings.Values, error)
	ExportSettings(ctx context.Context, slug string) (settings.Export, error)
	ImportSettings(ctx context.Context, slug string, export settings.Export) (settings.Values, error)
}

// Handler provides admin API endpoints.
type Handler struct {
	hooks     HookService
	modules   ModuleService
	themes    ThemeService
	hasher    ports.Hasher
	tokenHash []byte
	logger    zerolog.Logger
}

// Deps contains dependencies for the admin handler.
type Deps struct {
	Hooks   HookService
	Modules ModuleService
	Themes  ThemeService
	Hasher  ports.Hasher
	// TokenHash is the hashed admin bearer token. Nil disables the admin
	// routes; the public routes stay available.
	TokenHash []byte
	Logger    zerolog.Logger
}

// NewHandler creates a new admin API handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		hooks:     deps.Hooks,
		modules:   deps.Modules,
		themes:    deps.Themes,
		hasher:    deps.Hasher,
		tokenHash: deps.TokenHash,
		logger:    deps.Logger.With().Str("component", "admin").Logger(),
	}
}

// Router returns the admin API router. Every route requires the admin token.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(h.AuthMiddleware)

	// Modules
	r.Get("/modules", h.ListModules)
	r.Post("/modules", h.InstallModule)
	r.Get("/modules/{slug}", h.GetModule)
	r.Delete("/modules/{slug}", h.UninstallModule)
	r.Post("/modules/{slug}/enable", h.EnableModule)
	r.Post("/modules/{slug}/disable", h.DisableModule)
	r.Get("/modules/{slug}/settings", h.GetModuleSettings)
	r.Put("/modules/{slug}/settings", h.UpdateModuleSettings)

	// Themes
	r.Get("/themes", h.ListThemes)
	r.Post("/themes", h.InstallTheme)
	r.Get("/themes/{slug}", h.GetTheme)
	r.Delete("/themes/{slug}", h.UninstallTheme)
	r.Post("/themes/{slug}/activate", h.ActivateTheme)
	r.Post("/themes/{slug}/deactivate", h.DeactivateTheme)
	r.Get("/themes/{slug}/settings", h.GetThemeSettings)
	r.Put("/themes/{slug}/settings", h.UpdateThemeSettings)
	r.Delete("/themes/{slug}/settings", h.ResetThemeSettings)
	r.Get("/themes/{slug}/templates", h.ThemeTemplates)
	r.Get("/themes/{slug}/regions", h.ThemeRegions)
	r.Get("/themes/{slug}/export", h.ExportThemeSettings)
	r.Post("/themes/{slug}/import", h.ImportThemeSettings)

	// Hooks
	r.Get("/hooks", h.ListHooks)
	r.Post("/hooks", h.CreateHook)
	r.Get("/hooks/{name}", h.GetHook)
	r.Delete("/hooks/{name}", h.DeleteHook)
	r.Post("/hooks/{name}/listeners", h.RegisterListener)
	r.Delete("/hooks/{name}/listeners/{module}", h.RemoveListener)
	r.Patch("/listeners/{id}", h.UpdateListener)

	return r
}

// PublicRouter returns the unauthenticated read-only router.
func (h *Handler) PublicRouter() chi.Router {
	r := chi.NewRouter()
	r.Get("/theme/active", h.PublicActiveTheme)
	r.Get("/modules/loaded", h.PublicLoadedModules)
	r.Get("/hooks", h.PublicHooks)
	return r
}

// -----------------------------------------------------------------------------
// Authentication
// -----------------------------------------------------------------------------

// AuthMiddleware checks the bearer token against the configured hash.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(h.tokenHash) == 0 {
			writeError(w, http.StatusForbidden, "admin_disabled", "Admin token is not configured", nil)
			return
		}

		token := bearerToken(r)
		if token == "" || !h.hasher.Compare(h.tokenHash, token) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Valid admin token required", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// -----------------------------------------------------------------------------
// Public endpoints
// -----------------------------------------------------------------------------

// PublicActiveTheme returns the active theme with resolved settings.
//
//	@Summary		Active theme
//	@Description	Returns the active theme with defaults merged with overrides
//	@Tags			Public
//	@Produce		json
//	@Success		200	{object}	theme.Active
//	@Failure		404	{object}	ErrorResponse	"No active theme"
//	@Router			/api/theme/active [get]
func (h *Handler) PublicActiveTheme(w http.ResponseWriter, r *http.Request) {
	active, err := h.themes.ActiveTheme(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if active == nil {
		writeError(w, http.StatusNotFound, "no_active_theme", "No theme is active", nil)
		return
	}
	writeJSON(w, http.StatusOK, active)
}

// PublicLoadedModules returns the modules currently loaded.
//
//	@Summary		Loaded modules
//	@Tags			Public
//	@Produce		json
//	@Success		200	{object}	LoadedModulesResponse
//	@Router			/api/modules/loaded [get]
func (h *Handler) PublicLoadedModules(w http.ResponseWriter, r *http.Request) {
	loaded := h.modules.Loaded()
	out := make([]module.Loaded, 0, len(loaded))
	for _, l := range loaded {
		mod, err := h.modules.Get(r.Context(), l.Slug)
		if err == nil {
			l.Settings = l.Settings.Masked(mod.Manifest.SecretKeys())
		}
		out = append(out, l)
	}
	writeJSON(w, http.StatusOK, LoadedModulesResponse{Data: out, Total: len(out)})
}

// PublicHooks returns every hook with a non-empty in-memory chain.
//
//	@Summary		Registered hooks
//	@Tags			Public
//	@Produce		json
//	@Success		200	{object}	RegisteredHooksResponse
//	@Router			/api/hooks [get]
func (h *Handler) PublicHooks(w http.ResponseWriter, r *http.Request) {
	names := h.hooks.RegisteredHooks()
	out := make([]RegisteredHook, 0, len(names))
	for _, name := range names {
		out = append(out, RegisteredHook{Name: name, Handlers: h.hooks.Handlers(name)})
	}
	writeJSON(w, http.StatusOK, RegisteredHooksResponse{Data: out, Total: len(out)})
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details.
type ErrorDetail struct {
	Code    string   `json:"code" example:"dependency_violation"`
	Message string   `json:"message" example:"modules.disable: required by enabled modules: breaking-news"`
	Names   []string `json:"names,omitempty"`
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(kind cmserr.Kind) int {
	switch kind {
	case cmserr.KindNotFound:
		return http.StatusNotFound
	case cmserr.KindConflict, cmserr.KindDependencyViolation, cmserr.KindInvariantViolation:
		return http.StatusConflict
	case cmserr.KindInvalidManifest:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var e *cmserr.Error
	if !errors.As(err, &e) {
		h.logger.Error().Err(err).Msg("admin request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal error", nil)
		return
	}
	writeError(w, statusFor(e.Kind), string(e.Kind), err.Error(), e.Names)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", nil)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string, names []string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message, Names: names}})
}
