package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/artpar/cmscore/domain/module"
	"github.com/artpar/cmscore/domain/settings"
	"github.com/go-chi/chi/v5"
)

// ModuleResponse is the API representation of a module.
type ModuleResponse struct {
	ID           string          `json:"id"`
	Slug         string          `json:"slug" example:"breaking-news"`
	Name         string          `json:"name" example:"Breaking News"`
	Description  string          `json:"description,omitempty"`
	Version      string          `json:"version" example:"1.0.0"`
	Author       string          `json:"author,omitempty"`
	Icon         string          `json:"icon,omitempty"`
	Type         module.Type     `json:"type" example:"EXTENSION"`
	Path         string          `json:"path,omitempty"`
	Dependencies []string        `json:"dependencies"`
	IsCore       bool            `json:"isCore"`
	IsSystem     bool            `json:"isSystem"`
	IsInstalled  bool            `json:"isInstalled"`
	IsEnabled    bool            `json:"isEnabled"`
	InstalledAt  time.Time       `json:"installedAt"`
	EnabledAt    *time.Time      `json:"enabledAt,omitempty"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	Manifest     module.Manifest `json:"manifest"`
}

// ModuleListResponse is a list of modules.
type ModuleListResponse struct {
	Data  []ModuleResponse `json:"data"`
	Total int              `json:"total"`
}

// ModuleDetailResponse is one module with its permissions.
type ModuleDetailResponse struct {
	ModuleResponse
	Dependents  []string            `json:"dependents,omitempty"`
	Permissions []module.Permission `json:"permissions"`
}

// LoadedModulesResponse lists the loaded modules.
type LoadedModulesResponse struct {
	Data  []module.Loaded `json:"data"`
	Total int             `json:"total"`
}

// SettingsResponse wraps resolved settings.
type SettingsResponse struct {
	Slug     string          `json:"slug"`
	Settings settings.Values `json:"settings"`
}

func moduleToResponse(m module.Module) ModuleResponse {
	deps := m.Dependencies
	if deps == nil {
		deps = []string{}
	}
	return ModuleResponse{
		ID:           m.ID,
		Slug:         m.Slug,
		Name:         m.Name,
		Description:  m.Description,
		Version:      m.Version,
		Author:       m.Author,
		Icon:         m.Icon,
		Type:         m.Type,
		Path:         m.Path,
		Dependencies: deps,
		IsCore:       m.IsCore,
		IsSystem:     m.IsSystem,
		IsInstalled:  m.IsInstalled,
		IsEnabled:    m.IsEnabled,
		InstalledAt:  m.InstalledAt,
		EnabledAt:    m.EnabledAt,
		UpdatedAt:    m.UpdatedAt,
		Manifest:     m.Manifest,
	}
}

// ListModules lists installed modules.
//
//	@Summary		List modules
//	@Description	Lists installed modules; core first, then by type and name
//	@Tags			Modules
//	@Produce		json
//	@Param			type	query		string	false	"Module type"	Enums(CORE, EXTENSION, WIDGET, INTEGRATION)
//	@Param			enabled	query		bool	false	"Filter by enabled state"
//	@Param			core	query		bool	false	"Filter by core flag"
//	@Success		200		{object}	ModuleListResponse
//	@Security		BearerAuth
//	@Router			/admin/modules [get]
func (h *Handler) ListModules(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := module.Filter{
		Type:    module.Type(q.Get("type")),
		Enabled: parseBoolQuery(q.Get("enabled")),
		Core:    parseBoolQuery(q.Get("core")),
	}

	mods, err := h.modules.List(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	out := make([]ModuleResponse, 0, len(mods))
	for _, m := range mods {
		out = append(out, moduleToResponse(m))
	}
	writeJSON(w, http.StatusOK, ModuleListResponse{Data: out, Total: len(out)})
}

// InstallModule installs a module from its descriptor.
//
//	@Summary		Install module
//	@Tags			Modules
//	@Accept			json
//	@Produce		json
//	@Param			request	body		module.Descriptor	true	"Module descriptor with manifest"
//	@Success		201		{object}	ModuleResponse
//	@Failure		409		{object}	ErrorResponse	"Already installed or dependencies missing"
//	@Failure		422		{object}	ErrorResponse	"Invalid manifest"
//	@Security		BearerAuth
//	@Router			/admin/modules [post]
func (h *Handler) InstallModule(w http.ResponseWriter, r *http.Request) {
	var d module.Descriptor
	if !decodeJSON(w, r, &d) {
		return
	}

	mod, err := h.modules.Install(r.Context(), d)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, moduleToResponse(mod))
}

// GetModule returns one module.
//
//	@Summary		Get module
//	@Tags			Modules
//	@Produce		json
//	@Param			slug	path		string	true	"Module slug"
//	@Success		200		{object}	ModuleDetailResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/modules/{slug} [get]
func (h *Handler) GetModule(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	mod, err := h.modules.Get(r.Context(), slug)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	perms, err := h.modules.Permissions(r.Context(), slug)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if perms == nil {
		perms = []module.Permission{}
	}
	writeJSON(w, http.StatusOK, ModuleDetailResponse{
		ModuleResponse: moduleToResponse(mod),
		Dependents:     h.modules.Dependents(slug),
		Permissions:    perms,
	})
}

// UninstallModule removes a module.
//
//	@Summary		Uninstall module
//	@Tags			Modules
//	@Param			slug	path	string	true	"Module slug"
//	@Success		204
//	@Failure		409	{object}	ErrorResponse	"Core, system or required by enabled modules"
//	@Security		BearerAuth
//	@Router			/admin/modules/{slug} [delete]
func (h *Handler) UninstallModule(w http.ResponseWriter, r *http.Request) {
	if err := h.modules.Uninstall(r.Context(), chi.URLParam(r, "slug")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EnableModule enables a module and loads its listeners.
//
//	@Summary		Enable module
//	@Tags			Modules
//	@Produce		json
//	@Param			slug	path		string	true	"Module slug"
//	@Success		200		{object}	ModuleResponse
//	@Failure		409		{object}	ErrorResponse	"Dependencies disabled"
//	@Security		BearerAuth
//	@Router			/admin/modules/{slug}/enable [post]
func (h *Handler) EnableModule(w http.ResponseWriter, r *http.Request) {
	mod, err := h.modules.Enable(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, moduleToResponse(mod))
}

// DisableModule disables a module and unloads its listeners.
//
//	@Summary		Disable module
//	@Tags			Modules
//	@Produce		json
//	@Param			slug	path		string	true	"Module slug"
//	@Success		200		{object}	ModuleResponse
//	@Failure		409		{object}	ErrorResponse	"System module or required by enabled modules"
//	@Security		BearerAuth
//	@Router			/admin/modules/{slug}/disable [post]
func (h *Handler) DisableModule(w http.ResponseWriter, r *http.Request) {
	mod, err := h.modules.Disable(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, moduleToResponse(mod))
}

// GetModuleSettings returns resolved settings with secrets masked.
//
//	@Summary		Get module settings
//	@Tags			Modules
//	@Produce		json
//	@Param			slug	path		string	true	"Module slug"
//	@Success		200		{object}	SettingsResponse
//	@Security		BearerAuth
//	@Router			/admin/modules/{slug}/settings [get]
func (h *Handler) GetModuleSettings(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	mod, err := h.modules.Get(r.Context(), slug)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	values, err := h.modules.GetSettings(r.Context(), slug)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{Slug: slug, Settings: values.Masked(mod.Manifest.SecretKeys())})
}

// UpdateModuleSettings upserts overrides and returns the resolved settings.
//
//	@Summary		Update module settings
//	@Tags			Modules
//	@Accept			json
//	@Produce		json
//	@Param			slug	path		string				true	"Module slug"
//	@Param			request	body		map[string]interface{}	true	"Settings patch"
//	@Success		200		{object}	SettingsResponse
//	@Security		BearerAuth
//	@Router			/admin/modules/{slug}/settings [put]
func (h *Handler) UpdateModuleSettings(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	var patch settings.Values
	if !decodeJSON(w, r, &patch) {
		return
	}
	mod, err := h.modules.Get(r.Context(), slug)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	values, err := h.modules.UpdateSettings(r.Context(), slug, patch)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{Slug: slug, Settings: values.Masked(mod.Manifest.SecretKeys())})
}

func parseBoolQuery(s string) *bool {
	if s == "" {
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &b
}
