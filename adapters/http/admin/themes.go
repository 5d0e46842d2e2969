package admin

import (
	"net/http"
	"time"

	"github.com/artpar/cmscore/domain/settings"
	"github.com/artpar/cmscore/domain/theme"
	"github.com/go-chi/chi/v5"
)

// ThemeResponse is the API representation of a theme.
type ThemeResponse struct {
	ID              string          `json:"id"`
	Slug            string          `json:"slug" example:"default"`
	Name            string          `json:"name" example:"NewsCore Default Theme"`
	Description     string          `json:"description,omitempty"`
	Version         string          `json:"version" example:"1.0.0"`
	Author          string          `json:"author,omitempty"`
	PreviewImage    string          `json:"previewImage,omitempty"`
	Path            string          `json:"path,omitempty"`
	Features        []string        `json:"features,omitempty"`
	DefaultSettings settings.Values `json:"defaultSettings"`
	IsActive        bool            `json:"isActive"`
	IsDefault       bool            `json:"isDefault"`
	IsSystem        bool            `json:"isSystem"`
	InstalledAt     time.Time       `json:"installedAt"`
	ActivatedAt     *time.Time      `json:"activatedAt,omitempty"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	Manifest        theme.Manifest  `json:"manifest"`
}

// ThemeListResponse is a list of themes.
type ThemeListResponse struct {
	Data  []ThemeResponse `json:"data"`
	Total int             `json:"total"`
}

// InstallThemeResponse carries the installed theme and manifest warnings.
type InstallThemeResponse struct {
	Theme    ThemeResponse `json:"theme"`
	Warnings []string      `json:"warnings,omitempty"`
}

// DeactivateThemeResponse reports the fallback that became active, if any.
type DeactivateThemeResponse struct {
	Deactivated string         `json:"deactivated"`
	Fallback    *ThemeResponse `json:"fallback"`
}

func themeToResponse(t theme.Theme) ThemeResponse {
	return ThemeResponse{
		ID:              t.ID,
		Slug:            t.Slug,
		Name:            t.Name,
		Description:     t.Description,
		Version:         t.Version,
		Author:          t.Author,
		PreviewImage:    t.PreviewImage,
		Path:            t.Path,
		Features:        t.Features,
		DefaultSettings: t.DefaultSettings.Clone(),
		IsActive:        t.IsActive,
		IsDefault:       t.IsDefault,
		IsSystem:        t.IsSystem,
		InstalledAt:     t.InstalledAt,
		ActivatedAt:     t.ActivatedAt,
		UpdatedAt:       t.UpdatedAt,
		Manifest:        t.Manifest,
	}
}

// ListThemes lists installed themes.
//
//	@Summary		List themes
//	@Description	Active first, then default, then by name
//	@Tags			Themes
//	@Produce		json
//	@Param			active	query		bool	false	"Filter by active state"
//	@Param			default	query		bool	false	"Filter by default flag"
//	@Success		200		{object}	ThemeListResponse
//	@Security		BearerAuth
//	@Router			/admin/themes [get]
func (h *Handler) ListThemes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := theme.Filter{
		Active:  parseBoolQuery(q.Get("active")),
		Default: parseBoolQuery(q.Get("default")),
	}
	themes, err := h.themes.List(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	out := make([]ThemeResponse, 0, len(themes))
	for _, t := range themes {
		out = append(out, themeToResponse(t))
	}
	writeJSON(w, http.StatusOK, ThemeListResponse{Data: out, Total: len(out)})
}

// InstallTheme installs a theme from its descriptor.
//
//	@Summary		Install theme
//	@Tags			Themes
//	@Accept			json
//	@Produce		json
//	@Param			request	body		theme.Descriptor	true	"Theme descriptor with manifest"
//	@Success		201		{object}	InstallThemeResponse
//	@Failure		409		{object}	ErrorResponse	"Already installed"
//	@Failure		422		{object}	ErrorResponse	"Invalid manifest"
//	@Security		BearerAuth
//	@Router			/admin/themes [post]
func (h *Handler) InstallTheme(w http.ResponseWriter, r *http.Request) {
	var d theme.Descriptor
	if !decodeJSON(w, r, &d) {
		return
	}
	t, warnings, err := h.themes.Install(r.Context(), d)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, InstallThemeResponse{Theme: themeToResponse(t), Warnings: warnings})
}

// GetTheme returns one theme.
//
//	@Summary		Get theme
//	@Tags			Themes
//	@Produce		json
//	@Param			slug	path		string	true	"Theme slug"
//	@Success		200		{object}	ThemeResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/themes/{slug} [get]
func (h *Handler) GetTheme(w http.ResponseWriter, r *http.Request) {
	t, err := h.themes.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, themeToResponse(t))
}

// UninstallTheme removes an inactive, non-system theme.
//
//	@Summary		Uninstall theme
//	@Tags			Themes
//	@Param			slug	path	string	true	"Theme slug"
//	@Success		204
//	@Failure		409	{object}	ErrorResponse	"System or active theme"
//	@Security		BearerAuth
//	@Router			/admin/themes/{slug} [delete]
func (h *Handler) UninstallTheme(w http.ResponseWriter, r *http.Request) {
	if err := h.themes.Uninstall(r.Context(), chi.URLParam(r, "slug")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ActivateTheme makes a theme the single active theme.
//
//	@Summary		Activate theme
//	@Tags			Themes
//	@Produce		json
//	@Param			slug	path		string	true	"Theme slug"
//	@Success		200		{object}	ThemeResponse
//	@Security		BearerAuth
//	@Router			/admin/themes/{slug}/activate [post]
func (h *Handler) ActivateTheme(w http.ResponseWriter, r *http.Request) {
	t, err := h.themes.Activate(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, themeToResponse(t))
}

// DeactivateTheme deactivates the active theme, falling back to the default.
//
//	@Summary		Deactivate theme
//	@Tags			Themes
//	@Produce		json
//	@Param			slug	path		string	true	"Theme slug"
//	@Success		200		{object}	DeactivateThemeResponse
//	@Failure		409		{object}	ErrorResponse	"Theme is not active"
//	@Security		BearerAuth
//	@Router			/admin/themes/{slug}/deactivate [post]
func (h *Handler) DeactivateTheme(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	fallback, err := h.themes.Deactivate(r.Context(), slug)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	resp := DeactivateThemeResponse{Deactivated: slug}
	if fallback != nil {
		fr := themeToResponse(*fallback)
		resp.Fallback = &fr
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetThemeSettings returns the theme's resolved settings.
//
//	@Summary		Get theme settings
//	@Tags			Themes
//	@Produce		json
//	@Param			slug	path		string	true	"Theme slug"
//	@Success		200		{object}	SettingsResponse
//	@Security		BearerAuth
//	@Router			/admin/themes/{slug}/settings [get]
func (h *Handler) GetThemeSettings(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	values, err := h.themes.GetSettings(r.Context(), slug)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{Slug: slug, Settings: values})
}

// UpdateThemeSettings upserts overrides.
//
//	@Summary		Update theme settings
//	@Tags			Themes
//	@Accept			json
//	@Produce		json
//	@Param			slug	path		string					true	"Theme slug"
//	@Param			request	body		map[string]interface{}	true	"Settings patch"
//	@Success		200		{object}	SettingsResponse
//	@Security		BearerAuth
//	@Router			/admin/themes/{slug}/settings [put]
func (h *Handler) UpdateThemeSettings(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	var patch settings.Values
	if !decodeJSON(w, r, &patch) {
		return
	}
	values, err := h.themes.UpdateSettings(r.Context(), slug, patch)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{Slug: slug, Settings: values})
}

// ResetThemeSettings drops every override.
//
//	@Summary		Reset theme settings
//	@Tags			Themes
//	@Produce		json
//	@Param			slug	path		string	true	"Theme slug"
//	@Success		200		{object}	SettingsResponse
//	@Security		BearerAuth
//	@Router			/admin/themes/{slug}/settings [delete]
func (h *Handler) ResetThemeSettings(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	values, err := h.themes.ResetSettings(r.Context(), slug)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{Slug: slug, Settings: values})
}

// ThemeTemplates lists the theme's templates.
//
//	@Summary		Theme templates
//	@Tags			Themes
//	@Produce		json
//	@Param			slug	path	string	true	"Theme slug"
//	@Success		200		{array}	theme.Template
//	@Security		BearerAuth
//	@Router			/admin/themes/{slug}/templates [get]
func (h *Handler) ThemeTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.themes.Templates(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if templates == nil {
		templates = []theme.Template{}
	}
	writeJSON(w, http.StatusOK, templates)
}

// ThemeRegions lists the theme's widget regions.
//
//	@Summary		Theme regions
//	@Tags			Themes
//	@Produce		json
//	@Param			slug	path	string	true	"Theme slug"
//	@Success		200		{array}	theme.Region
//	@Security		BearerAuth
//	@Router			/admin/themes/{slug}/regions [get]
func (h *Handler) ThemeRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.themes.Regions(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if regions == nil {
		regions = []theme.Region{}
	}
	writeJSON(w, http.StatusOK, regions)
}

// ExportThemeSettings returns a portable settings export.
//
//	@Summary		Export theme settings
//	@Tags			Themes
//	@Produce		json
//	@Param			slug	path		string	true	"Theme slug"
//	@Success		200		{object}	settings.Export
//	@Security		BearerAuth
//	@Router			/admin/themes/{slug}/export [get]
func (h *Handler) ExportThemeSettings(w http.ResponseWriter, r *http.Request) {
	export, err := h.themes.ExportSettings(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, export)
}

// ImportThemeSettings applies an export's settings as overrides.
//
//	@Summary		Import theme settings
//	@Tags			Themes
//	@Accept			json
//	@Produce		json
//	@Param			slug	path		string			true	"Theme slug"
//	@Param			request	body		settings.Export	true	"Settings export"
//	@Success		200		{object}	SettingsResponse
//	@Security		BearerAuth
//	@Router			/admin/themes/{slug}/import [post]
func (h *Handler) ImportThemeSettings(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	var export settings.Export
	if !decodeJSON(w, r, &export) {
		return
	}
	values, err := h.themes.ImportSettings(r.Context(), slug, export)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{Slug: slug, Settings: values})
}
