package admin

import (
	"net/http"
	"time"

	"github.com/artpar/cmscore/app"
	"github.com/artpar/cmscore/domain/hook"
	"github.com/go-chi/chi/v5"
)

// HookResponse is the API representation of a hook.
type HookResponse struct {
	ID          string             `json:"id"`
	Name        string             `json:"name" example:"article.afterPublish"`
	Description string             `json:"description,omitempty"`
	IsSystem    bool               `json:"isSystem"`
	CreatedAt   time.Time          `json:"createdAt"`
	Listeners   []ListenerResponse `json:"listeners"`
}

// ListenerResponse is the API representation of a listener.
type ListenerResponse struct {
	ID        string    `json:"id"`
	Hook      string    `json:"hook"`
	Module    string    `json:"module" example:"breaking-news"`
	Handler   string    `json:"handler" example:"notify"`
	Priority  int       `json:"priority" example:"10"`
	Enabled   bool      `json:"enabled"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HookListResponse is a list of hooks.
type HookListResponse struct {
	Data  []HookResponse `json:"data"`
	Total int            `json:"total"`
}

// CreateHookRequest creates a custom hook.
type CreateHookRequest struct {
	Name        string `json:"name" example:"newsletter.beforeSend"`
	Description string `json:"description,omitempty"`
}

// RegisteredHook is one hook with its in-memory chain.
type RegisteredHook struct {
	Name     string       `json:"name"`
	Handlers []hook.Entry `json:"handlers"`
}

// RegisteredHooksResponse lists hooks with at least one dispatchable listener.
type RegisteredHooksResponse struct {
	Data  []RegisteredHook `json:"data"`
	Total int              `json:"total"`
}

func listenerToResponse(l hook.Listener) ListenerResponse {
	return ListenerResponse{
		ID:        l.ID,
		Hook:      l.HookName,
		Module:    l.ModuleSlug,
		Handler:   l.HandlerRef,
		Priority:  l.Priority,
		Enabled:   l.Enabled,
		UpdatedAt: l.UpdatedAt,
	}
}

func hookToResponse(h hook.Hook) HookResponse {
	listeners := make([]ListenerResponse, 0, len(h.Listeners))
	for _, l := range h.Listeners {
		listeners = append(listeners, listenerToResponse(l))
	}
	return HookResponse{
		ID:          h.ID,
		Name:        h.Name,
		Description: h.Description,
		IsSystem:    h.IsSystem,
		CreatedAt:   h.CreatedAt,
		Listeners:   listeners,
	}
}

// ListHooks lists persisted hooks with their listeners.
//
//	@Summary		List hooks
//	@Tags			Hooks
//	@Produce		json
//	@Success		200	{object}	HookListResponse
//	@Security		BearerAuth
//	@Router			/admin/hooks [get]
func (h *Handler) ListHooks(w http.ResponseWriter, r *http.Request) {
	hooks, err := h.hooks.ListHooks(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	out := make([]HookResponse, 0, len(hooks))
	for _, hk := range hooks {
		out = append(out, hookToResponse(hk))
	}
	writeJSON(w, http.StatusOK, HookListResponse{Data: out, Total: len(out)})
}

// CreateHook creates a custom hook.
//
//	@Summary		Create hook
//	@Tags			Hooks
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateHookRequest	true	"Hook"
//	@Success		201		{object}	HookResponse
//	@Failure		409		{object}	ErrorResponse	"Hook exists"
//	@Security		BearerAuth
//	@Router			/admin/hooks [post]
func (h *Handler) CreateHook(w http.ResponseWriter, r *http.Request) {
	var req CreateHookRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	hk, err := h.hooks.CreateHook(r.Context(), req.Name, req.Description)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, hookToResponse(hk))
}

// GetHook returns one hook with its listeners.
//
//	@Summary		Get hook
//	@Tags			Hooks
//	@Produce		json
//	@Param			name	path		string	true	"Hook name"
//	@Success		200		{object}	HookResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/hooks/{name} [get]
func (h *Handler) GetHook(w http.ResponseWriter, r *http.Request) {
	hk, err := h.hooks.GetHook(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hookToResponse(hk))
}

// DeleteHook deletes a custom hook and its listeners.
//
//	@Summary		Delete hook
//	@Tags			Hooks
//	@Param			name	path	string	true	"Hook name"
//	@Success		204
//	@Failure		409	{object}	ErrorResponse	"System hook"
//	@Security		BearerAuth
//	@Router			/admin/hooks/{name} [delete]
func (h *Handler) DeleteHook(w http.ResponseWriter, r *http.Request) {
	if err := h.hooks.DeleteHook(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RegisterListener registers or replaces a module's listener on a hook.
//
//	@Summary		Register listener
//	@Tags			Hooks
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string				true	"Hook name"
//	@Param			request	body		app.ListenerSpec	true	"Listener; hook is taken from the path"
//	@Success		201		{object}	ListenerResponse
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/hooks/{name}/listeners [post]
func (h *Handler) RegisterListener(w http.ResponseWriter, r *http.Request) {
	var spec app.ListenerSpec
	if !decodeJSON(w, r, &spec) {
		return
	}
	spec.Hook = chi.URLParam(r, "name")
	l, err := h.hooks.RegisterListener(r.Context(), spec)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, listenerToResponse(l))
}

// RemoveListener removes a module's listener from a hook.
//
//	@Summary		Remove listener
//	@Tags			Hooks
//	@Param			name	path	string	true	"Hook name"
//	@Param			module	path	string	true	"Module slug"
//	@Success		204
//	@Security		BearerAuth
//	@Router			/admin/hooks/{name}/listeners/{module} [delete]
func (h *Handler) RemoveListener(w http.ResponseWriter, r *http.Request) {
	if err := h.hooks.RemoveListener(r.Context(), chi.URLParam(r, "name"), chi.URLParam(r, "module")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateListener changes a listener's priority or enabled flag.
//
//	@Summary		Update listener
//	@Tags			Hooks
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Listener ID"
//	@Param			request	body		app.ListenerPatch	true	"Patch"
//	@Success		200		{object}	ListenerResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/listeners/{id} [patch]
func (h *Handler) UpdateListener(w http.ResponseWriter, r *http.Request) {
	var patch app.ListenerPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	l, err := h.hooks.UpdateListener(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listenerToResponse(l))
}
