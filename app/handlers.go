// Package app provides the extensibility services: hook dispatch, module
// lifecycle and theme management.
package app

import (
	"context"
	"sort"
	"sync"

	"github.com/artpar/cmscore/domain/hook"
	"github.com/rs/zerolog"
)

// Invocation is what a handler receives for one listener call.
type Invocation struct {
	Hook    string
	Module  string
	Handler string
	Mode    hook.Mode
	Payload any
}

// Handler is in-process code bound to a listener's handler reference.
// Filter handlers return the transformed payload; action handlers' results
// are discarded.
type Handler func(ctx context.Context, inv Invocation) (any, error)

// HandlerRegistry resolves handler references to Handlers. References are
// looked up as "<module>:<handler>" first, then as "<handler>".
// Unresolved references fall back to a passthrough that returns its input.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	logger   zerolog.Logger
}

// NewHandlerRegistry creates an empty handler registry.
func NewHandlerRegistry(logger zerolog.Logger) *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[string]Handler),
		logger:   logger.With().Str("service", "handlers").Logger(),
	}
}

// Register binds name to h, replacing any previous binding. Use
// "<module>:<handler>" to scope a handler to one module.
func (r *HandlerRegistry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Has reports whether name is bound.
func (r *HandlerRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[name]
	return ok
}

// List returns the bound names, sorted.
func (r *HandlerRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the handler for a module's reference. The second result
// is false when the passthrough fallback was returned.
func (r *HandlerRegistry) Resolve(module, ref string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if h, ok := r.handlers[module+":"+ref]; ok {
		return h, true
	}
	if h, ok := r.handlers[ref]; ok {
		return h, true
	}
	return r.passthrough, false
}

func (r *HandlerRegistry) passthrough(ctx context.Context, inv Invocation) (any, error) {
	r.logger.Debug().
		Str("hook", inv.Hook).
		Str("module", inv.Module).
		Str("handler", inv.Handler).
		Msg("no handler bound, passing payload through")
	return inv.Payload, nil
}
