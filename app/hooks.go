package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/artpar/cmscore/domain/cmserr"
	"github.com/artpar/cmscore/domain/hook"
	"github.com/artpar/cmscore/ports"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// HookRegistry holds the durable listener table and the in-memory chains
// used for dispatch.
type HookRegistry struct {
	store    ports.HookStore
	handlers *HandlerRegistry
	logger   zerolog.Logger
	obs      Observability
	timeout  time.Duration
	clock    ports.Clock

	mu     sync.RWMutex
	chains map[string]hook.Chain
	gate   func(module string) bool
}

// HookRegistryConfig contains configuration for HookRegistry.
type HookRegistryConfig struct {
	// ListenerTimeout bounds each handler's context. Zero means no bound.
	ListenerTimeout time.Duration
	Observability   Observability
	// Clock stamps listener rows. Nil uses the system clock.
	Clock ports.Clock
}

// ListenerSpec describes a registration. Nil Priority means
// hook.DefaultPriority; nil Enabled means true.
type ListenerSpec struct {
	Hook     string `json:"hook"`
	Module   string `json:"module"`
	Handler  string `json:"handler"`
	Priority *int   `json:"priority,omitempty"`
	Enabled  *bool  `json:"enabled,omitempty"`
}

// ListenerPatch is a partial listener update.
type ListenerPatch struct {
	Priority *int  `json:"priority,omitempty"`
	Enabled  *bool `json:"enabled,omitempty"`
}

// NewHookRegistry creates a hook registry. Call Initialize before dispatching.
func NewHookRegistry(store ports.HookStore, handlers *HandlerRegistry, logger zerolog.Logger, cfg HookRegistryConfig) *HookRegistry {
	r := &HookRegistry{
		store:    store,
		handlers: handlers,
		logger:   logger.With().Str("service", "hooks").Logger(),
		obs:      cfg.Observability.withDefaults(),
		timeout:  cfg.ListenerTimeout,
		clock:    cfg.Clock,
		chains:   make(map[string]hook.Chain),
	}
	if r.clock == nil {
		r.clock = systemClock{}
	}
	return r
}

// SetModuleGate installs the predicate that decides whether a module's
// listeners may sit in the chains. Listeners of modules the gate rejects
// are persisted but stay out of dispatch until LoadModule.
func (r *HookRegistry) SetModuleGate(admit func(module string) bool) {
	r.mu.Lock()
	r.gate = admit
	r.mu.Unlock()
}

func (r *HookRegistry) admits(module string) bool {
	r.mu.RLock()
	gate := r.gate
	r.mu.RUnlock()
	return gate == nil || gate(module)
}

// Initialize rebuilds the in-memory chains from every enabled listener.
// A store without schema is a fresh install and leaves the chains empty.
func (r *HookRegistry) Initialize(ctx context.Context) error {
	listeners, err := r.store.ListEnabledListeners(ctx)
	if errors.Is(err, ports.ErrNoSchema) {
		r.logger.Warn().Err(err).Msg("hook tables missing, starting with no listeners")
		r.replaceChains(map[string]hook.Chain{})
		return nil
	}
	if err != nil {
		return fmt.Errorf("load listeners: %w", err)
	}

	chains := make(map[string]hook.Chain)
	for _, l := range listeners {
		chains[l.HookName] = chains[l.HookName].Upsert(l.Entry())
	}
	r.replaceChains(chains)

	r.logger.Info().Int("hooks", len(chains)).Int("listeners", len(listeners)).Msg("hook registry initialized")
	return nil
}

func (r *HookRegistry) replaceChains(chains map[string]hook.Chain) {
	r.mu.Lock()
	r.chains = chains
	n := len(chains)
	r.mu.Unlock()
	r.obs.Metrics.SetHooksRegistered(n)
}

// CreateHook stores a new hook without listeners.
func (r *HookRegistry) CreateHook(ctx context.Context, name, description string) (hook.Hook, error) {
	const op = "hooks.create"
	if name == "" {
		return hook.Hook{}, cmserr.InvalidManifest(op, []string{"missing hook name"})
	}
	if err := r.store.CreateHook(ctx, hook.Hook{Name: name, Description: description, CreatedAt: r.clock.Now()}); err != nil {
		return hook.Hook{}, storeErr(op, "hook "+name, err)
	}
	return r.GetHook(ctx, name)
}

// GetHook returns a hook with its persisted listeners.
func (r *HookRegistry) GetHook(ctx context.Context, name string) (hook.Hook, error) {
	h, err := r.store.GetHook(ctx, name)
	if err != nil {
		return hook.Hook{}, storeErr("hooks.get", "hook "+name, err)
	}
	return h, nil
}

// ListHooks returns every persisted hook ordered by name.
func (r *HookRegistry) ListHooks(ctx context.Context) ([]hook.Hook, error) {
	hooks, err := r.store.ListHooks(ctx)
	if err != nil {
		return nil, storeErr("hooks.list", "hooks", err)
	}
	return hooks, nil
}

// RegisterListener ensures the hook exists, upserts the (hook, module)
// listener and, when enabled, puts it in the in-memory chain.
func (r *HookRegistry) RegisterListener(ctx context.Context, spec ListenerSpec) (hook.Listener, error) {
	l, err := r.persist(ctx, "hooks.register", spec)
	if err != nil {
		return hook.Listener{}, err
	}
	r.apply(l)

	r.logger.Debug().
		Str("hook", l.HookName).
		Str("module", l.ModuleSlug).
		Int("priority", l.Priority).
		Bool("enabled", l.Enabled).
		Msg("listener registered")
	return l, nil
}

// persist writes the listener row without touching the chains.
func (r *HookRegistry) persist(ctx context.Context, op string, spec ListenerSpec) (hook.Listener, error) {
	var problems []string
	if spec.Hook == "" {
		problems = append(problems, "missing hook name")
	}
	if spec.Module == "" {
		problems = append(problems, "missing module")
	}
	if spec.Handler == "" {
		problems = append(problems, "missing handler")
	}
	if len(problems) > 0 {
		return hook.Listener{}, cmserr.InvalidManifest(op, problems)
	}

	priority := hook.DefaultPriority
	if spec.Priority != nil {
		priority = *spec.Priority
	}
	enabled := true
	if spec.Enabled != nil {
		enabled = *spec.Enabled
	}

	h, err := r.store.EnsureHook(ctx, hook.Hook{Name: spec.Hook, CreatedAt: r.clock.Now()})
	if err != nil {
		return hook.Listener{}, storeErr(op, "hook "+spec.Hook, err)
	}

	now := r.clock.Now()
	l, err := r.store.UpsertListener(ctx, hook.Listener{
		HookID:     h.ID,
		HookName:   h.Name,
		ModuleSlug: spec.Module,
		HandlerRef: spec.Handler,
		Priority:   priority,
		Enabled:    enabled,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return hook.Listener{}, storeErr(op, "listener "+spec.Hook+"/"+spec.Module, err)
	}
	return l, nil
}

// apply mirrors one persisted listener into its chain. Disabled rows and
// rows of modules the gate rejects are kept out.
func (r *HookRegistry) apply(l hook.Listener) {
	active := l.Enabled && r.admits(l.ModuleSlug)

	r.mu.Lock()
	if active {
		r.chains[l.HookName] = r.chains[l.HookName].Upsert(l.Entry())
	} else {
		r.dropLocked(l.HookName, l.ModuleSlug)
	}
	n := len(r.chains)
	r.mu.Unlock()
	r.obs.Metrics.SetHooksRegistered(n)
}

func (r *HookRegistry) dropLocked(hookName, module string) {
	c, ok := r.chains[hookName]
	if !ok {
		return
	}
	c = c.Without(module)
	if len(c) == 0 {
		delete(r.chains, hookName)
		return
	}
	r.chains[hookName] = c
}

// UpdateListener changes a listener's priority or enabled state.
func (r *HookRegistry) UpdateListener(ctx context.Context, id string, patch ListenerPatch) (hook.Listener, error) {
	const op = "hooks.update_listener"

	l, err := r.store.GetListener(ctx, id)
	if err != nil {
		return hook.Listener{}, storeErr(op, "listener "+id, err)
	}

	changed := false
	if patch.Priority != nil && *patch.Priority != l.Priority {
		l.Priority = *patch.Priority
		changed = true
	}
	if patch.Enabled != nil && *patch.Enabled != l.Enabled {
		l.Enabled = *patch.Enabled
		changed = true
	}
	if !changed {
		return l, nil
	}

	l.UpdatedAt = r.clock.Now()
	if err := r.store.UpdateListener(ctx, l); err != nil {
		return hook.Listener{}, storeErr(op, "listener "+id, err)
	}
	r.apply(l)
	return l, nil
}

// RemoveListener deletes the (hook, module) listener.
func (r *HookRegistry) RemoveListener(ctx context.Context, hookName, module string) error {
	if err := r.store.DeleteListener(ctx, hookName, module); err != nil {
		return storeErr("hooks.remove_listener", "listener "+hookName+"/"+module, err)
	}

	r.mu.Lock()
	r.dropLocked(hookName, module)
	n := len(r.chains)
	r.mu.Unlock()
	r.obs.Metrics.SetHooksRegistered(n)
	return nil
}

// DeleteHook deletes a hook and all of its listeners. System hooks are kept.
func (r *HookRegistry) DeleteHook(ctx context.Context, name string) error {
	const op = "hooks.delete"

	h, err := r.store.GetHook(ctx, name)
	if err != nil {
		return storeErr(op, "hook "+name, err)
	}
	if h.IsSystem {
		return cmserr.InvariantViolation(op, "hook %s is a system hook", name)
	}
	if err := r.store.DeleteHook(ctx, name); err != nil {
		return storeErr(op, "hook "+name, err)
	}

	r.mu.Lock()
	delete(r.chains, name)
	n := len(r.chains)
	r.mu.Unlock()
	r.obs.Metrics.SetHooksRegistered(n)
	return nil
}

// LoadModule puts every enabled persisted listener of a module into the chains.
func (r *HookRegistry) LoadModule(ctx context.Context, module string) error {
	listeners, err := r.store.ListListenersByModule(ctx, module)
	if err != nil {
		return fmt.Errorf("load listeners of %s: %w", module, err)
	}

	r.mu.Lock()
	for _, l := range listeners {
		if l.Enabled {
			r.chains[l.HookName] = r.chains[l.HookName].Upsert(l.Entry())
		}
	}
	n := len(r.chains)
	r.mu.Unlock()
	r.obs.Metrics.SetHooksRegistered(n)
	return nil
}

// UnloadModule purges a module from every in-memory chain. Persisted rows
// are left intact.
func (r *HookRegistry) UnloadModule(module string) {
	r.mu.Lock()
	for name, c := range r.chains {
		if c.Has(module) {
			r.dropLocked(name, module)
		}
	}
	n := len(r.chains)
	r.mu.Unlock()
	r.obs.Metrics.SetHooksRegistered(n)
}

// purgeModule deletes a module's listener rows and chain entries.
func (r *HookRegistry) purgeModule(ctx context.Context, module string) error {
	if err := r.store.DeleteListenersByModule(ctx, module); err != nil {
		return fmt.Errorf("delete listeners of %s: %w", module, err)
	}
	r.UnloadModule(module)
	return nil
}

// moduleListeners returns a module's persisted listeners.
func (r *HookRegistry) moduleListeners(ctx context.Context, module string) ([]hook.Listener, error) {
	return r.store.ListListenersByModule(ctx, module)
}

// RegisteredHooks returns the names with at least one in-memory listener.
func (r *HookRegistry) RegisteredHooks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.chains))
	for name := range r.chains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handlers returns a copy of the in-memory chain of a hook.
func (r *HookRegistry) Handlers(name string) []hook.Entry {
	c := r.chain(name)
	out := make([]hook.Entry, len(c))
	copy(out, c)
	return out
}

// HasHandlers reports whether a hook has any in-memory listener.
func (r *HookRegistry) HasHandlers(name string) bool {
	return len(r.chain(name)) > 0
}

func (r *HookRegistry) chain(name string) hook.Chain {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.chains[name]
}

// DispatchFilter folds payload through the hook's chain. A failing listener
// is logged and skipped: its input passes to the next listener unchanged.
func (r *HookRegistry) DispatchFilter(ctx context.Context, name string, payload any) any {
	return r.dispatch(ctx, name, hook.ModeFilter, payload)
}

// DispatchAction notifies every listener of the hook in order. Failures are
// logged and do not stop the chain.
func (r *HookRegistry) DispatchAction(ctx context.Context, name string, payload any) {
	r.dispatch(ctx, name, hook.ModeAction, payload)
}

func (r *HookRegistry) dispatch(ctx context.Context, name string, mode hook.Mode, payload any) any {
	// Chains are copy-on-write, so the snapshot is safe to iterate unlocked.
	c := r.chain(name)
	if len(c) == 0 {
		return payload
	}

	ctx, span := r.obs.Tracer.Start(ctx, "hook.dispatch", trace.WithAttributes(
		attribute.String(attrHookName, name),
		attribute.String(attrHookMode, string(mode)),
		attribute.Int(attrListenerCount, len(c)),
	))
	defer span.End()
	start := time.Now()

	for _, e := range c {
		out, err := r.invoke(ctx, name, mode, e, payload)
		if err != nil {
			r.obs.Metrics.ListenerFailed(name, e.Module)
			span.AddEvent("listener.failed", trace.WithAttributes(
				attribute.String(attrModuleSlug, e.Module),
				attribute.String("error.message", err.Error()),
			))
			r.logger.Error().Err(err).
				Str("hook", name).
				Str("module", e.Module).
				Str("handler", e.Handler).
				Str("mode", string(mode)).
				Msg("listener failed")
			continue
		}
		if mode == hook.ModeFilter {
			payload = out
		}
	}

	r.obs.Metrics.ObserveDispatch(name, string(mode), time.Since(start))
	return payload
}

// invoke runs one listener, turning panics and context expiry into errors.
func (r *HookRegistry) invoke(ctx context.Context, name string, mode hook.Mode, e hook.Entry, payload any) (out any, err error) {
	h, _ := r.handlers.Resolve(e.Module, e.Handler)

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			out, err = nil, fmt.Errorf("listener panicked: %v", p)
		}
	}()

	out, err = h(ctx, Invocation{Hook: name, Module: e.Module, Handler: e.Handler, Mode: mode, Payload: payload})
	if err == nil && r.timeout > 0 && ctx.Err() != nil {
		err = fmt.Errorf("listener exceeded %s: %w", r.timeout, ctx.Err())
	}
	return out, err
}
