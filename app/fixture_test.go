package app_test

import (
	"context"
	"sync"
	"time"

	"github.com/artpar/cmscore/adapters/clock"
	"github.com/artpar/cmscore/adapters/idgen"
	"github.com/artpar/cmscore/adapters/memory"
	"github.com/artpar/cmscore/app"
	"github.com/rs/zerolog"
)

type fixture struct {
	hookStore   *memory.HookStore
	moduleStore *memory.ModuleStore
	themeStore  *memory.ThemeStore
	perms       *memory.PermissionStore
	clock       *clock.Fake

	handlers *app.HandlerRegistry
	hooks    *app.HookRegistry
	modules  *app.ModuleManager
	themes   *app.ThemeManager
}

func newFixture(obs app.Observability) *fixture {
	f := &fixture{
		hookStore:   memory.NewHookStore(),
		moduleStore: memory.NewModuleStore(),
		themeStore:  memory.NewThemeStore(),
		perms:       memory.NewPermissionStore(),
		clock:       clock.NewStepping(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Second),
	}
	ids := idgen.NewSequential("id")
	logger := zerolog.Nop()

	f.handlers = app.NewHandlerRegistry(logger)
	f.hooks = app.NewHookRegistry(f.hookStore, f.handlers, logger, app.HookRegistryConfig{Clock: f.clock, Observability: obs})
	f.modules = app.NewModuleManager(f.moduleStore, f.perms, f.hooks, ids, f.clock, logger, app.ModuleManagerConfig{Observability: obs})
	f.themes = app.NewThemeManager(f.themeStore, ids, f.clock, logger, app.ThemeManagerConfig{CacheTTL: time.Minute, Observability: obs})
	return f
}

// recorder counts handler invocations per module.
type recorder struct {
	mu    sync.Mutex
	calls []app.Invocation
}

func (r *recorder) handle(_ context.Context, inv app.Invocation) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, inv)
	return inv.Payload, nil
}

func (r *recorder) modules() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.Module
	}
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }
