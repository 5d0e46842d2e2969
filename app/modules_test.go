package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/artpar/cmscore/adapters/clock"
	"github.com/artpar/cmscore/adapters/idgen"
	"github.com/artpar/cmscore/adapters/memory"
	"github.com/artpar/cmscore/app"
	"github.com/artpar/cmscore/domain/cmserr"
	"github.com/artpar/cmscore/domain/hook"
	"github.com/artpar/cmscore/domain/module"
	"github.com/artpar/cmscore/domain/settings"
	"github.com/artpar/cmscore/ports"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func moduleDescriptor(slug string, deps ...string) module.Descriptor {
	return module.Descriptor{
		Slug:         slug,
		Name:         slug,
		Version:      "1.0.0",
		Type:         module.TypeExtension,
		Dependencies: deps,
		Manifest: module.Manifest{
			ID:      slug,
			Name:    slug,
			Version: "1.0.0",
			Type:    module.TypeExtension,
		},
	}
}

func install(t require.TestingT, f *fixture, d module.Descriptor) module.Module {
	m, err := f.modules.Install(context.Background(), d)
	require.NoError(t, err)
	return m
}

func TestModuleManager_BreakingNewsScenario(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()
	require.NoError(t, f.hooks.Initialize(ctx))
	require.NoError(t, f.modules.Initialize(ctx))

	rec := &recorder{}
	f.handlers.Register("notify", rec.handle)

	d := moduleDescriptor("breaking-news")
	d.Manifest.Hooks = []module.HookBinding{{Name: hook.ArticleAfterPublish, Handler: "notify", Priority: intPtr(5)}}
	install(t, f, d)

	// Installed but disabled: no dispatch.
	f.hooks.DispatchAction(ctx, hook.ArticleAfterPublish, map[string]any{"id": "a1"})
	require.Equal(t, 0, rec.count())

	_, err := f.modules.Enable(ctx, "breaking-news")
	require.NoError(t, err)
	f.hooks.DispatchAction(ctx, hook.ArticleAfterPublish, map[string]any{"id": "a1"})
	require.Equal(t, 1, rec.count())
	require.Equal(t, map[string]any{"id": "a1"}, rec.calls[0].Payload)
	require.Equal(t, 5, f.hooks.Handlers(hook.ArticleAfterPublish)[0].Priority)

	_, err = f.modules.Disable(ctx, "breaking-news")
	require.NoError(t, err)
	f.hooks.DispatchAction(ctx, hook.ArticleAfterPublish, map[string]any{"id": "a1"})
	require.Equal(t, 1, rec.count())

	// The listener row survives disable.
	h, err := f.hooks.GetHook(ctx, hook.ArticleAfterPublish)
	require.NoError(t, err)
	require.Len(t, h.Listeners, 1)
}

func TestModuleManager_DisabledModuleListenerStaysOutOfDispatch(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()

	rec := &recorder{}
	f.handlers.Register("notify", rec.handle)

	d := moduleDescriptor("breaking-news")
	d.Manifest.Hooks = []module.HookBinding{{Name: hook.ArticleAfterPublish, Handler: "notify", Priority: intPtr(5)}}
	install(t, f, d)
	_, err := f.modules.Enable(ctx, "breaking-news")
	require.NoError(t, err)
	_, err = f.modules.Disable(ctx, "breaking-news")
	require.NoError(t, err)

	listeners, err := f.hookStore.ListListenersByModule(ctx, "breaking-news")
	require.NoError(t, err)
	require.Len(t, listeners, 1)

	l, err := f.hooks.UpdateListener(ctx, listeners[0].ID, app.ListenerPatch{Priority: intPtr(1)})
	require.NoError(t, err)
	require.Equal(t, 1, l.Priority)
	f.hooks.DispatchAction(ctx, hook.ArticleAfterPublish, map[string]any{"id": "a1"})
	require.Equal(t, 0, rec.count())
	require.False(t, f.hooks.HasHandlers(hook.ArticleAfterPublish))

	_, err = f.hooks.RegisterListener(ctx, app.ListenerSpec{Hook: hook.ArticleAfterUpdate, Module: "breaking-news", Handler: "notify"})
	require.NoError(t, err)
	require.False(t, f.hooks.HasHandlers(hook.ArticleAfterUpdate))

	// Listeners of names that are not installed modules still dispatch.
	_, err = f.hooks.RegisterListener(ctx, app.ListenerSpec{Hook: hook.ArticleAfterUpdate, Module: "theme:default", Handler: "notify"})
	require.NoError(t, err)
	require.Equal(t, []string{"theme:default"}, entryModules(f.hooks.Handlers(hook.ArticleAfterUpdate)))

	_, err = f.modules.Enable(ctx, "breaking-news")
	require.NoError(t, err)
	f.hooks.DispatchAction(ctx, hook.ArticleAfterPublish, map[string]any{"id": "a1"})
	require.Equal(t, 1, rec.count())
	require.Equal(t, 1, f.hooks.Handlers(hook.ArticleAfterPublish)[0].Priority)
	require.ElementsMatch(t, []string{"breaking-news", "theme:default"}, entryModules(f.hooks.Handlers(hook.ArticleAfterUpdate)))
}

func entryModules(entries []hook.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Module
	}
	return out
}

// staleModuleStore reports hidden as missing, like a reader that lost a
// race with a concurrent install of the same slug.
type staleModuleStore struct {
	*memory.ModuleStore
	hidden string
}

func (s *staleModuleStore) Get(ctx context.Context, slug string) (module.Module, error) {
	if slug == s.hidden {
		return module.Module{}, ports.ErrNotFound
	}
	return s.ModuleStore.Get(ctx, slug)
}

// brokenHookStore fails listener writes on one hook name.
type brokenHookStore struct {
	*memory.HookStore
	broken string
}

func (s *brokenHookStore) UpsertListener(ctx context.Context, l hook.Listener) (hook.Listener, error) {
	if l.HookName == s.broken {
		return hook.Listener{}, errors.New("disk full")
	}
	return s.HookStore.UpsertListener(ctx, l)
}

func newModuleManager(store ports.ModuleStore, perms ports.PermissionStore, hookStore ports.HookStore) *app.ModuleManager {
	logger := zerolog.Nop()
	clk := clock.NewStepping(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)
	hooks := app.NewHookRegistry(hookStore, app.NewHandlerRegistry(logger), logger, app.HookRegistryConfig{Clock: clk})
	return app.NewModuleManager(store, perms, hooks, idgen.NewSequential("id"), clk, logger, app.ModuleManagerConfig{})
}

func TestModuleManager_DuplicateInstallKeepsDependencies(t *testing.T) {
	ctx := context.Background()
	store := &staleModuleStore{ModuleStore: memory.NewModuleStore()}
	mm := newModuleManager(store, memory.NewPermissionStore(), memory.NewHookStore())

	_, err := mm.Install(ctx, moduleDescriptor("articles"))
	require.NoError(t, err)
	_, err = mm.Install(ctx, moduleDescriptor("seo", "articles"))
	require.NoError(t, err)

	store.hidden = "seo"
	_, err = mm.Install(ctx, moduleDescriptor("seo"))
	require.ErrorIs(t, err, cmserr.ErrConflict)
	store.hidden = ""

	require.Equal(t, []string{"seo"}, mm.Dependents("articles"))
	for _, slug := range []string{"articles", "seo"} {
		_, err := mm.Enable(ctx, slug)
		require.NoError(t, err)
	}
	_, err = mm.Disable(ctx, "articles")
	require.ErrorIs(t, err, cmserr.ErrDependencyViolation)
}

func TestModuleManager_InstallRollsBackPartialWrites(t *testing.T) {
	ctx := context.Background()
	store := memory.NewModuleStore()
	perms := memory.NewPermissionStore()
	hookStore := &brokenHookStore{HookStore: memory.NewHookStore(), broken: hook.ArticleAfterUpdate}
	mm := newModuleManager(store, perms, hookStore)

	_, err := mm.Install(ctx, moduleDescriptor("articles"))
	require.NoError(t, err)

	d := moduleDescriptor("analytics", "articles")
	d.Manifest.Provides.Permissions = []module.Permission{{Name: "analytics.view", DisplayName: "View analytics", Action: "view"}}
	d.Manifest.Hooks = []module.HookBinding{
		{Name: hook.ArticleAfterPublish, Handler: "track"},
		{Name: hook.ArticleAfterUpdate, Handler: "track"},
	}
	_, err = mm.Install(ctx, d)
	require.Error(t, err)

	_, err = store.Get(ctx, "analytics")
	require.ErrorIs(t, err, ports.ErrNotFound)
	listeners, err := hookStore.ListListenersByModule(ctx, "analytics")
	require.NoError(t, err)
	require.Empty(t, listeners)
	granted, err := perms.ListByModule(ctx, "analytics")
	require.NoError(t, err)
	require.Empty(t, granted)
	require.Empty(t, mm.Dependents("articles"))

	hookStore.broken = ""
	_, err = mm.Install(ctx, d)
	require.NoError(t, err)
	require.Equal(t, []string{"analytics"}, mm.Dependents("articles"))
}

func TestModuleManager_EnableRequiresEnabledDependencies(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()

	install(t, f, moduleDescriptor("articles"))
	install(t, f, moduleDescriptor("seo", "articles"))

	_, err := f.modules.Enable(ctx, "seo")
	require.ErrorIs(t, err, cmserr.ErrDependencyViolation)
	require.Equal(t, []string{"articles"}, cmserr.NamesOf(err))

	m, err := f.modules.Get(ctx, "seo")
	require.NoError(t, err)
	require.False(t, m.IsEnabled)
	require.False(t, f.modules.IsLoaded("seo"))

	_, err = f.modules.Enable(ctx, "articles")
	require.NoError(t, err)
	m, err = f.modules.Enable(ctx, "seo")
	require.NoError(t, err)
	require.True(t, m.IsEnabled)
	require.NotNil(t, m.EnabledAt)
	require.Equal(t, []string{"articles", "seo"}, f.modules.LoadedSlugs())
}

func TestModuleManager_DisableBlockedByEnabledDependents(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()

	install(t, f, moduleDescriptor("articles"))
	install(t, f, moduleDescriptor("seo", "articles"))
	install(t, f, moduleDescriptor("sitemap", "articles"))
	for _, slug := range []string{"articles", "seo"} {
		_, err := f.modules.Enable(ctx, slug)
		require.NoError(t, err)
	}

	_, err := f.modules.Disable(ctx, "articles")
	require.ErrorIs(t, err, cmserr.ErrDependencyViolation)
	require.Equal(t, []string{"seo"}, cmserr.NamesOf(err))

	_, err = f.modules.Disable(ctx, "seo")
	require.NoError(t, err)
	m, err := f.modules.Disable(ctx, "articles")
	require.NoError(t, err)
	require.False(t, m.IsEnabled)
	require.Empty(t, f.modules.LoadedSlugs())
}

// Enable fails iff some dependency is disabled.
func TestModuleManager_EnableDependencyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := newFixture(app.Observability{})
		ctx := context.Background()

		deps := []string{"d0", "d1", "d2"}
		anyDisabled := false
		for _, d := range deps {
			install(t, f, moduleDescriptor(d))
			if rapid.Bool().Draw(t, "enable "+d) {
				_, err := f.modules.Enable(ctx, d)
				require.NoError(t, err)
			} else {
				anyDisabled = true
			}
		}
		install(t, f, moduleDescriptor("target", deps...))

		_, err := f.modules.Enable(ctx, "target")
		if anyDisabled {
			require.ErrorIs(t, err, cmserr.ErrDependencyViolation)
			m, getErr := f.modules.Get(ctx, "target")
			require.NoError(t, getErr)
			require.False(t, m.IsEnabled)
		} else {
			require.NoError(t, err)
		}
	})
}

func TestModuleManager_InstallValidation(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()

	_, err := f.modules.Install(ctx, module.Descriptor{Manifest: module.Manifest{ID: "x"}})
	require.ErrorIs(t, err, cmserr.ErrInvalidManifest)
	require.Contains(t, cmserr.NamesOf(err), "missing module name")
	require.Contains(t, cmserr.NamesOf(err), "missing module version")

	install(t, f, moduleDescriptor("articles"))
	_, err = f.modules.Install(ctx, moduleDescriptor("articles"))
	require.ErrorIs(t, err, cmserr.ErrConflict)

	_, err = f.modules.Install(ctx, moduleDescriptor("seo", "missing", "articles"))
	require.ErrorIs(t, err, cmserr.ErrDependencyViolation)
	require.Equal(t, []string{"missing"}, cmserr.NamesOf(err))

	_, err = f.modules.Install(ctx, moduleDescriptor("self", "self"))
	require.Error(t, err)
}

func TestModuleManager_InstallRegistersPermissions(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()

	d := moduleDescriptor("analytics")
	d.Manifest.Provides.Permissions = []module.Permission{
		{Name: "analytics.view", DisplayName: "View analytics", Action: "view"},
		{Name: "analytics.export", DisplayName: "Export analytics", Action: "export"},
	}
	install(t, f, d)

	perms, err := f.modules.Permissions(ctx, "analytics")
	require.NoError(t, err)
	require.Len(t, perms, 2)
	require.Equal(t, "export", perms[0].Action)
	require.Equal(t, "analytics", perms[0].Module)
}

func TestModuleManager_SystemModulesAreProtected(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()

	d := moduleDescriptor("users")
	d.IsSystem = true
	d.IsCore = true
	install(t, f, d)

	err := f.modules.Uninstall(ctx, "users")
	require.ErrorIs(t, err, cmserr.ErrInvariantViolation)

	_, err = f.modules.Enable(ctx, "users")
	require.NoError(t, err)
	_, err = f.modules.Disable(ctx, "users")
	require.ErrorIs(t, err, cmserr.ErrInvariantViolation)

	err = f.modules.Uninstall(ctx, "users")
	require.ErrorIs(t, err, cmserr.ErrInvariantViolation)
}

func TestModuleManager_Uninstall(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()

	install(t, f, moduleDescriptor("articles"))
	d := moduleDescriptor("seo", "articles")
	d.Manifest.Hooks = []module.HookBinding{{Name: hook.ArticleBeforeCreate, Handler: "slugify"}}
	install(t, f, d)
	for _, slug := range []string{"articles", "seo"} {
		_, err := f.modules.Enable(ctx, slug)
		require.NoError(t, err)
	}
	_, err := f.modules.UpdateSettings(ctx, "seo", settings.Values{"k": "v"})
	require.NoError(t, err)

	err = f.modules.Uninstall(ctx, "articles")
	require.ErrorIs(t, err, cmserr.ErrDependencyViolation)

	require.NoError(t, f.modules.Uninstall(ctx, "seo"))
	require.False(t, f.modules.IsLoaded("seo"))
	require.False(t, f.hooks.HasHandlers(hook.ArticleBeforeCreate))
	listeners, err := f.hookStore.ListListenersByModule(ctx, "seo")
	require.NoError(t, err)
	require.Empty(t, listeners)
	require.Empty(t, f.modules.Dependents("articles"))

	_, err = f.modules.Get(ctx, "seo")
	require.ErrorIs(t, err, cmserr.ErrNotFound)

	require.NoError(t, f.modules.Uninstall(ctx, "articles"))
}

func TestModuleManager_SettingsOverlayDefaults(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()

	d := moduleDescriptor("breaking-news")
	d.Manifest.Settings = []module.SettingSchema{
		{Key: "maxItems", Type: "number", Default: 5},
		{Key: "ticker", Type: "boolean", Default: true},
	}
	install(t, f, d)
	_, err := f.modules.Enable(ctx, "breaking-news")
	require.NoError(t, err)

	_, err = f.modules.UpdateSettings(ctx, "breaking-news", settings.Values{"label": "Breaking"})
	require.NoError(t, err)
	got, err := f.modules.UpdateSettings(ctx, "breaking-news", settings.Values{"maxItems": 10})
	require.NoError(t, err)

	require.Equal(t, settings.Values{"maxItems": 10.0, "ticker": true, "label": "Breaking"}, got)

	loaded, ok := f.modules.LoadedModule("breaking-news")
	require.True(t, ok)
	require.Equal(t, 10.0, loaded.Settings["maxItems"])
	require.Equal(t, "Breaking", loaded.Settings["label"])

	_, err = f.modules.UpdateSettings(ctx, "nope", settings.Values{"k": 1})
	require.ErrorIs(t, err, cmserr.ErrNotFound)
}

func TestModuleManager_InitializeLoadsEnabledInOrder(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()

	rec := &recorder{}
	f.handlers.Register("notify", rec.handle)

	install(t, f, moduleDescriptor("articles"))
	d := moduleDescriptor("breaking-news", "articles")
	d.Manifest.Hooks = []module.HookBinding{{Name: hook.ArticleAfterPublish, Handler: "notify"}}
	install(t, f, d)
	off := moduleDescriptor("widgets")
	off.Manifest.Hooks = []module.HookBinding{{Name: hook.ArticleAfterPublish, Handler: "notify"}}
	install(t, f, off)

	for _, slug := range []string{"articles", "breaking-news"} {
		_, err := f.modules.Enable(ctx, slug)
		require.NoError(t, err)
	}

	// A fresh process over the same stores.
	logger := zerolog.Nop()
	hooks := app.NewHookRegistry(f.hookStore, f.handlers, logger, app.HookRegistryConfig{})
	modules := app.NewModuleManager(f.moduleStore, f.perms, hooks, nil, f.clock, logger, app.ModuleManagerConfig{})

	inits := &recorder{}
	f.handlers.Register("boot:init", inits.handle)
	_, err := hooks.RegisterListener(ctx, app.ListenerSpec{Hook: hook.SystemInit, Module: "boot", Handler: "init"})
	require.NoError(t, err)

	require.NoError(t, hooks.Initialize(ctx))
	require.NoError(t, modules.Initialize(ctx))

	require.Equal(t, []string{"articles", "breaking-news"}, modules.LoadedSlugs())
	require.Equal(t, 1, inits.count())
	require.Equal(t, map[string]any{"modules": []string{"articles", "breaking-news"}}, inits.calls[0].Payload)

	hooks.DispatchAction(ctx, hook.ArticleAfterPublish, nil)
	require.Equal(t, []string{"breaking-news"}, rec.modules())

	modules.Shutdown(ctx)
	require.Empty(t, modules.LoadedSlugs())
}

func TestModuleManager_EnableIsIdempotent(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()

	enables := &recorder{}
	f.handlers.Register("watch", enables.handle)
	_, err := f.hooks.RegisterListener(ctx, app.ListenerSpec{Hook: hook.ModuleAfterEnable, Module: "audit", Handler: "watch"})
	require.NoError(t, err)

	install(t, f, moduleDescriptor("articles"))
	for i := 0; i < 3; i++ {
		_, err := f.modules.Enable(ctx, "articles")
		require.NoError(t, err)
	}
	require.Equal(t, 1, enables.count())
	require.Equal(t, map[string]any{"slug": "articles"}, enables.calls[0].Payload)

	_, err = f.modules.Disable(ctx, "articles")
	require.NoError(t, err)
	_, err = f.modules.Disable(ctx, "articles")
	require.NoError(t, err)
}

func TestModuleManager_ListOrder(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()

	core := moduleDescriptor("users")
	core.Type = module.TypeCore
	core.Manifest.Type = module.TypeCore
	core.IsCore = true
	install(t, f, core)
	install(t, f, moduleDescriptor("breaking-news"))
	widget := moduleDescriptor("weather")
	widget.Type = module.TypeWidget
	widget.Manifest.Type = module.TypeWidget
	install(t, f, widget)

	mods, err := f.modules.List(ctx, module.Filter{})
	require.NoError(t, err)
	var slugs []string
	for _, m := range mods {
		slugs = append(slugs, m.Slug)
	}
	require.Equal(t, []string{"users", "breaking-news", "weather"}, slugs)

	mods, err = f.modules.List(ctx, module.Filter{Core: boolPtr(true)})
	require.NoError(t, err)
	require.Len(t, mods, 1)
}
