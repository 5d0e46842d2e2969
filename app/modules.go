package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/artpar/cmscore/domain/cmserr"
	"github.com/artpar/cmscore/domain/hook"
	"github.com/artpar/cmscore/domain/module"
	"github.com/artpar/cmscore/domain/settings"
	"github.com/artpar/cmscore/ports"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// ModuleManager installs, enables and disables modules and keeps the
// loaded-module index and dependency graph in step with the store.
type ModuleManager struct {
	store  ports.ModuleStore
	perms  ports.PermissionStore
	hooks  *HookRegistry
	ids    ports.IDGenerator
	clock  ports.Clock
	logger zerolog.Logger
	obs    Observability

	graph *module.Graph

	mu     sync.RWMutex
	loaded map[string]module.Loaded
}

// ModuleManagerConfig contains configuration for ModuleManager.
type ModuleManagerConfig struct {
	Observability Observability
}

// NewModuleManager creates a module manager. Call Initialize after the
// hook registry has been initialized.
func NewModuleManager(
	store ports.ModuleStore,
	perms ports.PermissionStore,
	hooks *HookRegistry,
	ids ports.IDGenerator,
	clock ports.Clock,
	logger zerolog.Logger,
	cfg ModuleManagerConfig,
) *ModuleManager {
	m := &ModuleManager{
		store:  store,
		perms:  perms,
		hooks:  hooks,
		ids:    ids,
		clock:  clock,
		logger: logger.With().Str("service", "modules").Logger(),
		obs:    cfg.Observability.withDefaults(),
		graph:  module.NewGraph(),
		loaded: make(map[string]module.Loaded),
	}
	hooks.SetModuleGate(m.dispatches)
	return m
}

// dispatches reports whether a module's listeners may take part in
// dispatch: loaded modules and names that are not installed modules do.
func (m *ModuleManager) dispatches(slug string) bool {
	if m.IsLoaded(slug) {
		return true
	}
	return !m.graph.Has(slug)
}

// Initialize builds the dependency graph from every installed module and
// loads the enabled ones in dependency order, then fires system.init.
func (m *ModuleManager) Initialize(ctx context.Context) error {
	all, err := m.store.List(ctx, module.Filter{})
	if errors.Is(err, ports.ErrNoSchema) {
		m.logger.Warn().Err(err).Msg("module tables missing, starting with no modules")
		return nil
	}
	if err != nil {
		return fmt.Errorf("list modules: %w", err)
	}

	bySlug := make(map[string]module.Module, len(all))
	var enabled []string
	for _, mod := range all {
		bySlug[mod.Slug] = mod
		if err := m.graph.Set(mod.Slug, mod.Dependencies); err != nil {
			m.logger.Error().Err(err).Str("module", mod.Slug).Msg("ignoring dependencies")
			_ = m.graph.Set(mod.Slug, nil)
		}
		if mod.IsEnabled && mod.IsInstalled {
			enabled = append(enabled, mod.Slug)
		} else {
			// Listener rows of disabled modules stay enabled in the store.
			m.hooks.UnloadModule(mod.Slug)
		}
	}

	order, err := m.graph.Order(enabled)
	if err != nil {
		m.logger.Warn().Err(err).Msg("falling back to name order")
		order = append([]string(nil), enabled...)
		sort.Strings(order)
	}

	for _, slug := range order {
		if err := m.load(ctx, bySlug[slug]); err != nil {
			m.logger.Error().Err(err).Str("module", slug).Msg("failed to load module")
		}
	}

	loaded := m.LoadedSlugs()
	m.logger.Info().Int("installed", len(all)).Int("loaded", len(loaded)).Msg("modules initialized")
	m.hooks.DispatchAction(ctx, hook.SystemInit, map[string]any{"modules": loaded})
	return nil
}

// Shutdown fires system.shutdown and clears the loaded set.
func (m *ModuleManager) Shutdown(ctx context.Context) {
	m.hooks.DispatchAction(ctx, hook.SystemShutdown, map[string]any{"modules": m.LoadedSlugs()})

	m.mu.Lock()
	m.loaded = make(map[string]module.Loaded)
	m.mu.Unlock()
	m.obs.Metrics.SetModulesLoaded(0)
}

// List returns modules matching the filter.
func (m *ModuleManager) List(ctx context.Context, filter module.Filter) ([]module.Module, error) {
	mods, err := m.store.List(ctx, filter)
	if err != nil {
		return nil, storeErr("modules.list", "modules", err)
	}
	return mods, nil
}

// Get returns a module by slug.
func (m *ModuleManager) Get(ctx context.Context, slug string) (module.Module, error) {
	mod, err := m.store.Get(ctx, slug)
	if err != nil {
		return module.Module{}, storeErr("modules.get", "module "+slug, err)
	}
	return mod, nil
}

// Permissions returns the permissions a module registered at install.
func (m *ModuleManager) Permissions(ctx context.Context, slug string) ([]module.Permission, error) {
	perms, err := m.perms.ListByModule(ctx, slug)
	if err != nil {
		return nil, storeErr("modules.permissions", "module "+slug, err)
	}
	return perms, nil
}

// Install validates the descriptor and persists the module disabled.
// Manifest permissions are upserted and manifest hooks are persisted as
// listener rows that join the chains once the module is enabled.
func (m *ModuleManager) Install(ctx context.Context, d module.Descriptor) (mod module.Module, err error) {
	const op = "modules.install"
	d = fillDescriptor(d)
	ctx, end := m.obs.startOp(ctx, op, attribute.String(attrModuleSlug, d.Slug))
	defer end(&err)

	if d.Slug == "" {
		return module.Module{}, cmserr.InvalidManifest(op, append([]string{"missing slug"}, d.Manifest.Validate()...))
	}
	if _, err := m.store.Get(ctx, d.Slug); err == nil {
		return module.Module{}, cmserr.Conflict(op, "module %s already exists", d.Slug)
	} else if !errors.Is(err, ports.ErrNotFound) {
		return module.Module{}, storeErr(op, "module "+d.Slug, err)
	}

	if problems := d.Manifest.Validate(); len(problems) > 0 {
		return module.Module{}, cmserr.InvalidManifest(op, problems)
	}

	deps := mergeDeps(d.Dependencies, d.Manifest.Dependencies)
	var missing []string
	for _, dep := range deps {
		if _, err := m.store.Get(ctx, dep); errors.Is(err, ports.ErrNotFound) {
			missing = append(missing, dep)
		} else if err != nil {
			return module.Module{}, storeErr(op, "module "+dep, err)
		}
	}
	if len(missing) > 0 {
		return module.Module{}, cmserr.DependencyViolation(op, "dependencies not installed", missing)
	}

	if err := m.graph.Check(d.Slug, deps); err != nil {
		return module.Module{}, cmserr.InvalidManifest(op, []string{err.Error()})
	}

	now := m.clock.Now()
	mod = module.Module{
		ID:              m.ids.New(),
		Slug:            d.Slug,
		Name:            d.Name,
		Description:     d.Description,
		Version:         d.Version,
		Author:          d.Author,
		Icon:            d.Icon,
		Type:            d.Type,
		Path:            d.Path,
		Manifest:        d.Manifest,
		Dependencies:    deps,
		DefaultSettings: d.Manifest.DefaultSettings(),
		IsCore:          d.IsCore,
		IsSystem:        d.IsSystem,
		IsInstalled:     true,
		InstalledAt:     now,
		UpdatedAt:       now,
	}
	if err := m.store.Create(ctx, mod); err != nil {
		return module.Module{}, storeErr(op, "module "+d.Slug, err)
	}
	if err := m.graph.Set(d.Slug, deps); err != nil {
		return module.Module{}, m.rollbackInstall(ctx, d.Slug, cmserr.InvalidManifest(op, []string{err.Error()}))
	}

	for _, p := range d.Manifest.Provides.Permissions {
		if p.Module == "" {
			p.Module = d.Slug
		}
		if err := m.perms.Upsert(ctx, p); err != nil {
			return module.Module{}, m.rollbackInstall(ctx, d.Slug, fmt.Errorf("%s: register permission %s: %w", op, p.Name, err))
		}
	}

	for _, b := range d.Manifest.Hooks {
		if _, err := m.hooks.persist(ctx, op, ListenerSpec{Hook: b.Name, Module: d.Slug, Handler: b.Handler, Priority: b.Priority}); err != nil {
			return module.Module{}, m.rollbackInstall(ctx, d.Slug, err)
		}
	}

	m.logger.Info().Str("module", d.Slug).Str("version", d.Version).Msg("module installed")
	return m.Get(ctx, d.Slug)
}

// rollbackInstall undoes a partial install and returns cause. Cleanup
// failures are logged; the module row is deleted last so a retry sees
// whatever is left as an existing module.
func (m *ModuleManager) rollbackInstall(ctx context.Context, slug string, cause error) error {
	log := m.logger.Warn().Err(cause).Str("module", slug)
	if err := m.hooks.purgeModule(ctx, slug); err != nil {
		log = log.AnErr("listeners", err)
	}
	if err := m.perms.DeleteByModule(ctx, slug); err != nil {
		log = log.AnErr("permissions", err)
	}
	m.graph.Remove(slug)
	if err := m.store.Delete(ctx, slug); err != nil {
		log.AnErr("module", err).Msg("install rollback incomplete")
		return fmt.Errorf("%w (rollback incomplete: %v)", cause, err)
	}
	log.Msg("install rolled back")
	return cause
}

// Uninstall removes a module, its settings and its listeners. Core and
// system modules, and modules other enabled modules depend on, are kept.
func (m *ModuleManager) Uninstall(ctx context.Context, slug string) (err error) {
	const op = "modules.uninstall"
	ctx, end := m.obs.startOp(ctx, op, attribute.String(attrModuleSlug, slug))
	defer end(&err)

	mod, err := m.store.Get(ctx, slug)
	if err != nil {
		return storeErr(op, "module "+slug, err)
	}
	if mod.IsSystem || mod.IsCore {
		return cmserr.InvariantViolation(op, "module %s is a core or system module", slug)
	}
	blocking, err := m.enabledDependents(ctx, slug)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(blocking) > 0 {
		return cmserr.DependencyViolation(op, "required by enabled modules", blocking)
	}

	if mod.IsEnabled {
		if err := m.store.SetEnabled(ctx, slug, false, nil); err != nil {
			return storeErr(op, "module "+slug, err)
		}
		m.unload(slug)
	}

	if err := m.hooks.purgeModule(ctx, slug); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := m.store.Delete(ctx, slug); err != nil {
		return storeErr(op, "module "+slug, err)
	}
	m.graph.Remove(slug)

	m.logger.Info().Str("module", slug).Msg("module uninstalled")
	return nil
}

// Enable enables a module whose dependencies are all enabled and loads it.
// Enabling an enabled module is a no-op.
func (m *ModuleManager) Enable(ctx context.Context, slug string) (mod module.Module, err error) {
	const op = "modules.enable"
	ctx, end := m.obs.startOp(ctx, op, attribute.String(attrModuleSlug, slug))
	defer end(&err)

	mod, err = m.store.Get(ctx, slug)
	if err != nil {
		return module.Module{}, storeErr(op, "module "+slug, err)
	}
	if mod.IsEnabled {
		return mod, nil
	}

	var disabled []string
	for _, dep := range mod.Dependencies {
		d, err := m.store.Get(ctx, dep)
		switch {
		case errors.Is(err, ports.ErrNotFound):
			disabled = append(disabled, dep)
		case err != nil:
			return module.Module{}, storeErr(op, "module "+dep, err)
		case !d.IsEnabled:
			disabled = append(disabled, dep)
		}
	}
	if len(disabled) > 0 {
		return module.Module{}, cmserr.DependencyViolation(op, "dependencies are disabled", disabled)
	}

	now := m.clock.Now()
	if err := m.store.SetEnabled(ctx, slug, true, &now); err != nil {
		return module.Module{}, storeErr(op, "module "+slug, err)
	}
	mod.IsEnabled = true
	mod.EnabledAt = &now

	if err := m.load(ctx, mod); err != nil {
		return module.Module{}, fmt.Errorf("%s: %w", op, err)
	}

	m.logger.Info().Str("module", slug).Msg("module enabled")
	m.hooks.DispatchAction(ctx, hook.ModuleAfterEnable, map[string]any{"slug": slug})
	return mod, nil
}

// Disable disables a module no enabled module depends on and unloads it.
// Disabling a disabled module is a no-op.
func (m *ModuleManager) Disable(ctx context.Context, slug string) (mod module.Module, err error) {
	const op = "modules.disable"
	ctx, end := m.obs.startOp(ctx, op, attribute.String(attrModuleSlug, slug))
	defer end(&err)

	mod, err = m.store.Get(ctx, slug)
	if err != nil {
		return module.Module{}, storeErr(op, "module "+slug, err)
	}
	if !mod.IsEnabled {
		return mod, nil
	}
	if mod.IsSystem {
		return module.Module{}, cmserr.InvariantViolation(op, "module %s is a system module", slug)
	}
	blocking, err := m.enabledDependents(ctx, slug)
	if err != nil {
		return module.Module{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(blocking) > 0 {
		return module.Module{}, cmserr.DependencyViolation(op, "required by enabled modules", blocking)
	}

	if err := m.store.SetEnabled(ctx, slug, false, nil); err != nil {
		return module.Module{}, storeErr(op, "module "+slug, err)
	}
	mod.IsEnabled = false
	mod.EnabledAt = nil
	m.unload(slug)

	m.logger.Info().Str("module", slug).Msg("module disabled")
	m.hooks.DispatchAction(ctx, hook.ModuleAfterDisable, map[string]any{"slug": slug})
	return mod, nil
}

// UpdateSettings upserts each key of patch as its own row, so keys not in
// patch keep their values. The whole patch is written or none of it.
func (m *ModuleManager) UpdateSettings(ctx context.Context, slug string, patch settings.Values) (values settings.Values, err error) {
	const op = "modules.update_settings"
	ctx, end := m.obs.startOp(ctx, op, attribute.String(attrModuleSlug, slug))
	defer end(&err)

	mod, err := m.store.Get(ctx, slug)
	if err != nil {
		return nil, storeErr(op, "module "+slug, err)
	}
	patch, err = settings.Normalize(patch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := m.clock.Now()
	rows := make([]settings.Setting, 0, len(patch))
	for _, k := range patch.Keys() {
		v := patch[k]
		rows = append(rows, settings.Setting{
			OwnerID:   mod.ID,
			Key:       k,
			Value:     v,
			Type:      settings.ModuleTags.TagOf(v),
			UpdatedAt: now,
		})
	}
	if err := m.store.UpsertSettings(ctx, rows); err != nil {
		return nil, storeErr(op, "module "+slug, err)
	}

	m.mu.Lock()
	if l, ok := m.loaded[slug]; ok {
		l.Settings = settings.Merge(l.Settings, patch)
		m.loaded[slug] = l
	}
	m.mu.Unlock()

	return m.GetSettings(ctx, slug)
}

// GetSettings returns the manifest defaults overlaid with persisted overrides.
func (m *ModuleManager) GetSettings(ctx context.Context, slug string) (settings.Values, error) {
	const op = "modules.get_settings"
	mod, err := m.store.Get(ctx, slug)
	if err != nil {
		return nil, storeErr(op, "module "+slug, err)
	}
	return m.resolveSettings(ctx, op, mod)
}

func (m *ModuleManager) resolveSettings(ctx context.Context, op string, mod module.Module) (settings.Values, error) {
	rows, err := m.store.ListSettings(ctx, mod.ID)
	if err != nil {
		return nil, storeErr(op, "module "+mod.Slug, err)
	}
	return settings.Merge(mod.DefaultSettings, settings.Fold(rows)), nil
}

// Loaded returns the loaded modules ordered by slug.
func (m *ModuleManager) Loaded() []module.Loaded {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]module.Loaded, 0, len(m.loaded))
	for _, l := range m.loaded {
		l.Settings = l.Settings.Clone()
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// LoadedSlugs returns the slugs of loaded modules, sorted.
func (m *ModuleManager) LoadedSlugs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	slugs := make([]string, 0, len(m.loaded))
	for slug := range m.loaded {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

// LoadedModule returns one loaded module.
func (m *ModuleManager) LoadedModule(slug string) (module.Loaded, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.loaded[slug]
	if ok {
		l.Settings = l.Settings.Clone()
	}
	return l, ok
}

// IsLoaded reports whether slug is in the loaded set.
func (m *ModuleManager) IsLoaded(slug string) bool {
	_, ok := m.LoadedModule(slug)
	return ok
}

// Dependents returns the installed modules that depend on slug.
func (m *ModuleManager) Dependents(slug string) []string {
	return m.graph.Dependents(slug)
}

// load resolves settings, ensures manifest hooks have listener rows and
// puts the module's listeners into the chains.
func (m *ModuleManager) load(ctx context.Context, mod module.Module) error {
	values, err := m.resolveSettings(ctx, "modules.load", mod)
	if err != nil {
		return err
	}

	existing, err := m.hooks.moduleListeners(ctx, mod.Slug)
	if err != nil {
		return fmt.Errorf("list listeners of %s: %w", mod.Slug, err)
	}
	have := make(map[string]bool, len(existing))
	for _, l := range existing {
		have[l.HookName] = true
	}
	for _, b := range mod.Manifest.Hooks {
		if have[b.Name] {
			continue
		}
		if _, err := m.hooks.persist(ctx, "modules.load", ListenerSpec{Hook: b.Name, Module: mod.Slug, Handler: b.Handler, Priority: b.Priority}); err != nil {
			return err
		}
	}
	if err := m.hooks.LoadModule(ctx, mod.Slug); err != nil {
		return err
	}

	m.mu.Lock()
	m.loaded[mod.Slug] = module.Loaded{
		Slug:     mod.Slug,
		Name:     mod.Name,
		Version:  mod.Version,
		Type:     mod.Type,
		Manifest: mod.Manifest,
		Settings: values,
		Enabled:  true,
	}
	n := len(m.loaded)
	m.mu.Unlock()
	m.obs.Metrics.SetModulesLoaded(n)

	m.logger.Debug().Str("module", mod.Slug).Msg("module loaded")
	return nil
}

func (m *ModuleManager) unload(slug string) {
	m.mu.Lock()
	delete(m.loaded, slug)
	n := len(m.loaded)
	m.mu.Unlock()
	m.obs.Metrics.SetModulesLoaded(n)

	m.hooks.UnloadModule(slug)
	m.logger.Debug().Str("module", slug).Msg("module unloaded")
}

// enabledDependents returns the enabled modules that depend on slug, sorted.
func (m *ModuleManager) enabledDependents(ctx context.Context, slug string) ([]string, error) {
	var out []string
	for _, dep := range m.graph.Dependents(slug) {
		mod, err := m.store.Get(ctx, dep)
		if errors.Is(err, ports.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if mod.IsEnabled {
			out = append(out, dep)
		}
	}
	return out, nil
}

// fillDescriptor takes missing descriptor fields from the manifest.
func fillDescriptor(d module.Descriptor) module.Descriptor {
	if d.Slug == "" {
		d.Slug = d.Manifest.ID
	}
	if d.Name == "" {
		d.Name = d.Manifest.Name
	}
	if d.Version == "" {
		d.Version = d.Manifest.Version
	}
	if d.Type == "" {
		d.Type = d.Manifest.Type
	}
	if d.Description == "" {
		d.Description = d.Manifest.Description
	}
	if d.Author == "" {
		d.Author = d.Manifest.Author
	}
	if d.Icon == "" {
		d.Icon = d.Manifest.Icon
	}
	return d
}

func mergeDeps(lists ...[]string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, list := range lists {
		for _, d := range list {
			if d != "" && !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	return out
}
