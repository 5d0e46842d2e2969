package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/artpar/cmscore/domain/cmserr"
	"github.com/artpar/cmscore/domain/settings"
	"github.com/artpar/cmscore/domain/theme"
	"github.com/artpar/cmscore/ports"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

const (
	activeThemeKey         = "active"
	defaultThemeCacheTTL   = 30 * time.Second
	themeCacheCleanupEvery = time.Minute
)

// ThemeManager manages installed themes and serves the active theme from
// a short-lived cache. Every mutation invalidates the cache.
type ThemeManager struct {
	store  ports.ThemeStore
	ids    ports.IDGenerator
	clock  ports.Clock
	logger zerolog.Logger
	obs    Observability

	cache *gocache.Cache

	ttlMu sync.RWMutex
	ttl   time.Duration

	// fillMu guards gen, which every invalidation bumps. A read only fills
	// the cache if gen is unchanged since it started.
	fillMu sync.Mutex
	gen    uint64

	// mu serializes mutations so cache invalidation follows each write.
	mu sync.Mutex
}

// ThemeManagerConfig contains configuration for ThemeManager.
type ThemeManagerConfig struct {
	// CacheTTL bounds how long a resolved active theme is served from
	// memory. Zero uses 30s.
	CacheTTL      time.Duration
	Observability Observability
}

// NewThemeManager creates a theme manager.
func NewThemeManager(
	store ports.ThemeStore,
	ids ports.IDGenerator,
	clock ports.Clock,
	logger zerolog.Logger,
	cfg ThemeManagerConfig,
) *ThemeManager {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultThemeCacheTTL
	}
	return &ThemeManager{
		store:  store,
		ids:    ids,
		clock:  clock,
		logger: logger.With().Str("service", "themes").Logger(),
		obs:    cfg.Observability.withDefaults(),
		cache:  gocache.New(cfg.CacheTTL, themeCacheCleanupEvery),
		ttl:    cfg.CacheTTL,
	}
}

// SetCacheTTL changes the TTL used for entries cached from now on.
func (m *ThemeManager) SetCacheTTL(ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultThemeCacheTTL
	}
	m.ttlMu.Lock()
	m.ttl = ttl
	m.ttlMu.Unlock()
	m.invalidate()
}

// invalidate drops the cached active theme and any fill started before it.
func (m *ThemeManager) invalidate() {
	m.fillMu.Lock()
	m.gen++
	m.cache.Delete(activeThemeKey)
	m.fillMu.Unlock()
}

// ActiveTheme returns the active theme with its resolved settings, or nil
// when no theme is active.
func (m *ThemeManager) ActiveTheme(ctx context.Context) (*theme.Active, error) {
	if v, ok := m.cache.Get(activeThemeKey); ok {
		m.obs.Metrics.ThemeCache(true)
		return copyActive(v.(*theme.Active)), nil
	}
	m.obs.Metrics.ThemeCache(false)

	m.fillMu.Lock()
	gen := m.gen
	m.fillMu.Unlock()

	t, err := m.store.GetActive(ctx)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, nil
	}
	if errors.Is(err, ports.ErrNoSchema) {
		m.logger.Warn().Err(err).Msg("theme tables missing")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("themes.active: %w", err)
	}

	values, err := m.resolveSettings(ctx, "themes.active", t)
	if err != nil {
		return nil, err
	}
	active := &theme.Active{
		ID:       t.ID,
		Slug:     t.Slug,
		Name:     t.Name,
		Version:  t.Version,
		Manifest: t.Manifest,
		Settings: values,
	}

	m.ttlMu.RLock()
	ttl := m.ttl
	m.ttlMu.RUnlock()
	m.fillMu.Lock()
	if m.gen == gen {
		m.cache.Set(activeThemeKey, active, ttl)
	}
	m.fillMu.Unlock()

	return copyActive(active), nil
}

// List returns themes matching the filter.
func (m *ThemeManager) List(ctx context.Context, filter theme.Filter) ([]theme.Theme, error) {
	themes, err := m.store.List(ctx, filter)
	if err != nil {
		return nil, storeErr("themes.list", "themes", err)
	}
	return themes, nil
}

// Get returns a theme by slug.
func (m *ThemeManager) Get(ctx context.Context, slug string) (theme.Theme, error) {
	t, err := m.store.Get(ctx, slug)
	if err != nil {
		return theme.Theme{}, storeErr("themes.get", "theme "+slug, err)
	}
	return t, nil
}

// Templates returns the templates a theme declares.
func (m *ThemeManager) Templates(ctx context.Context, slug string) ([]theme.Template, error) {
	t, err := m.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	return t.Manifest.Templates, nil
}

// Regions returns the widget regions a theme declares.
func (m *ThemeManager) Regions(ctx context.Context, slug string) ([]theme.Region, error) {
	t, err := m.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	return t.Manifest.Regions, nil
}

// Install validates the descriptor and persists the theme inactive.
// Manifest warnings are returned alongside the theme.
func (m *ThemeManager) Install(ctx context.Context, d theme.Descriptor) (t theme.Theme, warnings []string, err error) {
	const op = "themes.install"
	d = fillThemeDescriptor(d)

	err = m.mutate(ctx, op, d.Slug, func(ctx context.Context) error {
		errs, warns := d.Manifest.Validate()
		if d.Slug == "" {
			errs = append([]string{"missing slug"}, errs...)
		}
		if len(errs) > 0 {
			return cmserr.InvalidManifest(op, errs)
		}
		if _, err := m.store.Get(ctx, d.Slug); err == nil {
			return cmserr.Conflict(op, "theme %s already exists", d.Slug)
		} else if !errors.Is(err, ports.ErrNotFound) {
			return storeErr(op, "theme "+d.Slug, err)
		}
		for _, w := range warns {
			m.logger.Warn().Str("theme", d.Slug).Str("warning", w).Msg("theme manifest warning")
		}
		warnings = warns

		now := m.clock.Now()
		t = theme.Theme{
			ID:              m.ids.New(),
			Slug:            d.Slug,
			Name:            d.Name,
			Description:     d.Description,
			Version:         d.Version,
			Author:          d.Author,
			PreviewImage:    d.PreviewImage,
			Path:            d.Path,
			Manifest:        d.Manifest,
			Features:        d.Features,
			DefaultSettings: d.Manifest.DefaultSettings(),
			IsDefault:       d.IsDefault,
			IsSystem:        d.IsSystem,
			InstalledAt:     now,
			UpdatedAt:       now,
		}
		if err := m.store.Create(ctx, t); err != nil {
			return storeErr(op, "theme "+d.Slug, err)
		}
		return nil
	})
	if err != nil {
		return theme.Theme{}, nil, err
	}

	m.logger.Info().Str("theme", d.Slug).Str("version", d.Version).Msg("theme installed")
	t, err = m.Get(ctx, d.Slug)
	return t, warnings, err
}

// Activate makes slug the only active theme.
func (m *ThemeManager) Activate(ctx context.Context, slug string) (theme.Theme, error) {
	const op = "themes.activate"
	err := m.mutate(ctx, op, slug, func(ctx context.Context) error {
		if err := m.store.Activate(ctx, slug, m.clock.Now()); err != nil {
			return storeErr(op, "theme "+slug, err)
		}
		return nil
	})
	if err != nil {
		return theme.Theme{}, err
	}

	m.logger.Info().Str("theme", slug).Msg("theme activated")
	return m.Get(ctx, slug)
}

// Deactivate deactivates the active theme slug and activates a default
// theme other than slug when one exists. The fallback is nil otherwise.
func (m *ThemeManager) Deactivate(ctx context.Context, slug string) (*theme.Theme, error) {
	const op = "themes.deactivate"
	var fallback *theme.Theme

	err := m.mutate(ctx, op, slug, func(ctx context.Context) error {
		t, err := m.store.Get(ctx, slug)
		if err != nil {
			return storeErr(op, "theme "+slug, err)
		}
		if !t.IsActive {
			return cmserr.InvariantViolation(op, "theme %s is not active", slug)
		}

		def, err := m.store.FindDefault(ctx, slug)
		switch {
		case errors.Is(err, ports.ErrNotFound):
			if err := m.store.Deactivate(ctx, slug, m.clock.Now()); err != nil {
				return storeErr(op, "theme "+slug, err)
			}
		case err != nil:
			return storeErr(op, "default theme", err)
		default:
			// Activate clears every other active flag in the same unit.
			if err := m.store.Activate(ctx, def.Slug, m.clock.Now()); err != nil {
				return storeErr(op, "theme "+def.Slug, err)
			}
			fallback = &def
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ev := m.logger.Info().Str("theme", slug)
	if fallback != nil {
		ev = ev.Str("fallback", fallback.Slug)
		if t, err := m.store.Get(ctx, fallback.Slug); err == nil {
			fallback = &t
		}
	}
	ev.Msg("theme deactivated")
	return fallback, nil
}

// Uninstall removes a theme and its settings. System themes and the
// active theme are kept.
func (m *ThemeManager) Uninstall(ctx context.Context, slug string) error {
	const op = "themes.uninstall"
	err := m.mutate(ctx, op, slug, func(ctx context.Context) error {
		t, err := m.store.Get(ctx, slug)
		if err != nil {
			return storeErr(op, "theme "+slug, err)
		}
		if t.IsSystem {
			return cmserr.InvariantViolation(op, "theme %s is a system theme", slug)
		}
		if t.IsActive {
			return cmserr.InvariantViolation(op, "theme %s is active", slug)
		}
		if err := m.store.Delete(ctx, slug); err != nil {
			return storeErr(op, "theme "+slug, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info().Str("theme", slug).Msg("theme uninstalled")
	return nil
}

// UpdateSettings upserts each key of patch as its own override row and
// returns the resolved settings.
func (m *ThemeManager) UpdateSettings(ctx context.Context, slug string, patch settings.Values) (settings.Values, error) {
	const op = "themes.update_settings"
	err := m.mutate(ctx, op, slug, func(ctx context.Context) error {
		t, err := m.store.Get(ctx, slug)
		if err != nil {
			return storeErr(op, "theme "+slug, err)
		}
		normalized, err := settings.Normalize(patch)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		now := m.clock.Now()
		rows := make([]settings.Setting, 0, len(normalized))
		for _, k := range normalized.Keys() {
			v := normalized[k]
			rows = append(rows, settings.Setting{
				OwnerID:   t.ID,
				Key:       k,
				Value:     v,
				Type:      settings.ThemeTags.TagOf(v),
				UpdatedAt: now,
			})
		}
		if err := m.store.UpsertSettings(ctx, rows); err != nil {
			return storeErr(op, "theme "+slug, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m.GetSettings(ctx, slug)
}

// GetSettings returns the customizer defaults overlaid with overrides.
func (m *ThemeManager) GetSettings(ctx context.Context, slug string) (settings.Values, error) {
	const op = "themes.get_settings"
	t, err := m.store.Get(ctx, slug)
	if err != nil {
		return nil, storeErr(op, "theme "+slug, err)
	}
	return m.resolveSettings(ctx, op, t)
}

// ResetSettings deletes every override so the defaults apply again.
func (m *ThemeManager) ResetSettings(ctx context.Context, slug string) (settings.Values, error) {
	const op = "themes.reset_settings"
	var defaults settings.Values
	err := m.mutate(ctx, op, slug, func(ctx context.Context) error {
		t, err := m.store.Get(ctx, slug)
		if err != nil {
			return storeErr(op, "theme "+slug, err)
		}
		if err := m.store.DeleteSettings(ctx, t.ID); err != nil {
			return storeErr(op, "theme "+slug, err)
		}
		defaults = t.DefaultSettings.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return defaults, nil
}

// ExportSettings snapshots a theme's resolved settings.
func (m *ThemeManager) ExportSettings(ctx context.Context, slug string) (settings.Export, error) {
	values, err := m.GetSettings(ctx, slug)
	if err != nil {
		return settings.Export{}, err
	}
	return settings.Export{
		Slug:       slug,
		ExportedAt: m.clock.Now(),
		Settings:   values,
	}, nil
}

// ImportSettings applies an export to slug. The export's own slug is
// informational and may name a different theme.
func (m *ThemeManager) ImportSettings(ctx context.Context, slug string, export settings.Export) (settings.Values, error) {
	return m.UpdateSettings(ctx, slug, export.Settings)
}

// mutate runs fn under the mutation lock and drops the cached active
// theme afterwards, whether fn failed or not.
func (m *ThemeManager) mutate(ctx context.Context, op, slug string, fn func(context.Context) error) (err error) {
	ctx, end := m.obs.startOp(ctx, op, attribute.String(attrThemeSlug, slug))
	defer end(&err)

	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.invalidate()

	return fn(ctx)
}

func (m *ThemeManager) resolveSettings(ctx context.Context, op string, t theme.Theme) (settings.Values, error) {
	rows, err := m.store.ListSettings(ctx, t.ID)
	if err != nil {
		return nil, storeErr(op, "theme "+t.Slug, err)
	}
	return settings.Merge(t.DefaultSettings, settings.Fold(rows)), nil
}

func copyActive(a *theme.Active) *theme.Active {
	c := *a
	c.Settings = a.Settings.Clone()
	return &c
}

func fillThemeDescriptor(d theme.Descriptor) theme.Descriptor {
	if d.Slug == "" {
		d.Slug = d.Manifest.ID
	}
	if d.Name == "" {
		d.Name = d.Manifest.Name
	}
	if d.Version == "" {
		d.Version = d.Manifest.Version
	}
	if d.Author == "" {
		d.Author = d.Manifest.Author
	}
	if d.Description == "" {
		d.Description = d.Manifest.Description
	}
	if d.PreviewImage == "" {
		d.PreviewImage = d.Manifest.PreviewImage
	}
	if len(d.Features) == 0 {
		d.Features = d.Manifest.Features
	}
	return d
}
