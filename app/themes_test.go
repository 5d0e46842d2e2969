package app_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/artpar/cmscore/adapters/clock"
	"github.com/artpar/cmscore/adapters/idgen"
	"github.com/artpar/cmscore/adapters/memory"
	"github.com/artpar/cmscore/adapters/metrics"
	"github.com/artpar/cmscore/app"
	"github.com/artpar/cmscore/domain/cmserr"
	"github.com/artpar/cmscore/domain/settings"
	"github.com/artpar/cmscore/domain/theme"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func themeDescriptor(slug string, defaults map[string]any) theme.Descriptor {
	var fields []theme.Field
	for k, v := range defaults {
		fields = append(fields, theme.Field{ID: k, Type: "text", Default: v})
	}
	return theme.Descriptor{
		Manifest: theme.Manifest{
			ID:        slug,
			Name:      slug + " theme",
			Version:   "1.0.0",
			Templates: []theme.Template{{ID: "home", Name: "Home", Type: "page", IsDefault: true}},
			Regions:   []theme.Region{{ID: "sidebar", Name: "Sidebar", MaxWidgets: 5}},
			Customizer: theme.Customizer{Sections: []theme.Section{
				{ID: "general", Title: "General", Fields: fields},
			}},
		},
	}
}

func installTheme(t *testing.T, f *fixture, d theme.Descriptor) theme.Theme {
	th, _, err := f.themes.Install(context.Background(), d)
	require.NoError(t, err)
	return th
}

func TestThemeManager_DefaultFallbackScenario(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()

	def := themeDescriptor("default", map[string]any{"primaryColor": "#1a365d"})
	def.IsSystem = true
	def.IsDefault = true
	installTheme(t, f, def)
	installTheme(t, f, themeDescriptor("custom", nil))

	_, err := f.themes.Activate(ctx, "custom")
	require.NoError(t, err)
	active, err := f.themes.ActiveTheme(ctx)
	require.NoError(t, err)
	require.Equal(t, "custom", active.Slug)

	err = f.themes.Uninstall(ctx, "custom")
	require.ErrorIs(t, err, cmserr.ErrInvariantViolation)

	fallback, err := f.themes.Deactivate(ctx, "custom")
	require.NoError(t, err)
	require.NotNil(t, fallback)
	require.Equal(t, "default", fallback.Slug)
	require.True(t, fallback.IsActive)

	active, err = f.themes.ActiveTheme(ctx)
	require.NoError(t, err)
	require.Equal(t, "default", active.Slug)
	require.Equal(t, "#1a365d", active.Settings["primaryColor"])

	require.NoError(t, f.themes.Uninstall(ctx, "custom"))
	err = f.themes.Uninstall(ctx, "default")
	require.ErrorIs(t, err, cmserr.ErrInvariantViolation)
}

func TestThemeManager_ActivateLeavesOneActive(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()

	installTheme(t, f, themeDescriptor("a", map[string]any{"layout": "wide"}))
	installTheme(t, f, themeDescriptor("b", map[string]any{"layout": "narrow"}))

	_, err := f.themes.Activate(ctx, "a")
	require.NoError(t, err)
	active, err := f.themes.ActiveTheme(ctx)
	require.NoError(t, err)
	require.Equal(t, "wide", active.Settings["layout"])

	_, err = f.themes.Activate(ctx, "b")
	require.NoError(t, err)
	active, err = f.themes.ActiveTheme(ctx)
	require.NoError(t, err)
	require.Equal(t, "b", active.Slug)
	require.Equal(t, "narrow", active.Settings["layout"])

	onlyActive, err := f.themes.List(ctx, theme.Filter{Active: boolPtr(true)})
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	require.Equal(t, "b", onlyActive[0].Slug)

	_, err = f.themes.Activate(ctx, "missing")
	require.ErrorIs(t, err, cmserr.ErrNotFound)
	active, err = f.themes.ActiveTheme(ctx)
	require.NoError(t, err)
	require.Equal(t, "b", active.Slug)
}

func TestThemeManager_CacheInvalidatedOnMutation(t *testing.T) {
	collector := metrics.NewWithRegistry(prometheus.NewRegistry())
	f := newFixture(app.Observability{Metrics: collector})
	ctx := context.Background()

	installTheme(t, f, themeDescriptor("a", map[string]any{"layout": "wide"}))
	_, err := f.themes.Activate(ctx, "a")
	require.NoError(t, err)

	_, err = f.themes.ActiveTheme(ctx)
	require.NoError(t, err)
	_, err = f.themes.ActiveTheme(ctx)
	require.NoError(t, err)
	require.Equal(t, 1.0, testutil.ToFloat64(collector.ThemeCacheLookups.WithLabelValues("hit")))
	require.Equal(t, 1.0, testutil.ToFloat64(collector.ThemeCacheLookups.WithLabelValues("miss")))

	_, err = f.themes.UpdateSettings(ctx, "a", settings.Values{"layout": "boxed"})
	require.NoError(t, err)
	active, err := f.themes.ActiveTheme(ctx)
	require.NoError(t, err)
	require.Equal(t, "boxed", active.Settings["layout"])

	// Callers get copies.
	active.Settings["layout"] = "mutated"
	again, err := f.themes.ActiveTheme(ctx)
	require.NoError(t, err)
	require.Equal(t, "boxed", again.Settings["layout"])

	_, err = f.themes.ResetSettings(ctx, "a")
	require.NoError(t, err)
	active, err = f.themes.ActiveTheme(ctx)
	require.NoError(t, err)
	require.Equal(t, "wide", active.Settings["layout"])
}

// blockingThemeStore parks the next GetActive after it has read the store,
// until release is closed.
type blockingThemeStore struct {
	*memory.ThemeStore
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (s *blockingThemeStore) GetActive(ctx context.Context) (theme.Theme, error) {
	t, err := s.ThemeStore.GetActive(ctx)
	if s.armed.CompareAndSwap(true, false) {
		close(s.entered)
		<-s.release
	}
	return t, err
}

func TestThemeManager_SlowReadDoesNotCacheReplacedTheme(t *testing.T) {
	ctx := context.Background()
	store := &blockingThemeStore{
		ThemeStore: memory.NewThemeStore(),
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	clk := clock.NewStepping(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)
	themes := app.NewThemeManager(store, idgen.NewSequential("id"), clk, zerolog.Nop(), app.ThemeManagerConfig{CacheTTL: time.Hour})

	for _, slug := range []string{"a", "b"} {
		_, _, err := themes.Install(ctx, themeDescriptor(slug, nil))
		require.NoError(t, err)
	}
	_, err := themes.Activate(ctx, "a")
	require.NoError(t, err)

	type result struct {
		active *theme.Active
		err    error
	}
	done := make(chan result, 1)
	store.armed.Store(true)
	go func() {
		active, err := themes.ActiveTheme(ctx)
		done <- result{active, err}
	}()

	<-store.entered
	_, err = themes.Activate(ctx, "b")
	require.NoError(t, err)
	close(store.release)

	slow := <-done
	require.NoError(t, slow.err)
	require.Equal(t, "a", slow.active.Slug)

	active, err := themes.ActiveTheme(ctx)
	require.NoError(t, err)
	require.Equal(t, "b", active.Slug)
}

func TestThemeManager_TimestampsFollowClock(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()
	installTheme(t, f, themeDescriptor("a", nil))

	activatedAt := time.Date(2030, 5, 1, 9, 0, 0, 0, time.UTC)
	f.clock.Set(activatedAt)
	_, err := f.themes.Activate(ctx, "a")
	require.NoError(t, err)
	th, err := f.themeStore.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, activatedAt, th.UpdatedAt)
	require.NotNil(t, th.ActivatedAt)
	require.Equal(t, activatedAt, *th.ActivatedAt)

	deactivatedAt := activatedAt.Add(48 * time.Hour)
	f.clock.Set(deactivatedAt)
	_, err = f.themes.Deactivate(ctx, "a")
	require.NoError(t, err)
	th, err = f.themeStore.Get(ctx, "a")
	require.NoError(t, err)
	require.False(t, th.IsActive)
	require.Equal(t, deactivatedAt, th.UpdatedAt)
}

func TestThemeManager_NoActiveTheme(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()

	active, err := f.themes.ActiveTheme(ctx)
	require.NoError(t, err)
	require.Nil(t, active)

	installTheme(t, f, themeDescriptor("a", nil))
	_, err = f.themes.Deactivate(ctx, "a")
	require.ErrorIs(t, err, cmserr.ErrInvariantViolation)

	_, err = f.themes.Activate(ctx, "a")
	require.NoError(t, err)
	fallback, err := f.themes.Deactivate(ctx, "a")
	require.NoError(t, err)
	require.Nil(t, fallback)

	active, err = f.themes.ActiveTheme(ctx)
	require.NoError(t, err)
	require.Nil(t, active)
}

func TestThemeManager_InstallValidation(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()

	_, _, err := f.themes.Install(ctx, theme.Descriptor{Manifest: theme.Manifest{ID: "x"}})
	require.ErrorIs(t, err, cmserr.ErrInvalidManifest)
	require.ElementsMatch(t, []string{"missing theme name", "missing theme version"}, cmserr.NamesOf(err))

	bare := theme.Descriptor{Manifest: theme.Manifest{ID: "bare", Name: "Bare", Version: "0.1.0"}}
	th, warnings, err := f.themes.Install(ctx, bare)
	require.NoError(t, err)
	require.Equal(t, []string{"no templates defined"}, warnings)
	require.False(t, th.IsActive)

	_, _, err = f.themes.Install(ctx, bare)
	require.ErrorIs(t, err, cmserr.ErrConflict)
}

func TestThemeManager_SettingsSurviveUnrelatedUpdates(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()

	installTheme(t, f, themeDescriptor("a", map[string]any{"primaryColor": "#000", "showTicker": true}))

	_, err := f.themes.UpdateSettings(ctx, "a", settings.Values{"fontSize": 16})
	require.NoError(t, err)
	got, err := f.themes.UpdateSettings(ctx, "a", settings.Values{"primaryColor": "#fff"})
	require.NoError(t, err)
	require.Equal(t, settings.Values{"primaryColor": "#fff", "showTicker": true, "fontSize": 16.0}, got)

	rows, err := f.themeStore.ListSettings(ctx, mustTheme(t, f, "a").ID)
	require.NoError(t, err)
	tags := map[string]string{}
	for _, r := range rows {
		tags[r.Key] = r.Type
	}
	require.Equal(t, map[string]string{"fontSize": "number", "primaryColor": "text"}, tags)
}

func TestThemeManager_ExportImport(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()

	installTheme(t, f, themeDescriptor("a", map[string]any{"layout": "wide"}))
	installTheme(t, f, themeDescriptor("b", map[string]any{"layout": "narrow"}))
	_, err := f.themes.UpdateSettings(ctx, "a", settings.Values{"accent": "red"})
	require.NoError(t, err)

	export, err := f.themes.ExportSettings(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "a", export.Slug)
	require.False(t, export.ExportedAt.IsZero())

	got, err := f.themes.ImportSettings(ctx, "b", export)
	require.NoError(t, err)
	require.Equal(t, settings.Values{"layout": "wide", "accent": "red"}, got)
}

func TestThemeManager_TemplatesAndRegions(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()

	installTheme(t, f, themeDescriptor("a", nil))

	templates, err := f.themes.Templates(ctx, "a")
	require.NoError(t, err)
	require.Len(t, templates, 1)
	require.Equal(t, "home", templates[0].ID)

	regions, err := f.themes.Regions(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, 5, regions[0].MaxWidgets)

	_, err = f.themes.Templates(ctx, "missing")
	require.ErrorIs(t, err, cmserr.ErrNotFound)
}

func mustTheme(t *testing.T, f *fixture, slug string) theme.Theme {
	th, err := f.themes.Get(context.Background(), slug)
	require.NoError(t, err)
	return th
}
