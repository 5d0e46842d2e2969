package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/artpar/cmscore/adapters/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	if m == nil {
		t.Fatal("NewWithRegistry returned nil")
	}
	if m.HookDispatches == nil {
		t.Error("HookDispatches is nil")
	}
	if m.LifecycleOps == nil {
		t.Error("LifecycleOps is nil")
	}
	if m.ThemeCacheLookups == nil {
		t.Error("ThemeCacheLookups is nil")
	}
}

func TestObserveDispatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObserveDispatch("article.beforeCreate", "filter", time.Millisecond)
	m.ObserveDispatch("article.beforeCreate", "filter", time.Millisecond)
	m.ListenerFailed("article.beforeCreate", "seo")

	if got := testutil.ToFloat64(m.HookDispatches.WithLabelValues("article.beforeCreate", "filter")); got != 2 {
		t.Errorf("dispatches = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ListenerFailures.WithLabelValues("article.beforeCreate", "seo")); got != 1 {
		t.Errorf("failures = %v, want 1", got)
	}
}

func TestLifecycleAndCache(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.Lifecycle("module.enable", nil)
	m.Lifecycle("module.enable", errors.New("boom"))
	m.ThemeCache(true)
	m.ThemeCache(false)
	m.ThemeCache(false)

	if got := testutil.ToFloat64(m.LifecycleOps.WithLabelValues("module.enable", "ok")); got != 1 {
		t.Errorf("ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LifecycleOps.WithLabelValues("module.enable", "error")); got != 1 {
		t.Errorf("error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ThemeCacheLookups.WithLabelValues("miss")); got != 2 {
		t.Errorf("misses = %v, want 2", got)
	}
}

func TestConfigReloaded(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ConfigReloaded(nil)
	m.ConfigReloaded(errors.New("bad yaml"))

	if got := testutil.ToFloat64(m.ConfigReloads); got != 1 {
		t.Errorf("reloads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ConfigReloadErrors); got != 1 {
		t.Errorf("reload errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ConfigLastReload); got == 0 {
		t.Error("last reload timestamp not set")
	}
}

func TestNilCollector(t *testing.T) {
	var m *metrics.Collector

	// Must not panic.
	m.ObserveDispatch("h", "action", time.Second)
	m.ListenerFailed("h", "m")
	m.Lifecycle("theme.activate", nil)
	m.ThemeCache(true)
	m.SetModulesLoaded(3)
	m.SetHooksRegistered(3)
	m.ObserveRequest("GET", "/admin/api/hooks", 200, time.Millisecond)
	m.ConfigReloaded(nil)
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{200, "2xx"},
		{204, "2xx"},
		{404, "4xx"},
		{503, "5xx"},
		{0, "unknown"},
	}
	for _, tt := range tests {
		if got := metrics.StatusClass(tt.status); got != tt.want {
			t.Errorf("StatusClass(%d) = %s, want %s", tt.status, got, tt.want)
		}
	}
}
