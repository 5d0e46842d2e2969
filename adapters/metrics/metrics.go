// Package metrics provides Prometheus metrics collection for cmscore.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cmscore"

// Collector holds all Prometheus metrics for cmscore.
// Recording methods are safe to call on a nil *Collector.
type Collector struct {
	// Admin API metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Hook metrics
	HookDispatches       *prometheus.CounterVec
	HookDispatchDuration *prometheus.HistogramVec
	ListenerFailures     *prometheus.CounterVec
	HooksRegistered      prometheus.Gauge

	// Lifecycle metrics
	LifecycleOps  *prometheus.CounterVec
	ModulesLoaded prometheus.Gauge

	// Theme metrics
	ThemeCacheLookups *prometheus.CounterVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a collector registered with the default Prometheus registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "admin_requests_total",
				Help:      "Total number of admin API requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "admin_request_duration_seconds",
				Help:      "Admin API request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "admin_requests_in_flight",
				Help:      "Number of admin API requests currently being processed",
			},
		),

		HookDispatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hook_dispatches_total",
				Help:      "Total number of hook dispatches",
			},
			[]string{"hook", "mode"},
		),
		HookDispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "hook_dispatch_duration_seconds",
				Help:      "Time spent running a hook chain",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"mode"},
		),
		ListenerFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hook_listener_failures_total",
				Help:      "Total number of listener failures isolated during dispatch",
			},
			[]string{"hook", "module"},
		),
		HooksRegistered: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "hooks_registered",
				Help:      "Number of hook names with at least one in-memory listener",
			},
		),

		LifecycleOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lifecycle_operations_total",
				Help:      "Module and theme lifecycle operations by outcome",
			},
			[]string{"operation", "result"},
		),
		ModulesLoaded: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "modules_loaded",
				Help:      "Number of modules in the loaded set",
			},
		),

		ThemeCacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "theme_cache_lookups_total",
				Help:      "Active theme cache lookups by result",
			},
			[]string{"result"},
		),

		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
}

// ObserveDispatch records one hook chain run.
func (c *Collector) ObserveDispatch(hookName, mode string, d time.Duration) {
	if c == nil {
		return
	}
	c.HookDispatches.WithLabelValues(hookName, mode).Inc()
	c.HookDispatchDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// ListenerFailed records an isolated listener failure.
func (c *Collector) ListenerFailed(hookName, module string) {
	if c == nil {
		return
	}
	c.ListenerFailures.WithLabelValues(hookName, module).Inc()
}

// SetHooksRegistered records the size of the in-memory hook table.
func (c *Collector) SetHooksRegistered(n int) {
	if c == nil {
		return
	}
	c.HooksRegistered.Set(float64(n))
}

// Lifecycle records a lifecycle operation outcome.
func (c *Collector) Lifecycle(op string, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.LifecycleOps.WithLabelValues(op, result).Inc()
}

// SetModulesLoaded records the size of the loaded set.
func (c *Collector) SetModulesLoaded(n int) {
	if c == nil {
		return
	}
	c.ModulesLoaded.Set(float64(n))
}

// ThemeCache records an active theme cache lookup.
func (c *Collector) ThemeCache(hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.ThemeCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	c.ThemeCacheLookups.WithLabelValues("miss").Inc()
}

// ObserveRequest records one admin API request.
func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.RequestsTotal.WithLabelValues(method, route, StatusClass(status)).Inc()
	c.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ConfigReloaded records a config reload outcome.
func (c *Collector) ConfigReloaded(err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.ConfigReloadErrors.Inc()
		return
	}
	c.ConfigReloads.Inc()
	c.ConfigLastReload.SetToCurrentTime()
}

// StatusClass collapses a status code into 2xx/3xx/4xx/5xx.
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
