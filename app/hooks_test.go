package app_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/artpar/cmscore/adapters/metrics"
	"github.com/artpar/cmscore/adapters/tracing"
	"github.com/artpar/cmscore/app"
	"github.com/artpar/cmscore/domain/cmserr"
	"github.com/artpar/cmscore/domain/hook"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"pgregory.net/rapid"
)

func TestHookRegistry_RegisterIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := newFixture(app.Observability{})
		ctx := context.Background()

		modules := []string{"seo", "news", "cache", "audit"}
		n := rapid.IntRange(1, 30).Draw(t, "registrations")
		last := map[string]int{}
		for i := 0; i < n; i++ {
			mod := rapid.SampledFrom(modules).Draw(t, "module")
			prio := rapid.IntRange(0, 5).Draw(t, "priority")
			_, err := f.hooks.RegisterListener(ctx, app.ListenerSpec{Hook: "h", Module: mod, Handler: "x", Priority: intPtr(prio)})
			require.NoError(t, err)
			last[mod] = prio
		}

		entries := f.hooks.Handlers("h")
		require.Len(t, entries, len(last))
		seen := map[string]bool{}
		for _, e := range entries {
			require.False(t, seen[e.Module], "duplicate entry for %s", e.Module)
			seen[e.Module] = true
			require.Equal(t, last[e.Module], e.Priority)
		}

		h, err := f.hooks.GetHook(ctx, "h")
		require.NoError(t, err)
		require.Len(t, h.Listeners, len(last))
	})
}

func TestHookRegistry_DispatchOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := newFixture(app.Observability{})
		ctx := context.Background()
		rec := &recorder{}
		f.handlers.Register("rec", rec.handle)

		type reg struct {
			prio  int
			index int
		}
		latest := map[string]reg{}
		n := rapid.IntRange(1, 20).Draw(t, "registrations")
		for i := 0; i < n; i++ {
			mod := fmt.Sprintf("m%d", rapid.IntRange(0, 6).Draw(t, "module"))
			prio := rapid.IntRange(0, 3).Draw(t, "priority")
			_, err := f.hooks.RegisterListener(ctx, app.ListenerSpec{Hook: "h", Module: mod, Handler: "rec", Priority: intPtr(prio)})
			require.NoError(t, err)
			latest[mod] = reg{prio: prio, index: i}
		}

		want := make([]string, 0, len(latest))
		for mod := range latest {
			want = append(want, mod)
		}
		sort.Slice(want, func(i, j int) bool {
			a, b := latest[want[i]], latest[want[j]]
			if a.prio != b.prio {
				return a.prio < b.prio
			}
			return a.index < b.index
		})

		f.hooks.DispatchAction(ctx, "h", nil)
		require.Equal(t, want, rec.modules())
	})
}

func TestHookRegistry_FilterIdentityWithoutListeners(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := newFixture(app.Observability{})
		ctx := context.Background()

		x := rapid.OneOf(
			rapid.Just[any](nil),
			rapid.Map(rapid.Int(), func(n int) any { return n }),
			rapid.Map(rapid.String(), func(s string) any { return s }),
		).Draw(t, "payload")

		require.Equal(t, x, f.hooks.DispatchFilter(ctx, "nothing.here", x))

		// Disabled listeners do not count.
		_, err := f.hooks.RegisterListener(ctx, app.ListenerSpec{Hook: "off", Module: "m", Handler: "x", Enabled: boolPtr(false)})
		require.NoError(t, err)
		require.Equal(t, x, f.hooks.DispatchFilter(ctx, "off", x))
	})
}

func TestHookRegistry_FailingListenerIsIdentity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := newFixture(app.Observability{})
		ctx := context.Background()

		n := rapid.IntRange(1, 8).Draw(t, "listeners")
		bad := rapid.IntRange(0, n-1).Draw(t, "failing")
		panics := rapid.Bool().Draw(t, "panics")

		f.handlers.Register("add", func(_ context.Context, inv app.Invocation) (any, error) {
			return inv.Payload.(int) + 1, nil
		})
		f.handlers.Register("fail", func(_ context.Context, inv app.Invocation) (any, error) {
			if panics {
				panic("boom")
			}
			return 1000, errors.New("boom")
		})

		for i := 0; i < n; i++ {
			handler := "add"
			if i == bad {
				handler = "fail"
			}
			_, err := f.hooks.RegisterListener(ctx, app.ListenerSpec{
				Hook: "h", Module: fmt.Sprintf("m%d", i), Handler: handler, Priority: intPtr(i),
			})
			require.NoError(t, err)
		}

		x := rapid.IntRange(-100, 100).Draw(t, "x")
		require.Equal(t, x+n-1, f.hooks.DispatchFilter(ctx, "h", x))
	})
}

func TestHookRegistry_UnresolvedHandlerPassesThrough(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()

	_, err := f.hooks.RegisterListener(ctx, app.ListenerSpec{Hook: "h", Module: "m", Handler: "unknown"})
	require.NoError(t, err)
	require.Equal(t, "payload", f.hooks.DispatchFilter(ctx, "h", "payload"))
}

func TestHookRegistry_ModuleScopedHandlerWins(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()

	f.handlers.Register("tag", func(context.Context, app.Invocation) (any, error) { return "global", nil })
	f.handlers.Register("seo:tag", func(context.Context, app.Invocation) (any, error) { return "scoped", nil })

	_, err := f.hooks.RegisterListener(ctx, app.ListenerSpec{Hook: "h", Module: "seo", Handler: "tag"})
	require.NoError(t, err)
	require.Equal(t, "scoped", f.hooks.DispatchFilter(ctx, "h", "in"))
}

func TestHookRegistry_ListenerTimeout(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()
	hooks := app.NewHookRegistry(f.hookStore, f.handlers, zerolog.Nop(), app.HookRegistryConfig{ListenerTimeout: 10 * time.Millisecond})

	f.handlers.Register("slow", func(ctx context.Context, inv app.Invocation) (any, error) {
		<-ctx.Done()
		return "late", nil
	})
	f.handlers.Register("fast", func(_ context.Context, inv app.Invocation) (any, error) {
		return inv.Payload.(string) + "!", nil
	})

	_, err := hooks.RegisterListener(ctx, app.ListenerSpec{Hook: "h", Module: "a", Handler: "slow", Priority: intPtr(1)})
	require.NoError(t, err)
	_, err = hooks.RegisterListener(ctx, app.ListenerSpec{Hook: "h", Module: "b", Handler: "fast", Priority: intPtr(2)})
	require.NoError(t, err)

	require.Equal(t, "in!", hooks.DispatchFilter(ctx, "h", "in"))
}

func TestHookRegistry_UpdateAndRemoveListener(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()

	a, err := f.hooks.RegisterListener(ctx, app.ListenerSpec{Hook: "h", Module: "a", Handler: "x", Priority: intPtr(1)})
	require.NoError(t, err)
	_, err = f.hooks.RegisterListener(ctx, app.ListenerSpec{Hook: "h", Module: "b", Handler: "x", Priority: intPtr(5)})
	require.NoError(t, err)

	_, err = f.hooks.UpdateListener(ctx, a.ID, app.ListenerPatch{Priority: intPtr(9)})
	require.NoError(t, err)
	entries := f.hooks.Handlers("h")
	require.Equal(t, "b", entries[0].Module)
	require.Equal(t, "a", entries[1].Module)

	_, err = f.hooks.UpdateListener(ctx, a.ID, app.ListenerPatch{Enabled: boolPtr(false)})
	require.NoError(t, err)
	require.Len(t, f.hooks.Handlers("h"), 1)

	require.NoError(t, f.hooks.RemoveListener(ctx, "h", "b"))
	require.False(t, f.hooks.HasHandlers("h"))
	require.Empty(t, f.hooks.RegisteredHooks())

	err = f.hooks.RemoveListener(ctx, "h", "b")
	require.ErrorIs(t, err, cmserr.ErrNotFound)

	_, err = f.hooks.UpdateListener(ctx, "missing", app.ListenerPatch{})
	require.ErrorIs(t, err, cmserr.ErrNotFound)
}

func TestHookRegistry_ListenerTimestampsFollowClock(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()

	registeredAt := time.Date(2030, 5, 1, 9, 0, 0, 0, time.UTC)
	f.clock.Set(registeredAt)
	l, err := f.hooks.RegisterListener(ctx, app.ListenerSpec{Hook: "h", Module: "a", Handler: "x"})
	require.NoError(t, err)
	require.WithinDuration(t, registeredAt, l.CreatedAt, time.Minute)

	updatedAt := registeredAt.Add(24 * time.Hour)
	f.clock.Set(updatedAt)
	_, err = f.hooks.UpdateListener(ctx, l.ID, app.ListenerPatch{Priority: intPtr(3)})
	require.NoError(t, err)

	stored, err := f.hookStore.GetListener(ctx, l.ID)
	require.NoError(t, err)
	require.Equal(t, l.CreatedAt, stored.CreatedAt)
	require.Equal(t, updatedAt, stored.UpdatedAt)
}

func TestHookRegistry_UpdatedListenerOrderMatchesStore(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()

	a, err := f.hooks.RegisterListener(ctx, app.ListenerSpec{Hook: "h", Module: "a", Handler: "x", Priority: intPtr(1)})
	require.NoError(t, err)
	_, err = f.hooks.RegisterListener(ctx, app.ListenerSpec{Hook: "h", Module: "b", Handler: "x", Priority: intPtr(5)})
	require.NoError(t, err)

	_, err = f.hooks.UpdateListener(ctx, a.ID, app.ListenerPatch{Priority: intPtr(5)})
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, entryModules(f.hooks.Handlers("h")))

	// A rebuild from the store yields the same chain.
	require.NoError(t, f.hooks.Initialize(ctx))
	require.Equal(t, []string{"b", "a"}, entryModules(f.hooks.Handlers("h")))
}

func TestHookRegistry_RegisterValidation(t *testing.T) {
	f := newFixture(app.Observability{})

	_, err := f.hooks.RegisterListener(context.Background(), app.ListenerSpec{Hook: "h"})
	require.ErrorIs(t, err, cmserr.ErrInvalidManifest)
	require.ElementsMatch(t, []string{"missing module", "missing handler"}, cmserr.NamesOf(err))
}

func TestHookRegistry_DeleteHook(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()

	for _, h := range hook.SystemHooks() {
		require.NoError(t, f.hookStore.CreateHook(ctx, h))
	}
	err := f.hooks.DeleteHook(ctx, hook.SystemInit)
	require.ErrorIs(t, err, cmserr.ErrInvariantViolation)

	_, err = f.hooks.CreateHook(ctx, "custom.event", "custom")
	require.NoError(t, err)
	_, err = f.hooks.CreateHook(ctx, "custom.event", "again")
	require.ErrorIs(t, err, cmserr.ErrConflict)

	_, err = f.hooks.RegisterListener(ctx, app.ListenerSpec{Hook: "custom.event", Module: "m", Handler: "x"})
	require.NoError(t, err)
	require.NoError(t, f.hooks.DeleteHook(ctx, "custom.event"))
	require.False(t, f.hooks.HasHandlers("custom.event"))

	_, err = f.hooks.GetHook(ctx, "custom.event")
	require.ErrorIs(t, err, cmserr.ErrNotFound)
}

func TestHookRegistry_InitializeRebuildsChains(t *testing.T) {
	f := newFixture(app.Observability{})
	ctx := context.Background()

	_, err := f.hooks.RegisterListener(ctx, app.ListenerSpec{Hook: "h", Module: "a", Handler: "x", Priority: intPtr(3)})
	require.NoError(t, err)
	_, err = f.hooks.RegisterListener(ctx, app.ListenerSpec{Hook: "h", Module: "b", Handler: "x", Priority: intPtr(1)})
	require.NoError(t, err)
	_, err = f.hooks.RegisterListener(ctx, app.ListenerSpec{Hook: "h", Module: "c", Handler: "x", Enabled: boolPtr(false)})
	require.NoError(t, err)

	fresh := app.NewHookRegistry(f.hookStore, f.handlers, zerolog.Nop(), app.HookRegistryConfig{})
	require.NoError(t, fresh.Initialize(ctx))
	require.Equal(t, f.hooks.Handlers("h"), fresh.Handlers("h"))
	require.Equal(t, []string{"h"}, fresh.RegisteredHooks())
}

func TestHookRegistry_Observability(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	provider := tracing.NewWithProcessor("test", rec)
	collector := metrics.NewWithRegistry(prometheus.NewRegistry())

	f := newFixture(app.Observability{Tracer: provider.Tracer(), Metrics: collector})
	ctx := context.Background()
	f.handlers.Register("fail", func(context.Context, app.Invocation) (any, error) {
		return nil, errors.New("boom")
	})

	_, err := f.hooks.RegisterListener(ctx, app.ListenerSpec{Hook: "h", Module: "bad", Handler: "fail"})
	require.NoError(t, err)
	f.hooks.DispatchAction(ctx, "h", nil)

	require.Equal(t, 1.0, testutil.ToFloat64(collector.ListenerFailures.WithLabelValues("h", "bad")))
	require.Equal(t, 1.0, testutil.ToFloat64(collector.HookDispatches.WithLabelValues("h", "action")))
	require.Equal(t, 1.0, testutil.ToFloat64(collector.HooksRegistered))

	var found bool
	for _, s := range rec.Ended() {
		if s.Name() == "hook.dispatch" {
			found = true
			require.Len(t, s.Events(), 1)
			require.Equal(t, "listener.failed", s.Events()[0].Name)
		}
	}
	require.True(t, found, "hook.dispatch span not recorded")
}
