package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/artpar/cmscore/adapters/memory"
	"github.com/artpar/cmscore/domain/hook"
	"github.com/artpar/cmscore/domain/module"
	"github.com/artpar/cmscore/domain/settings"
	"github.com/artpar/cmscore/domain/theme"
	"github.com/artpar/cmscore/ports"
)

// HookStore tests

func TestHookStore_UpsertKeepsSingleListenerPerModule(t *testing.T) {
	store := memory.NewHookStore()
	ctx := context.Background()

	if _, err := store.EnsureHook(ctx, hook.Hook{Name: "article.afterCreate"}); err != nil {
		t.Fatalf("EnsureHook failed: %v", err)
	}

	first, err := store.UpsertListener(ctx, hook.Listener{HookName: "article.afterCreate", ModuleSlug: "news", HandlerRef: "a", Priority: 10, Enabled: true})
	if err != nil {
		t.Fatalf("UpsertListener failed: %v", err)
	}
	second, err := store.UpsertListener(ctx, hook.Listener{HookName: "article.afterCreate", ModuleSlug: "news", HandlerRef: "b", Priority: 1, Enabled: true})
	if err != nil {
		t.Fatalf("UpsertListener failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("ID changed on upsert: %s != %s", first.ID, second.ID)
	}

	h, _ := store.GetHook(ctx, "article.afterCreate")
	if len(h.Listeners) != 1 {
		t.Fatalf("expected 1 listener, got %d", len(h.Listeners))
	}
	if h.Listeners[0].HandlerRef != "b" || h.Listeners[0].Priority != 1 {
		t.Errorf("listener = %+v, want handler b priority 1", h.Listeners[0])
	}
}

func TestHookStore_UpsertUnknownHook(t *testing.T) {
	store := memory.NewHookStore()

	_, err := store.UpsertListener(context.Background(), hook.Listener{HookName: "nope", ModuleSlug: "m"})
	if !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHookStore_OrderByPriorityThenRegistration(t *testing.T) {
	store := memory.NewHookStore()
	ctx := context.Background()
	store.EnsureHook(ctx, hook.Hook{Name: "h"})

	for _, m := range []struct {
		slug     string
		priority int
	}{{"a", 10}, {"b", 5}, {"c", 10}, {"a", 10}} {
		store.UpsertListener(ctx, hook.Listener{HookName: "h", ModuleSlug: m.slug, HandlerRef: "x", Priority: m.priority, Enabled: true})
	}

	listeners, _ := store.ListEnabledListeners(ctx)
	var got []string
	for _, l := range listeners {
		got = append(got, l.ModuleSlug)
	}
	want := []string{"b", "c", "a"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}
}

func TestHookStore_UpdateMovesBehindEqualPriority(t *testing.T) {
	store := memory.NewHookStore()
	ctx := context.Background()
	store.EnsureHook(ctx, hook.Hook{Name: "h"})

	a, _ := store.UpsertListener(ctx, hook.Listener{HookName: "h", ModuleSlug: "a", HandlerRef: "x", Priority: 1, Enabled: true})
	store.UpsertListener(ctx, hook.Listener{HookName: "h", ModuleSlug: "b", HandlerRef: "x", Priority: 5, Enabled: true})

	updatedAt := time.Date(2030, 5, 1, 9, 0, 0, 0, time.UTC)
	a.Priority = 5
	a.UpdatedAt = updatedAt
	if err := store.UpdateListener(ctx, a); err != nil {
		t.Fatalf("UpdateListener failed: %v", err)
	}

	listeners, _ := store.ListEnabledListeners(ctx)
	if len(listeners) != 2 || listeners[0].ModuleSlug != "b" || listeners[1].ModuleSlug != "a" {
		t.Errorf("order = %+v, want b then a", listeners)
	}
	got, _ := store.GetListener(ctx, a.ID)
	if !got.UpdatedAt.Equal(updatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, updatedAt)
	}
}

func TestHookStore_DeleteHookRemovesListeners(t *testing.T) {
	store := memory.NewHookStore()
	ctx := context.Background()
	store.EnsureHook(ctx, hook.Hook{Name: "h"})
	l, _ := store.UpsertListener(ctx, hook.Listener{HookName: "h", ModuleSlug: "m", HandlerRef: "x", Enabled: true})

	if err := store.DeleteHook(ctx, "h"); err != nil {
		t.Fatalf("DeleteHook failed: %v", err)
	}
	if _, err := store.GetListener(ctx, l.ID); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected listener to be gone, got %v", err)
	}
	if err := store.DeleteHook(ctx, "h"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHookStore_ModuleListeners(t *testing.T) {
	store := memory.NewHookStore()
	ctx := context.Background()
	store.EnsureHook(ctx, hook.Hook{Name: "one"})
	store.EnsureHook(ctx, hook.Hook{Name: "two"})
	store.UpsertListener(ctx, hook.Listener{HookName: "one", ModuleSlug: "m", HandlerRef: "x", Enabled: true})
	store.UpsertListener(ctx, hook.Listener{HookName: "two", ModuleSlug: "m", HandlerRef: "x"})

	enabled, _ := store.ListEnabledListeners(ctx)
	if len(enabled) != 1 {
		t.Errorf("expected 1 enabled listener, got %d", len(enabled))
	}
	owned, _ := store.ListListenersByModule(ctx, "m")
	if len(owned) != 2 {
		t.Errorf("expected 2 module listeners, got %d", len(owned))
	}

	store.DeleteListenersByModule(ctx, "m")
	left, _ := store.ListListenersByModule(ctx, "m")
	if len(left) != 0 {
		t.Errorf("expected no listeners, got %d", len(left))
	}
}

// ModuleStore tests

func TestModuleStore_CreateNormalizesDefaults(t *testing.T) {
	store := memory.NewModuleStore()
	ctx := context.Background()

	m := module.Module{ID: "m1", Slug: "analytics", Name: "Analytics", Type: module.TypeExtension,
		DefaultSettings: settings.Values{"limit": 5}}
	if err := store.Create(ctx, m); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Create(ctx, m); !errors.Is(err, ports.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	got, _ := store.Get(ctx, "analytics")
	if got.DefaultSettings["limit"] != float64(5) {
		t.Errorf("limit = %#v, want float64(5)", got.DefaultSettings["limit"])
	}

	got.DefaultSettings["limit"] = 99
	again, _ := store.Get(ctx, "analytics")
	if again.DefaultSettings["limit"] != float64(5) {
		t.Error("Get returned an aliased settings map")
	}
}

func TestModuleStore_UpsertSettingsAllOrNothing(t *testing.T) {
	store := memory.NewModuleStore()
	ctx := context.Background()
	store.Create(ctx, module.Module{ID: "m1", Slug: "analytics", Type: module.TypeExtension})

	err := store.UpsertSettings(ctx, []settings.Setting{
		{OwnerID: "m1", Key: "a", Value: 1},
		{OwnerID: "m1", Key: "b", Value: func() {}},
	})
	if err == nil {
		t.Fatal("expected encode error")
	}
	rows, _ := store.ListSettings(ctx, "m1")
	if len(rows) != 0 {
		t.Errorf("expected no rows after failed batch, got %d", len(rows))
	}

	if err := store.UpsertSettings(ctx, []settings.Setting{{OwnerID: "ghost", Key: "a", Value: 1}}); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown owner, got %v", err)
	}
}

func TestModuleStore_SetEnabledAndDelete(t *testing.T) {
	store := memory.NewModuleStore()
	ctx := context.Background()
	store.Create(ctx, module.Module{ID: "m1", Slug: "analytics", Type: module.TypeExtension})
	store.UpsertSettings(ctx, []settings.Setting{{OwnerID: "m1", Key: "a", Value: true}})

	now := time.Now()
	store.SetEnabled(ctx, "analytics", true, &now)
	enabled := true
	list, _ := store.List(ctx, module.Filter{Enabled: &enabled})
	if len(list) != 1 || list[0].EnabledAt == nil {
		t.Fatalf("expected one enabled module with timestamp, got %+v", list)
	}

	if err := store.Delete(ctx, "analytics"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	rows, _ := store.ListSettings(ctx, "m1")
	if len(rows) != 0 {
		t.Errorf("expected settings removed with module, got %d", len(rows))
	}
	if err := store.SetEnabled(ctx, "analytics", false, nil); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// ThemeStore tests

func TestThemeStore_ActivateIsExclusive(t *testing.T) {
	store := memory.NewThemeStore()
	ctx := context.Background()
	store.Create(ctx, theme.Theme{ID: "t1", Slug: "default", Name: "Default", IsDefault: true})
	store.Create(ctx, theme.Theme{ID: "t2", Slug: "custom", Name: "Custom"})

	store.Activate(ctx, "default", time.Now())
	store.Activate(ctx, "custom", time.Now())

	active := true
	list, _ := store.List(ctx, theme.Filter{Active: &active})
	if len(list) != 1 || list[0].Slug != "custom" {
		t.Errorf("expected only custom active, got %+v", list)
	}

	def, err := store.FindDefault(ctx, "custom")
	if err != nil || def.Slug != "default" {
		t.Errorf("FindDefault = %s, %v; want default", def.Slug, err)
	}

	if err := store.Activate(ctx, "ghost", time.Now()); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestThemeStore_StampsCallerTime(t *testing.T) {
	store := memory.NewThemeStore()
	ctx := context.Background()
	store.Create(ctx, theme.Theme{ID: "t1", Slug: "default", Name: "Default"})

	activatedAt := time.Date(2030, 5, 1, 9, 0, 0, 0, time.UTC)
	store.Activate(ctx, "default", activatedAt)
	got, _ := store.Get(ctx, "default")
	if !got.UpdatedAt.Equal(activatedAt) {
		t.Errorf("UpdatedAt after activate = %v, want %v", got.UpdatedAt, activatedAt)
	}

	deactivatedAt := activatedAt.Add(time.Hour)
	if err := store.Deactivate(ctx, "default", deactivatedAt); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	got, _ = store.Get(ctx, "default")
	if got.IsActive || !got.UpdatedAt.Equal(deactivatedAt) {
		t.Errorf("theme = active %v updated %v, want inactive at %v", got.IsActive, got.UpdatedAt, deactivatedAt)
	}
	if err := store.Deactivate(ctx, "ghost", deactivatedAt); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestThemeStore_Settings(t *testing.T) {
	store := memory.NewThemeStore()
	ctx := context.Background()
	store.Create(ctx, theme.Theme{ID: "t1", Slug: "default", Name: "Default"})

	store.UpsertSettings(ctx, []settings.Setting{
		{OwnerID: "t1", Key: "stickyHeader", Value: false, Type: "toggle"},
		{OwnerID: "t1", Key: "fontSize", Value: 18, Type: "number"},
	})
	rows, _ := store.ListSettings(ctx, "t1")
	if len(rows) != 2 || rows[0].Key != "fontSize" || rows[0].Value != float64(18) {
		t.Errorf("unexpected rows: %+v", rows)
	}

	store.DeleteSettings(ctx, "t1")
	rows, _ = store.ListSettings(ctx, "t1")
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

// PermissionStore tests

func TestPermissionStore_Upsert(t *testing.T) {
	store := memory.NewPermissionStore()
	ctx := context.Background()

	store.Upsert(ctx, module.Permission{Name: "news.publish", Module: "news", Action: "publish"})
	store.Upsert(ctx, module.Permission{Name: "news.publish", DisplayName: "Publish", Module: "news", Action: "publish"})
	store.Upsert(ctx, module.Permission{Name: "other.read", Module: "other", Action: "read"})

	perms, _ := store.ListByModule(ctx, "news")
	if len(perms) != 1 || perms[0].DisplayName != "Publish" {
		t.Errorf("unexpected permissions: %+v", perms)
	}
}

func TestPermissionStore_DeleteByModule(t *testing.T) {
	store := memory.NewPermissionStore()
	ctx := context.Background()

	store.Upsert(ctx, module.Permission{Name: "news.publish", Module: "news", Action: "publish"})
	store.Upsert(ctx, module.Permission{Name: "news.archive", Module: "news", Action: "archive"})
	store.Upsert(ctx, module.Permission{Name: "other.read", Module: "other", Action: "read"})

	store.DeleteByModule(ctx, "news")
	if perms, _ := store.ListByModule(ctx, "news"); len(perms) != 0 {
		t.Errorf("news permissions = %+v, want none", perms)
	}
	if perms, _ := store.ListByModule(ctx, "other"); len(perms) != 1 {
		t.Errorf("other permissions = %d, want 1", len(perms))
	}
}
