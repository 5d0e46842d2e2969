// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/artpar/cmscore/domain/hook"
	"github.com/artpar/cmscore/domain/module"
	"github.com/artpar/cmscore/domain/settings"
	"github.com/artpar/cmscore/domain/theme"
)

// Store errors shared by every adapter.
var (
	// ErrNotFound is returned when a keyed lookup misses.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a create collides with a unique key.
	ErrDuplicate = errors.New("already exists")

	// ErrNoSchema is returned when the durable schema has not been migrated yet.
	ErrNoSchema = errors.New("schema not initialized")
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Random provides random bytes.
type Random interface {
	Bytes(n int) ([]byte, error)
}

// Hasher hashes and verifies secrets (admin tokens).
type Hasher interface {
	Hash(plaintext string) ([]byte, error)
	Compare(hash []byte, plaintext string) bool
}

// Metrics records runtime measurements. Implementations must tolerate
// concurrent calls.
type Metrics interface {
	ObserveDispatch(hookName, mode string, d time.Duration)
	ListenerFailed(hookName, module string)
	SetHooksRegistered(n int)
	Lifecycle(op string, err error)
	SetModulesLoaded(n int)
	ThemeCache(hit bool)
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// HookStore persists hooks and their listeners.
type HookStore interface {
	// GetHook retrieves a hook by name.
	GetHook(ctx context.Context, name string) (hook.Hook, error)

	// ListHooks returns all hooks ordered by name, each with its listeners
	// ordered by priority.
	ListHooks(ctx context.Context) ([]hook.Hook, error)

	// CreateHook stores a new hook. Returns ErrDuplicate if the name exists.
	CreateHook(ctx context.Context, h hook.Hook) error

	// EnsureHook creates the hook if absent and returns the stored row.
	EnsureHook(ctx context.Context, h hook.Hook) (hook.Hook, error)

	// DeleteHook removes a hook and all of its listeners.
	DeleteHook(ctx context.Context, name string) error

	// GetListener retrieves a listener by ID.
	GetListener(ctx context.Context, id string) (hook.Listener, error)

	// ListEnabledListeners returns enabled listeners ordered by priority, then
	// by registration order.
	ListEnabledListeners(ctx context.Context) ([]hook.Listener, error)

	// ListListenersByModule returns a module's listeners ordered by priority.
	ListListenersByModule(ctx context.Context, moduleSlug string) ([]hook.Listener, error)

	// UpsertListener inserts or replaces the listener keyed by
	// (HookName, ModuleSlug). The hook must exist. Returns the stored row.
	UpsertListener(ctx context.Context, l hook.Listener) (hook.Listener, error)

	// UpdateListener persists priority and enabled state.
	UpdateListener(ctx context.Context, l hook.Listener) error

	// DeleteListener removes the listener for (hookName, moduleSlug).
	DeleteListener(ctx context.Context, hookName, moduleSlug string) error

	// DeleteListenersByModule removes every listener owned by a module.
	DeleteListenersByModule(ctx context.Context, moduleSlug string) error
}

// ModuleStore persists modules and their setting overrides.
type ModuleStore interface {
	// Get retrieves a module by slug.
	Get(ctx context.Context, slug string) (module.Module, error)

	// List returns modules matching the filter, core first, then by type and name.
	List(ctx context.Context, filter module.Filter) ([]module.Module, error)

	// Create stores a new module. Returns ErrDuplicate if the slug exists.
	Create(ctx context.Context, m module.Module) error

	// SetEnabled persists the enabled flag and enabledAt (nil clears it).
	SetEnabled(ctx context.Context, slug string, enabled bool, at *time.Time) error

	// Delete removes a module and its settings.
	Delete(ctx context.Context, slug string) error

	// ListSettings returns the persisted overrides of a module.
	ListSettings(ctx context.Context, moduleID string) ([]settings.Setting, error)

	// UpsertSettings writes every row or none.
	UpsertSettings(ctx context.Context, rows []settings.Setting) error
}

// ThemeStore persists themes and their setting overrides.
type ThemeStore interface {
	// Get retrieves a theme by slug.
	Get(ctx context.Context, slug string) (theme.Theme, error)

	// GetActive returns the active theme or ErrNotFound.
	GetActive(ctx context.Context) (theme.Theme, error)

	// FindDefault returns a theme flagged default other than exclude.
	FindDefault(ctx context.Context, exclude string) (theme.Theme, error)

	// List returns themes matching the filter, active first, then default, then name.
	List(ctx context.Context, filter theme.Filter) ([]theme.Theme, error)

	// Create stores a new theme. Returns ErrDuplicate if the slug exists.
	Create(ctx context.Context, t theme.Theme) error

	// Activate clears the active flag on every theme and sets it on slug,
	// as one atomic unit.
	Activate(ctx context.Context, slug string, at time.Time) error

	// Deactivate clears the active flag on slug.
	Deactivate(ctx context.Context, slug string, at time.Time) error

	// Delete removes a theme and its settings.
	Delete(ctx context.Context, slug string) error

	// ListSettings returns the persisted overrides of a theme.
	ListSettings(ctx context.Context, themeID string) ([]settings.Setting, error)

	// UpsertSettings writes every row or none.
	UpsertSettings(ctx context.Context, rows []settings.Setting) error

	// DeleteSettings removes every override of a theme.
	DeleteSettings(ctx context.Context, themeID string) error
}

// PermissionStore is the permission registry modules contribute to.
type PermissionStore interface {
	// Upsert inserts or replaces the permission keyed by (Module, Action).
	Upsert(ctx context.Context, p module.Permission) error

	// ListByModule returns the permissions a module registered.
	ListByModule(ctx context.Context, moduleSlug string) ([]module.Permission, error)

	// DeleteByModule removes every permission a module registered.
	DeleteByModule(ctx context.Context, moduleSlug string) error
}
