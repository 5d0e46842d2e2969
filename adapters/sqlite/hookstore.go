package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/artpar/cmscore/domain/hook"
	"github.com/artpar/cmscore/ports"
)

// HookStore implements ports.HookStore using SQLite.
type HookStore struct {
	db    *DB
	newID func() string
}

// NewHookStore creates a new SQLite hook store. newID generates row IDs.
func NewHookStore(db *DB, newID func() string) *HookStore {
	return &HookStore{db: db, newID: newID}
}

const listenerColumns = `id, hook_id, hook_name, module_slug, handler_ref, priority, enabled, created_at, updated_at`

// GetHook retrieves a hook by name.
func (s *HookStore) GetHook(ctx context.Context, name string) (hook.Hook, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, is_system, created_at FROM hooks WHERE name = ?`, name)
	h, err := scanHook(row)
	if err != nil {
		return hook.Hook{}, err
	}

	h.Listeners, err = s.listListeners(ctx, `WHERE hook_id = ? ORDER BY priority ASC, seq ASC`, h.ID)
	if err != nil {
		return hook.Hook{}, err
	}
	return h, nil
}

// ListHooks returns all hooks ordered by name with listeners by priority.
func (s *HookStore) ListHooks(ctx context.Context) ([]hook.Hook, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, is_system, created_at FROM hooks ORDER BY name ASC`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var hooks []hook.Hook
	index := map[string]int{}
	for rows.Next() {
		h, err := scanHook(rows)
		if err != nil {
			return nil, err
		}
		index[h.ID] = len(hooks)
		hooks = append(hooks, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	listeners, err := s.listListeners(ctx, `ORDER BY priority ASC, seq ASC`)
	if err != nil {
		return nil, err
	}
	for _, l := range listeners {
		if i, ok := index[l.HookID]; ok {
			hooks[i].Listeners = append(hooks[i].Listeners, l)
		}
	}
	return hooks, nil
}

// CreateHook stores a new hook.
func (s *HookStore) CreateHook(ctx context.Context, h hook.Hook) error {
	if h.ID == "" {
		h.ID = s.newID()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO hooks (id, name, description, is_system, created_at) VALUES (?, ?, ?, ?, ?)`,
		h.ID, h.Name, h.Description, boolToInt(h.IsSystem), h.CreatedAt,
	)
	return mapErr(err)
}

// EnsureHook creates the hook if absent and returns the stored row.
func (s *HookStore) EnsureHook(ctx context.Context, h hook.Hook) (hook.Hook, error) {
	if h.ID == "" {
		h.ID = s.newID()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO hooks (id, name, description, is_system, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO NOTHING`,
		h.ID, h.Name, h.Description, boolToInt(h.IsSystem), h.CreatedAt,
	)
	if err != nil {
		return hook.Hook{}, mapErr(err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, is_system, created_at FROM hooks WHERE name = ?`, h.Name)
	return scanHook(row)
}

// DeleteHook removes a hook; listeners cascade.
func (s *HookStore) DeleteHook(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM hooks WHERE name = ?`, name)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res)
}

// GetListener retrieves a listener by ID.
func (s *HookStore) GetListener(ctx context.Context, id string) (hook.Listener, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+listenerColumns+` FROM hook_listeners WHERE id = ?`, id)
	return scanListener(row)
}

// ListEnabledListeners returns enabled listeners in dispatch order.
func (s *HookStore) ListEnabledListeners(ctx context.Context) ([]hook.Listener, error) {
	return s.listListeners(ctx, `WHERE enabled = 1 ORDER BY priority ASC, seq ASC`)
}

// ListListenersByModule returns a module's listeners ordered by priority.
func (s *HookStore) ListListenersByModule(ctx context.Context, moduleSlug string) ([]hook.Listener, error) {
	return s.listListeners(ctx, `WHERE module_slug = ? ORDER BY priority ASC, seq ASC`, moduleSlug)
}

// UpsertListener inserts or replaces the listener keyed by (hook, module).
// Every upsert takes a new seq so it sorts behind equal priorities.
func (s *HookStore) UpsertListener(ctx context.Context, l hook.Listener) (hook.Listener, error) {
	if l.ID == "" {
		l.ID = s.newID()
	}
	stampListener(&l)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hook_listeners (id, hook_id, hook_name, module_slug, handler_ref, priority, enabled, seq, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM hook_listeners), ?, ?)
		ON CONFLICT(hook_name, module_slug) DO UPDATE SET
			handler_ref = excluded.handler_ref,
			priority = excluded.priority,
			enabled = excluded.enabled,
			seq = excluded.seq,
			updated_at = excluded.updated_at`,
		l.ID, l.HookID, l.HookName, l.ModuleSlug, l.HandlerRef, l.Priority, boolToInt(l.Enabled), l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return hook.Listener{}, mapErr(err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+listenerColumns+` FROM hook_listeners WHERE hook_name = ? AND module_slug = ?`,
		l.HookName, l.ModuleSlug)
	return scanListener(row)
}

// UpdateListener persists priority and enabled state. Like an upsert it
// takes a new seq, so the listener sorts behind equal priorities.
func (s *HookStore) UpdateListener(ctx context.Context, l hook.Listener) error {
	stampListener(&l)
	res, err := s.db.ExecContext(ctx, `
		UPDATE hook_listeners SET priority = ?, enabled = ?,
			seq = (SELECT COALESCE(MAX(seq), 0) + 1 FROM hook_listeners),
			updated_at = ?
		WHERE id = ?`,
		l.Priority, boolToInt(l.Enabled), l.UpdatedAt, l.ID,
	)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res)
}

// DeleteListener removes the listener for (hook, module).
func (s *HookStore) DeleteListener(ctx context.Context, hookName, moduleSlug string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM hook_listeners WHERE hook_name = ? AND module_slug = ?`, hookName, moduleSlug)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res)
}

// DeleteListenersByModule removes every listener owned by a module.
func (s *HookStore) DeleteListenersByModule(ctx context.Context, moduleSlug string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM hook_listeners WHERE module_slug = ?`, moduleSlug)
	return mapErr(err)
}

// stampListener fills timestamps the caller left zero.
func stampListener(l *hook.Listener) {
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = time.Now().UTC()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = l.UpdatedAt
	}
}

func (s *HookStore) listListeners(ctx context.Context, tail string, args ...any) ([]hook.Listener, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+listenerColumns+` FROM hook_listeners `+tail, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var listeners []hook.Listener
	for rows.Next() {
		l, err := scanListener(rows)
		if err != nil {
			return nil, err
		}
		listeners = append(listeners, l)
	}
	return listeners, rows.Err()
}

func scanHook(row scanner) (hook.Hook, error) {
	var h hook.Hook
	var isSystem int
	err := row.Scan(&h.ID, &h.Name, &h.Description, &isSystem, &h.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return hook.Hook{}, ports.ErrNotFound
	}
	if err != nil {
		return hook.Hook{}, mapErr(err)
	}
	h.IsSystem = isSystem == 1
	return h, nil
}

func scanListener(row scanner) (hook.Listener, error) {
	var l hook.Listener
	var enabled int
	err := row.Scan(&l.ID, &l.HookID, &l.HookName, &l.ModuleSlug, &l.HandlerRef,
		&l.Priority, &enabled, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return hook.Listener{}, ports.ErrNotFound
	}
	if err != nil {
		return hook.Listener{}, mapErr(err)
	}
	l.Enabled = enabled == 1
	return l, nil
}

// Ensure interface compliance.
var _ ports.HookStore = (*HookStore)(nil)
