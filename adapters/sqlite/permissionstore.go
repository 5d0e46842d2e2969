package sqlite

import (
	"context"
	"time"

	"github.com/artpar/cmscore/domain/module"
	"github.com/artpar/cmscore/ports"
)

// PermissionStore implements ports.PermissionStore using SQLite.
type PermissionStore struct {
	db    *DB
	newID func() string
}

// NewPermissionStore creates a new SQLite permission store.
func NewPermissionStore(db *DB, newID func() string) *PermissionStore {
	return &PermissionStore{db: db, newID: newID}
}

// Upsert inserts or replaces the permission keyed by (module, action).
func (s *PermissionStore) Upsert(ctx context.Context, p module.Permission) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO permissions (id, name, display_name, description, module, action, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(module, action) DO UPDATE SET
			name = excluded.name,
			display_name = excluded.display_name,
			description = excluded.description`,
		s.newID(), p.Name, p.DisplayName, p.Description, p.Module, p.Action, time.Now().UTC(),
	)
	return mapErr(err)
}

// ListByModule returns the permissions a module registered, by action.
func (s *PermissionStore) ListByModule(ctx context.Context, moduleSlug string) ([]module.Permission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, display_name, description, module, action
		FROM permissions WHERE module = ? ORDER BY action ASC`, moduleSlug)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var perms []module.Permission
	for rows.Next() {
		var p module.Permission
		if err := rows.Scan(&p.Name, &p.DisplayName, &p.Description, &p.Module, &p.Action); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// DeleteByModule removes every permission a module registered.
func (s *PermissionStore) DeleteByModule(ctx context.Context, moduleSlug string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM permissions WHERE module = ?`, moduleSlug)
	return mapErr(err)
}

// Ensure interface compliance.
var _ ports.PermissionStore = (*PermissionStore)(nil)
