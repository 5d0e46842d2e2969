package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/artpar/cmscore/domain/module"
	"github.com/artpar/cmscore/domain/settings"
	"github.com/artpar/cmscore/ports"
)

// ModuleStore implements ports.ModuleStore using SQLite.
type ModuleStore struct {
	db *DB
}

// NewModuleStore creates a new SQLite module store.
func NewModuleStore(db *DB) *ModuleStore {
	return &ModuleStore{db: db}
}

const moduleColumns = `id, slug, name, description, version, author, icon, type, path,
	manifest, dependencies, default_settings,
	is_core, is_system, is_installed, is_enabled, installed_at, enabled_at, updated_at`

// Get retrieves a module by slug.
func (s *ModuleStore) Get(ctx context.Context, slug string) (module.Module, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+moduleColumns+` FROM modules WHERE slug = ?`, slug)
	return scanModule(row)
}

// List returns modules matching the filter, core first, then type and name.
func (s *ModuleStore) List(ctx context.Context, filter module.Filter) ([]module.Module, error) {
	var where []string
	var args []any
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Enabled != nil {
		where = append(where, "is_enabled = ?")
		args = append(args, boolToInt(*filter.Enabled))
	}
	if filter.Core != nil {
		where = append(where, "is_core = ?")
		args = append(args, boolToInt(*filter.Core))
	}

	query := `SELECT ` + moduleColumns + ` FROM modules`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY is_core DESC,
		CASE type WHEN 'CORE' THEN 0 WHEN 'EXTENSION' THEN 1 WHEN 'WIDGET' THEN 2 ELSE 3 END,
		name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var modules []module.Module
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

// Create stores a new module.
func (s *ModuleStore) Create(ctx context.Context, m module.Module) error {
	manifestJSON, err := json.Marshal(m.Manifest)
	if err != nil {
		return err
	}
	depsJSON, err := json.Marshal(nonNil(m.Dependencies))
	if err != nil {
		return err
	}
	defaultsJSON, err := json.Marshal(m.DefaultSettings.Clone())
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO modules (id, slug, name, description, version, author, icon, type, path,
			manifest, dependencies, default_settings,
			is_core, is_system, is_installed, is_enabled, installed_at, enabled_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Slug, m.Name, m.Description, m.Version, m.Author, m.Icon, string(m.Type), m.Path,
		string(manifestJSON), string(depsJSON), string(defaultsJSON),
		boolToInt(m.IsCore), boolToInt(m.IsSystem), boolToInt(m.IsInstalled), boolToInt(m.IsEnabled),
		m.InstalledAt, nullTime(m.EnabledAt), m.UpdatedAt,
	)
	return mapErr(err)
}

// SetEnabled persists the enabled flag and enabledAt.
func (s *ModuleStore) SetEnabled(ctx context.Context, slug string, enabled bool, at *time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE modules SET is_enabled = ?, enabled_at = ?, updated_at = ? WHERE slug = ?`,
		boolToInt(enabled), nullTime(at), time.Now().UTC(), slug,
	)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res)
}

// Delete removes a module; settings cascade.
func (s *ModuleStore) Delete(ctx context.Context, slug string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM modules WHERE slug = ?`, slug)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res)
}

// ListSettings returns a module's overrides.
func (s *ModuleStore) ListSettings(ctx context.Context, moduleID string) ([]settings.Setting, error) {
	return listSettings(ctx, s.db, `SELECT module_id, key, value, type, updated_at FROM module_settings WHERE module_id = ? ORDER BY key`, moduleID)
}

// UpsertSettings writes all rows in one transaction.
func (s *ModuleStore) UpsertSettings(ctx context.Context, rows []settings.Setting) error {
	return upsertSettings(ctx, s.db, `
		INSERT INTO module_settings (module_id, key, value, type, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(module_id, key) DO UPDATE SET
			value = excluded.value,
			type = excluded.type,
			updated_at = excluded.updated_at`, rows)
}

func scanModule(row scanner) (module.Module, error) {
	var m module.Module
	var typ, manifestJSON, depsJSON, defaultsJSON string
	var isCore, isSystem, isInstalled, isEnabled int
	var enabledAt sql.NullTime

	err := row.Scan(
		&m.ID, &m.Slug, &m.Name, &m.Description, &m.Version, &m.Author, &m.Icon, &typ, &m.Path,
		&manifestJSON, &depsJSON, &defaultsJSON,
		&isCore, &isSystem, &isInstalled, &isEnabled, &m.InstalledAt, &enabledAt, &m.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return module.Module{}, ports.ErrNotFound
	}
	if err != nil {
		return module.Module{}, mapErr(err)
	}

	m.Type = module.Type(typ)
	m.IsCore = isCore == 1
	m.IsSystem = isSystem == 1
	m.IsInstalled = isInstalled == 1
	m.IsEnabled = isEnabled == 1
	if enabledAt.Valid {
		t := enabledAt.Time
		m.EnabledAt = &t
	}

	if err := json.Unmarshal([]byte(manifestJSON), &m.Manifest); err != nil {
		return module.Module{}, err
	}
	if err := json.Unmarshal([]byte(depsJSON), &m.Dependencies); err != nil {
		return module.Module{}, err
	}
	if err := json.Unmarshal([]byte(defaultsJSON), &m.DefaultSettings); err != nil {
		return module.Module{}, err
	}
	if m.DefaultSettings == nil {
		m.DefaultSettings = settings.Values{}
	}
	return m, nil
}

// Ensure interface compliance.
var _ ports.ModuleStore = (*ModuleStore)(nil)
