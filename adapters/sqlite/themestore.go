package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/artpar/cmscore/domain/settings"
	"github.com/artpar/cmscore/domain/theme"
	"github.com/artpar/cmscore/ports"
)

// ThemeStore implements ports.ThemeStore using SQLite.
type ThemeStore struct {
	db *DB
}

// NewThemeStore creates a new SQLite theme store.
func NewThemeStore(db *DB) *ThemeStore {
	return &ThemeStore{db: db}
}

const themeColumns = `id, slug, name, description, version, author, preview_image, path,
	manifest, features, default_settings,
	is_active, is_default, is_system, installed_at, activated_at, updated_at`

// Get retrieves a theme by slug.
func (s *ThemeStore) Get(ctx context.Context, slug string) (theme.Theme, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+themeColumns+` FROM themes WHERE slug = ?`, slug)
	return scanTheme(row)
}

// GetActive returns the active theme.
func (s *ThemeStore) GetActive(ctx context.Context) (theme.Theme, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+themeColumns+` FROM themes WHERE is_active = 1 LIMIT 1`)
	return scanTheme(row)
}

// FindDefault returns a default theme other than exclude.
func (s *ThemeStore) FindDefault(ctx context.Context, exclude string) (theme.Theme, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+themeColumns+` FROM themes WHERE is_default = 1 AND slug != ? ORDER BY name ASC LIMIT 1`,
		exclude)
	return scanTheme(row)
}

// List returns themes matching the filter: active first, then default, then name.
func (s *ThemeStore) List(ctx context.Context, filter theme.Filter) ([]theme.Theme, error) {
	var where []string
	var args []any
	if filter.Active != nil {
		where = append(where, "is_active = ?")
		args = append(args, boolToInt(*filter.Active))
	}
	if filter.Default != nil {
		where = append(where, "is_default = ?")
		args = append(args, boolToInt(*filter.Default))
	}

	query := `SELECT ` + themeColumns + ` FROM themes`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY is_active DESC, is_default DESC, name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var themes []theme.Theme
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			return nil, err
		}
		themes = append(themes, t)
	}
	return themes, rows.Err()
}

// Create stores a new theme.
func (s *ThemeStore) Create(ctx context.Context, t theme.Theme) error {
	manifestJSON, err := json.Marshal(t.Manifest)
	if err != nil {
		return err
	}
	featuresJSON, err := json.Marshal(nonNil(t.Features))
	if err != nil {
		return err
	}
	defaultsJSON, err := json.Marshal(t.DefaultSettings.Clone())
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO themes (id, slug, name, description, version, author, preview_image, path,
			manifest, features, default_settings,
			is_active, is_default, is_system, installed_at, activated_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Slug, t.Name, t.Description, t.Version, t.Author, t.PreviewImage, t.Path,
		string(manifestJSON), string(featuresJSON), string(defaultsJSON),
		boolToInt(t.IsActive), boolToInt(t.IsDefault), boolToInt(t.IsSystem),
		t.InstalledAt, nullTime(t.ActivatedAt), t.UpdatedAt,
	)
	return mapErr(err)
}

// Activate clears every active flag and sets slug active in one transaction.
func (s *ThemeStore) Activate(ctx context.Context, slug string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM themes WHERE slug = ?`, slug).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.ErrNotFound
	}
	if err != nil {
		return mapErr(err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE themes SET is_active = 0, updated_at = ? WHERE is_active = 1`, at); err != nil {
		return mapErr(err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE themes SET is_active = 1, activated_at = ?, updated_at = ? WHERE slug = ?`,
		at, at, slug); err != nil {
		return mapErr(err)
	}

	return tx.Commit()
}

// Deactivate clears the active flag on slug.
func (s *ThemeStore) Deactivate(ctx context.Context, slug string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE themes SET is_active = 0, updated_at = ? WHERE slug = ?`, at, slug)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res)
}

// Delete removes a theme; settings cascade.
func (s *ThemeStore) Delete(ctx context.Context, slug string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM themes WHERE slug = ?`, slug)
	if err != nil {
		return mapErr(err)
	}
	return requireAffected(res)
}

// ListSettings returns a theme's overrides.
func (s *ThemeStore) ListSettings(ctx context.Context, themeID string) ([]settings.Setting, error) {
	return listSettings(ctx, s.db, `SELECT theme_id, key, value, type, updated_at FROM theme_settings WHERE theme_id = ? ORDER BY key`, themeID)
}

// UpsertSettings writes all rows in one transaction.
func (s *ThemeStore) UpsertSettings(ctx context.Context, rows []settings.Setting) error {
	return upsertSettings(ctx, s.db, `
		INSERT INTO theme_settings (theme_id, key, value, type, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(theme_id, key) DO UPDATE SET
			value = excluded.value,
			type = excluded.type,
			updated_at = excluded.updated_at`, rows)
}

// DeleteSettings removes every override of a theme.
func (s *ThemeStore) DeleteSettings(ctx context.Context, themeID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM theme_settings WHERE theme_id = ?`, themeID)
	return mapErr(err)
}

func scanTheme(row scanner) (theme.Theme, error) {
	var t theme.Theme
	var manifestJSON, featuresJSON, defaultsJSON string
	var isActive, isDefault, isSystem int
	var activatedAt sql.NullTime

	err := row.Scan(
		&t.ID, &t.Slug, &t.Name, &t.Description, &t.Version, &t.Author, &t.PreviewImage, &t.Path,
		&manifestJSON, &featuresJSON, &defaultsJSON,
		&isActive, &isDefault, &isSystem, &t.InstalledAt, &activatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return theme.Theme{}, ports.ErrNotFound
	}
	if err != nil {
		return theme.Theme{}, mapErr(err)
	}

	t.IsActive = isActive == 1
	t.IsDefault = isDefault == 1
	t.IsSystem = isSystem == 1
	if activatedAt.Valid {
		at := activatedAt.Time
		t.ActivatedAt = &at
	}

	if err := json.Unmarshal([]byte(manifestJSON), &t.Manifest); err != nil {
		return theme.Theme{}, err
	}
	if err := json.Unmarshal([]byte(featuresJSON), &t.Features); err != nil {
		return theme.Theme{}, err
	}
	if err := json.Unmarshal([]byte(defaultsJSON), &t.DefaultSettings); err != nil {
		return theme.Theme{}, err
	}
	if t.DefaultSettings == nil {
		t.DefaultSettings = settings.Values{}
	}
	return t, nil
}

// Ensure interface compliance.
var _ ports.ThemeStore = (*ThemeStore)(nil)
