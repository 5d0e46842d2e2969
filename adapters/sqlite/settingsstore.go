package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/artpar/cmscore/domain/settings"
)

// listSettings reads override rows for module_settings or theme_settings.
// The query must select owner, key, value, type, updated_at.
func listSettings(ctx context.Context, db *DB, query string, ownerID string) ([]settings.Setting, error) {
	rows, err := db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var result []settings.Setting
	for rows.Next() {
		var st settings.Setting
		var raw string
		if err := rows.Scan(&st.OwnerID, &st.Key, &raw, &st.Type, &st.UpdatedAt); err != nil {
			return nil, err
		}
		if st.Value, err = settings.DecodeValue(raw); err != nil {
			return nil, err
		}
		result = append(result, st)
	}
	return result, rows.Err()
}

// upsertSettings writes every row with one prepared statement inside a
// transaction, so a failing row leaves no partial update behind.
func upsertSettings(ctx context.Context, db *DB, stmtSQL string, batch []settings.Setting) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		return mapErr(err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, st := range batch {
		raw, err := settings.EncodeValue(st.Value)
		if err != nil {
			return err
		}
		updatedAt := st.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = now
		}
		if _, err := stmt.ExecContext(ctx, st.OwnerID, st.Key, raw, st.Type, updatedAt); err != nil {
			return mapErr(err)
		}
	}

	return tx.Commit()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
