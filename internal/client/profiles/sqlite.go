package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/centinela-app/centinela/internal/client/models"
	"github.com/centinela-app/centinela/internal/common"
	"github.com/centinela-app/centinela/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// CreateOrUpdate upserts a profile by uid. On conflict all columns are replaced.
func (r *SQLiteRepository) CreateOrUpdate(ctx context.Context, p *models.UserProfile, fetchedAt time.Time) error {
	query := ` INSERT INTO user_profiles (uid, display_name, username, region, photo_ref, fetched_at)
			values (?, ?, ?, ?, ?, ?)
			ON CONFLICT(uid) DO UPDATE SET display_name = excluded.display_name,
				username = excluded.username,
				region = excluded.region,
				photo_ref = excluded.photo_ref,
				fetched_at = excluded.fetched_at
	`
	_, err := r.db.ExecContext(ctx, query,
		p.UID, p.DisplayName, p.Username, p.Region, p.PhotoRef, fetchedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByUID(ctx context.Context, uid string) (*models.UserProfile, error) {
	query := `select uid, display_name, username, region, photo_ref from user_profiles where uid=?`
	row := r.db.QueryRowContext(ctx, query, uid)

	p := &models.UserProfile{}
	if err := row.Scan(&p.UID, &p.DisplayName, &p.Username, &p.Region, &p.PhotoRef); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) error {
	query := `delete from user_profiles where fetched_at < ?`
	if _, err := r.db.ExecContext(ctx, query, cutoff.UnixMilli()); err != nil {
		return fmt.Errorf("failed to purge profiles: %w", err)
	}
	return nil
}
