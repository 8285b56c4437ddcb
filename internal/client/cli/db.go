package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/centinela-app/centinela/internal/client/migrations"
	"github.com/centinela-app/centinela/internal/client/models"
	"github.com/centinela-app/centinela/internal/client/profiles"
	"github.com/centinela-app/centinela/internal/common"
	"github.com/centinela-app/centinela/internal/dbx"
)

// Repositories bundles the local-cache repositories behind one handle.
type Repositories struct {
	Profiles profiles.Repository
	db       *sql.DB
}

func (r *Repositories) Close() error {
	return r.db.Close()
}

// WarmProfiles inserts profiles not yet cached, in one transaction so a
// partial warm never leaves the cache half-updated. Existing rows are left
// alone: a warmed profile only carries attribution, a resolved one is richer.
func (r *Repositories) WarmProfiles(ctx context.Context, ps []models.UserProfile, fetchedAt time.Time) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := profiles.NewSQLiteRepository(tx)
		for i := range ps {
			if _, err := repo.GetByUID(ctx, ps[i].UID); err == nil {
				continue
			} else if !errors.Is(err, common.ErrNotFound) {
				return err
			}
			if err := repo.CreateOrUpdate(ctx, &ps[i], fetchedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

// RunMigrations brings the local cache schema up to date using the embedded
// goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the SQLite cache at dsn, migrates it, and returns the
// repositories bound to it.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		Profiles: profiles.NewSQLiteRepository(db),
		db:       db,
	}, nil
}
