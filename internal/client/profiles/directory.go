// Package profiles resolves user profiles for feed attribution. Lookups read
// through three layers: an in-process map, the local SQLite cache, and finally
// the durable document store.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/centinela-app/centinela/internal/client/docstore"
	"github.com/centinela-app/centinela/internal/client/models"
	"github.com/centinela-app/centinela/internal/common"
	"github.com/centinela-app/centinela/internal/logging"
)

// Directory is a read-through profile resolver.
type Directory struct {
	store  docstore.Store
	repo   Repository
	logger logging.Logger

	mu   sync.RWMutex
	mem  map[string]*models.UserProfile
	miss map[string]struct{}
}

func NewDirectory(store docstore.Store, repo Repository, logger logging.Logger) *Directory {
	return &Directory{
		store:  store,
		repo:   repo,
		logger: logger,
		mem:    make(map[string]*models.UserProfile),
		miss:   make(map[string]struct{}),
	}
}

// Resolve returns the profile for uid, or common.ErrNotFound when the user
// record does not exist. Remote misses are remembered for the session so the
// feed does not hammer the store for deleted accounts.
func (d *Directory) Resolve(ctx context.Context, uid string) (*models.UserProfile, error) {
	if uid == "" {
		return nil, common.ErrNotFound
	}

	d.mu.RLock()
	p, hit := d.mem[uid]
	_, missed := d.miss[uid]
	d.mu.RUnlock()
	if hit {
		return p, nil
	}
	if missed {
		return nil, common.ErrNotFound
	}

	if p, err := d.repo.GetByUID(ctx, uid); err == nil {
		d.remember(p)
		return p, nil
	} else if !errors.Is(err, common.ErrNotFound) {
		d.logger.Warn(ctx, "profile cache read failed", "uid", uid, "error", err)
	}

	fields, err := d.store.Get(ctx, models.CollectionUsers+"/"+uid)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			d.mu.Lock()
			d.miss[uid] = struct{}{}
			d.mu.Unlock()
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("resolve profile %s: %w", uid, err)
	}

	profile := models.DecodeUserProfile(uid, fields)
	p = &profile
	d.remember(p)
	if err := d.repo.CreateOrUpdate(ctx, p, time.Now()); err != nil {
		d.logger.Warn(ctx, "profile cache write failed", "uid", uid, "error", err)
	}
	return p, nil
}

// Handle returns the display handle for uid, falling back to the anonymous
// handle when the profile cannot be resolved.
func (d *Directory) Handle(ctx context.Context, uid string) string {
	p, err := d.Resolve(ctx, uid)
	if err != nil {
		return models.UserProfile{}.Handle()
	}
	return p.Handle()
}

func (d *Directory) remember(p *models.UserProfile) {
	d.mu.Lock()
	d.mem[p.UID] = p
	delete(d.miss, p.UID)
	d.mu.Unlock()
}
