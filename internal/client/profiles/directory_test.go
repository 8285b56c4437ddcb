package profiles

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centinela-app/centinela/internal/client/docstore"
	"github.com/centinela-app/centinela/internal/client/models"
	"github.com/centinela-app/centinela/internal/common"
	"github.com/centinela-app/centinela/internal/logging"
)

// memRepo is an in-process Repository fake.
type memRepo struct {
	mu       sync.Mutex
	profiles map[string]models.UserProfile
	writes   int
}

func newMemRepo() *memRepo {
	return &memRepo{profiles: make(map[string]models.UserProfile)}
}

func (r *memRepo) GetByUID(ctx context.Context, uid string) (*models.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[uid]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &p, nil
}

func (r *memRepo) CreateOrUpdate(ctx context.Context, p *models.UserProfile, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.UID] = *p
	r.writes++
	return nil
}

func (r *memRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) error { return nil }

// countingStore wraps docstore.Memory counting Get calls.
type countingStore struct {
	*docstore.Memory
	gets int
}

func (s *countingStore) Get(ctx context.Context, path string) (map[string]any, error) {
	s.gets++
	return s.Memory.Get(ctx, path)
}

func TestResolve_ReadThroughAndCache(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Memory: docstore.NewMemory()}
	require.NoError(t, store.Set(ctx, "Users/u1", map[string]any{"name": "Ana", "username": "ana", "state": "Jalisco"}))

	repo := newMemRepo()
	d := NewDirectory(store, repo, logging.Nop())

	p, err := d.Resolve(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.DisplayName)
	assert.Equal(t, 1, store.gets)
	assert.Equal(t, 1, repo.writes, "remote hit persisted locally")

	// second lookup served from memory
	_, err = d.Resolve(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, store.gets)
}

func TestResolve_LocalCacheSkipsRemote(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Memory: docstore.NewMemory()}
	repo := newMemRepo()
	repo.profiles["u2"] = models.UserProfile{UID: "u2", Username: "beto"}

	d := NewDirectory(store, repo, logging.Nop())

	p, err := d.Resolve(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "beto", p.Username)
	assert.Zero(t, store.gets)
}

func TestResolve_MissRememberedForSession(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Memory: docstore.NewMemory()}
	d := NewDirectory(store, newMemRepo(), logging.Nop())

	_, err := d.Resolve(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = d.Resolve(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, 1, store.gets, "deleted account looked up once per session")
}

func TestHandle_FallsBackToAnonymous(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Memory: docstore.NewMemory()}
	require.NoError(t, store.Set(ctx, "Users/u1", map[string]any{"username": "ana"}))

	d := NewDirectory(store, newMemRepo(), logging.Nop())

	assert.Equal(t, "@ana", d.Handle(ctx, "u1"))
	assert.Equal(t, "Anónimo", d.Handle(ctx, "ghost"))
	assert.Equal(t, "Anónimo", d.Handle(ctx, ""))
}
