package alert

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centinela-app/centinela/internal/client/docstore"
	"github.com/centinela-app/centinela/internal/client/location"
	"github.com/centinela-app/centinela/internal/client/models"
	"github.com/centinela-app/centinela/internal/client/realtime"
	"github.com/centinela-app/centinela/internal/common"
	"github.com/centinela-app/centinela/internal/logging"
)

type fakeConn struct {
	mu      sync.Mutex
	pushes  []push
	pushErr error
	snaps   chan realtime.Snapshot
}

type push struct {
	path   string
	fields map[string]any
}

func (f *fakeConn) Subscribe(ctx context.Context, q realtime.Query) (<-chan realtime.Snapshot, realtime.CancelFunc, error) {
	if f.snaps == nil {
		f.snaps = make(chan realtime.Snapshot, 8)
	}
	return f.snaps, func() {}, nil
}

func (f *fakeConn) Push(ctx context.Context, path string, fields map[string]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return "", f.pushErr
	}
	f.pushes = append(f.pushes, push{path: path, fields: fields})
	return "srv-key-1", nil
}

func (f *fakeConn) Close() error { return nil }

type fixedLocator struct {
	coords models.Coordinates
	err    error
	policy location.Policy
}

func (l *fixedLocator) Acquire(ctx context.Context, policy location.Policy) (models.Coordinates, error) {
	l.policy = policy
	return l.coords, l.err
}

type fixedRegions struct {
	profile *models.UserProfile
	err     error
}

func (r fixedRegions) Resolve(ctx context.Context, uid string) (*models.UserProfile, error) {
	return r.profile, r.err
}

var cdmx = models.Coordinates{Lat: 19.4326, Lon: -99.1332}

func TestSend_HappyPath(t *testing.T) {
	ctx := context.Background()
	conn := &fakeConn{}
	store := docstore.NewMemory()
	loc := &fixedLocator{coords: cdmx}
	regions := fixedRegions{profile: &models.UserProfile{UID: "u1", Region: "Jalisco"}}

	d := NewDispatcher(conn, store, loc, regions, "u1", logging.Nop())

	var states []State
	d.OnState(func(s State) { states = append(states, s) })

	a, err := d.Send(ctx, models.CategoryPolice)
	require.NoError(t, err)
	d.Wait()

	assert.Equal(t, []State{StateLocating, StateEnriching, StateDispatching, StateConfirmed}, states)
	assert.Equal(t, "srv-key-1", a.ID, "server key adopted")
	assert.Equal(t, "Jalisco", a.RegionLabel)
	require.NotNil(t, a.Coordinates)
	assert.Equal(t, location.PolicyFast, loc.policy, "dispatch never waits on a precise fix")

	require.Len(t, conn.pushes, 1)
	assert.Equal(t, models.PathAlertsFast, conn.pushes[0].path)
	assert.Equal(t, "Policía", conn.pushes[0].fields["tipo"])

	durable := store.List(models.CollectionAlertsDurable)
	require.Len(t, durable, 1, "durable copy lands in the background")
	for _, fields := range durable {
		assert.Equal(t, conn.pushes[0].fields["timestamp"], fields["timestamp"], "both stores receive identical fields")
	}
}

func TestSend_NoLocationStillDispatches(t *testing.T) {
	conn := &fakeConn{}
	d := NewDispatcher(conn, docstore.NewMemory(), &fixedLocator{err: common.ErrLocationUnavailable}, nil, "", logging.Nop())

	a, err := d.Send(context.Background(), models.CategoryAmbulance)
	require.NoError(t, err)
	d.Wait()

	assert.Nil(t, a.Coordinates)
	require.Len(t, conn.pushes, 1)
	_, hasLat := conn.pushes[0].fields["latitude"]
	assert.False(t, hasLat, "absent coordinates are omitted, not written as nulls")
}

func TestSend_PermissionDeniedStillDispatches(t *testing.T) {
	conn := &fakeConn{}
	d := NewDispatcher(conn, docstore.NewMemory(), &fixedLocator{err: common.ErrPermissionDenied}, nil, "", logging.Nop())

	_, err := d.Send(context.Background(), models.CategoryFire)
	require.NoError(t, err)
	d.Wait()
	assert.Len(t, conn.pushes, 1)
}

func TestSend_RegionEnrichmentIsBestEffort(t *testing.T) {
	conn := &fakeConn{}
	d := NewDispatcher(conn, docstore.NewMemory(), &fixedLocator{coords: cdmx},
		fixedRegions{err: errors.New("directory down")}, "u1", logging.Nop())

	a, err := d.Send(context.Background(), models.CategoryPolice)
	require.NoError(t, err)
	d.Wait()
	assert.Empty(t, a.RegionLabel)
	assert.Len(t, conn.pushes, 1)
}

func TestSend_FastPathFailure(t *testing.T) {
	conn := &fakeConn{pushErr: errors.New("gateway down")}
	store := docstore.NewMemory()
	d := NewDispatcher(conn, store, &fixedLocator{coords: cdmx}, nil, "", logging.Nop())

	var states []State
	d.OnState(func(s State) { states = append(states, s) })

	_, err := d.Send(context.Background(), models.CategoryPolice)
	assert.ErrorIs(t, err, common.ErrDispatchFailed)
	d.Wait()

	assert.Equal(t, StateFailed, states[len(states)-1])
	assert.Empty(t, store.List(models.CollectionAlertsDurable), "durable write skipped when the responder path failed")
}

func TestSend_DurableFailureIsNotUserFacing(t *testing.T) {
	conn := &fakeConn{}
	d := NewDispatcher(conn, failingStore{}, &fixedLocator{coords: cdmx}, nil, "", logging.Nop())

	var states []State
	d.OnState(func(s State) { states = append(states, s) })

	_, err := d.Send(context.Background(), models.CategoryPolice)
	require.NoError(t, err, "fast path succeeded, the user sees confirmation")
	d.Wait()
	assert.Equal(t, StateConfirmed, states[len(states)-1])
}

type failingStore struct{}

func (failingStore) Get(ctx context.Context, path string) (map[string]any, error) {
	return nil, errors.New("store down")
}
func (failingStore) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	return "", errors.New("store down")
}
func (failingStore) Set(ctx context.Context, path string, fields map[string]any) error {
	return errors.New("store down")
}
func (failingStore) Update(ctx context.Context, path string, updates []docstore.Update) error {
	return errors.New("store down")
}
func (failingStore) Delete(ctx context.Context, path string) error {
	return errors.New("store down")
}

func TestSend_CancelBeforeDispatchAborts(t *testing.T) {
	conn := &fakeConn{}
	store := docstore.NewMemory()
	d := NewDispatcher(conn, store, &fixedLocator{coords: cdmx}, nil, "", logging.Nop())

	var states []State
	d.OnState(func(s State) { states = append(states, s) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Send(ctx, models.CategoryFire)
	require.ErrorIs(t, err, context.Canceled)
	d.Wait()

	assert.Equal(t, []State{StateLocating, StateEnriching, StateFailed}, states)
	assert.Empty(t, conn.pushes, "nothing reaches responders after cancel")
	assert.Empty(t, store.List(models.CollectionAlertsDurable))
}

func TestSend_CancelledContextDoesNotLoseDurableCopy(t *testing.T) {
	conn := &fakeConn{}
	store := docstore.NewMemory()
	d := NewDispatcher(conn, store, &fixedLocator{coords: cdmx}, nil, "", logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	_, err := d.Send(ctx, models.CategoryPolice)
	require.NoError(t, err)
	cancel()
	d.Wait()

	assert.Len(t, store.List(models.CollectionAlertsDurable), 1)
}
