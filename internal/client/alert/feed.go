package alert

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/centinela-app/centinela/internal/client/livequery"
	"github.com/centinela-app/centinela/internal/client/location"
	"github.com/centinela-app/centinela/internal/client/models"
	"github.com/centinela-app/centinela/internal/client/realtime"
)

// Feed is the view model for the live emergency alert list.
type Feed struct {
	conn  realtime.Conn
	cache *location.Cache
	clock func() time.Time

	mu       sync.RWMutex
	alerts   []models.EmergencyAlert
	sub      *livequery.Subscription
	onChange func([]models.EmergencyAlert)
}

func NewFeed(conn realtime.Conn, cache *location.Cache) *Feed {
	return &Feed{conn: conn, cache: cache, clock: time.Now}
}

// OnChange registers a hook invoked after every applied snapshot. Must be
// set before Start.
func (f *Feed) OnChange(fn func([]models.EmergencyAlert)) { f.onChange = fn }

// Start opens the live query over the fast-path alert stream.
func (f *Feed) Start(ctx context.Context) error {
	q := realtime.Query{
		Collection: models.PathAlertsFast,
		OrderBy:    "timestamp",
		Descending: true,
	}
	decode := func(rec realtime.Record) models.EmergencyAlert {
		return models.DecodeAlert(rec.ID, rec.Fields, f.clock())
	}
	sub, err := livequery.Subscribe(ctx, f.conn, q, decode, f.apply)
	if err != nil {
		return fmt.Errorf("subscribe alerts: %w", err)
	}
	f.mu.Lock()
	f.sub = sub
	f.mu.Unlock()
	return nil
}

func (f *Feed) Stop() {
	f.mu.Lock()
	sub := f.sub
	f.sub = nil
	f.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}

func (f *Feed) apply(list []models.EmergencyAlert) {
	f.mu.Lock()
	f.alerts = list
	fn := f.onChange
	f.mu.Unlock()
	if fn != nil {
		fn(list)
	}
}

// Alerts returns the current alerts newest first. Ties break by id so the
// order is stable across calls.
func (f *Feed) Alerts() []models.EmergencyAlert {
	f.mu.RLock()
	out := make([]models.EmergencyAlert, len(f.alerts))
	copy(out, f.alerts)
	f.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// DistanceLabel renders the distance from the device to the alert, or ""
// when either position is unknown.
func (f *Feed) DistanceLabel(a models.EmergencyAlert) string {
	if !a.Locatable() {
		return ""
	}
	here, ok := f.cache.Get()
	if !ok {
		return ""
	}
	km := here.DistanceKm(*a.Coordinates)
	if km < 1 {
		return fmt.Sprintf("a %d m", int(km*1000))
	}
	return fmt.Sprintf("a %.1f km", km)
}
