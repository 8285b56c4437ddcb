// Package alert implements the emergency side of the client: the SOS
// dispatcher that dual-writes alerts, and the view model for the live alert
// feed.
package alert

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/centinela-app/centinela/internal/client/docstore"
	"github.com/centinela-app/centinela/internal/client/location"
	"github.com/centinela-app/centinela/internal/client/models"
	"github.com/centinela-app/centinela/internal/client/realtime"
	"github.com/centinela-app/centinela/internal/common"
	"github.com/centinela-app/centinela/internal/logging"
)

// State is the dispatch progress reported to the UI.
type State int

const (
	StateIdle State = iota
	StateLocating
	StateEnriching
	StateDispatching
	StateConfirmed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLocating:
		return "locating"
	case StateEnriching:
		return "enriching"
	case StateDispatching:
		return "dispatching"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Locator resolves device coordinates; location.Probe is the production
// implementation.
type Locator interface {
	Acquire(ctx context.Context, policy location.Policy) (models.Coordinates, error)
}

// RegionSource supplies the sender's home region for enrichment;
// profiles.Directory is the production implementation.
type RegionSource interface {
	Resolve(ctx context.Context, uid string) (*models.UserProfile, error)
}

// Dispatcher sends emergency alerts. Every alert is written twice: a
// synchronous push to the low-latency path that responders watch, then a
// background write to the durable store. The user-facing outcome depends
// only on the fast path.
type Dispatcher struct {
	conn    realtime.Conn
	store   docstore.Store
	locator Locator
	regions RegionSource
	uid     string
	logger  logging.Logger
	clock   func() time.Time
	onState func(State)

	wg sync.WaitGroup
}

func NewDispatcher(conn realtime.Conn, store docstore.Store, locator Locator, regions RegionSource, uid string, logger logging.Logger) *Dispatcher {
	return &Dispatcher{
		conn:    conn,
		store:   store,
		locator: locator,
		regions: regions,
		uid:     uid,
		logger:  logger,
		clock:   time.Now,
	}
}

// OnState registers a progress hook. Must be set before Send.
func (d *Dispatcher) OnState(fn func(State)) { d.onState = fn }

func (d *Dispatcher) setState(s State) {
	if d.onState != nil {
		d.onState(s)
	}
}

// Send dispatches an alert of the given category. A missing location fix
// degrades the alert, it never blocks it: the alert goes out without
// coordinates. Send returns once the fast-path write is acknowledged; the
// durable copy settles in the background. On fast-path failure it returns
// common.ErrDispatchFailed and the durable write is not attempted. A context
// cancelled before the fast-path write aborts the dispatch entirely.
func (d *Dispatcher) Send(ctx context.Context, category models.Category) (models.EmergencyAlert, error) {
	a := models.EmergencyAlert{
		ID:        uuid.NewString(),
		Category:  category,
		CreatedAt: d.clock(),
	}

	d.setState(StateLocating)
	if coords, err := d.locator.Acquire(ctx, location.PolicyFast); err == nil {
		a.Coordinates = &coords
	} else if errors.Is(err, common.ErrLocationUnavailable) || errors.Is(err, common.ErrPermissionDenied) {
		d.logger.Warn(ctx, "dispatching alert without location", "error", err)
	} else {
		d.logger.Warn(ctx, "location acquire failed", "error", err)
	}

	d.setState(StateEnriching)
	if d.uid != "" && d.regions != nil {
		if p, err := d.regions.Resolve(ctx, d.uid); err == nil {
			a.RegionLabel = p.Region
		} else if !errors.Is(err, common.ErrNotFound) {
			d.logger.Warn(ctx, "region enrichment failed", "error", err)
		}
	}

	// last point where the user can still back out
	if err := ctx.Err(); err != nil {
		d.setState(StateFailed)
		return a, err
	}

	d.setState(StateDispatching)
	fields := a.Fields()
	key, err := d.conn.Push(ctx, models.PathAlertsFast, fields)
	if err != nil {
		d.setState(StateFailed)
		d.logger.Error(ctx, "fast-path alert write failed", "error", err)
		return a, fmt.Errorf("%w: %v", common.ErrDispatchFailed, err)
	}
	if key != "" {
		a.ID = key
	}

	// the responder path confirmed; the durable copy is bookkeeping
	bgCtx := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if _, err := d.store.Add(bgCtx, models.CollectionAlertsDurable, fields); err != nil {
			d.logger.Error(bgCtx, "durable alert write failed", "alert", a.ID, "error", err)
		}
	}()

	d.setState(StateConfirmed)
	return a, nil
}

// Wait blocks until background durable writes settle. Meant for shutdown
// and tests.
func (d *Dispatcher) Wait() { d.wg.Wait() }
