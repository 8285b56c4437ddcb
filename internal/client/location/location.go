// Package location acquires device coordinates through a pluggable Provider
// and keeps the most recent fix in a shared Cache so emergency dispatch never
// blocks on the hardware when a recent position is already known.
package location

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/centinela-app/centinela/internal/client/models"
	"github.com/centinela-app/centinela/internal/common"
	"github.com/centinela-app/centinela/internal/logging"
)

// Accuracy hints how much effort the platform should spend on a fresh fix.
type Accuracy int

const (
	// AccuracyLow accepts a coarse fix (cell or wifi grade).
	AccuracyLow Accuracy = iota
	// AccuracyHigh asks for the best fix the hardware can produce.
	AccuracyHigh
)

// Provider is the platform positioning capability.
type Provider interface {
	// RequestPermission asks the platform for foreground location access.
	// It returns common.ErrPermissionDenied when the user refuses.
	RequestPermission(ctx context.Context) error
	// LastKnown returns the most recent cached platform fix without
	// powering up positioning hardware. May return ErrLocationUnavailable.
	LastKnown(ctx context.Context) (models.Coordinates, error)
	// Current performs a fresh fix at the hinted accuracy. Expensive and
	// slow at AccuracyHigh; callers bound it with the context.
	Current(ctx context.Context, accuracy Accuracy) (models.Coordinates, error)
}

// Cache holds the last coordinates observed from any source. It is shared
// between the feed (distance labels) and the alert dispatcher.
type Cache struct {
	mu  sync.RWMutex
	set bool
	c   models.Coordinates
	at  time.Time
}

func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) Get() (models.Coordinates, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.c, c.set
}

func (c *Cache) Set(coords models.Coordinates) {
	c.mu.Lock()
	c.c = coords
	c.at = time.Now()
	c.set = true
	c.mu.Unlock()
}

// Age reports how long ago the cached fix was stored; ok is false when the
// cache is empty.
func (c *Cache) Age() (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.set {
		return 0, false
	}
	return time.Since(c.at), true
}

// Policy selects how hard Acquire tries before giving up.
type Policy int

const (
	// PolicyFast returns the cached fix when present, otherwise the
	// platform's last known position. The caller never waits on a fresh
	// fix; a cache hit triggers a detached coarse refresh instead.
	PolicyFast Policy = iota
	// PolicyPrecise attempts a fresh fix within the probe's budget and
	// falls back to last known, then cache, before failing.
	PolicyPrecise
)

const DefaultPreciseBudget = 6 * time.Second

// Probe resolves coordinates according to a Policy.
type Probe struct {
	provider      Provider
	cache         *Cache
	preciseBudget time.Duration
	logger        logging.Logger
	wg            sync.WaitGroup
}

func NewProbe(provider Provider, cache *Cache, preciseBudget time.Duration, logger logging.Logger) *Probe {
	if preciseBudget <= 0 {
		preciseBudget = DefaultPreciseBudget
	}
	return &Probe{provider: provider, cache: cache, preciseBudget: preciseBudget, logger: logger}
}

// Acquire resolves coordinates per the policy. Every successful resolution
// refreshes the cache. When no source can produce a position it returns
// common.ErrLocationUnavailable; permission refusals surface as
// common.ErrPermissionDenied.
func (p *Probe) Acquire(ctx context.Context, policy Policy) (models.Coordinates, error) {
	if policy == PolicyFast {
		if c, ok := p.cache.Get(); ok {
			// serve the stale fix now, refresh behind the caller's back
			p.refreshAsync(ctx)
			return c, nil
		}
		return p.lastKnown(ctx)
	}

	if err := p.provider.RequestPermission(ctx); err != nil {
		if errors.Is(err, common.ErrPermissionDenied) {
			return models.Coordinates{}, err
		}
		p.logger.Warn(ctx, "location permission check failed", "error", err)
	}

	fixCtx, cancel := context.WithTimeout(ctx, p.preciseBudget)
	defer cancel()
	if c, err := p.provider.Current(fixCtx, AccuracyHigh); err == nil {
		p.cache.Set(c)
		return c, nil
	} else {
		p.logger.Warn(ctx, "precise fix failed, degrading", "error", err)
	}

	if c, err := p.lastKnown(ctx); err == nil {
		return c, nil
	}
	if c, ok := p.cache.Get(); ok {
		return c, nil
	}
	return models.Coordinates{}, common.ErrLocationUnavailable
}

// refreshAsync requests a coarse fresh fix without blocking the caller and
// folds it into the cache when it lands. Outcome is best-effort.
func (p *Probe) refreshAsync(ctx context.Context) {
	bgCtx := context.WithoutCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		fixCtx, cancel := context.WithTimeout(bgCtx, p.preciseBudget)
		defer cancel()
		c, err := p.provider.Current(fixCtx, AccuracyLow)
		if err != nil {
			p.logger.Debug(bgCtx, "background location refresh failed", "error", err)
			return
		}
		p.cache.Set(c)
	}()
}

// Wait blocks until background cache refreshes have settled.
func (p *Probe) Wait() {
	p.wg.Wait()
}

func (p *Probe) lastKnown(ctx context.Context) (models.Coordinates, error) {
	c, err := p.provider.LastKnown(ctx)
	if err != nil {
		if c, ok := p.cache.Get(); ok {
			return c, nil
		}
		return models.Coordinates{}, common.ErrLocationUnavailable
	}
	p.cache.Set(c)
	return c, nil
}
