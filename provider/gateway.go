package provider

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/nearnode/tripgraph/config"
	"github.com/nearnode/tripgraph/trip"
)

// Provider is one external leg data source, already normalized.
type Provider interface {
	Name() string
	// Modes lists the transport modes this provider can serve.
	Modes() []trip.Mode
	// FetchLegs returns every leg between origin and destination departing
	// on the given date. An empty slice means "no data for this pair".
	FetchLegs(ctx context.Context, origin, destination trip.Location, date time.Time, mode trip.Mode) ([]trip.Leg, error)
}

// DelayStats is one historical aggregate keyed by (route, carrier, month).
type DelayStats struct {
	Route            string
	Carrier          string
	Month            time.Month
	DelayProbability float64
	AvgDelayMin      int
	SampleSize       int
}

// DelayHistorySource serves historical delay aggregates.
type DelayHistorySource interface {
	FetchDelayHistory(ctx context.Context, route, carrier string, month time.Month) (DelayStats, bool)
}

// FetchRequest names one (origin, destination, date, mode) pair to fetch.
type FetchRequest struct {
	Origin      trip.Location
	Destination trip.Location
	Date        time.Time
	Mode        trip.Mode
}

// FetchResult pairs a request with its outcome. Callers treat a permanent
// Err as fatal for the whole request and a transient one (cancellation,
// retries exhausted) as a pair with no data.
type FetchResult struct {
	Request FetchRequest
	Legs    []trip.Leg
	Err     error
}

// Gateway fans requests out to the configured providers.
type Gateway struct {
	cfg       config.ProviderConfig
	providers []Provider
	cache     *legCache
	sem       chan struct{}

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGateway builds a gateway over the given providers.
func NewGateway(cfg config.ProviderConfig, providers ...Provider) *Gateway {
	return &Gateway{
		cfg:       cfg,
		providers: providers,
		cache:     newLegCache(time.Duration(cfg.CacheTTLMS) * time.Millisecond),
		sem:       make(chan struct{}, cfg.MaxInFlight),
		sleep:     sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// FetchLegs fetches all legs for one pair, serving from the shared cache
// when possible. Transient provider failures are retried up to the
// configured bound with exponential backoff and then dropped; a permanent
// failure from any provider aborts immediately.
func (g *Gateway) FetchLegs(ctx context.Context, origin, destination trip.Location, date time.Time, mode trip.Mode) ([]trip.Leg, error) {
	key := cacheKey(mode, origin.Key(), destination.Key(), date)
	if legs, ok := g.cache.get(key); ok {
		return legs, nil
	}
	var all []trip.Leg
	seen := map[string]struct{}{}
	for _, p := range g.providers {
		if !serves(p, mode) {
			continue
		}
		legs, err := g.fetchWithRetry(ctx, p, origin, destination, date, mode)
		if err != nil {
			if IsPermanent(err) {
				return nil, err
			}
			// Retries exhausted: this provider contributes no data for the
			// pair, the others still count.
			log.Printf("provider %s: giving up on %s-%s %s: %v",
				p.Name(), origin.Key(), destination.Key(), mode, err)
			continue
		}
		for _, l := range legs {
			if _, dup := seen[l.ID()]; dup {
				continue
			}
			seen[l.ID()] = struct{}{}
			all = append(all, l)
		}
	}
	return g.cache.putIfAbsent(key, all), nil
}

func (g *Gateway) fetchWithRetry(ctx context.Context, p Provider, origin, destination trip.Location, date time.Time, mode trip.Mode) ([]trip.Leg, error) {
	backoff := time.Duration(g.cfg.RetryBackoffMS) * time.Millisecond
	var lastErr error
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := g.sleep(ctx, backoff); err != nil {
				return nil, NewTransient(p.Name(), err)
			}
			backoff *= 2
		}
		legs, err := p.FetchLegs(ctx, origin, destination, date, mode)
		if err == nil {
			return legs, nil
		}
		if IsPermanent(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// FetchAll issues every request concurrently, bounded by the configured
// in-flight cap, and streams results as they complete. Ordering across
// pairs is not guaranteed; a slow or failing pair never blocks the others.
// The returned channel is closed once every request has resolved.
func (g *Gateway) FetchAll(ctx context.Context, requests []FetchRequest) <-chan FetchResult {
	out := make(chan FetchResult, len(requests))
	var wg sync.WaitGroup
	for _, req := range requests {
		wg.Add(1)
		go func(req FetchRequest) {
			defer wg.Done()
			select {
			case g.sem <- struct{}{}:
				defer func() { <-g.sem }()
			case <-ctx.Done():
				out <- FetchResult{Request: req, Err: NewTransient("gateway", ctx.Err())}
				return
			}
			legs, err := g.FetchLegs(ctx, req.Origin, req.Destination, req.Date, req.Mode)
			out <- FetchResult{Request: req, Legs: legs, Err: err}
		}(req)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

func serves(p Provider, mode trip.Mode) bool {
	for _, m := range p.Modes() {
		if m == mode {
			return true
		}
	}
	return false
}
