package ground

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nearnode/tripgraph/config"
	"github.com/nearnode/tripgraph/trip"
)

// ErrNoRouteAvailable reports that no ground option exists within the
// allowed detour time. Callers drop the candidate rather than surfacing it.
var ErrNoRouteAvailable = errors.New("ground: no route available")

// Option is one ground-transport possibility between two points.
type Option struct {
	Kind     string // taxi | rail | transit
	Name     string
	Duration time.Duration
	CostEUR  float64
}

// Source lists ground options between two coordinates. Implementations
// wrap journey-planning APIs; tests use StaticSource.
type Source interface {
	Name() string
	Options(ctx context.Context, from, to trip.Location) ([]Option, error)
}

// StaticSource serves options from a fixed table keyed by
// "fromKey>toKey" (trip.Location.Key values).
type StaticSource struct {
	SourceName string
	Table      map[string][]Option
}

func (s StaticSource) Name() string { return s.SourceName }

func (s StaticSource) Options(_ context.Context, from, to trip.Location) ([]Option, error) {
	return s.Table[from.Key()+">"+to.Key()], nil
}

// Estimator selects the best last-mile leg among all sources.
type Estimator struct {
	cfg     config.GroundConfig
	sources []Source
}

// NewEstimator builds an estimator over the given sources.
func NewEstimator(cfg config.GroundConfig, sources ...Source) *Estimator {
	return &Estimator{cfg: cfg, sources: sources}
}

// EstimateLastMile returns the ground leg from `from` to `to` departing at
// departAt. When several options exist the Pareto-best under
// cost + λ·time wins, ties broken by shorter time. Options longer than the
// maximum allowed detour are discarded; if nothing survives the candidate
// fails with ErrNoRouteAvailable.
func (e *Estimator) EstimateLastMile(ctx context.Context, from, to trip.Location, departAt time.Time) (trip.Leg, error) {
	maxDetour := time.Duration(e.cfg.MaxDetourMinutes) * time.Minute
	var best *Option
	var bestSource string
	for _, src := range e.sources {
		opts, err := src.Options(ctx, from, to)
		if err != nil {
			// A failing source only narrows the choice; the others still count.
			continue
		}
		for i := range opts {
			opt := opts[i]
			if opt.Duration > maxDetour {
				continue
			}
			if best == nil || less(opt, *best, e.cfg.TimeWeightEURPerMin) {
				best = &opt
				bestSource = src.Name()
			}
		}
	}
	if best == nil {
		return trip.Leg{}, fmt.Errorf("%w: %s to %s within %s", ErrNoRouteAvailable, from.Key(), to.Key(), maxDetour)
	}
	return trip.Leg{
		Mode:        trip.ModeGround,
		Origin:      from,
		Destination: to,
		Departure:   departAt,
		Arrival:     departAt.Add(best.Duration),
		PriceEUR:    best.CostEUR,
		Carrier:     best.Kind,
		ProviderRef: bestSource + ":" + best.Name,
	}, nil
}

// less orders options by the weighted objective, shorter time on ties.
func less(a, b Option, lambda float64) bool {
	oa := a.CostEUR + lambda*a.Duration.Minutes()
	ob := b.CostEUR + lambda*b.Duration.Minutes()
	if oa != ob {
		return oa < ob
	}
	return a.Duration < b.Duration
}
