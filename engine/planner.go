package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nearnode/tripgraph/config"
	"github.com/nearnode/tripgraph/geo"
	"github.com/nearnode/tripgraph/ground"
	"github.com/nearnode/tripgraph/provider"
	"github.com/nearnode/tripgraph/rank"
	"github.com/nearnode/tripgraph/risk"
	"github.com/nearnode/tripgraph/routegraph"
	"github.com/nearnode/tripgraph/trip"
)

// Reason explains an empty (but successful) result.
type Reason string

const (
	ReasonOK                 Reason = "ok"
	ReasonNoAirportsInRadius Reason = "no_airports_in_radius"
	ReasonNoGroundRoute      Reason = "no_ground_route"
	ReasonNoConnectingLegs   Reason = "no_connecting_legs"
	ReasonNoItineraries      Reason = "no_itineraries"
)

// maxVibeDestinations caps how many tagged airports a single vibe request
// will fan out to.
const maxVibeDestinations = 10

// Result is what every plan call returns on success. Top holds at most the
// configured top-N itineraries; All holds every ranked itinerary for
// callers that paginate or post-filter.
type Result struct {
	Reason Reason
	Top    []trip.Itinerary
	All    []trip.Itinerary
}

// Planner orchestrates one request end to end: resolve geography, estimate
// last-mile ground segments, build the connection graph, rank. It is safe
// for concurrent use; per-request state lives on the stack.
type Planner struct {
	cfg       config.AppConfig
	geoIdx    *geo.Index
	estimator *ground.Estimator
	builder   *routegraph.Builder
	ranker    *rank.Ranker
	validate  *validator.Validate
}

// NewPlanner wires the pipeline from configuration and shared
// collaborators. The delay history source feeds the risk scorer used by
// both graph splicing and ranking.
func NewPlanner(cfg config.AppConfig, geoIdx *geo.Index, estimator *ground.Estimator, gateway *provider.Gateway, history provider.DelayHistorySource) *Planner {
	scorer := risk.NewScorer(cfg.Risk, history)
	return &Planner{
		cfg:       cfg,
		geoIdx:    geoIdx,
		estimator: estimator,
		builder:   routegraph.NewBuilder(cfg.Graph, gateway, geoIdx, scorer),
		ranker:    rank.NewRanker(routegraph.NewExtractor(scorer), scorer, geoIdx, cfg.Engine.TopN),
		validate:  validator.New(),
	}
}

// PlanNearestAlternate resolves the free-form destination, expands it to
// every airport inside the radius, attaches a last-mile ground segment to
// each, and ranks itineraries across all candidates at once.
func (p *Planner) PlanNearestAlternate(ctx context.Context, req NearestAlternateRequest) (Result, error) {
	if err := p.validate.Struct(req); err != nil {
		return Result{}, fmt.Errorf("invalid request: %w", err)
	}
	ctx, cancel := p.requestContext(ctx)
	defer cancel()

	origin, ok := p.geoIdx.AirportByCode(req.OriginCode)
	if !ok {
		return Result{}, fmt.Errorf("%w: unknown origin airport %q", geo.ErrResolution, req.OriginCode)
	}
	dest, err := p.geoIdx.Resolve(ctx, req.FinalDestinationAddress)
	if err != nil {
		return Result{}, err
	}

	radius := req.RadiusKM
	if radius == 0 {
		radius = p.cfg.Geo.DefaultRadiusKM
	}
	candidates := p.geoIdx.FindWithinRadius(dest, radius)
	if len(candidates) == 0 {
		return Result{Reason: ReasonNoAirportsInRadius}, nil
	}

	reachable := make([]geo.CandidateAirport, 0, len(candidates))
	for _, c := range candidates {
		if c.DistanceKM == 0 {
			// Destination is the airport itself, nothing to ride.
			reachable = append(reachable, c)
			continue
		}
		leg, err := p.estimator.EstimateLastMile(ctx, c.Airport.Location(), dest, req.Date)
		if err != nil {
			if !errors.Is(err, ground.ErrNoRouteAvailable) {
				log.Printf("engine: last-mile estimate %s failed: %v", c.Airport.IATA, err)
			}
			continue
		}
		c.LastMile = &leg
		reachable = append(reachable, c)
	}
	if len(reachable) == 0 {
		return Result{Reason: ReasonNoGroundRoute}, nil
	}

	return p.buildAndRank(ctx, origin, reachable, req.Date, p.weightsFor(req.Weights))
}

// PlanDirect is the simple airport-to-airport case: one destination
// candidate, no radius expansion, no ground segment.
func (p *Planner) PlanDirect(ctx context.Context, req DirectRequest) (Result, error) {
	if err := p.validate.Struct(req); err != nil {
		return Result{}, fmt.Errorf("invalid request: %w", err)
	}
	ctx, cancel := p.requestContext(ctx)
	defer cancel()

	origin, ok := p.geoIdx.AirportByCode(req.OriginCode)
	if !ok {
		return Result{}, fmt.Errorf("%w: unknown origin airport %q", geo.ErrResolution, req.OriginCode)
	}
	dest, ok := p.geoIdx.AirportByCode(req.DestinationCode)
	if !ok {
		return Result{}, fmt.Errorf("%w: unknown destination airport %q", geo.ErrResolution, req.DestinationCode)
	}

	candidates := []geo.CandidateAirport{{Airport: dest}}
	return p.buildAndRank(ctx, origin, candidates, req.Date, p.weightsFor(req.Weights))
}

// PlanVibe answers "somewhere warm under 400 EUR": destinations come from
// the airport tag index, and each day of the window is searched
// independently before results are merged, filtered, and re-ranked.
func (p *Planner) PlanVibe(ctx context.Context, req VibeRequest) (Result, error) {
	if err := p.validate.Struct(req); err != nil {
		return Result{}, fmt.Errorf("invalid request: %w", err)
	}
	if req.DateWindowEnd.Before(req.DateWindowStart) {
		return Result{}, fmt.Errorf("invalid request: date window ends before it starts")
	}
	ctx, cancel := p.requestContext(ctx)
	defer cancel()

	origin, ok := p.geoIdx.AirportByCode(req.OriginCode)
	if !ok {
		return Result{}, fmt.Errorf("%w: unknown origin airport %q", geo.ErrResolution, req.OriginCode)
	}

	var candidates []geo.CandidateAirport
	for _, a := range p.geoIdx.Airports() {
		if a.IATA == origin.IATA || !a.HasTag(req.DestinationTypeFilter) {
			continue
		}
		candidates = append(candidates, geo.CandidateAirport{Airport: a})
		if len(candidates) == maxVibeDestinations {
			break
		}
	}
	if len(candidates) == 0 {
		return Result{Reason: ReasonNoAirportsInRadius}, nil
	}

	weights := p.weightsFor(req.Weights)
	sawLegs := false
	var pool []trip.Itinerary
	for day := req.DateWindowStart; !day.After(req.DateWindowEnd); day = day.AddDate(0, 0, 1) {
		res, err := p.buildAndRank(ctx, origin, candidates, day, weights)
		if err != nil {
			return Result{}, err
		}
		if res.Reason != ReasonNoConnectingLegs {
			sawLegs = true
		}
		for _, it := range res.All {
			if p.vibeAccepts(it, req) {
				pool = append(pool, it)
			}
		}
	}
	if len(pool) == 0 {
		if !sawLegs {
			return Result{Reason: ReasonNoConnectingLegs}, nil
		}
		return Result{Reason: ReasonNoItineraries}, nil
	}

	ordered := p.ranker.Order(pool, weights)
	return Result{Reason: ReasonOK, Top: p.top(ordered), All: ordered}, nil
}

func (p *Planner) vibeAccepts(it trip.Itinerary, req VibeRequest) bool {
	if req.BudgetCeilingEUR > 0 && it.TotalPriceEUR > req.BudgetCeilingEUR {
		return false
	}
	if req.MaxFlightDuration > 0 && scheduledDuration(it) > req.MaxFlightDuration {
		return false
	}
	return true
}

// scheduledDuration sums in-vehicle time on flights and trains, ignoring
// ground segments and layovers.
func scheduledDuration(it trip.Itinerary) time.Duration {
	var d time.Duration
	for _, leg := range it.Legs {
		if leg.Mode != trip.ModeGround {
			d += leg.Duration()
		}
	}
	return d
}

func (p *Planner) buildAndRank(ctx context.Context, origin geo.Airport, candidates []geo.CandidateAirport, date time.Time, weights rank.Weights) (Result, error) {
	g, err := p.builder.Build(ctx, []geo.Airport{origin}, candidates, date, p.cfg.Graph.MaxConnections)
	if err != nil {
		return Result{}, err
	}
	if g.Len() == 0 {
		return Result{Reason: ReasonNoConnectingLegs}, nil
	}

	maxTotal := time.Duration(p.cfg.Graph.MaxTotalDurationMin) * time.Minute
	ranked, err := p.ranker.Rank(ctx, g, origin.Location(), date, candidates, weights, p.cfg.Graph.MaxConnections, maxTotal)
	if err != nil {
		return Result{}, err
	}
	if len(ranked.All) == 0 {
		return Result{Reason: ReasonNoItineraries}, nil
	}
	return Result{Reason: ReasonOK, Top: ranked.Top, All: ranked.All}, nil
}

func (p *Planner) weightsFor(override *rank.Weights) rank.Weights {
	if override != nil {
		return *override
	}
	return rank.Weights{
		Price:   p.cfg.Engine.WeightPrice,
		Time:    p.cfg.Engine.WeightTime,
		Risk:    p.cfg.Engine.WeightRisk,
		Quality: p.cfg.Engine.WeightQuality,
	}
}

func (p *Planner) top(ordered []trip.Itinerary) []trip.Itinerary {
	n := p.cfg.Engine.TopN
	if n <= 0 || n > len(ordered) {
		n = len(ordered)
	}
	return ordered[:n]
}

func (p *Planner) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(p.cfg.Engine.RequestTimeoutMS) * time.Millisecond
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
