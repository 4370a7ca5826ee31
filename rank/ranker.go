package rank

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nearnode/tripgraph/geo"
	"github.com/nearnode/tripgraph/risk"
	"github.com/nearnode/tripgraph/routegraph"
	"github.com/nearnode/tripgraph/trip"
)

// ErrBadWeights reports a malformed weights configuration. This is fatal
// for the request, unlike per-pair data gaps.
var ErrBadWeights = errors.New("rank: invalid weights")

// infeasiblePenalty scales the delay probability of a connection the
// traveler cannot safely self-transfer through.
const infeasiblePenalty = 2.0

// Weights configures the scoring combination. Quality is optional and
// stays 0 unless configured.
type Weights struct {
	Price   float64
	Time    float64
	Risk    float64
	Quality float64
}

// Validate rejects negative or all-zero weight sets.
func (w Weights) Validate() error {
	if w.Price < 0 || w.Time < 0 || w.Risk < 0 || w.Quality < 0 {
		return fmt.Errorf("%w: negative weight", ErrBadWeights)
	}
	if w.Price == 0 && w.Time == 0 && w.Risk == 0 && w.Quality == 0 {
		return fmt.Errorf("%w: all weights zero", ErrBadWeights)
	}
	return nil
}

// Ranker extracts complete paths from a graph and orders them.
type Ranker struct {
	extractor *routegraph.Extractor
	scorer    *risk.Scorer
	geoIdx    *geo.Index
	topN      int
}

// NewRanker wires the ranker to its collaborators.
func NewRanker(extractor *routegraph.Extractor, scorer *risk.Scorer, geoIdx *geo.Index, topN int) *Ranker {
	return &Ranker{extractor: extractor, scorer: scorer, geoIdx: geoIdx, topN: topN}
}

// Ranked is the ranking output: the top-N slice callers usually want plus
// the full ordered sequence for callers needing more.
type Ranked struct {
	Top []trip.Itinerary
	All []trip.Itinerary
}

// Rank extracts Pareto paths for every destination candidate, scores them,
// and returns the ordered result. Ranking the same graph with the same
// weights twice yields an identical ordering.
func (r *Ranker) Rank(ctx context.Context, g *routegraph.Graph, origin trip.Location, notBefore time.Time, destinations []geo.CandidateAirport, weights Weights, maxConnections int, maxTotal time.Duration) (Ranked, error) {
	if err := weights.Validate(); err != nil {
		return Ranked{}, err
	}
	itineraries := r.extractor.ExtractItineraries(g, origin, notBefore, destinations, maxConnections, maxTotal)
	for i := range itineraries {
		r.assess(ctx, &itineraries[i])
	}
	ordered := r.Order(itineraries, weights)
	top := ordered
	if r.topN > 0 && len(top) > r.topN {
		top = top[:r.topN]
	}
	return Ranked{Top: top, All: ordered}, nil
}

// Order scores and sorts an already-assessed itinerary set. Exposed
// separately so callers with pre-built itineraries (the collaborative
// flow) can reuse the exact ordering rules.
func (r *Ranker) Order(itineraries []trip.Itinerary, weights Weights) []trip.Itinerary {
	if len(itineraries) == 0 {
		return nil
	}
	ordered := make([]trip.Itinerary, len(itineraries))
	copy(ordered, itineraries)

	minP, maxP := bounds(ordered, func(it trip.Itinerary) float64 { return it.TotalPriceEUR })
	minT, maxT := bounds(ordered, func(it trip.Itinerary) float64 { return it.TotalDuration.Minutes() })
	minR, maxR := bounds(ordered, func(it trip.Itinerary) float64 { return it.RiskScore })
	minQ, maxQ := bounds(ordered, func(it trip.Itinerary) float64 { return it.LayoverQuality })

	score := func(it trip.Itinerary) float64 {
		s := weights.Price*normalize(it.TotalPriceEUR, minP, maxP) +
			weights.Time*normalize(it.TotalDuration.Minutes(), minT, maxT) +
			weights.Risk*normalize(it.RiskScore, minR, maxR)
		// Higher quality is better, so it enters inverted.
		s += weights.Quality * (1 - normalize(it.LayoverQuality, minQ, maxQ))
		return s
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		si, sj := score(ordered[i]), score(ordered[j])
		if si != sj {
			return si < sj
		}
		if ordered[i].TotalPriceEUR != ordered[j].TotalPriceEUR {
			return ordered[i].TotalPriceEUR < ordered[j].TotalPriceEUR
		}
		if ordered[i].TotalDuration != ordered[j].TotalDuration {
			return ordered[i].TotalDuration < ordered[j].TotalDuration
		}
		if ordered[i].RiskScore != ordered[j].RiskScore {
			return ordered[i].RiskScore < ordered[j].RiskScore
		}
		return ordered[i].ID() < ordered[j].ID()
	})
	return ordered
}

// assess fills the itinerary's risk and layover-quality aggregates from
// its connections. The risk score is the worst connection's delay
// probability, doubled when the self-transfer is not feasible; a
// connection-free itinerary carries its first scheduled leg's probability.
func (r *Ranker) assess(ctx context.Context, it *trip.Itinerary) {
	it.FeasibleSelfTransfer = true
	var worst float64
	connections := 0
	var quality float64

	legs := scheduled(it.Legs)
	for i := 0; i+1 < len(legs); i++ {
		p := r.scorer.ScoreConnection(ctx, legs[i], legs[i+1])
		connections++
		v := p.DelayProbability
		if !p.SelfTransferFeasible {
			it.FeasibleSelfTransfer = false
			v *= infeasiblePenalty
		}
		if v > worst {
			worst = v
		}
		quality += r.layoverQuality(legs[i].Destination.Code, legs[i+1].Departure.Sub(legs[i].Arrival))
	}
	if connections == 0 && len(legs) > 0 {
		worst = r.scorer.ScoreLeg(ctx, legs[0])
	}
	it.RiskScore = worst
	if connections > 0 {
		it.LayoverQuality = quality / float64(connections)
	}
}

// layoverQuality reproduces the upstream amenity scoring: the airport's
// base score adjusted for the layover length, lounge and sleeping-pod
// bonuses, and a city-visit bonus for long stays.
func (r *Ranker) layoverQuality(airportCode string, layover time.Duration) float64 {
	a, ok := r.geoIdx.AirportByCode(airportCode)
	if !ok {
		return 0
	}
	min := layover.Minutes()
	score := a.LayoverQuality
	switch {
	case min >= 60 && min <= 180:
		score += 2
	case min < 45:
		score -= 3
	case min > 360:
		score -= 1
	}
	if a.HasLounge {
		score += 1.5
	}
	if a.HasSleepingPods {
		score += 1
	}
	if a.CityAccessMin > 0 && min > 180 {
		score += 1
	}
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}

// scheduled filters to the timetabled legs; last-mile ground segments are
// not connections.
func scheduled(legs []trip.Leg) []trip.Leg {
	out := make([]trip.Leg, 0, len(legs))
	for _, l := range legs {
		if l.Mode != trip.ModeGround {
			out = append(out, l)
		}
	}
	return out
}

func bounds(its []trip.Itinerary, f func(trip.Itinerary) float64) (float64, float64) {
	min, max := f(its[0]), f(its[0])
	for _, it := range its[1:] {
		v := f(it)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// normalize maps v into [0,1]; a degenerate range counts as all-optimal.
func normalize(v, min, max float64) float64 {
	if max == min {
		return 0
	}
	return (v - min) / (max - min)
}
