package routegraph

import (
	"container/heap"
	"strconv"
	"time"

	"github.com/nearnode/tripgraph/geo"
	"github.com/nearnode/tripgraph/trip"
)

// WeightProfile is one per-call linear combination of price and duration
// used as the edge cost during path extraction.
type WeightProfile struct {
	Name  string
	Price float64 // cost per EUR
	Time  float64 // cost per minute
}

// ParetoProfiles are the retained trade-off points: instead of collapsing
// to a single "best" path, the extractor keeps the cheapest, the fastest
// and a balanced path per candidate airport.
func ParetoProfiles() []WeightProfile {
	return []WeightProfile{
		{Name: "cheapest", Price: 1, Time: 0.01},
		{Name: "fastest", Price: 0, Time: 1},
		{Name: "balanced", Price: 0.5, Time: 0.5},
	}
}

// Extractor runs time-respecting shortest-path searches over a built graph.
type Extractor struct {
	scorer minConnSource
}

type minConnSource interface {
	MinSafeConnection(airport string) time.Duration
	MinSafeConnectionFor(airport string, from, to trip.Mode) time.Duration
}

// NewExtractor builds an extractor using the scorer's minimum connection
// times as transfer slack.
func NewExtractor(scorer minConnSource) *Extractor {
	return &Extractor{scorer: scorer}
}

// ExtractItineraries finds, per Pareto profile and per destination
// candidate, the best complete path from the origin and appends the
// candidate's last-mile leg shifted to the landing time. Partial paths
// breaching maxConnections or maxTotal are abandoned during the search.
// Results are deduplicated across profiles.
func (x *Extractor) ExtractItineraries(g *Graph, origin trip.Location, notBefore time.Time, destinations []geo.CandidateAirport, maxConnections int, maxTotal time.Duration) []trip.Itinerary {
	var out []trip.Itinerary
	seen := map[string]bool{}
	for _, profile := range ParetoProfiles() {
		for _, dest := range destinations {
			legs, ok := x.bestPath(g, origin, notBefore, dest.Airport.IATA, profile, maxConnections, maxTotal)
			if !ok {
				continue
			}
			if dest.LastMile != nil {
				legs = append(legs, shiftLeg(*dest.LastMile, legs[len(legs)-1].Arrival))
			}
			it := trip.NewItinerary(legs)
			if id := it.ID(); !seen[id] {
				seen[id] = true
				out = append(out, it)
			}
		}
	}
	return out
}

type searchState struct {
	locKey    string
	at        time.Time
	prevMode  trip.Mode
	transfers int
	cost      float64
	legs      []trip.Leg
}

type stateHeap []*searchState

func (h stateHeap) Len() int { return len(h) }
func (h stateHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	if len(h[i].legs) != len(h[j].legs) {
		return len(h[i].legs) < len(h[j].legs)
	}
	return sig(h[i].legs) < sig(h[j].legs)
}
func (h stateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *stateHeap) Push(x any)   { *h = append(*h, x.(*searchState)) }
func (h *stateHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func sig(legs []trip.Leg) string {
	if len(legs) == 0 {
		return ""
	}
	return legs[len(legs)-1].ID()
}

// bestPath is Dijkstra with lazy decrease-key over (location, time,
// previous mode, transfers) states. The per-edge cost includes waiting
// time at the origin node, so the time term reflects true elapsed time.
func (x *Extractor) bestPath(g *Graph, origin trip.Location, notBefore time.Time, destCode string, profile WeightProfile, maxConnections int, maxTotal time.Duration) ([]trip.Leg, bool) {
	h := &stateHeap{{locKey: origin.Key(), at: notBefore, prevMode: "", transfers: -1}}
	heap.Init(h)
	settled := map[string]bool{}

	for h.Len() > 0 {
		cur := heap.Pop(h).(*searchState)
		if cur.locKey == destCode {
			return cur.legs, true
		}
		key := stateKey(cur)
		if settled[key] {
			continue
		}
		settled[key] = true

		earliest := cur.at.Add(x.transferSlack(cur.prevMode, cur.locKey))
		for _, e := range g.EdgesFrom(cur.locKey, earliest) {
			if x.transferSlackFor(cur.prevMode, e.Leg.Mode, cur.locKey) > e.Leg.Departure.Sub(cur.at) {
				continue
			}
			transfers := cur.transfers + 1
			if transfers > maxConnections {
				continue
			}
			start := e.Leg.Departure
			if len(cur.legs) > 0 {
				start = cur.legs[0].Departure
			}
			if e.Leg.Arrival.Sub(start) > maxTotal {
				continue
			}
			elapsed := e.Leg.Arrival.Sub(cur.at)
			if len(cur.legs) == 0 {
				// Waiting for the first departure costs nothing; the trip
				// has not started yet.
				elapsed = e.Leg.Duration()
			}
			next := &searchState{
				locKey:    e.To.Loc.Key(),
				at:        e.Leg.Arrival,
				prevMode:  e.Leg.Mode,
				transfers: transfers,
				cost:      cur.cost + profile.Price*e.Leg.PriceEUR + profile.Time*elapsed.Minutes(),
				legs:      appendLeg(cur.legs, e.Leg),
			}
			if !settled[stateKey(next)] {
				heap.Push(h, next)
			}
		}
	}
	return nil, false
}

// stateKey includes the transfer count: a state that has already spent
// its connections must not shadow one at the same node with transfers
// left, whose extensions may still reach the destination.
func stateKey(s *searchState) string {
	return s.locKey + "@" + s.at.UTC().Format("20060102T150405") + "/" + string(s.prevMode) + "/" + strconv.Itoa(s.transfers)
}

// transferSlack is a lower bound on the slack before boarding anything at
// a location, whatever the outgoing mode turns out to be. The per-edge
// check in transferSlackFor enforces the exact mode pair.
func (x *Extractor) transferSlack(prev trip.Mode, locKey string) time.Duration {
	if prev == "" || prev == trip.ModeGround {
		return 0
	}
	return minDuration(
		x.scorer.MinSafeConnectionFor(locKey, prev, trip.ModeFlight),
		x.scorer.MinSafeConnectionFor(locKey, prev, trip.ModeTrain),
	)
}

func (x *Extractor) transferSlackFor(prev, next trip.Mode, locKey string) time.Duration {
	if prev == "" || prev == trip.ModeGround || next == trip.ModeGround {
		return 0
	}
	return x.scorer.MinSafeConnectionFor(locKey, prev, next)
}

func appendLeg(legs []trip.Leg, l trip.Leg) []trip.Leg {
	out := make([]trip.Leg, len(legs)+1)
	copy(out, legs)
	out[len(legs)] = l
	return out
}

// shiftLeg re-anchors a leg's departure, preserving duration and price.
// Used for last-mile legs whose start depends on when the traveler lands.
func shiftLeg(l trip.Leg, departAt time.Time) trip.Leg {
	d := l.Duration()
	l.Departure = departAt
	l.Arrival = departAt.Add(d)
	return l
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
