package routegraph

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/nearnode/tripgraph/config"
	"github.com/nearnode/tripgraph/geo"
	"github.com/nearnode/tripgraph/provider"
	"github.com/nearnode/tripgraph/risk"
	"github.com/nearnode/tripgraph/trip"
)

// Builder assembles the connection graph for one request. It owns the
// fetch fan-out but delegates all I/O to the gateway; graph assembly
// itself is synchronous.
type Builder struct {
	cfg     config.GraphConfig
	gateway *provider.Gateway
	geoIdx  *geo.Index
	scorer  *risk.Scorer
}

// NewBuilder wires the builder to its collaborators.
func NewBuilder(cfg config.GraphConfig, gateway *provider.Gateway, geoIdx *geo.Index, scorer *risk.Scorer) *Builder {
	return &Builder{cfg: cfg, gateway: gateway, geoIdx: geoIdx, scorer: scorer}
}

// Build fetches legs for every (origin, candidate) pair concurrently,
// assembles the time-expanded graph, and splices train hacker edges into
// eligible layovers. Per-pair fetch failures only thin the graph; a
// permanent provider failure aborts. Fetch results are consumed as they
// complete, which is safe because edge insertion commutes.
func (b *Builder) Build(ctx context.Context, origins []geo.Airport, destinations []geo.CandidateAirport, date time.Time, maxConnections int) (*Graph, error) {
	g := NewGraph()

	intermediates := b.selectIntermediates(origins, destinations, maxConnections)
	requests := b.flightRequests(origins, destinations, intermediates, date)

	if err := b.consume(ctx, g, requests); err != nil {
		return nil, err
	}

	// flight + train + flight needs two transfers, so hacker splicing
	// only makes sense when two connections are allowed.
	if maxConnections >= 2 {
		if err := b.spliceHackerEdges(ctx, g, destinations, date); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// consume drains the fan-out channel into the graph. Cancellation is
// best-effort: legs already returned still enter the graph so the caller
// can rank whatever was fetched in time.
func (b *Builder) consume(ctx context.Context, g *Graph, requests []provider.FetchRequest) error {
	var fatal error
	for res := range b.gateway.FetchAll(ctx, requests) {
		if res.Err != nil {
			if provider.IsPermanent(res.Err) && fatal == nil {
				fatal = res.Err
			}
			continue
		}
		for _, leg := range res.Legs {
			g.AddLeg(leg)
		}
	}
	return fatal
}

func (b *Builder) flightRequests(origins []geo.Airport, destinations []geo.CandidateAirport, intermediates []geo.Airport, date time.Time) []provider.FetchRequest {
	var reqs []provider.FetchRequest
	add := func(from, to trip.Location) {
		if from.Key() == to.Key() {
			return
		}
		reqs = append(reqs, provider.FetchRequest{
			Origin: from, Destination: to, Date: date, Mode: trip.ModeFlight,
		})
	}
	for _, o := range origins {
		for _, d := range destinations {
			add(o.Location(), d.Airport.Location())
		}
		for _, i := range intermediates {
			add(o.Location(), i.Location())
		}
	}
	for _, i := range intermediates {
		for _, d := range destinations {
			add(i.Location(), d.Airport.Location())
		}
	}
	return reqs
}

// selectIntermediates picks connection airports worth exploring: those
// whose detour over the direct great-circle distance stays reasonable,
// nearest-detour first, capped by configuration.
func (b *Builder) selectIntermediates(origins []geo.Airport, destinations []geo.CandidateAirport, maxConnections int) []geo.Airport {
	if maxConnections < 1 || len(origins) == 0 || len(destinations) == 0 {
		return nil
	}
	o := origins[0]
	d := destinations[0].Airport
	direct := geo.HaversineKM(o.Lat, o.Lon, d.Lat, d.Lon)
	if direct == 0 {
		return nil
	}
	used := map[string]bool{}
	for _, a := range origins {
		used[a.IATA] = true
	}
	for _, c := range destinations {
		used[c.Airport.IATA] = true
	}
	type scored struct {
		airport geo.Airport
		detour  float64
	}
	var cands []scored
	for _, a := range b.geoIdx.Airports() {
		if used[a.IATA] {
			continue
		}
		via := geo.HaversineKM(o.Lat, o.Lon, a.Lat, a.Lon) + geo.HaversineKM(a.Lat, a.Lon, d.Lat, d.Lon)
		if via > direct*1.6 {
			continue
		}
		cands = append(cands, scored{airport: a, detour: via})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].detour != cands[j].detour {
			return cands[i].detour < cands[j].detour
		}
		return cands[i].airport.IATA < cands[j].airport.IATA
	})
	if len(cands) > b.cfg.MaxIntermediates {
		cands = cands[:b.cfg.MaxIntermediates]
	}
	out := make([]geo.Airport, len(cands))
	for i, c := range cands {
		out[i] = c.airport
	}
	return out
}

// spliceHackerEdges inserts train legs between a layover airport and a
// nearby alternate whenever the gap to an onward flight from the alternate
// lies inside (minimum connection threshold, max detour window]. This is
// what realizes "fly into Brussels, train to Amsterdam, fly out".
func (b *Builder) spliceHackerEdges(ctx context.Context, g *Graph, destinations []geo.CandidateAirport, date time.Time) error {
	window := time.Duration(b.cfg.MaxDetourWindowMin) * time.Minute
	finals := map[string]bool{}
	for _, d := range destinations {
		finals[d.Airport.IATA] = true
	}

	type pair struct{ from, to geo.Airport }
	var wanted []pair
	seen := map[string]bool{}
	for _, locKey := range g.Locations() {
		// Only consider layovers at airports that are not already a final
		// candidate; a hacker detour past the destination helps nobody.
		layover, ok := b.geoIdx.AirportByCode(locKey)
		if !ok || finals[layover.IATA] {
			continue
		}
		arrivals := g.Arrivals(locKey)
		if len(arrivals) == 0 {
			continue
		}
		for _, alt := range b.nearbyAirports(layover) {
			if b.hasEligibleGap(g, arrivals, layover, alt, window) {
				key := layover.IATA + ">" + alt.IATA
				if !seen[key] {
					seen[key] = true
					wanted = append(wanted, pair{from: layover, to: alt})
				}
			}
		}
	}
	if len(wanted) == 0 {
		return nil
	}

	reqs := make([]provider.FetchRequest, 0, len(wanted))
	for _, p := range wanted {
		reqs = append(reqs, provider.FetchRequest{
			Origin: p.from.Location(), Destination: p.to.Location(), Date: date, Mode: trip.ModeTrain,
		})
	}
	inserted := 0
	for res := range b.gateway.FetchAll(ctx, reqs) {
		if res.Err != nil {
			if provider.IsPermanent(res.Err) {
				return res.Err
			}
			continue
		}
		layoverKey := res.Request.Origin.Key()
		altCode := res.Request.Destination.Key()
		arrivals := g.Arrivals(layoverKey)
		for _, t := range res.Legs {
			if b.trainFits(g, arrivals, t, altCode, window) && g.AddLeg(t) {
				inserted++
			}
		}
	}
	if inserted > 0 {
		log.Printf("routegraph: spliced %d hacker train edges", inserted)
	}
	return nil
}

// nearbyAirports lists airports within the hacker radius of the layover,
// nearest first.
func (b *Builder) nearbyAirports(layover geo.Airport) []geo.Airport {
	cands := b.geoIdx.FindWithinRadius(layover.Location(), b.cfg.HackerRadiusKM)
	out := make([]geo.Airport, 0, len(cands))
	for _, c := range cands {
		if c.Airport.IATA != layover.IATA {
			out = append(out, c.Airport)
		}
	}
	return out
}

// hasEligibleGap reports whether some arrival at the layover and some
// onward flight from the alternate leave a gap inside the splice window.
// The lower bound is exclusive and the upper bound inclusive.
func (b *Builder) hasEligibleGap(g *Graph, arrivals []Edge, layover, alt geo.Airport, window time.Duration) bool {
	minConn := b.scorer.MinSafeConnection(layover.IATA)
	for _, a := range arrivals {
		for _, f := range g.EdgesFrom(alt.IATA, a.Leg.Arrival) {
			if f.Leg.Mode != trip.ModeFlight {
				continue
			}
			gap := f.Leg.Departure.Sub(a.Leg.Arrival)
			if gap > minConn && gap <= window {
				return true
			}
		}
	}
	return false
}

// trainFits keeps only train legs that are actually rideable: the
// traveler must be able to exit after some arrival, ride, and still make
// an onward flight (with the alternate airport's minimum connection time)
// whose overall gap is inside the splice window.
func (b *Builder) trainFits(g *Graph, arrivals []Edge, t trip.Leg, altCode string, window time.Duration) bool {
	minConnLayover := b.scorer.MinSafeConnection(t.Origin.Key())
	exit := b.scorer.MinSafeConnectionFor(t.Origin.Key(), trip.ModeFlight, trip.ModeTrain)
	minConnAlt := b.scorer.MinSafeConnectionFor(altCode, trip.ModeTrain, trip.ModeFlight)
	for _, a := range arrivals {
		if t.Departure.Before(a.Leg.Arrival.Add(exit)) {
			continue
		}
		for _, f := range g.EdgesFrom(altCode, t.Arrival.Add(minConnAlt)) {
			if f.Leg.Mode != trip.ModeFlight {
				continue
			}
			gap := f.Leg.Departure.Sub(a.Leg.Arrival)
			if gap > minConnLayover && gap <= window {
				return true
			}
		}
	}
	return false
}
