package routegraph

import (
	"fmt"
	"sort"
	"time"

	"github.com/nearnode/tripgraph/trip"
)

// Node is one (location, time) point of the time-expanded graph.
type Node struct {
	Loc  trip.Location
	Time time.Time
}

// Key identifies the node by location and instant.
func (n Node) Key() string {
	return fmt.Sprintf("%s@%d", n.Loc.Key(), n.Time.Unix())
}

// Edge is one leg embedded in the time-expanded graph. From.Time is the
// leg's departure and To.Time its arrival, so To.Time ≥ From.Time always
// holds for edges accepted by AddLeg.
type Edge struct {
	Leg  trip.Leg
	From Node
	To   Node
}

// Graph is a directed time-expanded multigraph over legs. Edge insertion
// commutes: the graph built from any permutation of the same leg set is
// identical, which lets the builder consume fetch results as they arrive.
type Graph struct {
	byOrigin map[string][]Edge // location key -> outgoing edges
	locs     map[string]struct{}
	ids      map[string]struct{}
	sorted   bool
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		byOrigin: map[string][]Edge{},
		locs:     map[string]struct{}{},
		ids:      map[string]struct{}{},
	}
}

// AddLeg inserts the leg as an edge. Legs that would travel back in time
// and duplicates (same content hash) are ignored.
func (g *Graph) AddLeg(leg trip.Leg) bool {
	if leg.Arrival.Before(leg.Departure) {
		return false
	}
	id := leg.ID()
	if _, dup := g.ids[id]; dup {
		return false
	}
	g.ids[id] = struct{}{}
	e := Edge{
		Leg:  leg,
		From: Node{Loc: leg.Origin, Time: leg.Departure},
		To:   Node{Loc: leg.Destination, Time: leg.Arrival},
	}
	g.byOrigin[leg.Origin.Key()] = append(g.byOrigin[leg.Origin.Key()], e)
	g.locs[leg.Origin.Key()] = struct{}{}
	g.locs[leg.Destination.Key()] = struct{}{}
	g.sorted = false
	return true
}

// Len returns the number of edges.
func (g *Graph) Len() int { return len(g.ids) }

// Edges returns every edge, ordered by (origin, departure, leg ID) for
// deterministic iteration.
func (g *Graph) Edges() []Edge {
	g.ensureSorted()
	keys := make([]string, 0, len(g.byOrigin))
	for k := range g.byOrigin {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []Edge
	for _, k := range keys {
		out = append(out, g.byOrigin[k]...)
	}
	return out
}

// EdgesFrom returns the edges leaving the location that depart at or after
// earliest, in departure order.
func (g *Graph) EdgesFrom(locKey string, earliest time.Time) []Edge {
	g.ensureSorted()
	edges := g.byOrigin[locKey]
	i := sort.Search(len(edges), func(i int) bool {
		return !edges[i].Leg.Departure.Before(earliest)
	})
	return edges[i:]
}

// Arrivals returns every edge arriving at the location, in arrival order.
func (g *Graph) Arrivals(locKey string) []Edge {
	var out []Edge
	for _, edges := range g.byOrigin {
		for _, e := range edges {
			if e.To.Loc.Key() == locKey {
				out = append(out, e)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Leg.Arrival.Equal(out[j].Leg.Arrival) {
			return out[i].Leg.Arrival.Before(out[j].Leg.Arrival)
		}
		return out[i].Leg.ID() < out[j].Leg.ID()
	})
	return out
}

// Locations returns the key of every location touched by an edge,
// arrival-only locations included: a layover airport the traveler only
// flies into must still be visible to the splicing pass.
func (g *Graph) Locations() []string {
	keys := make([]string, 0, len(g.locs))
	for k := range g.locs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (g *Graph) ensureSorted() {
	if g.sorted {
		return
	}
	for k := range g.byOrigin {
		edges := g.byOrigin[k]
		sort.Slice(edges, func(i, j int) bool {
			if !edges[i].Leg.Departure.Equal(edges[j].Leg.Departure) {
				return edges[i].Leg.Departure.Before(edges[j].Leg.Departure)
			}
			return edges[i].Leg.ID() < edges[j].Leg.ID()
		})
	}
	g.sorted = true
}
