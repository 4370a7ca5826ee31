package rank

import (
	"sort"
	"time"

	"github.com/nearnode/tripgraph/trip"
)

// Constraints are one party's limits on an acceptable itinerary. Zero
// values mean "no constraint".
type Constraints struct {
	BudgetEUR         float64
	EarliestDeparture time.Time
	LatestArrival     time.Time
}

func (c Constraints) accepts(it trip.Itinerary) bool {
	if c.BudgetEUR > 0 && it.TotalPriceEUR > c.BudgetEUR {
		return false
	}
	if len(it.Legs) == 0 {
		return true
	}
	if !c.EarliestDeparture.IsZero() && it.Legs[0].Departure.Before(c.EarliestDeparture) {
		return false
	}
	if !c.LatestArrival.IsZero() && it.Legs[len(it.Legs)-1].Arrival.After(c.LatestArrival) {
		return false
	}
	return true
}

// Vote is one party's reaction to an itinerary in the collaborative flow.
type Vote int

const (
	VoteNone Vote = iota
	VoteLike
	VoteSuperLike
)

// Match is one itinerary acceptable to both parties. RankA/RankB are
// zero-based positions in the source lists; lower combined rank is a
// stronger agreement.
type Match struct {
	Itinerary trip.Itinerary
	RankA     int
	RankB     int
}

// RankSum is the combined-rank ordering key.
func (m Match) RankSum() int { return m.RankA + m.RankB }

// AgreementScore weights a match by how emphatically each party voted,
// following the upstream perfect-match formula: 50 base, +25 per
// super-like.
func (m Match) AgreementScore(a, b Vote) float64 {
	score := 50.0
	if a == VoteSuperLike {
		score += 25
	}
	if b == VoteSuperLike {
		score += 25
	}
	return score
}

// Intersect returns the itineraries present in both ranked lists that
// satisfy both parties' constraints, ordered by combined rank sum
// ascending. An empty result is a valid "no perfect match" outcome.
func Intersect(rankedA, rankedB []trip.Itinerary, consA, consB Constraints) []Match {
	posB := make(map[string]int, len(rankedB))
	for i, it := range rankedB {
		if _, dup := posB[it.ID()]; !dup {
			posB[it.ID()] = i
		}
	}
	var matches []Match
	for i, it := range rankedA {
		j, ok := posB[it.ID()]
		if !ok {
			continue
		}
		if !consA.accepts(it) || !consB.accepts(it) {
			continue
		}
		matches = append(matches, Match{Itinerary: it, RankA: i, RankB: j})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].RankSum() != matches[j].RankSum() {
			return matches[i].RankSum() < matches[j].RankSum()
		}
		return matches[i].Itinerary.ID() < matches[j].Itinerary.ID()
	})
	return matches
}
