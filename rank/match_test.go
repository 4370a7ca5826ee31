package rank

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nearnode/tripgraph/trip"
)

func matchItinerary(price float64, dep time.Time, ref string) trip.Itinerary {
	return trip.NewItinerary([]trip.Leg{{
		Mode:        trip.ModeFlight,
		Origin:      trip.Location{Code: "MXP"},
		Destination: trip.Location{Code: "LHR"},
		Departure:   dep,
		Arrival:     dep.Add(2 * time.Hour),
		PriceEUR:    price,
		ProviderRef: ref,
	}})
}

func TestIntersect_OrdersByRankSum(t *testing.T) {
	day := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	a := matchItinerary(100, day.Add(8*time.Hour), "a")
	b := matchItinerary(150, day.Add(10*time.Hour), "b")
	c := matchItinerary(200, day.Add(12*time.Hour), "c")
	onlyA := matchItinerary(80, day.Add(6*time.Hour), "x")

	rankedA := []trip.Itinerary{a, b, c, onlyA} // a=0 b=1 c=2
	rankedB := []trip.Itinerary{c, b, a}        // c=0 b=1 a=2

	matches := Intersect(rankedA, rankedB, Constraints{}, Constraints{})
	require.Len(t, matches, 3, "the itinerary only one party saw is out")

	// a: 0+2=2, b: 1+1=2, c: 2+0=2 -- all tie, ordered by ID.
	for _, m := range matches {
		assert.Equal(t, 2, m.RankSum())
	}
	for i := 1; i < len(matches); i++ {
		assert.Less(t, matches[i-1].Itinerary.ID(), matches[i].Itinerary.ID())
	}
}

func TestIntersect_AsymmetricRanks(t *testing.T) {
	day := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	a := matchItinerary(100, day.Add(8*time.Hour), "a")
	b := matchItinerary(150, day.Add(10*time.Hour), "b")

	matches := Intersect(
		[]trip.Itinerary{a, b},
		[]trip.Itinerary{a, b},
		Constraints{}, Constraints{},
	)
	require.Len(t, matches, 2)
	assert.Equal(t, a.ID(), matches[0].Itinerary.ID(), "agreed favorite first")
	assert.Equal(t, 0, matches[0].RankSum())
	assert.Equal(t, 2, matches[1].RankSum())
}

func TestIntersect_ConstraintsFilter(t *testing.T) {
	day := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	cheapEarly := matchItinerary(100, day.Add(6*time.Hour), "a")
	pricyLate := matchItinerary(400, day.Add(20*time.Hour), "b")
	both := []trip.Itinerary{cheapEarly, pricyLate}

	tests := []struct {
		name    string
		consA   Constraints
		consB   Constraints
		wantIDs []string
	}{
		{
			name:    "no constraints",
			wantIDs: []string{cheapEarly.ID(), pricyLate.ID()},
		},
		{
			name:    "one side's budget binds both",
			consA:   Constraints{BudgetEUR: 200},
			wantIDs: []string{cheapEarly.ID()},
		},
		{
			name:    "earliest departure cuts the morning flight",
			consB:   Constraints{EarliestDeparture: day.Add(12 * time.Hour)},
			wantIDs: []string{pricyLate.ID()},
		},
		{
			name:  "latest arrival cuts the evening flight",
			consA: Constraints{LatestArrival: day.Add(10 * time.Hour)},
			consB: Constraints{BudgetEUR: 500},
			wantIDs: []string{cheapEarly.ID()},
		},
		{
			name:  "jointly unsatisfiable",
			consA: Constraints{BudgetEUR: 200},
			consB: Constraints{EarliestDeparture: day.Add(12 * time.Hour)},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			matches := Intersect(both, both, tc.consA, tc.consB)
			var ids []string
			for _, m := range matches {
				ids = append(ids, m.Itinerary.ID())
			}
			assert.Equal(t, tc.wantIDs, ids)
		})
	}
}

func TestIntersect_EmptyInputs(t *testing.T) {
	assert.Empty(t, Intersect(nil, nil, Constraints{}, Constraints{}))

	day := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	a := matchItinerary(100, day, "a")
	assert.Empty(t, Intersect([]trip.Itinerary{a}, nil, Constraints{}, Constraints{}))
}

func TestMatch_AgreementScore(t *testing.T) {
	m := Match{}
	assert.Equal(t, 50.0, m.AgreementScore(VoteLike, VoteLike))
	assert.Equal(t, 75.0, m.AgreementScore(VoteSuperLike, VoteLike))
	assert.Equal(t, 100.0, m.AgreementScore(VoteSuperLike, VoteSuperLike))
}
