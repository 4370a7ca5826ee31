package geo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nearnode/tripgraph/trip"
)

var testAirports = []Airport{
	{IATA: "LHR", Name: "Heathrow", Lat: 51.4700, Lon: -0.4543, Tags: []string{"city"}},
	{IATA: "STN", Name: "Stansted", Lat: 51.8860, Lon: 0.2389},
	{IATA: "SOU", Name: "Southampton", Lat: 50.9503, Lon: -1.3568},
	{IATA: "MXP", Name: "Malpensa", Lat: 45.6306, Lon: 8.7281},
}

// central London
var london = trip.Location{Latitude: 51.5074, Longitude: -0.1278}

func TestHaversineKM(t *testing.T) {
	// Malpensa to Heathrow is roughly 950 km great-circle.
	d := HaversineKM(45.6306, 8.7281, 51.4700, -0.4543)
	assert.InDelta(t, 950, d, 30)

	assert.Zero(t, HaversineKM(51.5, -0.1, 51.5, -0.1))
}

func TestFindWithinRadius(t *testing.T) {
	idx := NewIndex(testAirports, nil)

	// 60 km around London catches Heathrow and Stansted but not
	// Southampton (~105 km away).
	got := idx.FindWithinRadius(london, 60)
	require.Len(t, got, 2)
	assert.Equal(t, "LHR", got[0].Airport.IATA)
	assert.Equal(t, "STN", got[1].Airport.IATA)
	assert.Less(t, got[0].DistanceKM, got[1].DistanceKM)

	// Widening the radius only adds candidates, never removes them.
	wider := idx.FindWithinRadius(london, 150)
	require.GreaterOrEqual(t, len(wider), len(got))
	for i, c := range got {
		assert.Equal(t, c.Airport.IATA, wider[i].Airport.IATA)
	}
	assert.Equal(t, "SOU", wider[2].Airport.IATA)

	assert.Empty(t, idx.FindWithinRadius(london, 1))
}

func TestFindWithinRadius_BoundaryInclusive(t *testing.T) {
	idx := NewIndex(testAirports, nil)
	d := HaversineKM(london.Latitude, london.Longitude, 50.9503, -1.3568)

	at := idx.FindWithinRadius(london, d)
	codes := make([]string, len(at))
	for i, c := range at {
		codes[i] = c.Airport.IATA
	}
	assert.Contains(t, codes, "SOU")

	below := idx.FindWithinRadius(london, d-0.01)
	for _, c := range below {
		assert.NotEqual(t, "SOU", c.Airport.IATA)
	}
}

func TestResolve(t *testing.T) {
	gc := StaticGeocoder{"10 downing street, london": {51.5034, -0.1276}}
	idx := NewIndex(testAirports, gc)
	ctx := context.Background()

	tests := []struct {
		name    string
		input   string
		wantLat float64
		wantErr bool
	}{
		{name: "iata code", input: "LHR", wantLat: 51.4700},
		{name: "lowercase iata", input: "lhr", wantLat: 51.4700},
		{name: "address", input: "10 Downing Street, London", wantLat: 51.5034},
		{name: "unknown address", input: "nowhere at all", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			loc, err := idx.Resolve(ctx, tc.input)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrResolution)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.wantLat, loc.Latitude, 0.001)
		})
	}
}

func TestResolve_ThreeLetterAddressFallsThrough(t *testing.T) {
	// A three-letter input that is not a known code still goes to the
	// geocoder instead of failing.
	gc := StaticGeocoder{"ely": {52.3988, 0.2622}}
	idx := NewIndex(testAirports, gc)

	loc, err := idx.Resolve(context.Background(), "Ely")
	require.NoError(t, err)
	assert.InDelta(t, 52.3988, loc.Latitude, 0.001)
}

func TestAirport_HasTag(t *testing.T) {
	a := Airport{IATA: "PMI", Tags: []string{"beach", "island"}}
	assert.True(t, a.HasTag("beach"))
	assert.True(t, a.HasTag("BEACH"))
	assert.False(t, a.HasTag("mountain"))
}
