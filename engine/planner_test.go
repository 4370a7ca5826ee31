package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nearnode/tripgraph/config"
	"github.com/nearnode/tripgraph/geo"
	"github.com/nearnode/tripgraph/ground"
	"github.com/nearnode/tripgraph/provider"
	"github.com/nearnode/tripgraph/rank"
	"github.com/nearnode/tripgraph/trip"
)

var (
	day        = time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	londonAddr = "22 Bishopsgate, London"
	londonLoc  = trip.Location{Latitude: 51.5074, Longitude: -0.1278}
)

var planAirports = []geo.Airport{
	{IATA: "MXP", Lat: 45.6306, Lon: 8.7281},
	{IATA: "LHR", Lat: 51.4700, Lon: -0.4543},
	{IATA: "STN", Lat: 51.8860, Lon: 0.2389},
	{IATA: "SOU", Lat: 50.9503, Lon: -1.3568},
	{IATA: "PMI", Lat: 39.5517, Lon: 2.7388, Tags: []string{"beach"}},
}

// tableProvider serves flights from an origin>destination table,
// re-anchored to the requested date.
type tableProvider struct {
	table map[string][]trip.Leg
}

func (p *tableProvider) Name() string       { return "table" }
func (p *tableProvider) Modes() []trip.Mode { return []trip.Mode{trip.ModeFlight} }

func (p *tableProvider) FetchLegs(_ context.Context, origin, dest trip.Location, date time.Time, _ trip.Mode) ([]trip.Leg, error) {
	legs := p.table[origin.Key()+">"+dest.Key()]
	out := make([]trip.Leg, len(legs))
	for i, l := range legs {
		shift := date.Sub(day)
		l.Departure = l.Departure.Add(shift)
		l.Arrival = l.Arrival.Add(shift)
		out[i] = l
	}
	return out, nil
}

func planFlight(o, d string, depHour int, durMin int, price float64, ref string) trip.Leg {
	dep := day.Add(time.Duration(depHour) * time.Hour)
	return trip.Leg{
		Mode:        trip.ModeFlight,
		Origin:      trip.Location{Code: o},
		Destination: trip.Location{Code: d},
		Departure:   dep,
		Arrival:     dep.Add(time.Duration(durMin) * time.Minute),
		PriceEUR:    price,
		ProviderRef: ref,
	}
}

func testPlanner(t *testing.T, flights map[string][]trip.Leg) *Planner {
	t.Helper()
	cfg := config.Default()
	cfg.Geo.DefaultRadiusKM = 60
	cfg.Provider.RetryBackoffMS = 1

	geoIdx := geo.NewIndex(planAirports, geo.StaticGeocoder{
		"22 bishopsgate, london": {londonLoc.Latitude, londonLoc.Longitude},
	})
	estimator := ground.NewEstimator(cfg.Ground, ground.StaticSource{
		SourceName: "static",
		Table: map[string][]ground.Option{
			"LHR>" + londonLoc.Key(): {{Kind: "rail", Name: "express", Duration: 30 * time.Minute, CostEUR: 25}},
			"STN>" + londonLoc.Key(): {{Kind: "rail", Name: "stansted-express", Duration: 55 * time.Minute, CostEUR: 18}},
		},
	})
	gateway := provider.NewGateway(cfg.Provider, &tableProvider{table: flights})
	return NewPlanner(cfg, geoIdx, estimator, gateway, provider.NewDelayHistory())
}

func londonFlights() map[string][]trip.Leg {
	return map[string][]trip.Leg{
		"MXP>LHR": {planFlight("MXP", "LHR", 9, 120, 220, "lhr1")},
		"MXP>STN": {planFlight("MXP", "STN", 8, 135, 60, "stn1")},
	}
}

func TestPlanNearestAlternate_RanksAcrossCandidates(t *testing.T) {
	p := testPlanner(t, londonFlights())

	res, err := p.PlanNearestAlternate(context.Background(), NearestAlternateRequest{
		OriginCode:              "MXP",
		FinalDestinationAddress: londonAddr,
		Date:                    day,
		Weights:                 &rank.Weights{Price: 1, Time: 0.01, Risk: 0.01},
	})
	require.NoError(t, err)
	require.Equal(t, ReasonOK, res.Reason)
	require.NotEmpty(t, res.Top)

	// Price-dominated weights surface the Stansted route despite the
	// longer door-to-door time.
	best := res.Top[0]
	require.Len(t, best.Legs, 2)
	assert.Equal(t, "STN", best.Legs[0].Destination.Code)
	assert.Equal(t, trip.ModeGround, best.Legs[1].Mode)
	assert.Equal(t, 78.0, best.TotalPriceEUR, "flight plus last-mile, exactly")
	assert.Equal(t, best.Legs[0].Arrival, best.Legs[1].Departure)

	// Both airports produced complete itineraries.
	airports := map[string]bool{}
	for _, it := range res.All {
		airports[it.Legs[0].Destination.Code] = true
	}
	assert.True(t, airports["STN"] && airports["LHR"])
}

func TestPlanNearestAlternate_TimeWeightsFlipTheWinner(t *testing.T) {
	p := testPlanner(t, londonFlights())

	res, err := p.PlanNearestAlternate(context.Background(), NearestAlternateRequest{
		OriginCode:              "MXP",
		FinalDestinationAddress: londonAddr,
		Date:                    day,
		Weights:                 &rank.Weights{Price: 0.01, Time: 1, Risk: 0.01},
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Top)
	assert.Equal(t, "LHR", res.Top[0].Legs[0].Destination.Code)
}

func TestPlanNearestAlternate_NoAirportsInRadius(t *testing.T) {
	p := testPlanner(t, londonFlights())

	res, err := p.PlanNearestAlternate(context.Background(), NearestAlternateRequest{
		OriginCode:              "MXP",
		FinalDestinationAddress: londonAddr,
		Date:                    day,
		RadiusKM:                1,
	})
	require.NoError(t, err)
	assert.Equal(t, ReasonNoAirportsInRadius, res.Reason)
	assert.Empty(t, res.Top)
}

func TestPlanNearestAlternate_NoConnectingLegs(t *testing.T) {
	p := testPlanner(t, map[string][]trip.Leg{})

	res, err := p.PlanNearestAlternate(context.Background(), NearestAlternateRequest{
		OriginCode:              "MXP",
		FinalDestinationAddress: londonAddr,
		Date:                    day,
	})
	require.NoError(t, err)
	assert.Equal(t, ReasonNoConnectingLegs, res.Reason)
}

func TestPlanNearestAlternate_InvalidRequests(t *testing.T) {
	p := testPlanner(t, londonFlights())
	ctx := context.Background()

	tests := []struct {
		name string
		req  NearestAlternateRequest
	}{
		{name: "missing origin", req: NearestAlternateRequest{FinalDestinationAddress: londonAddr, Date: day}},
		{name: "bad origin code", req: NearestAlternateRequest{OriginCode: "MILAN", FinalDestinationAddress: londonAddr, Date: day}},
		{name: "missing address", req: NearestAlternateRequest{OriginCode: "MXP", Date: day}},
		{name: "missing date", req: NearestAlternateRequest{OriginCode: "MXP", FinalDestinationAddress: londonAddr}},
		{name: "negative radius", req: NearestAlternateRequest{OriginCode: "MXP", FinalDestinationAddress: londonAddr, Date: day, RadiusKM: -5}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.PlanNearestAlternate(ctx, tc.req)
			assert.Error(t, err)
		})
	}
}

func TestPlanNearestAlternate_UnknownOrigin(t *testing.T) {
	p := testPlanner(t, londonFlights())
	_, err := p.PlanNearestAlternate(context.Background(), NearestAlternateRequest{
		OriginCode:              "ZZZ",
		FinalDestinationAddress: londonAddr,
		Date:                    day,
	})
	assert.ErrorIs(t, err, geo.ErrResolution)
}

func TestPlanDirect(t *testing.T) {
	p := testPlanner(t, londonFlights())

	res, err := p.PlanDirect(context.Background(), DirectRequest{
		OriginCode:      "MXP",
		DestinationCode: "LHR",
		Date:            day,
	})
	require.NoError(t, err)
	require.Equal(t, ReasonOK, res.Reason)
	require.NotEmpty(t, res.Top)
	require.Len(t, res.Top[0].Legs, 1, "no last mile in the direct flow")
	assert.Equal(t, 220.0, res.Top[0].TotalPriceEUR)
}

func TestPlanVibe(t *testing.T) {
	flights := londonFlights()
	flights["MXP>PMI"] = []trip.Leg{
		planFlight("MXP", "PMI", 7, 110, 90, "pmi1"),
		planFlight("MXP", "PMI", 18, 110, 350, "pmi2"),
	}
	p := testPlanner(t, flights)

	res, err := p.PlanVibe(context.Background(), VibeRequest{
		OriginCode:            "MXP",
		DestinationTypeFilter: "beach",
		BudgetCeilingEUR:      200,
		DateWindowStart:       day,
		DateWindowEnd:         day,
	})
	require.NoError(t, err)
	require.Equal(t, ReasonOK, res.Reason)
	require.NotEmpty(t, res.Top)
	for _, it := range res.All {
		assert.LessOrEqual(t, it.TotalPriceEUR, 200.0, "budget ceiling filters")
		assert.Equal(t, "PMI", it.Legs[0].Destination.Code)
	}
}

func TestPlanVibe_NoTaggedAirports(t *testing.T) {
	p := testPlanner(t, londonFlights())
	res, err := p.PlanVibe(context.Background(), VibeRequest{
		OriginCode:            "MXP",
		DestinationTypeFilter: "safari",
		DateWindowStart:       day,
		DateWindowEnd:         day,
	})
	require.NoError(t, err)
	assert.Equal(t, ReasonNoAirportsInRadius, res.Reason)
}

func TestPlanVibe_WindowEndsBeforeStart(t *testing.T) {
	p := testPlanner(t, londonFlights())
	_, err := p.PlanVibe(context.Background(), VibeRequest{
		OriginCode:            "MXP",
		DestinationTypeFilter: "beach",
		DateWindowStart:       day,
		DateWindowEnd:         day.AddDate(0, 0, -1),
	})
	assert.Error(t, err)
}

func TestScheduledDuration(t *testing.T) {
	flight := planFlight("MXP", "LHR", 9, 120, 220, "a")
	ground := trip.Leg{
		Mode:      trip.ModeGround,
		Departure: flight.Arrival,
		Arrival:   flight.Arrival.Add(time.Hour),
	}
	it := trip.NewItinerary([]trip.Leg{flight, ground})
	assert.Equal(t, 2*time.Hour, scheduledDuration(it))
}
