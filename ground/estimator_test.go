package ground

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nearnode/tripgraph/config"
	"github.com/nearnode/tripgraph/trip"
)

var (
	lhr      = trip.Location{Latitude: 51.4700, Longitude: -0.4543, Code: "LHR"}
	cityStop = trip.Location{Latitude: 51.5074, Longitude: -0.1278}
)

type failingSource struct{}

func (failingSource) Name() string { return "broken" }
func (failingSource) Options(context.Context, trip.Location, trip.Location) ([]Option, error) {
	return nil, errors.New("api down")
}

func staticSource(opts ...Option) StaticSource {
	return StaticSource{
		SourceName: "static",
		Table:      map[string][]Option{lhr.Key() + ">" + cityStop.Key(): opts},
	}
}

func TestEstimateLastMile_PicksWeightedBest(t *testing.T) {
	cfg := config.GroundConfig{TimeWeightEURPerMin: 0.5, MaxDetourMinutes: 180}
	departAt := time.Date(2026, 10, 1, 14, 0, 0, 0, time.UTC)

	// taxi: 25 + 0.5*35 = 42.5; express: 22 + 0.5*45 = 44.5
	src := staticSource(
		Option{Kind: "taxi", Name: "taxi", Duration: 35 * time.Minute, CostEUR: 25},
		Option{Kind: "rail", Name: "express", Duration: 45 * time.Minute, CostEUR: 22},
	)
	leg, err := NewEstimator(cfg, src).EstimateLastMile(context.Background(), lhr, cityStop, departAt)
	require.NoError(t, err)

	assert.Equal(t, trip.ModeGround, leg.Mode)
	assert.Equal(t, 25.0, leg.PriceEUR)
	assert.Equal(t, departAt, leg.Departure)
	assert.Equal(t, departAt.Add(35*time.Minute), leg.Arrival)
	assert.Equal(t, "static:taxi", leg.ProviderRef)
}

func TestEstimateLastMile_TieGoesToShorter(t *testing.T) {
	cfg := config.GroundConfig{TimeWeightEURPerMin: 1, MaxDetourMinutes: 180}

	// Equal objective (30+30 == 40+20), shorter ride wins.
	src := staticSource(
		Option{Kind: "taxi", Name: "slow", Duration: 30 * time.Minute, CostEUR: 30},
		Option{Kind: "taxi", Name: "fast", Duration: 20 * time.Minute, CostEUR: 40},
	)
	leg, err := NewEstimator(cfg, src).EstimateLastMile(context.Background(), lhr, cityStop, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "static:fast", leg.ProviderRef)
}

func TestEstimateLastMile_DetourCap(t *testing.T) {
	cfg := config.GroundConfig{TimeWeightEURPerMin: 0.5, MaxDetourMinutes: 60}

	src := staticSource(
		Option{Kind: "transit", Name: "cheap-but-slow", Duration: 3 * time.Hour, CostEUR: 5},
	)
	_, err := NewEstimator(cfg, src).EstimateLastMile(context.Background(), lhr, cityStop, time.Now())
	assert.ErrorIs(t, err, ErrNoRouteAvailable)
}

func TestEstimateLastMile_FailingSourceSkipped(t *testing.T) {
	cfg := config.GroundConfig{TimeWeightEURPerMin: 0.5, MaxDetourMinutes: 180}

	src := staticSource(Option{Kind: "taxi", Name: "taxi", Duration: 30 * time.Minute, CostEUR: 20})
	leg, err := NewEstimator(cfg, failingSource{}, src).EstimateLastMile(context.Background(), lhr, cityStop, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 20.0, leg.PriceEUR)
}

func TestEstimateLastMile_NoSources(t *testing.T) {
	cfg := config.GroundConfig{TimeWeightEURPerMin: 0.5, MaxDetourMinutes: 180}
	_, err := NewEstimator(cfg).EstimateLastMile(context.Background(), lhr, cityStop, time.Now())
	assert.ErrorIs(t, err, ErrNoRouteAvailable)
}

func TestHeuristicSource(t *testing.T) {
	src := HeuristicSource{SpeedKMH: 60, EURPerKM: 2, BaseFare: 5}

	opts, err := src.Options(context.Background(), lhr, cityStop)
	require.NoError(t, err)
	require.Len(t, opts, 1)

	// LHR to central London is roughly 23 km great-circle.
	opt := opts[0]
	assert.Equal(t, "taxi", opt.Kind)
	assert.InDelta(t, 23, opt.Duration.Minutes(), 3)
	assert.InDelta(t, 5+2*23, opt.CostEUR, 6)

	same, err := src.Options(context.Background(), lhr, lhr)
	require.NoError(t, err)
	assert.Empty(t, same, "zero distance yields no option")
}
