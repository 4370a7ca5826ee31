package ground

import (
	"context"
	"time"

	"github.com/nearnode/tripgraph/geo"
	"github.com/nearnode/tripgraph/trip"
)

// HeuristicSource estimates a taxi ride straight from the great-circle
// distance. It is the fallback when no journey-planning source covers the
// area, so a candidate airport is never dropped just because the transit
// APIs are blind there.
type HeuristicSource struct {
	SpeedKMH float64
	EURPerKM float64
	BaseFare float64
}

func (h HeuristicSource) Name() string { return "taxi-estimate" }

func (h HeuristicSource) Options(_ context.Context, from, to trip.Location) ([]Option, error) {
	km := geo.HaversineKM(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
	if km == 0 {
		return nil, nil
	}
	speed := h.SpeedKMH
	if speed <= 0 {
		speed = 50
	}
	return []Option{{
		Kind:     "taxi",
		Name:     h.Name(),
		Duration: time.Duration(km / speed * float64(time.Hour)),
		CostEUR:  h.BaseFare + h.EURPerKM*km,
	}}, nil
}
