package engine

import (
	"time"

	"github.com/nearnode/tripgraph/rank"
)

// NearestAlternateRequest asks for trips from a known origin airport to a
// free-form destination address, considering every airport within RadiusKM
// of the resolved destination as a landing candidate.
type NearestAlternateRequest struct {
	OriginCode              string    `validate:"required,len=3,alpha"`
	FinalDestinationAddress string    `validate:"required"`
	Date                    time.Time `validate:"required"`
	// RadiusKM of 0 means "use the configured default".
	RadiusKM float64 `validate:"gte=0"`
	// Weights of nil means "use the configured defaults".
	Weights *rank.Weights
}

// DirectRequest asks for trips between two known airports, no alternate
// expansion and no last-mile ground segment.
type DirectRequest struct {
	OriginCode      string    `validate:"required,len=3,alpha"`
	DestinationCode string    `validate:"required,len=3,alpha"`
	Date            time.Time `validate:"required"`
	Weights         *rank.Weights
}

// VibeRequest asks "where can I go": destinations are selected by tag
// rather than named, then filtered by budget and flight time over a date
// window.
type VibeRequest struct {
	OriginCode            string `validate:"required,len=3,alpha"`
	DestinationTypeFilter string `validate:"required"`
	// BudgetCeilingEUR of 0 means unlimited.
	BudgetCeilingEUR float64 `validate:"gte=0"`
	// MaxFlightDuration of 0 means unlimited. Only scheduled (non-ground)
	// legs count toward it.
	MaxFlightDuration time.Duration `validate:"gte=0"`
	DateWindowStart   time.Time     `validate:"required"`
	DateWindowEnd     time.Time     `validate:"required"`
	Weights           *rank.Weights
}
