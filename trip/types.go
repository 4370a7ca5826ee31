package trip

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Mode identifies the transport mode of a leg.
type Mode string

const (
	ModeFlight Mode = "flight"
	ModeTrain  Mode = "train"
	ModeGround Mode = "ground"
)

// Location is a resolved geographic point, optionally carrying the IATA
// code of the airport it denotes. Immutable once resolved.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Code      string  `json:"code,omitempty"`
}

// Key returns a stable identifier for the location: the airport code when
// present, otherwise the coordinates rounded to ~11m precision.
func (l Location) Key() string {
	if l.Code != "" {
		return l.Code
	}
	return fmt.Sprintf("%.4f,%.4f", l.Latitude, l.Longitude)
}

// Leg is a single transport segment. Legs are value records: once produced
// by a provider adapter or the ground estimator they are never mutated.
type Leg struct {
	Mode        Mode      `json:"mode"`
	Origin      Location  `json:"origin"`
	Destination Location  `json:"destination"`
	Departure   time.Time `json:"departure"`
	Arrival     time.Time `json:"arrival"`
	PriceEUR    float64   `json:"price_eur"`
	Carrier     string    `json:"carrier,omitempty"`
	ProviderRef string    `json:"provider_ref"`
}

// ID returns the content hash identifying this leg for caching and dedup.
// It covers (mode, origin, destination, departure, provider reference), so
// the same leg fetched twice hashes identically.
func (l Leg) ID() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%d|%s",
		l.Mode, l.Origin.Key(), l.Destination.Key(), l.Departure.Unix(), l.ProviderRef)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Duration is the in-vehicle time of the leg.
func (l Leg) Duration() time.Duration {
	return l.Arrival.Sub(l.Departure)
}

// Route returns the "ORG-DST" pair used as the historical-statistics key.
func (l Leg) Route() string {
	return l.Origin.Key() + "-" + l.Destination.Key()
}

// Itinerary is an ordered sequence of legs from the true origin to the true
// destination. It is a derived, read-only output: the aggregates are fixed
// when the itinerary is assembled.
type Itinerary struct {
	Legs []Leg `json:"legs"`

	TotalPriceEUR        float64       `json:"total_price"`
	TotalDuration        time.Duration `json:"total_duration"`
	RiskScore            float64       `json:"risk_score"`
	FeasibleSelfTransfer bool          `json:"feasible_self_transfer"`

	// LayoverQuality aggregates airport amenity scores across connection
	// points; it only influences ranking when the quality weight is set.
	LayoverQuality float64 `json:"layover_quality,omitempty"`
}

// NewItinerary assembles an itinerary from legs, computing the price and
// duration aggregates. Total duration spans first departure to last arrival,
// so waiting time at connections is included.
func NewItinerary(legs []Leg) Itinerary {
	it := Itinerary{Legs: legs}
	for _, l := range legs {
		it.TotalPriceEUR += l.PriceEUR
	}
	if len(legs) > 0 {
		it.TotalDuration = legs[len(legs)-1].Arrival.Sub(legs[0].Departure)
	}
	return it
}

// ID identifies an itinerary by the ordered IDs of its legs.
func (it Itinerary) ID() string {
	ids := make([]string, len(it.Legs))
	for i, l := range it.Legs {
		ids[i] = l.ID()
	}
	return strings.Join(ids, "+")
}

// Recommendation bands a self-transfer connection by risk, recovered from
// the delay-insurance notification feature of the upstream product.
type Recommendation string

const (
	RecommendationSafe      Recommendation = "safe"
	RecommendationRisky     Recommendation = "risky"
	RecommendationVeryRisky Recommendation = "very_risky"
)

// RiskProfile is the per-connection risk assessment. It lives only for the
// duration of one ranking pass; persistence is a collaborator's concern.
type RiskProfile struct {
	ConnectionID         string
	DelayProbability     float64
	SelfTransferFeasible bool
	MinSafeConnection    time.Duration
	Recommendation       Recommendation
}
