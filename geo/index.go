package geo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nearnode/tripgraph/trip"
)

// ErrResolution reports an address or code that cannot be resolved to
// coordinates. It fails the whole request.
var ErrResolution = errors.New("geo: cannot resolve location")

// Airport is one row of the static airport dataset.
type Airport struct {
	IATA    string
	ICAO    string
	Name    string
	City    string
	Country string
	Lat     float64
	Lon     float64

	// Destination tags ("beach", "mountain", "city", ...) drive vibe-search
	// candidate selection.
	Tags []string

	// Layover amenity data feeds the optional quality term in ranking.
	HasLounge       bool
	HasSleepingPods bool
	CityAccessMin   int
	LayoverQuality  float64
}

// Location returns the airport as a resolved coordinate.
func (a Airport) Location() trip.Location {
	return trip.Location{Latitude: a.Lat, Longitude: a.Lon, Code: a.IATA}
}

// HasTag reports whether the airport carries the destination tag.
func (a Airport) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Geocoder turns a free-form street address into coordinates. The concrete
// implementation (Nominatim upstream) is an external collaborator; tests
// and the CLI use StaticGeocoder.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (lat, lon float64, err error)
}

// StaticGeocoder resolves addresses from a fixed table.
type StaticGeocoder map[string][2]float64

func (g StaticGeocoder) Geocode(_ context.Context, address string) (float64, float64, error) {
	if c, ok := g[strings.ToLower(strings.TrimSpace(address))]; ok {
		return c[0], c[1], nil
	}
	return 0, 0, fmt.Errorf("%w: address %q unknown", ErrResolution, address)
}

// CandidateAirport is an airport inside the requested radius, annotated
// with its distance from the true destination. The last-mile leg is filled
// in by the ground estimator.
type CandidateAirport struct {
	Airport    Airport
	DistanceKM float64
	LastMile   *trip.Leg
}

// Index is the in-memory airport index.
type Index struct {
	byIATA   map[string]Airport
	airports []Airport
	geocoder Geocoder
}

// NewIndex builds an index over the given airports.
func NewIndex(airports []Airport, geocoder Geocoder) *Index {
	idx := &Index{
		byIATA:   make(map[string]Airport, len(airports)),
		airports: airports,
		geocoder: geocoder,
	}
	for _, a := range airports {
		idx.byIATA[strings.ToUpper(a.IATA)] = a
	}
	return idx
}

// AirportByCode looks up an airport by IATA code.
func (idx *Index) AirportByCode(code string) (Airport, bool) {
	a, ok := idx.byIATA[strings.ToUpper(strings.TrimSpace(code))]
	return a, ok
}

// Airports returns every airport in the index.
func (idx *Index) Airports() []Airport {
	return idx.airports
}

// Resolve turns an airport code or street address into a Location.
// Three-letter alphabetic inputs are tried as IATA codes first, matching
// the upstream behavior; everything else goes to the geocoder.
func (idx *Index) Resolve(ctx context.Context, addressOrCode string) (trip.Location, error) {
	s := strings.TrimSpace(addressOrCode)
	if s == "" {
		return trip.Location{}, fmt.Errorf("%w: empty input", ErrResolution)
	}
	if len(s) == 3 && isAlpha(s) {
		if a, ok := idx.AirportByCode(s); ok {
			return a.Location(), nil
		}
	}
	if idx.geocoder == nil {
		return trip.Location{}, fmt.Errorf("%w: %q is not a known airport code and no geocoder is configured", ErrResolution, s)
	}
	lat, lon, err := idx.geocoder.Geocode(ctx, s)
	if err != nil {
		return trip.Location{}, err
	}
	return trip.Location{Latitude: lat, Longitude: lon}, nil
}

// FindWithinRadius returns every airport whose great-circle distance from
// center is ≤ radiusKM, ordered by distance ascending. The boundary is
// inclusive. An empty result is a valid outcome, not an error.
func (idx *Index) FindWithinRadius(center trip.Location, radiusKM float64) []CandidateAirport {
	out := make([]CandidateAirport, 0, 4)
	for _, a := range idx.airports {
		d := HaversineKM(center.Latitude, center.Longitude, a.Lat, a.Lon)
		if d <= radiusKM {
			out = append(out, CandidateAirport{Airport: a, DistanceKM: d})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DistanceKM != out[j].DistanceKM {
			return out[i].DistanceKM < out[j].DistanceKM
		}
		return out[i].Airport.IATA < out[j].Airport.IATA
	})
	return out
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
