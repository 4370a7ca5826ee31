package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/nearnode/tripgraph/config"
	"github.com/nearnode/tripgraph/trip"
)

// RailProvider adapts a Navitia-style journey-planning API to the Provider
// interface for train legs, including the trains that realize hacker
// connections between nearby airports.
type RailProvider struct {
	cfg        config.RailConfig
	httpClient *http.Client
}

// NewRailProvider builds the adapter from its configuration.
func NewRailProvider(cfg config.RailConfig) *RailProvider {
	return &RailProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond},
	}
}

func (p *RailProvider) Name() string       { return "rail" }
func (p *RailProvider) Modes() []trip.Mode { return []trip.Mode{trip.ModeTrain} }

type railJourney struct {
	DepartureDateTime string `json:"departure_date_time"`
	ArrivalDateTime   string `json:"arrival_date_time"`
	Durations         struct {
		Total int `json:"total"`
	} `json:"durations"`
	Fare struct {
		Total struct {
			Value string `json:"value"`
		} `json:"total"`
	} `json:"fare"`
}

// FetchLegs queries journeys from origin to destination departing on the
// given date. The upstream coordinate format is "longitude;latitude".
func (p *RailProvider) FetchLegs(ctx context.Context, origin, destination trip.Location, date time.Time, mode trip.Mode) ([]trip.Leg, error) {
	if mode != trip.ModeTrain {
		return nil, nil
	}
	q := url.Values{}
	q.Set("from", fmt.Sprintf("%f;%f", origin.Longitude, origin.Latitude))
	q.Set("to", fmt.Sprintf("%f;%f", destination.Longitude, destination.Latitude))
	q.Set("datetime", date.Format("20060102T150405"))
	endpoint := fmt.Sprintf("%s/coverage/%s/journeys?%s", p.cfg.BaseURL, p.cfg.Region, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, NewTransient(p.Name(), err)
	}
	req.SetBasicAuth(p.cfg.Token, "")
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, NewTransient(p.Name(), err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
		// Outside the covered region: no data, not a failure.
		return nil, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, NewPermanent(p.Name(), fmt.Errorf("unauthorized"))
	default:
		return nil, NewTransient(p.Name(), fmt.Errorf("HTTP %d", resp.StatusCode))
	}
	var body struct {
		Journeys []railJourney `json:"journeys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, NewTransient(p.Name(), err)
	}
	legs := make([]trip.Leg, 0, len(body.Journeys))
	for i, j := range body.Journeys {
		dep, err1 := time.Parse("20060102T150405", j.DepartureDateTime)
		arr, err2 := time.Parse("20060102T150405", j.ArrivalDateTime)
		if err1 != nil || err2 != nil || !arr.After(dep) {
			continue
		}
		var fare float64
		if j.Fare.Total.Value != "" {
			// Fares arrive in cents.
			var cents float64
			if _, err := fmt.Sscanf(j.Fare.Total.Value, "%f", &cents); err == nil {
				fare = cents / 100
			}
		}
		legs = append(legs, trip.Leg{
			Mode:        trip.ModeTrain,
			Origin:      origin,
			Destination: destination,
			Departure:   dep,
			Arrival:     arr,
			PriceEUR:    fare,
			Carrier:     "rail",
			ProviderRef: fmt.Sprintf("rail:%s:%d", p.cfg.Region, i),
		})
	}
	return legs, nil
}
