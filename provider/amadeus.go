package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nearnode/tripgraph/config"
	"github.com/nearnode/tripgraph/trip"
)

// AmadeusProvider adapts the Amadeus Flight Offers Search API to the
// Provider interface. The OAuth2 token is cached until shortly before
// expiry and refreshed under a lock.
type AmadeusProvider struct {
	cfg        config.AmadeusConfig
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewAmadeusProvider builds the adapter from its configuration.
func NewAmadeusProvider(cfg config.AmadeusConfig) *AmadeusProvider {
	return &AmadeusProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond},
	}
}

func (p *AmadeusProvider) Name() string       { return "amadeus" }
func (p *AmadeusProvider) Modes() []trip.Mode { return []trip.Mode{trip.ModeFlight} }

func (p *AmadeusProvider) token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.accessToken != "" && time.Now().Add(time.Minute).Before(p.tokenExpiry) {
		return p.accessToken, nil
	}
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", p.cfg.ClientID)
	form.Set("client_secret", p.cfg.ClientSecret)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", NewTransient(p.Name(), err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", NewTransient(p.Name(), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		return "", NewPermanent(p.Name(), fmt.Errorf("token request rejected: HTTP %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return "", NewTransient(p.Name(), fmt.Errorf("token request: HTTP %d", resp.StatusCode))
	}
	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", NewTransient(p.Name(), err)
	}
	p.accessToken = body.AccessToken
	p.tokenExpiry = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	return p.accessToken, nil
}

type amadeusOffer struct {
	ID    string `json:"id"`
	Price struct {
		Total string `json:"total"`
	} `json:"price"`
	Itineraries []struct {
		Duration string `json:"duration"`
		Segments []struct {
			CarrierCode string `json:"carrierCode"`
			Number      string `json:"number"`
			Departure   struct {
				At string `json:"at"`
			} `json:"departure"`
			Arrival struct {
				At string `json:"at"`
			} `json:"arrival"`
		} `json:"segments"`
	} `json:"itineraries"`
}

// FetchLegs runs a flight-offers search for the pair. Each offer maps to a
// single flight leg spanning the offer's first departure and last arrival,
// the same flattening the upstream product applied.
func (p *AmadeusProvider) FetchLegs(ctx context.Context, origin, destination trip.Location, date time.Time, mode trip.Mode) ([]trip.Leg, error) {
	if mode != trip.ModeFlight {
		return nil, nil
	}
	if origin.Code == "" || destination.Code == "" {
		return nil, NewPermanent(p.Name(), fmt.Errorf("flight search requires airport codes, got %q and %q", origin.Code, destination.Code))
	}
	tok, err := p.token(ctx)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("originLocationCode", origin.Code)
	q.Set("destinationLocationCode", destination.Code)
	q.Set("departureDate", date.Format("2006-01-02"))
	q.Set("adults", "1")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.cfg.BaseURL+"/v2/shopping/flight-offers?"+q.Encode(), nil)
	if err != nil {
		return nil, NewTransient(p.Name(), err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, NewTransient(p.Name(), err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		return nil, NewPermanent(p.Name(), fmt.Errorf("rejected pair %s-%s: HTTP %d", origin.Code, destination.Code, resp.StatusCode))
	default:
		return nil, NewTransient(p.Name(), fmt.Errorf("HTTP %d", resp.StatusCode))
	}
	var body struct {
		Data []amadeusOffer `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, NewTransient(p.Name(), err)
	}
	legs := make([]trip.Leg, 0, len(body.Data))
	for _, offer := range body.Data {
		leg, ok := p.mapOffer(offer, origin, destination)
		if ok {
			legs = append(legs, leg)
		}
	}
	return legs, nil
}

func (p *AmadeusProvider) mapOffer(offer amadeusOffer, origin, destination trip.Location) (trip.Leg, bool) {
	if len(offer.Itineraries) == 0 || len(offer.Itineraries[0].Segments) == 0 {
		return trip.Leg{}, false
	}
	itin := offer.Itineraries[0]
	first := itin.Segments[0]
	last := itin.Segments[len(itin.Segments)-1]
	dep, err1 := parseOfferTime(first.Departure.At)
	arr, err2 := parseOfferTime(last.Arrival.At)
	if err1 != nil || err2 != nil || !arr.After(dep) {
		return trip.Leg{}, false
	}
	var price float64
	fmt.Sscanf(offer.Price.Total, "%f", &price)
	return trip.Leg{
		Mode:        trip.ModeFlight,
		Origin:      origin,
		Destination: destination,
		Departure:   dep,
		Arrival:     arr,
		PriceEUR:    price,
		Carrier:     first.CarrierCode,
		ProviderRef: "amadeus:" + offer.ID + ":" + first.CarrierCode + first.Number,
	}, true
}

func parseOfferTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}
