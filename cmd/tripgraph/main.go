package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/nearnode/tripgraph/config"
	"github.com/nearnode/tripgraph/engine"
	"github.com/nearnode/tripgraph/geo"
	"github.com/nearnode/tripgraph/ground"
	"github.com/nearnode/tripgraph/internal"
	"github.com/nearnode/tripgraph/provider"
	"github.com/nearnode/tripgraph/rank"
)

const dateLayout = "2006-01-02"

func main() {
	configPath := flag.String("config", "config.yml", "path to config.yml")
	mode := flag.String("mode", "nearest", "nearest|direct|vibe")
	origin := flag.String("origin", "", "origin airport IATA code")
	destination := flag.String("destination", "", "destination address (nearest) or IATA code (direct)")
	date := flag.String("date", "", "travel date YYYY-MM-DD")
	dateEnd := flag.String("dateEnd", "", "end of date window YYYY-MM-DD (vibe; defaults to -date)")
	radius := flag.Float64("radius", 0, "candidate airport radius in km (0 = config default)")
	tag := flag.String("tag", "", "destination tag filter (vibe): beach|mountain|city|...")
	budget := flag.Float64("budget", 0, "budget ceiling in EUR (vibe; 0 = unlimited)")
	maxFlightMin := flag.Int("maxFlightMin", 0, "max in-air minutes (vibe; 0 = unlimited)")
	weightSpec := flag.String("weights", "", "price,time,risk[,quality] override, e.g. 0.6,0.2,0.2")
	flag.Parse()

	internal.InitLogging()
	cfg, err := config.LoadAppConfig(*configPath)
	if err != nil {
		panic(err)
	}

	planner, err := buildPlanner(cfg)
	if err != nil {
		panic(err)
	}

	day, err := time.Parse(dateLayout, *date)
	if err != nil {
		panic(fmt.Errorf("bad -date: %w", err))
	}
	weights, err := parseWeights(*weightSpec)
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	var res engine.Result
	switch *mode {
	case "nearest":
		res, err = planner.PlanNearestAlternate(ctx, engine.NearestAlternateRequest{
			OriginCode:              *origin,
			FinalDestinationAddress: *destination,
			Date:                    day,
			RadiusKM:                *radius,
			Weights:                 weights,
		})
	case "direct":
		res, err = planner.PlanDirect(ctx, engine.DirectRequest{
			OriginCode:      *origin,
			DestinationCode: *destination,
			Date:            day,
			Weights:         weights,
		})
	case "vibe":
		end := day
		if *dateEnd != "" {
			if end, err = time.Parse(dateLayout, *dateEnd); err != nil {
				panic(fmt.Errorf("bad -dateEnd: %w", err))
			}
		}
		res, err = planner.PlanVibe(ctx, engine.VibeRequest{
			OriginCode:            *origin,
			DestinationTypeFilter: *tag,
			BudgetCeilingEUR:      *budget,
			MaxFlightDuration:     time.Duration(*maxFlightMin) * time.Minute,
			DateWindowStart:       day,
			DateWindowEnd:         end,
			Weights:               weights,
		})
	default:
		panic("unknown mode")
	}
	if err != nil {
		panic(err)
	}

	buf, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		panic(err)
	}
	fmt.Println(string(buf))
}

// buildPlanner assembles the pipeline from configuration: airport index,
// geocoder, ground sources, and every leg provider with credentials or a
// DSN configured.
func buildPlanner(cfg config.AppConfig) (*engine.Planner, error) {
	geoIdx, err := geo.NewIndexFromConfig(cfg.Geo, geo.StaticGeocoder(cfg.Geo.Geocode))
	if err != nil {
		return nil, err
	}

	estimator := ground.NewEstimator(cfg.Ground, ground.HeuristicSource{
		SpeedKMH: cfg.Ground.TaxiSpeedKMH,
		EURPerKM: cfg.Ground.TaxiEURPerKM,
		BaseFare: cfg.Ground.TaxiBaseFare,
	})

	var providers []provider.Provider
	if cfg.Provider.Amadeus.ClientID != "" {
		providers = append(providers, provider.NewAmadeusProvider(cfg.Provider.Amadeus))
	}
	if cfg.Provider.Rail.BaseURL != "" {
		providers = append(providers, provider.NewRailProvider(cfg.Provider.Rail))
	}
	if cfg.Provider.MySQLDSN != "" {
		store, err := provider.OpenSQLStore(cfg.Provider.MySQLDSN)
		if err != nil {
			return nil, err
		}
		providers = append(providers, store)
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no leg providers configured")
	}
	gateway := provider.NewGateway(cfg.Provider, providers...)

	history := provider.NewDelayHistory()
	if len(cfg.Provider.DelayFeeds) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := history.LoadFromFeeds(ctx, cfg.Provider.DelayFeeds); err != nil {
			log.Printf("delay history load failed, falling back to prior: %v", err)
		}
	}

	return engine.NewPlanner(cfg, geoIdx, estimator, gateway, history), nil
}

func parseWeights(s string) (*rank.Weights, error) {
	if s == "" {
		return nil, nil
	}
	var w rank.Weights
	n, err := fmt.Sscanf(s, "%f,%f,%f,%f", &w.Price, &w.Time, &w.Risk, &w.Quality)
	if err != nil && n < 3 {
		return nil, fmt.Errorf("bad -weights %q: want price,time,risk[,quality]", s)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}
