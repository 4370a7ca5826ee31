package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// LoadAppConfig loads and validates the application configuration from the
// given yaml file, then fills in defaults for anything left unset.
func LoadAppConfig(path string) (AppConfig, error) {
	var cfg AppConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return cfg, err
	}
	for _, f := range cfg.Provider.DelayFeeds {
		if err := v.Struct(f); err != nil {
			return cfg, err
		}
	}
	ApplyDefaults(&cfg)
	return cfg, nil
}

// ApplyDefaults fills the documented defaults for zero-valued fields.
func ApplyDefaults(cfg *AppConfig) {
	if cfg.Engine.RequestTimeoutMS == 0 {
		cfg.Engine.RequestTimeoutMS = 10000
	}
	if cfg.Engine.TopN == 0 {
		cfg.Engine.TopN = 3
	}
	if cfg.Engine.WeightPrice == 0 && cfg.Engine.WeightTime == 0 && cfg.Engine.WeightRisk == 0 {
		cfg.Engine.WeightPrice = 1.0 / 3
		cfg.Engine.WeightTime = 1.0 / 3
		cfg.Engine.WeightRisk = 1.0 / 3
	}
	if cfg.Geo.DefaultRadiusKM == 0 {
		cfg.Geo.DefaultRadiusKM = 100
	}
	if cfg.Ground.TimeWeightEURPerMin == 0 {
		cfg.Ground.TimeWeightEURPerMin = 0.5
	}
	if cfg.Ground.MaxDetourMinutes == 0 {
		cfg.Ground.MaxDetourMinutes = 180
	}
	if cfg.Ground.TaxiSpeedKMH == 0 {
		cfg.Ground.TaxiSpeedKMH = 50
	}
	if cfg.Ground.TaxiEURPerKM == 0 {
		cfg.Ground.TaxiEURPerKM = 1.8
	}
	if cfg.Ground.TaxiBaseFare == 0 {
		cfg.Ground.TaxiBaseFare = 4
	}
	if cfg.Provider.MaxInFlight == 0 {
		cfg.Provider.MaxInFlight = 20
	}
	if cfg.Provider.MaxRetries == 0 {
		cfg.Provider.MaxRetries = 2
	}
	if cfg.Provider.RetryBackoffMS == 0 {
		cfg.Provider.RetryBackoffMS = 200
	}
	if cfg.Provider.CacheTTLMS == 0 {
		cfg.Provider.CacheTTLMS = 5 * 60 * 1000
	}
	if cfg.Provider.Amadeus.BaseURL == "" {
		cfg.Provider.Amadeus.BaseURL = "https://test.api.amadeus.com"
	}
	if cfg.Provider.Amadeus.TimeoutMS == 0 {
		cfg.Provider.Amadeus.TimeoutMS = 15000
	}
	if cfg.Provider.Rail.TimeoutMS == 0 {
		cfg.Provider.Rail.TimeoutMS = 15000
	}
	if cfg.Graph.MaxConnections == 0 {
		cfg.Graph.MaxConnections = 2
	}
	if cfg.Graph.MaxDetourWindowMin == 0 {
		cfg.Graph.MaxDetourWindowMin = 8 * 60
	}
	if cfg.Graph.MaxTotalDurationMin == 0 {
		cfg.Graph.MaxTotalDurationMin = 36 * 60
	}
	if cfg.Graph.HackerRadiusKM == 0 {
		cfg.Graph.HackerRadiusKM = 350
	}
	if cfg.Graph.MaxIntermediates == 0 {
		cfg.Graph.MaxIntermediates = 20
	}
	if cfg.Risk.GlobalDelayPrior == 0 {
		cfg.Risk.GlobalDelayPrior = 0.15
	}
	if cfg.Risk.SameTerminalMin == 0 {
		cfg.Risk.SameTerminalMin = 45
	}
	if cfg.Risk.UnknownTerminalMin == 0 {
		cfg.Risk.UnknownTerminalMin = 90
	}
	if cfg.Risk.ModeChangeMin == 0 {
		cfg.Risk.ModeChangeMin = 30
	}
	if cfg.Risk.DelayBufferMin == 0 {
		cfg.Risk.DelayBufferMin = 15
	}
}

// Default returns a ready-to-use configuration without reading any file.
func Default() AppConfig {
	var cfg AppConfig
	ApplyDefaults(&cfg)
	return cfg
}
