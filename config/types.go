package config

// EngineConfig bounds one optimization request.
type EngineConfig struct {
	RequestTimeoutMS int     `yaml:"requestTimeoutMS" validate:"gte=0"`
	TopN             int     `yaml:"topN" validate:"gte=0"`
	WeightPrice      float64 `yaml:"weightPrice" validate:"gte=0"`
	WeightTime       float64 `yaml:"weightTime" validate:"gte=0"`
	WeightRisk       float64 `yaml:"weightRisk" validate:"gte=0"`
	// WeightQuality enables the optional layover-quality term; it stays 0
	// unless explicitly configured.
	WeightQuality float64 `yaml:"weightQuality" validate:"gte=0"`
}

// GeoConfig locates the airport dataset and sets search defaults.
type GeoConfig struct {
	AirportsPath    string  `yaml:"airportsPath"`
	AirportsURL     string  `yaml:"airportsURL" validate:"omitempty,url"`
	DefaultRadiusKM float64 `yaml:"defaultRadiusKM" validate:"gte=0"`
	// Geocode is a static address -> [lat, lon] table used when no external
	// geocoding service is wired in.
	Geocode map[string][2]float64 `yaml:"geocode"`
}

// GroundConfig tunes last-mile selection.
type GroundConfig struct {
	// TimeWeightEURPerMin is the λ in the Pareto objective cost + λ·time.
	TimeWeightEURPerMin float64 `yaml:"timeWeightEURPerMin" validate:"gte=0"`
	MaxDetourMinutes    int     `yaml:"maxDetourMinutes" validate:"gte=0"`
	// Taxi fallback parameters, used when no journey-planning source knows
	// the area.
	TaxiSpeedKMH float64 `yaml:"taxiSpeedKMH" validate:"gte=0"`
	TaxiEURPerKM float64 `yaml:"taxiEURPerKM" validate:"gte=0"`
	TaxiBaseFare float64 `yaml:"taxiBaseFare" validate:"gte=0"`
}

// AmadeusConfig configures the flight-offers adapter.
type AmadeusConfig struct {
	BaseURL      string `yaml:"baseURL" validate:"omitempty,url"`
	ClientID     string `yaml:"clientID"`
	ClientSecret string `yaml:"clientSecret"`
	TimeoutMS    int    `yaml:"timeoutMS" validate:"gte=0"`
}

// RailConfig configures the journey-planning adapter used for train legs.
type RailConfig struct {
	BaseURL   string `yaml:"baseURL" validate:"omitempty,url"`
	Token     string `yaml:"token"`
	Region    string `yaml:"region"`
	TimeoutMS int    `yaml:"timeoutMS" validate:"gte=0"`
}

// DelayFeed names one GTFS-RT TripUpdates feed whose observed delays are
// aggregated into the historical statistics for a carrier.
type DelayFeed struct {
	URL     string `yaml:"url" validate:"required"`
	Carrier string `yaml:"carrier" validate:"required"`
}

// ProviderConfig bounds outbound data-source traffic.
type ProviderConfig struct {
	MaxInFlight    int           `yaml:"maxInFlight" validate:"gte=0"`
	MaxRetries     int           `yaml:"maxRetries" validate:"gte=0"`
	RetryBackoffMS int           `yaml:"retryBackoffMS" validate:"gte=0"`
	CacheTTLMS     int           `yaml:"cacheTTLMS" validate:"gte=0"`
	Amadeus        AmadeusConfig `yaml:"amadeus"`
	Rail           RailConfig    `yaml:"rail"`
	MySQLDSN       string        `yaml:"mysqlDSN"`
	DelayFeeds     []DelayFeed   `yaml:"delayFeeds"`
}

// GraphConfig bounds connection-graph construction.
type GraphConfig struct {
	MaxConnections      int `yaml:"maxConnections" validate:"gte=0"`
	MaxDetourWindowMin  int `yaml:"maxDetourWindowMin" validate:"gte=0"`
	MaxTotalDurationMin int `yaml:"maxTotalDurationMin" validate:"gte=0"`
	// HackerRadiusKM bounds how far an alternate airport may be from a
	// layover airport for a train splice to be considered.
	HackerRadiusKM float64 `yaml:"hackerRadiusKM" validate:"gte=0"`
	// MaxIntermediates caps how many connection airports are explored per
	// request.
	MaxIntermediates int `yaml:"maxIntermediates" validate:"gte=0"`
}

// RiskConfig feeds the risk scorer.
type RiskConfig struct {
	GlobalDelayPrior float64 `yaml:"globalDelayPrior" validate:"gte=0,lte=1"`
	// MinConnectionTable overrides the minimum safe connection time
	// (minutes). Keys are either a bare airport code ("LHR") or a
	// mode-qualified pair ("LHR:flight>train"); the qualified entry wins.
	MinConnectionTable   map[string]int `yaml:"minConnectionTable"`
	SameTerminalAirports []string       `yaml:"sameTerminalAirports"`
	SameTerminalMin      int            `yaml:"sameTerminalMin" validate:"gte=0"`
	UnknownTerminalMin   int            `yaml:"unknownTerminalMin" validate:"gte=0"`
	// ModeChangeMin is the time (minutes) to leave the airside and reach
	// the station when switching from a flight onto a train.
	ModeChangeMin  int `yaml:"modeChangeMin" validate:"gte=0"`
	DelayBufferMin int `yaml:"delayBufferMin" validate:"gte=0"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Engine   EngineConfig   `yaml:"engine"`
	Geo      GeoConfig      `yaml:"geo"`
	Ground   GroundConfig   `yaml:"ground"`
	Provider ProviderConfig `yaml:"provider"`
	Graph    GraphConfig    `yaml:"graph"`
	Risk     RiskConfig     `yaml:"risk"`
}
