package risk

import (
	"context"
	"strings"
	"time"

	"github.com/nearnode/tripgraph/config"
	"github.com/nearnode/tripgraph/provider"
	"github.com/nearnode/tripgraph/trip"
)

// Scorer computes delay probabilities and self-transfer feasibility.
type Scorer struct {
	cfg          config.RiskConfig
	history      provider.DelayHistorySource
	sameTerminal map[string]bool
}

// NewScorer builds a scorer over the given history source. history may be
// nil, in which case every leg scores the global prior.
func NewScorer(cfg config.RiskConfig, history provider.DelayHistorySource) *Scorer {
	st := make(map[string]bool, len(cfg.SameTerminalAirports))
	for _, a := range cfg.SameTerminalAirports {
		st[strings.ToUpper(a)] = true
	}
	return &Scorer{cfg: cfg, history: history, sameTerminal: st}
}

// ScoreLeg returns the delay probability in [0,1] for the leg. Unseen
// (route, carrier, month) combinations score the global prior rather than
// failing.
func (s *Scorer) ScoreLeg(ctx context.Context, leg trip.Leg) float64 {
	if stats, ok := s.lookup(ctx, leg); ok {
		return clamp01(stats.DelayProbability)
	}
	return s.cfg.GlobalDelayPrior
}

// MinSafeConnection returns the minimum safe connection time at the given
// airport: the per-airport table entry when present, the same-terminal
// default when the airport is known to be single-terminal, the unknown
// default otherwise.
func (s *Scorer) MinSafeConnection(airport string) time.Duration {
	code := strings.ToUpper(airport)
	if min, ok := s.cfg.MinConnectionTable[code]; ok {
		return time.Duration(min) * time.Minute
	}
	if s.sameTerminal[code] {
		return time.Duration(s.cfg.SameTerminalMin) * time.Minute
	}
	return time.Duration(s.cfg.UnknownTerminalMin) * time.Minute
}

// MinSafeConnectionFor refines MinSafeConnection by the transfer's mode
// pair. A table entry keyed "CODE:from>to" wins outright; otherwise a
// flight-to-train change costs the configured mode-change buffer, a
// boarding flight costs the airport's connection time, and anything else
// needs no slack.
func (s *Scorer) MinSafeConnectionFor(airport string, from, to trip.Mode) time.Duration {
	code := strings.ToUpper(airport)
	if min, ok := s.cfg.MinConnectionTable[code+":"+string(from)+">"+string(to)]; ok {
		return time.Duration(min) * time.Minute
	}
	switch {
	case to == trip.ModeFlight && (from == trip.ModeFlight || from == trip.ModeTrain):
		return s.MinSafeConnection(code)
	case from == trip.ModeFlight && to == trip.ModeTrain:
		return time.Duration(s.cfg.ModeChangeMin) * time.Minute
	default:
		return 0
	}
}

// ScoreConnection assesses a self-transfer between an arriving and a
// departing leg. The transfer is feasible when
//
//	available − minimum safe connection time − predicted delay buffer ≥ 0
//
// with the boundary itself feasible. The delay buffer is the arriving
// route's historical average delay when known, else the configured default.
func (s *Scorer) ScoreConnection(ctx context.Context, arrival, departure trip.Leg) trip.RiskProfile {
	available := departure.Departure.Sub(arrival.Arrival)
	msct := s.MinSafeConnectionFor(arrival.Destination.Code, arrival.Mode, departure.Mode)

	buffer := time.Duration(s.cfg.DelayBufferMin) * time.Minute
	pArr := s.cfg.GlobalDelayPrior
	avgDelayMin := 0
	if stats, ok := s.lookup(ctx, arrival); ok {
		pArr = clamp01(stats.DelayProbability)
		avgDelayMin = stats.AvgDelayMin
		if d := time.Duration(stats.AvgDelayMin) * time.Minute; d > buffer {
			buffer = d
		}
	}
	pDep := s.ScoreLeg(ctx, departure)

	feasible := available-msct-buffer >= 0

	return trip.RiskProfile{
		ConnectionID:         arrival.ID() + ">" + departure.ID(),
		DelayProbability:     pArr,
		SelfTransferFeasible: feasible,
		MinSafeConnection:    msct,
		Recommendation:       band(riskPercent(available, pArr, pDep, avgDelayMin)),
	}
}

func (s *Scorer) lookup(ctx context.Context, leg trip.Leg) (provider.DelayStats, bool) {
	if s.history == nil {
		return provider.DelayStats{}, false
	}
	return s.history.FetchDelayHistory(ctx, leg.Route(), leg.Carrier, leg.Departure.Month())
}

// riskPercent reproduces the upstream 0-100 self-transfer risk formula:
// a base contribution from the layover length, weighted delay
// probabilities of both legs, and a penalty when the arriving route's
// average delay eats more than half the layover.
func riskPercent(available time.Duration, pArr, pDep float64, avgDelayMin int) float64 {
	layoverMin := available.Minutes()
	risk := 0.0
	switch {
	case layoverMin < 90:
		risk += 40
	case layoverMin < 120:
		risk += 20
	case layoverMin < 180:
		risk += 10
	}
	risk += pArr * 100 * 0.5
	risk += pDep * 100 * 0.3
	if float64(avgDelayMin) > layoverMin*0.5 {
		risk += 20
	}
	if risk > 100 {
		risk = 100
	}
	return risk
}

func band(riskPercent float64) trip.Recommendation {
	switch {
	case riskPercent < 30:
		return trip.RecommendationSafe
	case riskPercent < 60:
		return trip.RecommendationRisky
	default:
		return trip.RecommendationVeryRisky
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
