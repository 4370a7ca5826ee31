package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/nearnode/tripgraph/config"
)

// delayedThresholdMin is the observed arrival delay, in minutes, above
// which a stop event counts as "delayed" in the probability aggregate.
const delayedThresholdMin = 15

// DelayHistory aggregates observed delays into (route, carrier, month)
// statistics. Observations come from GTFS-RT TripUpdates feeds of the rail
// operators and from pre-seeded historical rows; the risk scorer consumes
// the aggregates and never sees raw feed data.
type DelayHistory struct {
	mu   sync.RWMutex
	obs  map[string]*delayAccumulator
	seed map[string]DelayStats
}

type delayAccumulator struct {
	count         int
	delayed       int
	totalDelayMin int
}

// NewDelayHistory creates an empty aggregate store.
func NewDelayHistory() *DelayHistory {
	return &DelayHistory{
		obs:  map[string]*delayAccumulator{},
		seed: map[string]DelayStats{},
	}
}

func statsKey(route, carrier string, month time.Month) string {
	return strings.ToUpper(route) + "|" + strings.ToUpper(carrier) + "|" + month.String()
}

// Seed inserts a pre-computed aggregate, overriding anything observed.
func (h *DelayHistory) Seed(s DelayStats) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seed[statsKey(s.Route, s.Carrier, s.Month)] = s
}

// IngestTripUpdates decodes a GTFS-RT TripUpdates feed and folds each
// observed arrival delay into the carrier's aggregates. The feed's route_id
// is used as the route key; the observation month comes from the feed
// header timestamp.
func (h *DelayHistory) IngestTripUpdates(data []byte, carrier string) error {
	fm := &gtfsrtpb.FeedMessage{}
	if err := proto.Unmarshal(data, fm); err != nil {
		return fmt.Errorf("delay feed for %s: %w", carrier, err)
	}
	month := time.Now().UTC().Month()
	if fm.Header != nil && fm.Header.Timestamp != nil {
		month = time.Unix(int64(*fm.Header.Timestamp), 0).UTC().Month()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range fm.Entity {
		tu := e.TripUpdate
		if tu == nil || tu.Trip == nil || tu.Trip.RouteId == nil {
			continue
		}
		key := statsKey(*tu.Trip.RouteId, carrier, month)
		acc := h.obs[key]
		if acc == nil {
			acc = &delayAccumulator{}
			h.obs[key] = acc
		}
		for _, stu := range tu.StopTimeUpdate {
			if stu.Arrival == nil || stu.Arrival.Delay == nil {
				continue
			}
			delayMin := int(*stu.Arrival.Delay) / 60
			acc.count++
			acc.totalDelayMin += delayMin
			if delayMin > delayedThresholdMin {
				acc.delayed++
			}
		}
	}
	return nil
}

// LoadFromFeeds fetches and ingests every configured delay feed. A feed
// that cannot be fetched is skipped; partial history is better than none.
func (h *DelayHistory) LoadFromFeeds(ctx context.Context, feeds []config.DelayFeed) error {
	client := &http.Client{}
	var firstErr error
	for _, f := range feeds {
		data, err := fetchFeedBytes(ctx, client, f.URL)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := h.IngestTripUpdates(data, f.Carrier); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func fetchFeedBytes(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

// FetchDelayHistory returns the aggregate for (route, carrier, month).
// Seeded rows win over live observations. The second return is false when
// no data exists, in which case the scorer falls back to its global prior.
func (h *DelayHistory) FetchDelayHistory(_ context.Context, route, carrier string, month time.Month) (DelayStats, bool) {
	key := statsKey(route, carrier, month)
	h.mu.RLock()
	defer h.mu.RUnlock()
	if s, ok := h.seed[key]; ok {
		return s, true
	}
	acc, ok := h.obs[key]
	if !ok || acc.count == 0 {
		return DelayStats{}, false
	}
	return DelayStats{
		Route:            strings.ToUpper(route),
		Carrier:          strings.ToUpper(carrier),
		Month:            month,
		DelayProbability: float64(acc.delayed) / float64(acc.count),
		AvgDelayMin:      acc.totalDelayMin / acc.count,
		SampleSize:       acc.count,
	}, true
}
