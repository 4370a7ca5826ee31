package provider

import (
	"context"
	"testing"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

func tripUpdatesFeed(t *testing.T, ts time.Time, routeID string, arrivalDelaysSec ...int32) []byte {
	t.Helper()
	header := &gtfsrtpb.FeedHeader{
		GtfsRealtimeVersion: proto.String("2.0"),
		Timestamp:           proto.Uint64(uint64(ts.Unix())),
	}
	var stus []*gtfsrtpb.TripUpdate_StopTimeUpdate
	for _, d := range arrivalDelaysSec {
		stus = append(stus, &gtfsrtpb.TripUpdate_StopTimeUpdate{
			Arrival: &gtfsrtpb.TripUpdate_StopTimeEvent{Delay: proto.Int32(d)},
		})
	}
	fm := &gtfsrtpb.FeedMessage{
		Header: header,
		Entity: []*gtfsrtpb.FeedEntity{{
			Id: proto.String("e1"),
			TripUpdate: &gtfsrtpb.TripUpdate{
				Trip:           &gtfsrtpb.TripDescriptor{RouteId: proto.String(routeID)},
				StopTimeUpdate: stus,
			},
		}},
	}
	data, err := proto.Marshal(fm)
	require.NoError(t, err)
	return data
}

func TestDelayHistory_IngestTripUpdates(t *testing.T) {
	h := NewDelayHistory()
	october := time.Date(2026, 10, 5, 8, 0, 0, 0, time.UTC)

	// Four observations: 5, 20, 40 and 0 minutes late. Two exceed the
	// 15-minute threshold.
	feed := tripUpdatesFeed(t, october, "BRU-AMS", 5*60, 20*60, 40*60, 0)
	require.NoError(t, h.IngestTripUpdates(feed, "SNCB"))

	stats, ok := h.FetchDelayHistory(context.Background(), "BRU-AMS", "SNCB", time.October)
	require.True(t, ok)
	assert.Equal(t, 0.5, stats.DelayProbability)
	assert.Equal(t, 16, stats.AvgDelayMin) // (5+20+40+0)/4
	assert.Equal(t, 4, stats.SampleSize)
}

func TestDelayHistory_KeyedByMonthAndCarrier(t *testing.T) {
	h := NewDelayHistory()
	feed := tripUpdatesFeed(t, time.Date(2026, 10, 5, 8, 0, 0, 0, time.UTC), "BRU-AMS", 30*60)
	require.NoError(t, h.IngestTripUpdates(feed, "SNCB"))

	_, ok := h.FetchDelayHistory(context.Background(), "BRU-AMS", "SNCB", time.November)
	assert.False(t, ok, "other months have no data")
	_, ok = h.FetchDelayHistory(context.Background(), "BRU-AMS", "NS", time.October)
	assert.False(t, ok, "other carriers have no data")

	// Route and carrier keys are case-insensitive.
	_, ok = h.FetchDelayHistory(context.Background(), "bru-ams", "sncb", time.October)
	assert.True(t, ok)
}

func TestDelayHistory_SeedWinsOverObservations(t *testing.T) {
	h := NewDelayHistory()
	feed := tripUpdatesFeed(t, time.Date(2026, 10, 5, 8, 0, 0, 0, time.UTC), "MXP-LHR", 60*60)
	require.NoError(t, h.IngestTripUpdates(feed, "FR"))

	h.Seed(DelayStats{
		Route: "MXP-LHR", Carrier: "FR", Month: time.October,
		DelayProbability: 0.08, AvgDelayMin: 6, SampleSize: 1200,
	})

	stats, ok := h.FetchDelayHistory(context.Background(), "MXP-LHR", "FR", time.October)
	require.True(t, ok)
	assert.Equal(t, 0.08, stats.DelayProbability)
	assert.Equal(t, 1200, stats.SampleSize)
}

func TestDelayHistory_BadFeed(t *testing.T) {
	h := NewDelayHistory()
	err := h.IngestTripUpdates([]byte("definitely not protobuf"), "FR")
	assert.Error(t, err)
}

func TestDelayHistory_NoData(t *testing.T) {
	h := NewDelayHistory()
	_, ok := h.FetchDelayHistory(context.Background(), "MXP-LHR", "FR", time.October)
	assert.False(t, ok)
}
