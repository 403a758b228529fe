package metrics

import (
	"context"
	"testing"

	"crypto-range-alert-bot/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestMetrics_SnapshotRestore(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.CommandsProcessed.Add(3)
	m.NotificationsSent.Add(5)
	m.RegisteredSubscribers.Set(2)

	snapshot := m.Snapshot()
	require.Equal(t, 3.0, snapshot["commands_processed"])
	require.Equal(t, 5.0, snapshot["notifications_sent"])
	require.Equal(t, 0.0, snapshot["sweeps_completed"])
	require.NotContains(t, snapshot, "registered_subscribers")

	restored := New(prometheus.NewRegistry())
	restored.Restore(snapshot)
	require.Equal(t, 3.0, GetMetricValue(restored.CommandsProcessed))
	require.Equal(t, 5.0, GetMetricValue(restored.NotificationsSent))
}

func TestMetrics_SaveLoad(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()

	m := New(prometheus.NewRegistry())
	m.SweepsCompleted.Add(7)
	m.DeliveryFailures.Inc()
	require.NoError(t, m.Save(ctx, kv, "rangealert:metrics"))

	loaded := New(prometheus.NewRegistry())
	require.NoError(t, loaded.Load(ctx, kv, "rangealert:metrics"))
	require.Equal(t, 7.0, GetMetricValue(loaded.SweepsCompleted))
	require.Equal(t, 1.0, GetMetricValue(loaded.DeliveryFailures))
}

func TestMetrics_LoadMissingKey(t *testing.T) {
	m := New(prometheus.NewRegistry())
	require.NoError(t, m.Load(context.Background(), store.NewMemory(), "missing"))
	require.Equal(t, 0.0, GetMetricValue(m.CommandsProcessed))
}

func TestGetMetricValue_Gauge(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RegisteredSubscribers.Set(4)
	require.Equal(t, 4.0, GetMetricValue(m.RegisteredSubscribers))
}
