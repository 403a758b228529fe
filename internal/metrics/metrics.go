package metrics

import (
	"context"
	"sync"

	"crypto-range-alert-bot/internal/store"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"
)

const (
	namespace = "rangealert"
	subsystem = "telegram_bot"
)

type Metrics struct {
	CommandsProcessed     prometheus.Counter
	MessagesHandled       prometheus.Counter
	SweepsCompleted       prometheus.Counter
	SweepDuration         prometheus.Histogram
	NotificationsSent     prometheus.Counter
	DeliveryFailures      prometheus.Counter
	OracleFailures        prometheus.Counter
	StoreFailures         prometheus.Counter
	RegisteredSubscribers prometheus.Gauge
	Mutex                 sync.Mutex
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CommandsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "commands_processed",
			Help:      "The total number of processed commands",
		}),
		MessagesHandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_handled",
			Help:      "The total number of handled messages",
		}),
		SweepsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sweeps_completed",
			Help:      "The total number of completed price sweeps",
		}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of a price sweep",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications_sent",
			Help:      "The total number of delivered alert messages",
		}),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "delivery_failures",
			Help:      "The total number of alert messages that could not be delivered",
		}),
		OracleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "oracle_failures",
			Help:      "The total number of symbols skipped because no price was available",
		}),
		StoreFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "store_failures",
			Help:      "The total number of subscribers skipped because their record could not be read",
		}),
		RegisteredSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "registered_subscribers",
			Help:      "The number of subscribers in the registry at the last sweep",
		}),
	}

	reg.MustRegister(
		m.CommandsProcessed,
		m.MessagesHandled,
		m.SweepsCompleted,
		m.SweepDuration,
		m.NotificationsSent,
		m.DeliveryFailures,
		m.OracleFailures,
		m.StoreFailures,
		m.RegisteredSubscribers,
	)

	return m
}

func (m *Metrics) counters() map[string]prometheus.Counter {
	return map[string]prometheus.Counter{
		"commands_processed": m.CommandsProcessed,
		"messages_handled":   m.MessagesHandled,
		"sweeps_completed":   m.SweepsCompleted,
		"notifications_sent": m.NotificationsSent,
		"delivery_failures":  m.DeliveryFailures,
		"oracle_failures":    m.OracleFailures,
		"store_failures":     m.StoreFailures,
	}
}

// Snapshot reads the current value of every persisted counter.
func (m *Metrics) Snapshot() map[string]float64 {
	m.Mutex.Lock()
	defer m.Mutex.Unlock()

	values := make(map[string]float64)
	for name, counter := range m.counters() {
		values[name] = GetMetricValue(counter)
	}
	return values
}

// Restore adds previously saved values on top of the current counters.
func (m *Metrics) Restore(values map[string]float64) {
	m.Mutex.Lock()
	defer m.Mutex.Unlock()

	for name, counter := range m.counters() {
		if value, ok := values[name]; ok && value > 0 {
			counter.Add(value)
		}
	}
}

// Save writes the counter snapshot to kv under key.
func (m *Metrics) Save(ctx context.Context, kv store.KeyValue, key string) error {
	raw, err := json.Marshal(m.Snapshot())
	if err != nil {
		return errors.Wrap(err, "could not encode metrics")
	}
	if err := kv.Put(ctx, key, raw); err != nil {
		return err
	}
	log.Debug("Metrics saved to store.")
	return nil
}

// Load restores counters saved under key. A missing key leaves them untouched.
func (m *Metrics) Load(ctx context.Context, kv store.KeyValue, key string) error {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		log.Debugf("Metrics %s not found in the store, starting from 0", key)
		return nil
	}

	values := make(map[string]float64)
	if err := json.Unmarshal(raw, &values); err != nil {
		return errors.Wrap(err, "could not decode metrics")
	}
	m.Restore(values)
	log.Debug("Metrics loaded from store.")
	return nil
}

func GetMetricValue(metric prometheus.Collector) float64 {
	var metricValue float64
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Errorf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		metricValue = metricProto.Counter.GetValue()
	} else if metricProto.Gauge != nil {
		metricValue = metricProto.Gauge.GetValue()
	}
	return metricValue
}
