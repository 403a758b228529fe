package main

import (
	"context"
	"strings"

	"crypto-range-alert-bot/config"
	"crypto-range-alert-bot/internal/alert"
	"crypto-range-alert-bot/internal/database"
	"crypto-range-alert-bot/internal/metrics"
	"crypto-range-alert-bot/internal/price"
	"crypto-range-alert-bot/internal/store"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// app holds the components shared by the serve and sweep commands.
type app struct {
	kv            store.KeyValue
	subscriptions *store.Subscriptions
	oracle        *price.Paprika
	metrics       *metrics.Metrics
}

func metricsKey() string {
	return config.GetString("key_prefix") + ":metrics"
}

func openStore(ctx context.Context) (store.KeyValue, error) {
	backend := strings.ToLower(config.GetString("store_backend"))
	switch backend {
	case "sqlite", "":
		db, err := database.Open(config.GetString("db_path"))
		if err != nil {
			return nil, err
		}
		return db, nil
	case "redis":
		rdb, err := store.NewRedis(ctx, config.GetString("redis_url"))
		if err != nil {
			return nil, err
		}
		return rdb, nil
	case "memory":
		log.Warn("Using in-memory store, subscriptions are lost on restart")
		return store.NewMemory(), nil
	}
	return nil, errors.Errorf("unknown store backend %q", backend)
}

func newApp(ctx context.Context) (*app, error) {
	kv, err := openStore(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open store")
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	if err := m.Load(ctx, kv, metricsKey()); err != nil {
		log.Errorf("Failed to load metrics: %v", err)
	}

	oracle := price.NewPaprika(config.GetString("api_pro_key"), config.GetDuration("price_refresh_interval"))

	return &app{
		kv:            kv,
		subscriptions: store.NewSubscriptions(kv, config.GetString("key_prefix")),
		oracle:        oracle,
		metrics:       m,
	}, nil
}

func (a *app) schedulerConfig() alert.SchedulerConfig {
	return alert.SchedulerConfig{
		Interval:    config.GetDuration("sweep_interval"),
		CallTimeout: config.GetDuration("sweep_call_timeout"),
	}
}

func (a *app) saveMetrics(ctx context.Context) {
	if err := a.metrics.Save(ctx, a.kv, metricsKey()); err != nil {
		log.Errorf("Failed to save metrics: %v", err)
	}
}

func (a *app) close() {
	if err := a.kv.Close(); err != nil {
		log.Errorf("Failed to close store: %v", err)
	}
}
