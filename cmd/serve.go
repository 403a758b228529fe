package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"crypto-range-alert-bot/config"
	"crypto-range-alert-bot/internal/alert"
	"crypto-range-alert-bot/internal/nats"
	"crypto-range-alert-bot/internal/telegram"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot, the alert scheduler and the metrics endpoint",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	a.oracle.StartUpdater(ctx)

	controller := alert.NewController(a.subscriptions, a.oracle,
		alert.WithRegistryPruning(config.GetBool("prune_registry")),
		alert.WithLookupTimeout(config.GetDuration("sweep_call_timeout")),
	)

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:          config.GetString("telegram_bot_token"),
		Debug:          config.GetBool("debug"),
		UpdatesTimeout: 60,
		RequestTimeout: config.GetDuration("sweep_call_timeout"),
	}, controller, a.oracle, a.metrics)
	if err != nil {
		return errors.Wrap(err, "failed to create bot")
	}
	if err := bot.RegisterCommands(); err != nil {
		log.Errorf("Failed to register bot commands: %v", err)
	}

	senders := alert.FanOut{bot}
	if url := config.GetString("nats_url"); url != "" {
		publisher, err := nats.NewPublisher(url, config.GetString("nats_subject"))
		if err != nil {
			return err
		}
		defer publisher.Close()
		senders = append(senders, publisher)
		log.Infof("Publishing notifications to NATS subject %s.*", config.GetString("nats_subject"))
	}

	scheduler := alert.NewScheduler(a.subscriptions, a.oracle, senders, a.metrics, a.schedulerConfig())
	if err := scheduler.Start(ctx); err != nil {
		return err
	}

	updates, err := bot.GetUpdatesChannel()
	if err != nil {
		return errors.Wrap(err, "failed to get updates channel")
	}
	go bot.HandleUpdates(ctx, updates)

	go func() {
		ticker := time.NewTicker(config.GetDuration("metrics_save_interval"))
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.saveMetrics(ctx)
			}
		}
	}()

	server := newMetricsAndHealthServer(config.GetInt("metrics_port"))
	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Launching metrics and health endpoint on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err = <-serverErr:
		log.Errorf("Metrics and health server failed: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration("shutdown_timeout"))
	defer cancel()

	bot.StopReceivingUpdates()
	if stopErr := scheduler.Stop(shutdownCtx); stopErr != nil {
		log.Errorf("Failed to stop alert scheduler: %v", stopErr)
	}
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Errorf("Failed to stop metrics server: %v", shutdownErr)
	}
	a.saveMetrics(shutdownCtx)
	log.Info("Metrics saved, shutting down...")

	return err
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func newMetricsAndHealthServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthCheckHandler)

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
