package main

import (
	"context"

	"crypto-range-alert-bot/config"
	"crypto-range-alert-bot/internal/alert"
	"crypto-range-alert-bot/internal/nats"
	"crypto-range-alert-bot/internal/telegram"
	"crypto-range-alert-bot/internal/types"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var dryRun bool

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a single alert sweep and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.oracle.Refresh(); err != nil {
			log.Warnf("Price snapshot unavailable, falling back to direct lookups: %v", err)
		}

		sender, closeSender, err := sweepSender()
		if err != nil {
			return err
		}
		defer closeSender()

		scheduler := alert.NewScheduler(a.subscriptions, a.oracle, sender, a.metrics, a.schedulerConfig())
		report := scheduler.Sweep(ctx)
		a.saveMetrics(context.WithoutCancel(ctx))

		cmd.Printf("sweep %s: %d subscribers, %d matches, %d sent, %d failed deliveries, %d skipped, took %s\n",
			report.ID, report.Subscribers, report.Matches, report.Sent, report.DeliveryFailures, report.Skipped, report.Duration)
		if len(report.Errors) > 0 {
			return errors.Errorf("sweep finished with %d errors", len(report.Errors))
		}
		return nil
	},
}

func init() {
	sweepCmd.Flags().BoolVar(&dryRun, "dry-run", false, "log notifications instead of delivering them")
}

func sweepSender() (alert.Sender, func(), error) {
	if dryRun {
		return alert.SenderFunc(func(ctx context.Context, subscriberID int64, n types.Notification) error {
			log.WithField("subscriber_id", subscriberID).Infof("Would send %s notification: %s", n.Kind, telegram.RenderNotification(n))
			return nil
		}), func() {}, nil
	}

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:          config.GetString("telegram_bot_token"),
		Debug:          config.GetBool("debug"),
		RequestTimeout: config.GetDuration("sweep_call_timeout"),
	}, nil, nil, nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create bot")
	}

	senders := alert.FanOut{bot}
	closeSender := func() {}
	if url := config.GetString("nats_url"); url != "" {
		publisher, err := nats.NewPublisher(url, config.GetString("nats_subject"))
		if err != nil {
			return nil, nil, err
		}
		senders = append(senders, publisher)
		closeSender = publisher.Close
	}
	return senders, closeSender, nil
}
