package main

import (
	"os"

	"crypto-range-alert-bot/config"
	"crypto-range-alert-bot/lib/translation"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "range-alert-bot",
	Short: "Telegram bot that alerts when a cryptocurrency price enters a range",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadFile(configPath); err != nil {
			return err
		}
		if err := setupLogging(); err != nil {
			return err
		}
		translation.Configure("locales", config.GetString("lang"))
		log.Debugf("Using language %s", translation.GetLanguage())
		return nil
	},
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	config.InitConfig()
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (yaml, json or toml)")
	rootCmd.AddCommand(serveCmd, sweepCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func setupLogging() error {
	log.SetLevel(log.ErrorLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	if level := config.GetString("log_level"); level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return err
		}
		log.SetLevel(parsed)
	}

	if config.GetString("log_format") == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}

	log.Debug("Starting range alert bot...")
	return nil
}
