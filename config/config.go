package config

import (
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		viper.AutomaticEnv()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("api_pro_key", "API_PRO_KEY")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("log_level", "LOG_LEVEL")
		viper.BindEnv("log_format", "LOG_FORMAT")
		viper.BindEnv("lang", "LANG")
		viper.BindEnv("store_backend", "STORE_BACKEND")
		viper.BindEnv("db_path", "DB_PATH")
		viper.BindEnv("redis_url", "REDIS_URL")
		viper.BindEnv("key_prefix", "KEY_PREFIX")
		viper.BindEnv("sweep_interval", "SWEEP_INTERVAL")
		viper.BindEnv("sweep_call_timeout", "SWEEP_CALL_TIMEOUT")
		viper.BindEnv("price_refresh_interval", "PRICE_REFRESH_INTERVAL")
		viper.BindEnv("prune_registry", "PRUNE_REGISTRY")
		viper.BindEnv("nats_url", "NATS_URL")
		viper.BindEnv("nats_subject", "NATS_SUBJECT")
		viper.BindEnv("metrics_save_interval", "METRICS_SAVE_INTERVAL")
		viper.BindEnv("shutdown_timeout", "SHUTDOWN_TIMEOUT")

		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("debug", false)
		viper.SetDefault("log_format", "text")
		viper.SetDefault("lang", "en")
		viper.SetDefault("store_backend", "sqlite")
		viper.SetDefault("db_path", "/app/data/bot.db")
		viper.SetDefault("redis_url", "redis://localhost:6379/0")
		viper.SetDefault("key_prefix", "rangealert")
		viper.SetDefault("sweep_interval", 60*time.Second)
		viper.SetDefault("sweep_call_timeout", 10*time.Second)
		viper.SetDefault("price_refresh_interval", 30*time.Second)
		viper.SetDefault("prune_registry", false)
		viper.SetDefault("nats_subject", "rangealert.notifications")
		viper.SetDefault("metrics_save_interval", 5*time.Minute)
		viper.SetDefault("shutdown_timeout", 15*time.Second)
	})
}

// LoadFile merges a yaml/json/toml config file on top of the defaults.
// Environment variables keep precedence over values from the file.
func LoadFile(path string) error {
	InitConfig()
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	viper.SetConfigFile(path)
	if err := viper.MergeInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read config file %s", path)
	}
	return nil
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}

func GetDuration(key string) time.Duration {
	InitConfig()
	return viper.GetDuration(key)
}

// Set overrides a key at runtime. Used by command line flags and tests.
func Set(key string, value interface{}) {
	InitConfig()
	viper.Set(key, value)
}
