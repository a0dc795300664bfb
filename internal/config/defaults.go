package config

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/maxaizer/job-insights/internal/extractor"
	"github.com/spf13/viper"
)

var structValidator = validator.New()

func bindEnv(key string, env string) error {
	return viper.BindEnv(key, env)
}

func setDefaults() {
	viper.SetDefault("logger.log_level", string(LevelInfo))
	viper.SetDefault("logger.output_file", "./logs/errors.log")

	viper.SetDefault("cache.ttl", 30*time.Minute)
	viper.SetDefault("cache.history_max", 100)
	viper.SetDefault("cache.cleanup_interval", 5*time.Minute)
	viper.SetDefault("cache.storage_cleanup_cron", "0 * * * *")

	viper.SetDefault("bridge.retry_interval", time.Second)
	viper.SetDefault("bridge.retry_attempts", 10)
	viper.SetDefault("bridge.poll_interval", 1500*time.Millisecond)
	viper.SetDefault("bridge.recheck_delay", 100*time.Millisecond)
	viper.SetDefault("bridge.request_timeout", 5*time.Second)

	viper.SetDefault("extractor.applies_aliases", extractor.DefaultAppliesAliases)
	viper.SetDefault("extractor.views_aliases", extractor.DefaultViewsAliases)
	viper.SetDefault("extractor.max_depth", extractor.DefaultMaxDepth)

	viper.SetDefault("session.context_id", "page-1")
	viper.SetDefault("session.dwell", 5*time.Second)
	viper.SetDefault("session.max_requests_per_second", 1)
	viper.SetDefault("session.retry_max", 3)

	viper.SetDefault("channel.transport", string(TransportLocal))
	viper.SetDefault("channel.subject", "job-insights.background")

	viper.SetDefault("metrics.port", 8080)
}
