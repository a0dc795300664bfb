package config

import (
	"time"

	"github.com/robfig/cron/v3"
)

type CacheConfig struct {
	TTL                time.Duration `mapstructure:"ttl" validate:"gt=0"`
	HistoryMax         int           `mapstructure:"history_max" validate:"gte=1"`
	CleanupInterval    time.Duration `mapstructure:"cleanup_interval" validate:"gt=0"`
	StorageCleanupCron string        `mapstructure:"storage_cleanup_cron" validate:"required"`
}

func (config CacheConfig) validate() error {
	if err := structValidator.Struct(config); err != nil {
		return err
	}
	_, err := cron.ParseStandard(config.StorageCleanupCron)
	return err
}

func (config CacheConfig) bindEnvironmentVariables() error {
	return bindEnv("cache.ttl", "CACHE_TTL")
}
