package config

import "time"

type BridgeConfig struct {
	RetryInterval  time.Duration `mapstructure:"retry_interval" validate:"gt=0"`
	RetryAttempts  int           `mapstructure:"retry_attempts" validate:"gte=1"`
	PollInterval   time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	RecheckDelay   time.Duration `mapstructure:"recheck_delay" validate:"gte=0"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
}

func (config BridgeConfig) validate() error {
	return structValidator.Struct(config)
}

func (config BridgeConfig) bindEnvironmentVariables() error {
	return nil
}
