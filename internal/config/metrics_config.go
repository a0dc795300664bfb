package config

type MetricsConfig struct {
	Port int `mapstructure:"port" validate:"gte=0,lte=65535"`
}

func (config MetricsConfig) validate() error {
	return structValidator.Struct(config)
}

func (config MetricsConfig) bindEnvironmentVariables() error {
	return bindEnv("metrics.port", "METRICS_PORT")
}
