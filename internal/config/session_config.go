package config

import "time"

type SessionConfig struct {
	ContextID            string        `mapstructure:"context_id" validate:"required"`
	SiteURL              string        `mapstructure:"site_url" validate:"required,url"`
	APIBaseURL           string        `mapstructure:"api_base_url" validate:"required,url"`
	SearchPath           string        `mapstructure:"search_path"`
	Jobs                 []string      `mapstructure:"jobs"`
	Cookie               string        `mapstructure:"cookie"`
	CSRFToken            string        `mapstructure:"csrf_token"`
	Dwell                time.Duration `mapstructure:"dwell" validate:"gt=0"`
	MaxRequestsPerSecond float32       `mapstructure:"max_requests_per_second" validate:"gt=0"`
	RetryMax             int           `mapstructure:"retry_max" validate:"gte=0"`
}

func (config SessionConfig) validate() error {
	return structValidator.Struct(config)
}

func (config SessionConfig) bindEnvironmentVariables() error {
	bindings := map[string]string{
		"session.api_base_url": "API_BASE_URL",
		"session.site_url":     "SITE_URL",
		"session.cookie":       "SESSION_COOKIE",
		"session.csrf_token":   "SESSION_CSRF_TOKEN",
	}
	for key, env := range bindings {
		if err := bindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}
