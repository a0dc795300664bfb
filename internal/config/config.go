package config

import (
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	DB        DBConfig        `mapstructure:"db"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Bridge    BridgeConfig    `mapstructure:"bridge"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	Session   SessionConfig   `mapstructure:"session"`
	Channel   ChannelConfig   `mapstructure:"channel"`
	Bot       BotConfig       `mapstructure:"bot"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type section interface {
	validate() error
	bindEnvironmentVariables() error
}

var configFile = "./configs/config.yaml"

func Get() *Config {

	if value, ok := os.LookupEnv("CONFIG_PATH"); ok {
		configFile = value
	}

	config, err := loadConfig(configFile)
	if err != nil {
		log.Fatal(err)
	}

	return config
}

func loadConfig(file string) (*Config, error) {

	viper.SetConfigFile(file)
	viper.AutomaticEnv()
	setDefaults()

	config := Config{}
	if err := config.bindEnvironmentVariables(); err != nil {
		return nil, err
	}

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", file, err)
	}

	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (config *Config) sections() map[string]section {
	return map[string]section{
		"LoggerConfig":    config.Logger,
		"DBConfig":        config.DB,
		"CacheConfig":     config.Cache,
		"BridgeConfig":    config.Bridge,
		"ExtractorConfig": config.Extractor,
		"SessionConfig":   config.Session,
		"ChannelConfig":   config.Channel,
		"BotConfig":       config.Bot,
		"MetricsConfig":   config.Metrics,
	}
}

func (config *Config) bindEnvironmentVariables() error {
	var errs []error

	for name, s := range config.sections() {
		if err := s.bindEnvironmentVariables(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func (config *Config) validate() error {
	var errs []error

	for name, s := range config.sections() {
		if err := s.validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}
