package config

import (
	"fmt"
)

type transport string

const (
	TransportLocal transport = "local"
	TransportNATS  transport = "nats"
)

type ChannelConfig struct {
	Transport transport `mapstructure:"transport"`
	NatsURL   string    `mapstructure:"nats_url"`
	Subject   string    `mapstructure:"subject"`
}

func (config ChannelConfig) validate() error {
	switch config.Transport {
	case TransportLocal:
		return nil
	case TransportNATS:
		if config.NatsURL == "" || config.Subject == "" {
			return fmt.Errorf("nats transport requires nats_url and subject")
		}
		return nil
	default:
		return fmt.Errorf("unknown transport %q", config.Transport)
	}
}

func (config ChannelConfig) bindEnvironmentVariables() error {
	if err := bindEnv("channel.transport", "CHANNEL_TRANSPORT"); err != nil {
		return err
	}
	return bindEnv("channel.nats_url", "NATS_URL")
}
