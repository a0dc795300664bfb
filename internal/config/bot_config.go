package config

import (
	"errors"
	"fmt"
)

// BotConfig is optional: an empty token disables the Telegram popup.
type BotConfig struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id"`
}

func (config BotConfig) Enabled() bool {
	return config.Token != ""
}

func (config BotConfig) validate() error {
	if config.Enabled() && config.ChatID == 0 {
		return fmt.Errorf("missing variable: chat_id")
	}
	return nil
}

func (config BotConfig) bindEnvironmentVariables() error {
	var errs []error
	if err := bindEnv("bot.token", "TG_TOKEN"); err != nil {
		errs = append(errs, err)
	}

	if err := bindEnv("bot.chat_id", "TG_CHAT_ID"); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
