package config

type ExtractorConfig struct {
	AppliesAliases []string `mapstructure:"applies_aliases" validate:"required,min=1,dive,required"`
	ViewsAliases   []string `mapstructure:"views_aliases" validate:"required,min=1,dive,required"`
	MaxDepth       int      `mapstructure:"max_depth" validate:"gte=0"`
}

func (config ExtractorConfig) validate() error {
	return structValidator.Struct(config)
}

func (config ExtractorConfig) bindEnvironmentVariables() error {
	return nil
}
