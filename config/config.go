package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Recognition struct {
	URL        string `mapstructure:"url"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

func (r Recognition) Timeout() time.Duration {
	return time.Duration(r.TimeoutSec) * time.Second
}

// Delays holds the driver's scheduling constants in milliseconds.
type Delays struct {
	SettleMs          int `mapstructure:"settle_ms"`
	TransientResumeMs int `mapstructure:"transient_resume_ms"`
	EndResumeMs       int `mapstructure:"end_resume_ms"`
}

type Root struct {
	LogLevel    string      `mapstructure:"log_level"`
	Outputs     string      `mapstructure:"outputs"`
	Recognition Recognition `mapstructure:"recognition"`
	Delays      Delays      `mapstructure:"delays"`
}

// Load reads config.yaml from the working directory or ./config,
// applies defaults for everything, and honors PIPELINE_* environment
// overrides. A missing file is fine; a malformed one is not.
func Load() (*Root, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.SetEnvPrefix("PIPELINE")
	v.AutomaticEnv()

	v.SetDefault("log_level", "info")
	v.SetDefault("outputs", "outputs")
	v.SetDefault("recognition.url", "")
	v.SetDefault("recognition.timeout_sec", 60)
	v.SetDefault("delays.settle_ms", 500)
	v.SetDefault("delays.transient_resume_ms", 300)
	v.SetDefault("delays.end_resume_ms", 100)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Root
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
