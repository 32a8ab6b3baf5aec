package system

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the dashboard service.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Selection SelectionConfig `mapstructure:"selection"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Demo      DemoConfig      `mapstructure:"demo"`
	GeoIP     GeoIPConfig     `mapstructure:"geoip"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// UpstreamConfig points at the provider statistics API. BaseURL is the
// single externally required setting; everything else has workable
// defaults.
type UpstreamConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retries uint          `mapstructure:"retries"`
}

type SelectionConfig struct {
	Months int `mapstructure:"months"` // size of the reference-month window
	TopN   int `mapstructure:"top_n"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// DemoConfig controls the embedded demo upstream used when no real
// backend is reachable.
type DemoConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
	Port    int    `mapstructure:"port"` // loopback port the demo backend listens on
}

type GeoIPConfig struct {
	DBPath string `mapstructure:"db_path"` // optional GeoLite2 mmdb for IP enrichment
}

type WebhookConfig struct {
	URL string `mapstructure:"url"` // Discord webhook for outage alerts
}

// LoadConfig merges config.yaml (working dir or ./configs) with ENV
// overrides; UPSTREAM_BASE_URL beats upstream.base_url and so on.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No file: ENV plus defaults is a valid setup.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.Upstream.BaseURL == "" && !cfg.Demo.Enabled {
		return nil, errors.New("upstream.base_url is required unless demo.enabled is set")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("upstream.timeout", 10*time.Second)
	v.SetDefault("upstream.retries", 2)
	v.SetDefault("selection.months", 3)
	v.SetDefault("selection.top_n", 5)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("demo.enabled", false)
	v.SetDefault("demo.db_path", "demo.db")
	v.SetDefault("demo.port", 9095)
}
