package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/csheth/convertfield/internal/convert"
)

// DefaultTickInterval paces the loading ellipsis.
const DefaultTickInterval = 500 * time.Millisecond

const envPrefix = "CONVERTFIELD"

// Config holds the runtime options shared by the TUI and the pipe command.
type Config struct {
	Endpoint     string        `mapstructure:"endpoint"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
	LogFile      string        `mapstructure:"log_file"`

	// Source is the config file that was read, empty when defaults applied.
	Source string `mapstructure:"-"`
}

// Load reads configuration from path (or the default locations when path is
// empty), then environment variables prefixed with CONVERTFIELD_. A missing
// default config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("endpoint", convert.DefaultEndpoint)
	v.SetDefault("tick_interval", DefaultTickInterval)
	v.SetDefault("log_file", "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "convertfield"))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Source = v.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the field cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("config: endpoint cannot be empty")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("config: tick_interval must be positive, got %s", c.TickInterval)
	}
	return nil
}
