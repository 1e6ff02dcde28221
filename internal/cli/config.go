package cli

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the operator CLI's connection configuration. Values in the
// environment take precedence over the config file.
type Config struct {
	DatabaseURL string `yaml:"database_url,omitempty"`
	RedisURL    string `yaml:"redis_url,omitempty"`
	Timeouts    struct {
		// Watch bounds `job watch`; parseable by time.ParseDuration.
		Watch string `yaml:"watch,omitempty"`
	} `yaml:"timeouts,omitempty"`
}

const (
	EnvDatabaseURL = "GLOWBOOTH_DATABASE_URL"
	EnvRedisURL    = "GLOWBOOTH_REDIS_URL"

	defaultWatchTimeout = 10 * time.Minute
)

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "boothctl", "config.yaml"), nil
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	path, err := configPath()
	if err == nil {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if env := os.Getenv(EnvDatabaseURL); env != "" {
		cfg.DatabaseURL = env
	}
	if env := os.Getenv(EnvRedisURL); env != "" {
		cfg.RedisURL = env
	}

	return cfg, nil
}

func (c *Config) WatchTimeout() time.Duration {
	if c.Timeouts.Watch == "" {
		return defaultWatchTimeout
	}
	parsed, err := time.ParseDuration(c.Timeouts.Watch)
	if err != nil {
		return defaultWatchTimeout
	}
	return parsed
}
