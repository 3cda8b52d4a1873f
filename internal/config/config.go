// This file defines the configuration structure for the application.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port     int `mapstructure:"port"`
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Store struct {
		Driver     string `mapstructure:"driver"` // "sqlite" or "pebble"
		PebblePath string `mapstructure:"pebble_path"`
		// Entry cache size; only used with the pebble driver.
		CacheSize  int    `mapstructure:"cache_size"`
	} `mapstructure:"store"`
	VNDB struct {
		APIURL           string `mapstructure:"api_url"`
		Token            string `mapstructure:"token"` // used when no token is saved in the settings
		TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
		RetryAttempts    int    `mapstructure:"retry_attempts"`
		RetryBaseDelayMS int    `mapstructure:"retry_base_delay_ms"`
	} `mapstructure:"vndb"`
	Index struct {
		Workers           int `mapstructure:"workers"`
		MaxRetries        int `mapstructure:"max_retries"`
		RetryDelaySeconds int `mapstructure:"retry_delay_seconds"`
		PollIntervalMS    int `mapstructure:"poll_interval_ms"`
		LeaseSeconds      int `mapstructure:"lease_seconds"`
		ScheduleHours     int `mapstructure:"schedule_hours"`
	} `mapstructure:"index"`
	Catalog struct {
		RebuildConcurrency int `mapstructure:"rebuild_concurrency"`
	} `mapstructure:"catalog"`
	Auth struct {
		TokenTTLHours int  `mapstructure:"token_ttl_hours"`
		CookieSecure  bool `mapstructure:"cookie_secure"`
	} `mapstructure:"auth"`
}

func (c *Config) VNDBTimeout() time.Duration {
	return time.Duration(c.VNDB.TimeoutSeconds) * time.Second
}

func (c *Config) VNDBRetryBaseDelay() time.Duration {
	return time.Duration(c.VNDB.RetryBaseDelayMS) * time.Millisecond
}

func (c *Config) IndexRetryDelay() time.Duration {
	return time.Duration(c.Index.RetryDelaySeconds) * time.Second
}

func (c *Config) IndexPollInterval() time.Duration {
	return time.Duration(c.Index.PollIntervalMS) * time.Millisecond
}

func (c *Config) IndexLease() time.Duration {
	return time.Duration(c.Index.LeaseSeconds) * time.Second
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches
// the current directory for config.yml.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config") // name of config file (without extension)
		v.SetConfigType("yml")
		v.AddConfigPath(".")
	}

	// e.g., VNSHELF_DATABASE_PATH overrides the `database.path` key.
	v.SetEnvPrefix("VNSHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	_ = v.Unmarshal(&config)
	return &config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("database.path", "./vnshelf.db")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.pebble_path", "./vnshelf-kv")
	v.SetDefault("store.cache_size", 1024)
	v.SetDefault("vndb.api_url", "https://api.vndb.org/kana")
	v.SetDefault("vndb.token", "")
	v.SetDefault("vndb.timeout_seconds", 20)
	v.SetDefault("vndb.retry_attempts", 3)
	v.SetDefault("vndb.retry_base_delay_ms", 1000)
	v.SetDefault("index.workers", 4)
	v.SetDefault("index.max_retries", 3)
	v.SetDefault("index.retry_delay_seconds", 60)
	v.SetDefault("index.poll_interval_ms", 1000)
	v.SetDefault("index.lease_seconds", 300)
	v.SetDefault("index.schedule_hours", 0)
	v.SetDefault("catalog.rebuild_concurrency", 8)
	v.SetDefault("auth.token_ttl_hours", 24)
	v.SetDefault("auth.cookie_secure", false)
}
