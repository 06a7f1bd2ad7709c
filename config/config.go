package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis mirror configuration.
	MirrorEnabled bool   `mapstructure:"MIRROR_ENABLED"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisMirrorDB int    `mapstructure:"REDIS_MIRROR_DB"`

	// Registry lifecycle tunables, all in seconds.
	SweepIntervalSeconds   int `mapstructure:"SWEEP_INTERVAL_SECONDS"`
	DeviceFreshnessSeconds int `mapstructure:"DEVICE_FRESHNESS_SECONDS"`
	DeviceExpirySeconds    int `mapstructure:"DEVICE_EXPIRY_SECONDS"`
	SessionExpirySeconds   int `mapstructure:"SESSION_EXPIRY_SECONDS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("MIRROR_ENABLED", true)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_MIRROR_DB", 0)
	viper.SetDefault("SWEEP_INTERVAL_SECONDS", 60)
	viper.SetDefault("DEVICE_FRESHNESS_SECONDS", 300)
	viper.SetDefault("DEVICE_EXPIRY_SECONDS", 600)
	viper.SetDefault("SESSION_EXPIRY_SECONDS", 3600)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// SweepInterval returns how often the reaper runs.
func (c Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// DeviceFreshness is the window within which an online device still counts
// as available.
func (c Config) DeviceFreshness() time.Duration {
	return time.Duration(c.DeviceFreshnessSeconds) * time.Second
}

// DeviceExpiry is how long a silent device survives before the reaper
// hard-removes it.
func (c Config) DeviceExpiry() time.Duration {
	return time.Duration(c.DeviceExpirySeconds) * time.Second
}

// SessionExpiry is how long an inactive session survives before the reaper
// hard-removes it.
func (c Config) SessionExpiry() time.Duration {
	return time.Duration(c.SessionExpirySeconds) * time.Second
}
