package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Alijeyrad/simorq_booking/pkg/constants"
	"github.com/spf13/viper"
)

var GlobalConf *Config

func ReadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(constants.ConfigName)
	v.SetConfigType(constants.ConfigFormat)
	v.AddConfigPath(configPath)

	setDefaults(v)

	// Allow env vars to override config values.
	// e.g. BOOKING_REDIS_ADDR overrides redis.addr
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the config file (optional in Docker environments)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Only fail if nothing points at a store either.
		if os.Getenv(constants.EnvPrefix+"_REDIS_ADDR") == "" && os.Getenv(constants.EnvPrefix+"_DATABASE_HOST") == "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func MustReadConfig(path string) *Config {
	config, err := ReadConfig(path)
	if err != nil {
		panic(err)
	}

	GlobalConf = config

	return config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("server.environment", "development")

	v.SetDefault("store.driver", constants.StoreDriverRedis)
	v.SetDefault("store.key_prefix", "booking")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("rate_limit.requests_per_minute", 120)

	v.SetDefault("booking.timezone", "UTC")
	v.SetDefault("booking.time_slots", DefaultTimeSlots)
	v.SetDefault("booking.default_consultation_fee", 1500)
	v.SetDefault("booking.currency", "IRT")
	v.SetDefault("booking.confirmation_path", "/booking/confirmation")
	v.SetDefault("booking.payment_failed_path", "/booking/payment-failed")
	v.SetDefault("booking.reserve_slots", true)
	v.SetDefault("booking.checkout_ttl_minutes", 20)
	v.SetDefault("booking.phone_region", "IR")

	v.SetDefault("observability.service_name", constants.ServiceName)
	v.SetDefault("observability.metrics.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// DefaultTimeSlots is the clinic day used when booking.time_slots is unset.
var DefaultTimeSlots = []string{
	"09:00 AM", "10:00 AM", "11:00 AM", "12:00 PM",
	"02:00 PM", "03:00 PM", "04:00 PM", "05:00 PM",
}
