package constants

const (
	ConfigName   = "config"
	ConfigFormat = "yaml"

	// EnvPrefix is prepended to every environment override,
	// e.g. BOOKING_DATABASE_HOST overrides database.host.
	EnvPrefix = "BOOKING"

	ServiceName = "simorq_booking"
)

const (
	StoreDriverRedis    = "redis"
	StoreDriverPostgres = "postgres"
)
