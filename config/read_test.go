package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestReadConfig_AppliesDefaults(t *testing.T) {
	dir := writeConfig(t, `
redis:
  addr: "127.0.0.1:6379"
`)

	cfg, err := ReadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, DefaultTimeSlots, cfg.Booking.TimeSlots)
	assert.Equal(t, "UTC", cfg.Booking.Timezone)
	assert.True(t, cfg.Booking.ReserveSlots)
	assert.Equal(t, 20, cfg.Booking.CheckoutTTLMinutes)
}

func TestReadConfig_EnvOverride(t *testing.T) {
	dir := writeConfig(t, `
redis:
  addr: "127.0.0.1:6379"
booking:
  currency: "IRT"
`)
	t.Setenv("BOOKING_BOOKING_CURRENCY", "IRR")

	cfg, err := ReadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "IRR", cfg.Booking.Currency)
}

func TestReadConfig_RejectsBadTimeGrid(t *testing.T) {
	dir := writeConfig(t, `
redis:
  addr: "127.0.0.1:6379"
booking:
  time_slots: ["09:00 AM", "25:00"]
`)

	_, err := ReadConfig(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "25:00")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Store: StoreConfig{Driver: "redis"},
			Redis: RedisConfig{Addr: "localhost:6379"},
			Booking: BookingConfig{
				Timezone:               "Asia/Tehran",
				TimeSlots:              []string{"09:00 AM", "12:00 PM"},
				DefaultConsultationFee: 1500,
				CheckoutTTLMinutes:     15,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "mongo" }, wantErr: true},
		{name: "postgres without host", mutate: func(c *Config) { c.Store.Driver = "postgres" }, wantErr: true},
		{name: "bad timezone", mutate: func(c *Config) { c.Booking.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "empty grid", mutate: func(c *Config) { c.Booking.TimeSlots = nil }, wantErr: true},
		{name: "duplicate slot", mutate: func(c *Config) { c.Booking.TimeSlots = []string{"09:00 AM", "09:00 AM"} }, wantErr: true},
		{name: "zero fee", mutate: func(c *Config) { c.Booking.DefaultConsultationFee = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
