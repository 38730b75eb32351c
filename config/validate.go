package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Alijeyrad/simorq_booking/pkg/constants"
)

func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case constants.StoreDriverRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required for the redis store"))
		}
	case constants.StoreDriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			errs = append(errs, errors.New("database.host and database.dbname are required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not supported", c.Store.Driver))
	}

	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("booking.timezone: %w", err))
	}

	if len(c.Booking.TimeSlots) == 0 {
		errs = append(errs, errors.New("booking.time_slots must not be empty"))
	}
	seen := make(map[string]struct{}, len(c.Booking.TimeSlots))
	for _, slot := range c.Booking.TimeSlots {
		if _, err := time.Parse("3:04 PM", strings.ToUpper(strings.TrimSpace(slot))); err != nil {
			errs = append(errs, fmt.Errorf("booking.time_slots: %q is not a 12-hour clock time", slot))
			continue
		}
		if _, dup := seen[slot]; dup {
			errs = append(errs, fmt.Errorf("booking.time_slots: %q listed twice", slot))
		}
		seen[slot] = struct{}{}
	}

	if c.Booking.DefaultConsultationFee <= 0 {
		errs = append(errs, errors.New("booking.default_consultation_fee must be positive"))
	}
	if c.Booking.CheckoutTTLMinutes <= 0 {
		errs = append(errs, errors.New("booking.checkout_ttl_minutes must be positive"))
	}

	return errors.Join(errs...)
}
