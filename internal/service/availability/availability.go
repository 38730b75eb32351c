package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/Alijeyrad/simorq_booking/config"
	"github.com/Alijeyrad/simorq_booking/internal/repo"
)

// OpenSlots returns the grid slots not taken by a confirmed appointment of
// doctorID on the calendar day of date. Only appointments whose status is
// exactly confirmed block a slot. Slots that do not parse are dropped.
func OpenSlots(grid []string, doctorID string, date time.Time, appointments []repo.Appointment, loc *time.Location) []string {
	taken := make(map[Clock]struct{})
	for _, a := range appointments {
		if a.Status != repo.StatusConfirmed || a.DoctorID != doctorID {
			continue
		}
		at := a.DateTime.In(loc)
		if !sameDay(at, date) {
			continue
		}
		taken[Clock{Hour: at.Hour(), Minute: at.Minute()}] = struct{}{}
	}

	open := make([]string, 0, len(grid))
	for _, slot := range grid {
		c, err := ParseClock(slot)
		if err != nil {
			continue
		}
		if _, ok := taken[c]; ok {
			continue
		}
		open = append(open, slot)
	}
	return open
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	// Grid is the clinic's fixed daily list of slots.
	Grid() []string
	Location() *time.Location
	// SlotTime validates slot against the grid and places it on date.
	SlotTime(date time.Time, slot string) (time.Time, error)
	OpenSlots(ctx context.Context, doctorID string, date time.Time) ([]string, error)
	IsTimeSlotAvailable(ctx context.Context, doctorID string, date time.Time, slot string) (bool, error)
}

type availabilityService struct {
	db   *repo.Client
	grid []string
	loc  *time.Location
}

func New(db *repo.Client, cfg config.BookingConfig) (Service, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load clinic timezone: %w", err)
	}
	for _, slot := range cfg.TimeSlots {
		if _, err := ParseClock(slot); err != nil {
			return nil, err
		}
	}
	return &availabilityService{
		db:   db,
		grid: append([]string(nil), cfg.TimeSlots...),
		loc:  loc,
	}, nil
}

func (s *availabilityService) Grid() []string {
	return append([]string(nil), s.grid...)
}

func (s *availabilityService) Location() *time.Location {
	return s.loc
}

func (s *availabilityService) SlotTime(date time.Time, slot string) (time.Time, error) {
	at, err := Combine(date, slot, s.loc)
	if err != nil {
		return time.Time{}, err
	}
	for _, g := range s.grid {
		if c, err := ParseClock(g); err == nil && c.Hour == at.Hour() && c.Minute == at.Minute() {
			return at, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s", ErrSlotNotInGrid, slot)
}

func (s *availabilityService) OpenSlots(ctx context.Context, doctorID string, date time.Time) ([]string, error) {
	confirmed, err := s.db.ListAppointmentsByStatus(ctx, repo.StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("open slots: %w", err)
	}
	return OpenSlots(s.grid, doctorID, date, confirmed, s.loc), nil
}

func (s *availabilityService) IsTimeSlotAvailable(ctx context.Context, doctorID string, date time.Time, slot string) (bool, error) {
	want, err := ParseClock(slot)
	if err != nil {
		return false, err
	}
	open, err := s.OpenSlots(ctx, doctorID, date)
	if err != nil {
		return false, err
	}
	for _, o := range open {
		if c, err := ParseClock(o); err == nil && c == want {
			return true, nil
		}
	}
	return false, nil
}
