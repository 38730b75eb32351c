package availability

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/simorq_booking/config"
	"github.com/Alijeyrad/simorq_booking/internal/repo"
	"github.com/Alijeyrad/simorq_booking/pkg/docstore"
)

var grid = []string{"09:00 AM", "10:00 AM", "11:00 AM", "12:00 PM", "02:00 PM"}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{in: "12:00 AM", want: Clock{0, 0}},
		{in: "12:30 AM", want: Clock{0, 30}},
		{in: "12:00 PM", want: Clock{12, 0}},
		{in: "01:15 PM", want: Clock{13, 15}},
		{in: "9:05 am", want: Clock{9, 5}},
		{in: "11:59PM", want: Clock{23, 59}},
		{in: "13:00 PM", wantErr: true},
		{in: "00:30 AM", wantErr: true},
		{in: "10:00", wantErr: true},
		{in: "10:7 AM", wantErr: true},
		{in: "ten AM", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTime)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClockString(t *testing.T) {
	assert.Equal(t, "12:00 AM", Clock{0, 0}.String())
	assert.Equal(t, "12:00 PM", Clock{12, 0}.String())
	assert.Equal(t, "02:30 PM", Clock{14, 30}.String())
}

func TestCombine(t *testing.T) {
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	at, err := Combine(date, "12:00 AM", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), at)

	at, err = Combine(date, "12:00 PM", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 12, at.Hour())
}

func confirmedAt(doctorID string, at time.Time) repo.Appointment {
	return repo.Appointment{DoctorID: doctorID, DateTime: at, Status: repo.StatusConfirmed}
}

func TestOpenSlots_ConfirmedBlocksExactSlot(t *testing.T) {
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	appts := []repo.Appointment{confirmedAt("doc1", time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))}

	got := OpenSlots(grid, "doc1", date, appts, time.UTC)
	assert.Equal(t, []string{"09:00 AM", "11:00 AM", "12:00 PM", "02:00 PM"}, got)
}

func TestOpenSlots_NonMatchingAppointmentsDoNotBlock(t *testing.T) {
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	ten := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	appts := []repo.Appointment{
		confirmedAt("doc2", ten),                     // other doctor
		confirmedAt("doc1", ten.AddDate(0, 0, 1)),    // other day
		confirmedAt("doc1", ten.Add(30*time.Minute)), // other minute
		{DoctorID: "doc1", DateTime: ten, Status: repo.StatusPending},
		{DoctorID: "doc1", DateTime: ten, Status: repo.StatusRescheduled},
		{DoctorID: "doc1", DateTime: ten, Status: repo.StatusCancelled},
	}

	got := OpenSlots(grid, "doc1", date, appts, time.UTC)
	assert.Equal(t, grid, got)
}

func TestOpenSlots_NoonAndMidnight(t *testing.T) {
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	appts := []repo.Appointment{confirmedAt("doc1", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))}

	got := OpenSlots([]string{"12:00 AM", "12:00 PM"}, "doc1", date, appts, time.UTC)
	assert.Equal(t, []string{"12:00 AM"}, got)
}

func TestOpenSlots_UsesClinicTimezone(t *testing.T) {
	tehran, err := time.LoadLocation("Asia/Tehran")
	require.NoError(t, err)

	date := time.Date(2025, 6, 1, 0, 0, 0, 0, tehran)
	// 06:30 UTC is 10:00 in Tehran
	appts := []repo.Appointment{confirmedAt("doc1", time.Date(2025, 6, 1, 6, 30, 0, 0, time.UTC))}

	got := OpenSlots(grid, "doc1", date, appts, tehran)
	assert.NotContains(t, got, "10:00 AM")
	assert.Len(t, got, len(grid)-1)
}

func newTestService(t *testing.T) (Service, *repo.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	db := repo.NewClient(docstore.NewRedisStore(rdb, "availability"))
	svc, err := New(db, config.BookingConfig{Timezone: "UTC", TimeSlots: grid})
	require.NoError(t, err)
	return svc, db
}

func TestService_IsTimeSlotAvailable(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)

	booked := repo.Appointment{
		ID: "BK-1", PatientID: "p1", DoctorID: "doc1", Status: repo.StatusConfirmed,
		DateTime: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), TimeSlot: "10:00 AM",
	}
	require.NoError(t, db.MirrorAppointment(ctx, booked))

	date, err := ParseDate("2025-06-01", svc.Location())
	require.NoError(t, err)

	ok, err := svc.IsTimeSlotAvailable(ctx, "doc1", date, "10:00 AM")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.IsTimeSlotAvailable(ctx, "doc1", date, "11:00 AM")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsTimeSlotAvailable(ctx, "doc2", date, "10:00 AM")
	require.NoError(t, err)
	assert.True(t, ok)

	open, err := svc.OpenSlots(ctx, "doc1", date)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00 AM", "11:00 AM", "12:00 PM", "02:00 PM"}, open)
}

func TestService_SlotTime(t *testing.T) {
	svc, _ := newTestService(t)
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	at, err := svc.SlotTime(date, "2:00 pm")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC), at)

	_, err = svc.SlotTime(date, "03:00 PM")
	assert.ErrorIs(t, err, ErrSlotNotInGrid)
}

func TestParseDate(t *testing.T) {
	_, err := ParseDate("01/06/2025", time.UTC)
	assert.ErrorIs(t, err, ErrInvalidDate)
}
