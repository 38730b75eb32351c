package repo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Alijeyrad/simorq_booking/pkg/docstore"
)

type AppointmentStatus string

const (
	StatusPending     AppointmentStatus = "pending"
	StatusConfirmed   AppointmentStatus = "confirmed"
	StatusRescheduled AppointmentStatus = "rescheduled"
	StatusCancelled   AppointmentStatus = "cancelled"
	StatusCompleted   AppointmentStatus = "completed"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRescheduled, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending_payment"
)

// Appointment is stored twice: under the patient and in the clinic index.
type Appointment struct {
	ID           string `json:"id"`
	PatientID    string `json:"patientId"`
	PatientName  string `json:"patientName,omitempty"`
	PatientEmail string `json:"patientEmail,omitempty"`
	PatientPhone string `json:"patientPhone,omitempty"`
	DoctorID     string `json:"doctorId"`
	DoctorName   string `json:"doctorName,omitempty"`
	ServiceID    string `json:"serviceId"`
	ServiceName  string `json:"serviceName"`

	DateTime time.Time `json:"dateTime"`
	TimeSlot string    `json:"timeSlot"`

	Status           AppointmentStatus `json:"status"`
	PaymentStatus    PaymentStatus     `json:"paymentStatus"`
	PaymentReference string            `json:"paymentReference,omitempty"`

	OriginalPrice  float64 `json:"originalPrice"`
	FinalPrice     float64 `json:"finalPrice"`
	Currency       string  `json:"currency,omitempty"`
	CouponCode     string  `json:"couponCode,omitempty"`
	DiscountAmount float64 `json:"discountAmount,omitempty"`

	Notes string `json:"notes,omitempty"`
	// ReservationKey is the slot reservation held for this booking, if any.
	ReservationKey string `json:"reservationKey,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func patientAppointmentPath(patientID, id string) string {
	return docstore.Path(colPatients, patientID, colAppointments, id)
}

func clinicAppointmentPath(id string) string {
	return docstore.Path(colAppointments, id)
}

// CreatePatientAppointment writes the primary, patient-scoped record.
func (c *Client) CreatePatientAppointment(ctx context.Context, a Appointment) error {
	if err := c.store.Set(ctx, patientAppointmentPath(a.PatientID, a.ID), a); err != nil {
		return fmt.Errorf("create patient appointment: %w", err)
	}
	return nil
}

// MirrorAppointment merges the record into the clinic-wide index.
func (c *Client) MirrorAppointment(ctx context.Context, a Appointment) error {
	if err := c.store.Merge(ctx, clinicAppointmentPath(a.ID), a); err != nil {
		return fmt.Errorf("mirror appointment: %w", err)
	}
	return nil
}

func (c *Client) GetPatientAppointment(ctx context.Context, patientID, id string) (*Appointment, error) {
	snap, err := c.store.Get(ctx, patientAppointmentPath(patientID, id))
	if err != nil {
		return nil, fmt.Errorf("get patient appointment: %w", err)
	}
	var a Appointment
	if err := snap.Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAppointment reads the clinic index record.
func (c *Client) GetAppointment(ctx context.Context, id string) (*Appointment, error) {
	snap, err := c.store.Get(ctx, clinicAppointmentPath(id))
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	var a Appointment
	if err := snap.Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListPatientAppointments returns a patient's bookings, newest appointment first.
func (c *Client) ListPatientAppointments(ctx context.Context, patientID string) ([]Appointment, error) {
	snaps, err := c.store.List(ctx, docstore.Path(colPatients, patientID, colAppointments))
	if err != nil {
		return nil, fmt.Errorf("list patient appointments: %w", err)
	}
	return decodeAppointments(snaps)
}

// ListAppointments returns the clinic index, newest appointment first.
func (c *Client) ListAppointments(ctx context.Context) ([]Appointment, error) {
	snaps, err := c.store.List(ctx, colAppointments)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return decodeAppointments(snaps)
}

// ListAppointmentsByStatus queries the clinic index by exact status.
func (c *Client) ListAppointmentsByStatus(ctx context.Context, status AppointmentStatus) ([]Appointment, error) {
	snaps, err := c.store.Where(ctx, colAppointments, "status", status)
	if err != nil {
		return nil, fmt.Errorf("list %s appointments: %w", status, err)
	}
	return decodeAppointments(snaps)
}

// SetAppointmentStatus writes the new status to both locations, primary first.
func (c *Client) SetAppointmentStatus(ctx context.Context, patientID, id string, status AppointmentStatus, at time.Time) error {
	patch := map[string]any{"status": status, "updatedAt": at}
	if err := c.store.Merge(ctx, patientAppointmentPath(patientID, id), patch); err != nil {
		return fmt.Errorf("set appointment status: %w", err)
	}
	if err := c.store.Merge(ctx, clinicAppointmentPath(id), patch); err != nil {
		return fmt.Errorf("set mirrored appointment status: %w", err)
	}
	return nil
}

func decodeAppointments(snaps []docstore.Snapshot) ([]Appointment, error) {
	out := make([]Appointment, 0, len(snaps))
	for _, snap := range snaps {
		var a Appointment
		if err := snap.Decode(&a); err != nil {
			return nil, err
		}
		if a.ID == "" {
			a.ID = snap.ID()
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DateTime.After(out[j].DateTime)
	})
	return out, nil
}

// ---------------------------------------------------------------------------
// Slot reservations
// ---------------------------------------------------------------------------

// SlotKey names the reservation for one doctor at one local date and time.
func SlotKey(doctorID string, at time.Time) string {
	return doctorID + "_" + at.Format("20060102_1504")
}

func (c *Client) ReserveSlot(ctx context.Context, key, owner string) (bool, error) {
	ok, err := c.store.Reserve(ctx, docstore.Path(colReservations, key), owner)
	if err != nil {
		return false, fmt.Errorf("reserve slot: %w", err)
	}
	return ok, nil
}

func (c *Client) ReleaseSlot(ctx context.Context, key, owner string) error {
	if err := c.store.Release(ctx, docstore.Path(colReservations, key), owner); err != nil {
		return fmt.Errorf("release slot: %w", err)
	}
	return nil
}
