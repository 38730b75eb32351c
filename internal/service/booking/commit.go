package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alijeyrad/simorq_booking/internal/repo"
)

// commit writes a quoted booking. Only the reservation and the primary
// patient-scoped write can fail the call; everything after them is logged
// and counted as partial persistence, and the mirror is projected again
// from the created event.
func (s *bookingService) commit(ctx context.Context, id string, q Quote, st settlement) (*Confirmation, error) {
	ctx, span := s.m.tracer.Start(ctx, "booking.commit", trace.WithAttributes(
		attribute.String("booking.id", id),
		attribute.String("booking.payment_status", string(st.payment)),
	))
	defer span.End()

	now := s.now()
	appt := q.Appointment
	appt.ID = id
	appt.Status = st.status
	appt.PaymentStatus = st.payment
	appt.PaymentReference = st.reference
	appt.CreatedAt = now
	appt.UpdatedAt = now

	key, err := s.holdSlot(ctx, id, appt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reserve slot")
		if errors.Is(err, ErrSlotTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("commit booking: %w", err)
	}
	appt.ReservationKey = key

	if err := s.db.CreatePatientAppointment(ctx, appt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "primary write")
		s.releaseSlot(ctx, id, appt.ReservationKey)
		return nil, fmt.Errorf("commit booking: %w", err)
	}
	s.m.recordCommitted(ctx, st.payment == repo.PaymentPaid)

	if err := s.db.MirrorAppointment(ctx, appt); err != nil {
		s.partial(ctx, id, stepMirror, err)
	}
	if q.Discount != nil {
		if err := s.discounts.Redeem(ctx, q.Discount); err != nil {
			s.partial(ctx, id, stepDiscount, err)
		}
	}
	if _, err := s.db.IncrementAppointmentCount(ctx, appt.PatientID); err != nil {
		s.partial(ctx, id, stepPatientCount, err)
	}
	if err := s.publish(SubjectCreated, Event{BookingID: id, PatientID: appt.PatientID, Status: appt.Status}); err != nil {
		s.partial(ctx, id, stepPublish, err)
	}

	slog.InfoContext(ctx, "booking committed",
		"booking_id", id,
		"patient_id", appt.PatientID,
		"doctor_id", appt.DoctorID,
		"status", appt.Status,
		"final_price", appt.FinalPrice,
	)
	return &Confirmation{Appointment: appt, RedirectURL: s.confirmationURL(id)}, nil
}

// holdSlot reserves the appointment's slot for booking id. Holding it again
// with the same id succeeds, so a checkout can reserve before payment and
// commit after. It returns "" when reservations are off.
func (s *bookingService) holdSlot(ctx context.Context, id string, appt repo.Appointment) (string, error) {
	if !s.cfg.ReserveSlots {
		return "", nil
	}
	key := repo.SlotKey(appt.DoctorID, appt.DateTime)
	ok, err := s.db.ReserveSlot(ctx, key, id)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrSlotTaken
	}
	return key, nil
}

func (s *bookingService) releaseSlot(ctx context.Context, id, key string) {
	if key == "" {
		return
	}
	if err := s.db.ReleaseSlot(ctx, key, id); err != nil {
		slog.WarnContext(ctx, "could not release slot", "booking_id", id, "reservation", key, "err", err)
	}
}

func (s *bookingService) partial(ctx context.Context, id, step string, err error) {
	slog.WarnContext(ctx, "booking partially persisted", "booking_id", id, "step", step, "err", err)
	s.m.recordPartial(ctx, step)
	trace.SpanFromContext(ctx).AddEvent("partial_persistence", trace.WithAttributes(attribute.String("step", step)))
}
