// Package booking turns a patient's selection into a stored appointment.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"

	"github.com/Alijeyrad/simorq_booking/config"
	"github.com/Alijeyrad/simorq_booking/internal/repo"
	"github.com/Alijeyrad/simorq_booking/internal/service/availability"
	"github.com/Alijeyrad/simorq_booking/internal/service/catalog"
	"github.com/Alijeyrad/simorq_booking/internal/service/discount"
	"github.com/Alijeyrad/simorq_booking/internal/service/payment"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Request is a patient's booking selection.
type Request struct {
	PatientID    string
	PatientName  string
	PatientEmail string
	PatientPhone string
	ServiceID    string
	DoctorID     string
	Date         string // YYYY-MM-DD, clinic time
	TimeSlot     string
	CouponCode   string
	Notes        string
}

// Quote is a validated, priced booking that has not been written yet.
type Quote struct {
	Appointment repo.Appointment   `json:"appointment"`
	Discount    *repo.DiscountCode `json:"discount,omitempty"`
}

type Confirmation struct {
	Appointment repo.Appointment
	RedirectURL string
}

// PaymentStart is either a confirmation, when nothing is left to pay, or
// the gateway page the patient must visit.
type PaymentStart struct {
	Confirmation *Confirmation
	Authority    string
	PayURL       string
}

type ListRequest struct {
	Status   repo.AppointmentStatus
	DoctorID string
	Date     string // YYYY-MM-DD, clinic time
	Page     int
	PerPage  int
}

// settlement is how a booking is paid for.
type settlement struct {
	status    repo.AppointmentStatus
	payment   repo.PaymentStatus
	reference string
}

var payLater = settlement{status: repo.StatusPending, payment: repo.PaymentPending}

func paid(reference string) settlement {
	return settlement{status: repo.StatusConfirmed, payment: repo.PaymentPaid, reference: reference}
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// Quote validates a selection and prices it, applying the coupon code if any.
	Quote(ctx context.Context, req Request) (*Quote, error)
	// PreviewDiscount evaluates a code against a service's catalog price
	// without booking anything.
	PreviewDiscount(ctx context.Context, patientID, serviceID, code string) (*discount.Result, error)
	// PayLater commits the booking as pending payment.
	PayLater(ctx context.Context, req Request) (*Confirmation, error)
	// StartPayment opens a gateway payment for the quoted price.
	StartPayment(ctx context.Context, req Request) (*PaymentStart, error)
	// CompletePayment verifies the gateway callback and commits the paid booking.
	CompletePayment(ctx context.Context, authority, status string) (*Confirmation, error)
	// ReleaseExpiredCheckouts frees slots held by abandoned checkouts.
	ReleaseExpiredCheckouts(ctx context.Context) (int, error)

	ListPatientBookings(ctx context.Context, patientID string) ([]repo.Appointment, error)
	GetPatientBooking(ctx context.Context, patientID, id string) (*repo.Appointment, error)

	ListClinicAppointments(ctx context.Context, req ListRequest) ([]repo.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status repo.AppointmentStatus) (*repo.Appointment, error)
	// ReconcileMirror copies the patient-scoped record over the clinic index entry.
	ReconcileMirror(ctx context.Context, patientID, id string) error

	// FailureURL is where the patient lands after a failed payment.
	FailureURL() string
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type Deps struct {
	DB           *repo.Client
	Catalog      catalog.Service
	Availability availability.Service
	Discounts    discount.Service
	Gateway      payment.Gateway
	Drafts       DraftStore
	// Publisher may be nil.
	Publisher Publisher
	Config    config.BookingConfig
}

type bookingService struct {
	db        *repo.Client
	catalog   catalog.Service
	avail     availability.Service
	discounts discount.Service
	gateway   payment.Gateway
	drafts    DraftStore
	pub       Publisher
	cfg       config.BookingConfig
	now       func() time.Time
	m         instruments
}

func New(d Deps) Service {
	return &bookingService{
		db:        d.DB,
		catalog:   d.Catalog,
		avail:     d.Availability,
		discounts: d.Discounts,
		gateway:   d.Gateway,
		drafts:    d.Drafts,
		pub:       d.Publisher,
		cfg:       d.Config,
		now:       time.Now,
		m:         newInstruments(),
	}
}

// ---------------------------------------------------------------------------
// Quote
// ---------------------------------------------------------------------------

func (s *bookingService) Quote(ctx context.Context, req Request) (*Quote, error) {
	if strings.TrimSpace(req.PatientID) == "" {
		return nil, ErrMissingPatient
	}
	phone, err := normalizePhone(req.PatientPhone, s.cfg.PhoneRegion)
	if err != nil {
		return nil, err
	}

	cat, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := cat.Find(req.ServiceID)
	if err != nil {
		return nil, err
	}
	doctor, err := cat.Doctor(svc.ID, req.DoctorID)
	if err != nil {
		return nil, err
	}

	date, err := availability.ParseDate(req.Date, s.avail.Location())
	if err != nil {
		return nil, err
	}
	at, err := s.avail.SlotTime(date, req.TimeSlot)
	if err != nil {
		return nil, err
	}
	open, err := s.avail.IsTimeSlotAvailable(ctx, doctor.ID, date, req.TimeSlot)
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, ErrSlotUnavailable
	}

	patient, err := s.db.GetPatient(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}

	price := svc.EffectivePrice(s.cfg.DefaultConsultationFee)
	q := &Quote{Appointment: repo.Appointment{
		PatientID:     req.PatientID,
		PatientName:   firstNonEmpty(req.PatientName, strings.TrimSpace(patient.FirstName+" "+patient.LastName)),
		PatientEmail:  firstNonEmpty(req.PatientEmail, patient.Email),
		PatientPhone:  firstNonEmpty(phone, patient.Phone),
		DoctorID:      doctor.ID,
		DoctorName:    doctor.DisplayName(),
		ServiceID:     svc.ID,
		ServiceName:   svc.Name,
		DateTime:      at,
		TimeSlot:      at.Format(availability.ClockLayout),
		OriginalPrice: price,
		FinalPrice:    price,
		Currency:      s.cfg.Currency,
		Notes:         strings.TrimSpace(req.Notes),
	}}

	if code := strings.TrimSpace(req.CouponCode); code != "" {
		res, err := s.discounts.Apply(ctx, discount.ApplyRequest{
			Code: code,
			Selection: discount.Selection{
				ServiceID:   svc.ID,
				ServiceName: svc.Name,
				Category:    svc.Category,
			},
			OriginalPrice: price,
			PatientID:     req.PatientID,
		})
		if err != nil {
			return nil, err
		}
		q.Discount = res.Code
		q.Appointment.CouponCode = res.Code.Code
		q.Appointment.FinalPrice = res.FinalPrice
		q.Appointment.DiscountAmount = res.DiscountAmount
	}

	return q, nil
}

func (s *bookingService) PreviewDiscount(ctx context.Context, patientID, serviceID, code string) (*discount.Result, error) {
	cat, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := cat.Find(serviceID)
	if err != nil {
		return nil, err
	}
	return s.discounts.Apply(ctx, discount.ApplyRequest{
		Code: code,
		Selection: discount.Selection{
			ServiceID:   svc.ID,
			ServiceName: svc.Name,
			Category:    svc.Category,
		},
		OriginalPrice: svc.EffectivePrice(s.cfg.DefaultConsultationFee),
		PatientID:     patientID,
	})
}

func normalizePhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	num, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidPhone
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// ---------------------------------------------------------------------------
// Checkout
// ---------------------------------------------------------------------------

func (s *bookingService) PayLater(ctx context.Context, req Request) (*Confirmation, error) {
	q, err := s.Quote(ctx, req)
	if err != nil {
		return nil, err
	}
	id, err := NewBookingID(q.Appointment.DateTime)
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, id, *q, payLater)
}

func (s *bookingService) StartPayment(ctx context.Context, req Request) (*PaymentStart, error) {
	q, err := s.Quote(ctx, req)
	if err != nil {
		return nil, err
	}

	if q.Appointment.FinalPrice <= 0 {
		id, err := NewBookingID(q.Appointment.DateTime)
		if err != nil {
			return nil, err
		}
		conf, err := s.commit(ctx, id, *q, paid("FREE-"+id))
		if err != nil {
			return nil, err
		}
		return &PaymentStart{Confirmation: conf}, nil
	}

	a := q.Appointment
	id, err := NewBookingID(a.DateTime)
	if err != nil {
		return nil, err
	}
	// the slot is held across the gateway round trip so a paid callback
	// cannot lose it to a booking made meanwhile
	key, err := s.holdSlot(ctx, id, a)
	if err != nil {
		return nil, err
	}

	authority, payURL, err := s.gateway.Request(ctx, payment.Checkout{
		Amount:      a.FinalPrice,
		Description: fmt.Sprintf("%s, %s, %s", a.ServiceName, a.DateTime.Format(availability.DateLayout), a.TimeSlot),
		Mobile:      a.PatientPhone,
		Email:       a.PatientEmail,
	})
	if err != nil {
		s.releaseSlot(ctx, id, key)
		return nil, err
	}

	draft := Draft{Quote: *q, Authority: authority, BookingID: id, ReservationKey: key, CreatedAt: s.now()}
	if err := s.drafts.Save(ctx, draft, s.checkoutTTL()); err != nil {
		s.releaseSlot(ctx, id, key)
		return nil, err
	}
	slog.InfoContext(ctx, "payment started",
		"authority", authority, "booking_id", id, "patient_id", a.PatientID, "amount", a.FinalPrice)
	return &PaymentStart{Authority: authority, PayURL: payURL}, nil
}

// verifyGrace keeps a draft alive while its callback talks to the gateway.
const verifyGrace = 2 * time.Minute

func (s *bookingService) CompletePayment(ctx context.Context, authority, status string) (*Confirmation, error) {
	draft, err := s.drafts.Peek(ctx, authority, verifyGrace)
	if err != nil {
		return nil, err
	}
	if status != "OK" {
		slog.InfoContext(ctx, "payment cancelled at gateway", "authority", authority, "status", status)
		s.abandonCheckout(ctx, draft)
		return nil, payment.ErrPaymentFailed
	}

	a := draft.Quote.Appointment
	ref, err := s.gateway.Verify(ctx, authority, a.FinalPrice)
	if err != nil {
		if definiteDecline(err) {
			slog.InfoContext(ctx, "payment declined", "authority", authority, "err", err)
			s.abandonCheckout(ctx, draft)
		} else {
			// the draft stays so the callback can be retried
			slog.WarnContext(ctx, "payment verification failed", "authority", authority, "err", err)
		}
		return nil, err
	}

	claimed, err := s.drafts.Take(ctx, authority)
	if errors.Is(err, ErrCheckoutNotFound) {
		// another callback for the same authority got here first
		if existing, gerr := s.db.GetPatientAppointment(ctx, a.PatientID, draft.BookingID); gerr == nil {
			return &Confirmation{Appointment: *existing, RedirectURL: s.confirmationURL(existing.ID)}, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	conf, err := s.commit(ctx, claimed.BookingID, claimed.Quote, paid(ref))
	if err != nil {
		slog.ErrorContext(ctx, "payment verified but booking not stored",
			"authority", authority, "booking_id", claimed.BookingID, "payment_reference", ref,
			"patient_id", a.PatientID, "err", err)
		if !IsBusinessError(err) {
			// verify is repeatable, so a retried callback can still commit
			if serr := s.drafts.Save(ctx, *claimed, s.checkoutTTL()); serr != nil {
				slog.ErrorContext(ctx, "could not restore checkout draft", "authority", authority, "err", serr)
			}
		}
		return nil, err
	}
	return conf, nil
}

// definiteDecline reports whether the gateway refused the payment for good,
// as opposed to failing to answer.
func definiteDecline(err error) bool {
	return errors.Is(err, payment.ErrPaymentFailed) ||
		errors.Is(err, payment.ErrAmountMismatch) ||
		errors.Is(err, payment.ErrUnknownAuthority)
}

// abandonCheckout drops a draft whose payment will never complete and frees
// its slot.
func (s *bookingService) abandonCheckout(ctx context.Context, d *Draft) {
	if _, err := s.drafts.Take(ctx, d.Authority); err != nil && !errors.Is(err, ErrCheckoutNotFound) {
		slog.WarnContext(ctx, "could not drop checkout draft", "authority", d.Authority, "err", err)
	}
	s.releaseSlot(ctx, d.BookingID, d.ReservationKey)
}

// ReleaseExpiredCheckouts frees the slots held by checkouts whose draft
// expired without a callback.
func (s *bookingService) ReleaseExpiredCheckouts(ctx context.Context) (int, error) {
	holds, err := s.drafts.Expired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	released := 0
	for _, h := range holds {
		if err := s.db.ReleaseSlot(ctx, h.ReservationKey, h.BookingID); err != nil {
			s.partial(ctx, h.BookingID, stepRelease, err)
			continue
		}
		if err := s.drafts.Forget(ctx, h.Authority); err != nil {
			slog.WarnContext(ctx, "could not forget checkout hold", "authority", h.Authority, "err", err)
		}
		released++
	}
	if released > 0 {
		slog.InfoContext(ctx, "released expired checkout holds", "count", released)
	}
	return released, nil
}

func (s *bookingService) checkoutTTL() time.Duration {
	if s.cfg.CheckoutTTLMinutes <= 0 {
		return 20 * time.Minute
	}
	return time.Duration(s.cfg.CheckoutTTLMinutes) * time.Minute
}

func (s *bookingService) confirmationURL(id string) string {
	return strings.TrimRight(s.cfg.ConfirmationPath, "/") + "/" + id
}

func (s *bookingService) FailureURL() string {
	return s.cfg.PaymentFailedPath
}

// ---------------------------------------------------------------------------
// Patient views
// ---------------------------------------------------------------------------

func (s *bookingService) ListPatientBookings(ctx context.Context, patientID string) ([]repo.Appointment, error) {
	return s.db.ListPatientAppointments(ctx, patientID)
}

func (s *bookingService) GetPatientBooking(ctx context.Context, patientID, id string) (*repo.Appointment, error) {
	a, err := s.db.GetPatientAppointment(ctx, patientID, id)
	if repo.IsNotFound(err) {
		return nil, ErrAppointmentNotFound
	}
	return a, err
}

// ---------------------------------------------------------------------------
// Clinic views
// ---------------------------------------------------------------------------

func (s *bookingService) ListClinicAppointments(ctx context.Context, req ListRequest) ([]repo.Appointment, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 100 {
		req.PerPage = 20
	}

	var day string
	if req.Date != "" {
		date, err := availability.ParseDate(req.Date, s.avail.Location())
		if err != nil {
			return nil, err
		}
		day = date.Format(availability.DateLayout)
	}

	var (
		appts []repo.Appointment
		err   error
	)
	if req.Status != "" {
		if !req.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		appts, err = s.db.ListAppointmentsByStatus(ctx, req.Status)
	} else {
		appts, err = s.db.ListAppointments(ctx)
	}
	if err != nil {
		return nil, err
	}

	loc := s.avail.Location()
	filtered := appts[:0]
	for _, a := range appts {
		if req.DoctorID != "" && a.DoctorID != req.DoctorID {
			continue
		}
		if day != "" && a.DateTime.In(loc).Format(availability.DateLayout) != day {
			continue
		}
		filtered = append(filtered, a)
	}

	offset := (req.Page - 1) * req.PerPage
	if offset >= len(filtered) {
		return []repo.Appointment{}, nil
	}
	return filtered[offset:min(offset+req.PerPage, len(filtered))], nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, id string, status repo.AppointmentStatus) (*repo.Appointment, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	a, err := s.db.GetAppointment(ctx, id)
	if repo.IsNotFound(err) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.db.SetAppointmentStatus(ctx, a.PatientID, id, status, now); err != nil {
		return nil, err
	}
	a.Status = status
	a.UpdatedAt = now

	if status == repo.StatusCancelled && a.ReservationKey != "" {
		if err := s.db.ReleaseSlot(ctx, a.ReservationKey, id); err != nil {
			s.partial(ctx, id, stepRelease, err)
		}
	}
	if err := s.publish(SubjectStatus, Event{BookingID: id, PatientID: a.PatientID, Status: status}); err != nil {
		s.partial(ctx, id, stepPublish, err)
	}

	slog.InfoContext(ctx, "appointment status updated", "booking_id", id, "status", status)
	return a, nil
}

func (s *bookingService) ReconcileMirror(ctx context.Context, patientID, id string) error {
	a, err := s.db.GetPatientAppointment(ctx, patientID, id)
	if repo.IsNotFound(err) {
		return ErrAppointmentNotFound
	}
	if err != nil {
		return err
	}
	return s.db.MirrorAppointment(ctx, *a)
}

// IsBusinessError reports whether err is a refusal the patient can act on,
// as opposed to a store or gateway failure.
func IsBusinessError(err error) bool {
	if discount.IsRejection(err) {
		return true
	}
	for _, target := range []error{
		ErrSlotUnavailable, ErrSlotTaken, ErrInvalidPhone, ErrMissingPatient, ErrInvalidStatus,
		catalog.ErrServiceNotFound, catalog.ErrNoEligibleDoctor, catalog.ErrDoctorNotEligible,
		availability.ErrInvalidTime, availability.ErrInvalidDate, availability.ErrSlotNotInGrid,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
