package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/simorq_booking/internal/repo"
	"github.com/Alijeyrad/simorq_booking/internal/service/availability"
	"github.com/Alijeyrad/simorq_booking/internal/service/booking"
	"github.com/Alijeyrad/simorq_booking/internal/service/catalog"
	"github.com/Alijeyrad/simorq_booking/internal/service/discount"
	"github.com/Alijeyrad/simorq_booking/internal/service/payment"
	pasetotoken "github.com/Alijeyrad/simorq_booking/pkg/paseto"
)

const (
	PaymentMethodLater  = "later"
	PaymentMethodOnline = "online"
)

type BookingHandler struct {
	svc booking.Service
}

func NewBookingHandler(svc booking.Service) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func patientIDFromClaims(c fiber.Ctx) (string, bool) {
	claims, found := pasetotoken.ClaimsFromFiber(c)
	if !found || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

func mapBookingError(c fiber.Ctx, err error) error {
	var rej *discount.Rejection
	if errors.As(err, &rej) {
		return unprocessable(c, rej.Message)
	}

	switch {
	case errors.Is(err, booking.ErrSlotUnavailable),
		errors.Is(err, booking.ErrSlotTaken):
		return conflict(c, err.Error())
	case errors.Is(err, booking.ErrAppointmentNotFound),
		errors.Is(err, booking.ErrCheckoutNotFound),
		errors.Is(err, catalog.ErrServiceNotFound),
		errors.Is(err, catalog.ErrNoEligibleDoctor):
		return notFound(c, err.Error())
	case errors.Is(err, catalog.ErrDoctorNotEligible):
		return unprocessable(c, err.Error())
	case errors.Is(err, booking.ErrInvalidPhone),
		errors.Is(err, booking.ErrMissingPatient),
		errors.Is(err, booking.ErrInvalidPaymentMethod),
		errors.Is(err, booking.ErrInvalidStatus),
		errors.Is(err, availability.ErrInvalidDate),
		errors.Is(err, availability.ErrInvalidTime),
		errors.Is(err, availability.ErrSlotNotInGrid),
		errors.Is(err, payment.ErrInvalidAmount):
		return badRequest(c, err.Error())
	default:
		return internalError(c)
	}
}

type bookingBody struct {
	ServiceID     string `json:"service_id"`
	DoctorID      string `json:"doctor_id"`
	Date          string `json:"date"`
	TimeSlot      string `json:"time_slot"`
	PatientName   string `json:"patient_name"`
	PatientEmail  string `json:"patient_email"`
	PatientPhone  string `json:"patient_phone"`
	CouponCode    string `json:"coupon_code"`
	Notes         string `json:"notes"`
	PaymentMethod string `json:"payment_method"`
}

func (b bookingBody) request(patientID string) booking.Request {
	return booking.Request{
		PatientID:    patientID,
		PatientName:  strings.TrimSpace(b.PatientName),
		PatientEmail: strings.TrimSpace(b.PatientEmail),
		PatientPhone: b.PatientPhone,
		ServiceID:    b.ServiceID,
		DoctorID:     b.DoctorID,
		Date:         b.Date,
		TimeSlot:     b.TimeSlot,
		CouponCode:   b.CouponCode,
		Notes:        b.Notes,
	}
}

func confirmationView(conf *booking.Confirmation) fiber.Map {
	return fiber.Map{
		"booking":      conf.Appointment,
		"redirect_url": conf.RedirectURL,
	}
}

// POST /bookings
func (h *BookingHandler) Create(c fiber.Ctx) error {
	patientID, found := patientIDFromClaims(c)
	if !found {
		return unauthorized(c)
	}

	var body bookingBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.ServiceID == "" || body.DoctorID == "" || body.Date == "" || body.TimeSlot == "" {
		return badRequest(c, "service_id, doctor_id, date and time_slot are required")
	}
	req := body.request(patientID)

	switch strings.ToLower(strings.TrimSpace(body.PaymentMethod)) {
	case PaymentMethodLater:
		conf, err := h.svc.PayLater(c.Context(), req)
		if err != nil {
			return mapBookingError(c, err)
		}
		return created(c, confirmationView(conf))

	case PaymentMethodOnline:
		start, err := h.svc.StartPayment(c.Context(), req)
		if err != nil {
			return mapBookingError(c, err)
		}
		if start.Confirmation != nil {
			return created(c, confirmationView(start.Confirmation))
		}
		return ok(c, fiber.Map{
			"authority": start.Authority,
			"pay_url":   start.PayURL,
		})

	default:
		return mapBookingError(c, booking.ErrInvalidPaymentMethod)
	}
}

// POST /bookings/quote
func (h *BookingHandler) Quote(c fiber.Ctx) error {
	patientID, found := patientIDFromClaims(c)
	if !found {
		return unauthorized(c)
	}

	var body bookingBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	q, err := h.svc.Quote(c.Context(), body.request(patientID))
	if err != nil {
		return mapBookingError(c, err)
	}
	return ok(c, q.Appointment)
}

// POST /discounts/apply
func (h *BookingHandler) ApplyDiscount(c fiber.Ctx) error {
	patientID, found := patientIDFromClaims(c)
	if !found {
		return unauthorized(c)
	}

	var body struct {
		Code      string `json:"code"`
		ServiceID string `json:"service_id"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(body.Code) == "" || body.ServiceID == "" {
		return badRequest(c, "code and service_id are required")
	}

	res, err := h.svc.PreviewDiscount(c.Context(), patientID, body.ServiceID, body.Code)
	if err != nil {
		return mapBookingError(c, err)
	}

	return ok(c, fiber.Map{
		"code":            res.Code.Code,
		"discount_type":   res.Code.DiscountType,
		"discount_value":  res.Code.DiscountValue,
		"original_price":  res.OriginalPrice,
		"discount_amount": res.DiscountAmount,
		"final_price":     res.FinalPrice,
	})
}

// GET /bookings
func (h *BookingHandler) ListMine(c fiber.Ctx) error {
	patientID, found := patientIDFromClaims(c)
	if !found {
		return unauthorized(c)
	}

	appts, err := h.svc.ListPatientBookings(c.Context(), patientID)
	if err != nil {
		return mapBookingError(c, err)
	}
	if appts == nil {
		appts = []repo.Appointment{}
	}
	return ok(c, appts)
}

// GET /bookings/:id
func (h *BookingHandler) GetMine(c fiber.Ctx) error {
	patientID, found := patientIDFromClaims(c)
	if !found {
		return unauthorized(c)
	}

	appt, err := h.svc.GetPatientBooking(c.Context(), patientID, c.Params("id"))
	if err != nil {
		return mapBookingError(c, err)
	}
	return ok(c, appt)
}

// GET /payments/callback?Authority=&Status=
//
// The gateway sends the patient back here. Every outcome is a redirect.
func (h *BookingHandler) PaymentCallback(c fiber.Ctx) error {
	var q struct {
		Authority string `query:"Authority"`
		Status    string `query:"Status"`
	}
	_ = c.Bind().Query(&q)

	if q.Authority == "" {
		return c.Redirect().To(h.failureURL("missing_authority"))
	}

	conf, err := h.svc.CompletePayment(c.Context(), q.Authority, q.Status)
	if err != nil {
		return c.Redirect().To(h.failureURL(failureReason(err)))
	}
	return c.Redirect().To(conf.RedirectURL)
}

func (h *BookingHandler) failureURL(reason string) string {
	return h.svc.FailureURL() + "?reason=" + reason
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, payment.ErrPaymentFailed):
		return "payment_failed"
	case errors.Is(err, booking.ErrCheckoutNotFound):
		return "expired"
	case errors.Is(err, payment.ErrAmountMismatch), errors.Is(err, payment.ErrUnknownAuthority):
		return "verification_failed"
	case errors.Is(err, booking.ErrSlotTaken):
		return "slot_taken"
	default:
		return "error"
	}
}
