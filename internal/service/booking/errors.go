package booking

import "errors"

var (
	ErrSlotUnavailable      = errors.New("this time slot is no longer available")
	ErrSlotTaken            = errors.New("this time slot was just booked by someone else")
	ErrInvalidPaymentMethod = errors.New("payment method must be later or online")
	ErrInvalidPhone         = errors.New("invalid phone number")
	ErrMissingPatient       = errors.New("patient is required")
	ErrCheckoutNotFound     = errors.New("checkout expired or not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrInvalidStatus        = errors.New("invalid appointment status")
)
