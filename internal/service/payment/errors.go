package payment

import "errors"

var (
	ErrPaymentFailed    = errors.New("payment failed or cancelled by user")
	ErrGatewayFailure   = errors.New("payment gateway error")
	ErrAmountMismatch   = errors.New("payment amount does not match")
	ErrInvalidAmount    = errors.New("payment amount must be positive")
	ErrUnknownAuthority = errors.New("payment authority not recognised")
)
