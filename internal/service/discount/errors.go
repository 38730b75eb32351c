package discount

import (
	"errors"
	"fmt"
)

// Rejection reasons. Every rejection returned by the evaluator unwraps to
// exactly one of them.
var (
	ErrCodeNotFound          = errors.New("invalid discount code")
	ErrCodeInactive          = errors.New("this discount code is no longer active")
	ErrCodeExpired           = errors.New("this discount code has expired")
	ErrUsageLimitReached     = errors.New("this discount code has reached its usage limit")
	ErrServiceMismatch       = errors.New("discount code is bound to another service")
	ErrCategoryMismatch      = errors.New("discount code is bound to another category")
	ErrBelowMinimum          = errors.New("booking amount is below the code's minimum")
	ErrNotReturningClient    = errors.New("discount code is for returning clients")
	ErrCriteriaNotApplicable = errors.New("this discount code cannot be applied")
)

// Rejection is a business-rule refusal with a message for the patient.
type Rejection struct {
	Reason  error
	Message string
}

func (r *Rejection) Error() string { return r.Message }

func (r *Rejection) Unwrap() error { return r.Reason }

func reject(reason error) *Rejection {
	return &Rejection{Reason: reason, Message: capitalize(reason.Error())}
}

func rejectf(reason error, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
