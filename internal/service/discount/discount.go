package discount

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Alijeyrad/simorq_booking/internal/repo"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Selection is the service a code is being applied to.
type Selection struct {
	ServiceID   string
	ServiceName string
	Category    string
}

type Request struct {
	Code              string
	Selection         Selection
	OriginalPrice     float64
	PriorAppointments int64
}

type ApplyRequest struct {
	Code          string
	Selection     Selection
	OriginalPrice float64
	PatientID     string
}

// Result is an accepted code and the price it produces. Applying another
// code yields a fresh Result; codes never stack.
type Result struct {
	Code           *repo.DiscountCode
	OriginalPrice  float64
	DiscountAmount float64
	FinalPrice     float64
}

// ---------------------------------------------------------------------------
// Evaluation
// ---------------------------------------------------------------------------

// Evaluate runs the gates after lookup in order and stops at the first
// failure: active, expiry, usage limit, criteria.
func Evaluate(code *repo.DiscountCode, req Request, now time.Time) (*Result, error) {
	if !code.IsActive {
		return nil, reject(ErrCodeInactive)
	}
	if code.ExpiresAt != nil && code.ExpiresAt.Before(now) {
		return nil, reject(ErrCodeExpired)
	}
	if code.LimitReached() {
		return nil, reject(ErrUsageLimitReached)
	}

	check, ok := criteria[code.CriteriaType]
	if !ok {
		return nil, reject(ErrCriteriaNotApplicable)
	}
	if rej := check(code, req); rej != nil {
		return nil, rej
	}

	var amount float64
	switch code.DiscountType {
	case repo.DiscountPercentage:
		amount = req.OriginalPrice * code.DiscountValue / 100
	case repo.DiscountFixed:
		amount = code.DiscountValue
	default:
		return nil, reject(ErrCriteriaNotApplicable)
	}

	// the discount never exceeds the price, so the final price stays >= 0
	amount = min(max(amount, 0), max(req.OriginalPrice, 0))
	return &Result{
		Code:           code,
		OriginalPrice:  req.OriginalPrice,
		DiscountAmount: amount,
		FinalPrice:     max(0, req.OriginalPrice-amount),
	}, nil
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	// Apply looks the code up and evaluates it for the patient's booking.
	Apply(ctx context.Context, req ApplyRequest) (*Result, error)
	// Redeem consumes one use of an applied code.
	Redeem(ctx context.Context, code *repo.DiscountCode) error
}

type discountService struct {
	db  *repo.Client
	now func() time.Time
}

func New(db *repo.Client) Service {
	return &discountService{db: db, now: time.Now}
}

func (s *discountService) Apply(ctx context.Context, req ApplyRequest) (*Result, error) {
	code, err := s.db.FindDiscountCode(ctx, req.Code)
	if repo.IsNotFound(err) {
		return nil, reject(ErrCodeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("apply discount: %w", err)
	}

	var prior int64
	if req.PatientID != "" {
		patient, err := s.db.GetPatient(ctx, req.PatientID)
		if err != nil {
			return nil, fmt.Errorf("apply discount: %w", err)
		}
		prior = patient.AppointmentCount
	}

	return Evaluate(code, Request{
		Code:              req.Code,
		Selection:         req.Selection,
		OriginalPrice:     req.OriginalPrice,
		PriorAppointments: prior,
	}, s.now())
}

func (s *discountService) Redeem(ctx context.Context, code *repo.DiscountCode) error {
	if _, err := s.db.RedeemDiscountCode(ctx, code.ID); err != nil {
		return err
	}
	return nil
}

// IsRejection reports whether err is a business-rule refusal rather than a
// store failure.
func IsRejection(err error) bool {
	var rej *Rejection
	return errors.As(err, &rej)
}
