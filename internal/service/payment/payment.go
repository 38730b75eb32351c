package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/Alijeyrad/simorq_booking/config"
	zarinpalpkg "github.com/Alijeyrad/simorq_booking/pkg/zarinpal"
)

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

// Checkout is what the patient is asked to pay for.
type Checkout struct {
	Amount      float64
	Description string
	Mobile      string
	Email       string
}

type Gateway interface {
	// Request opens a payment and returns the gateway authority and the
	// page the patient is redirected to.
	Request(ctx context.Context, c Checkout) (authority, payURL string, err error)
	// Verify confirms the payment behind authority and returns the
	// gateway's reference for it.
	Verify(ctx context.Context, authority string, amount float64) (reference string, err error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type zarinpalClient interface {
	RequestPayment(ctx context.Context, r zarinpalpkg.Request) (*zarinpalpkg.Payment, error)
	VerifyPayment(ctx context.Context, authority string, amount int64) (*zarinpalpkg.Verification, error)
}

type zarinpalGateway struct {
	zp          zarinpalClient
	currency    string
	callbackURL string
}

func New(zp *zarinpalpkg.Client, cfg *config.Config) Gateway {
	return newGateway(zp, cfg)
}

func newGateway(zp zarinpalClient, cfg *config.Config) *zarinpalGateway {
	return &zarinpalGateway{
		zp:          zp,
		currency:    cfg.Booking.Currency,
		callbackURL: cfg.ZarinPal.CallbackURL,
	}
}

// minorUnits rounds a price to the whole units the gateway accepts.
func minorUnits(amount float64) int64 {
	return int64(math.Round(amount))
}

func (g *zarinpalGateway) Request(ctx context.Context, c Checkout) (string, string, error) {
	amount := minorUnits(c.Amount)
	if amount <= 0 {
		return "", "", ErrInvalidAmount
	}

	p, err := g.zp.RequestPayment(ctx, zarinpalpkg.Request{
		Amount:      amount,
		Currency:    g.currency,
		Description: c.Description,
		CallbackURL: g.callbackURL,
		Mobile:      c.Mobile,
		Email:       c.Email,
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	}
	return p.Authority, p.URL, nil
}

func (g *zarinpalGateway) Verify(ctx context.Context, authority string, amount float64) (string, error) {
	v, err := g.zp.VerifyPayment(ctx, authority, minorUnits(amount))
	switch {
	case err == nil:
	case errors.Is(err, zarinpalpkg.ErrPaymentFailed):
		return "", ErrPaymentFailed
	case errors.Is(err, zarinpalpkg.ErrAmountMismatch):
		return "", ErrAmountMismatch
	case errors.Is(err, zarinpalpkg.ErrAuthorityNotFound), errors.Is(err, zarinpalpkg.ErrInvalidAuthority):
		return "", ErrUnknownAuthority
	default:
		return "", fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	}

	if v.AlreadyVerified {
		slog.InfoContext(ctx, "payment already verified", "authority", authority, "ref_id", v.RefID)
	}
	slog.DebugContext(ctx, "payment verified", "authority", authority, "card_pan", v.CardPan)
	return strconv.FormatInt(v.RefID, 10), nil
}
