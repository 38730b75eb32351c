// Package zarinpal talks to the ZarinPal v4 payment gateway.
package zarinpal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alijeyrad/simorq_booking/config"
)

var (
	ErrPaymentFailed      = errors.New("zarinpal: payment failed or cancelled by user")
	ErrValidation         = errors.New("zarinpal: validation error")
	ErrAmountMismatch     = errors.New("zarinpal: amount does not match original request")
	ErrInvalidAuthority   = errors.New("zarinpal: invalid authority")
	ErrAuthorityNotFound  = errors.New("zarinpal: authority not found")
	ErrUnexpectedResponse = errors.New("zarinpal: unexpected response from gateway")
)

const (
	productionHost = "https://payment.zarinpal.com"
	sandboxHost    = "https://sandbox.zarinpal.com"

	codeOK              = 100
	codeAlreadyVerified = 101
)

// gatewayErrors maps failure codes from the gateway onto sentinels.
var gatewayErrors = map[int]error{
	-9:  ErrValidation,
	-50: ErrAmountMismatch,
	-51: ErrPaymentFailed,
	-54: ErrInvalidAuthority,
	-55: ErrAuthorityNotFound,
}

func codeError(code int, msg string) error {
	if err, ok := gatewayErrors[code]; ok {
		return err
	}
	return fmt.Errorf("%w (code=%d, msg=%s)", ErrUnexpectedResponse, code, msg)
}

type Client struct {
	merchantID  string
	baseURL     string
	startPayURL string
	http        *http.Client
	tracer      trace.Tracer
}

// New builds a client for the production or sandbox gateway.
func New(cfg config.ZarinPalConfig) *Client {
	host := productionHost
	if cfg.Sandbox {
		host = sandboxHost
	}
	return NewWithHost(cfg.MerchantID, host, &http.Client{Timeout: 30 * time.Second})
}

// NewWithHost points the client at an arbitrary gateway host.
func NewWithHost(merchantID, host string, hc *http.Client) *Client {
	host = strings.TrimRight(host, "/")
	return &Client{
		merchantID:  merchantID,
		baseURL:     host + "/pg/v4/payment/",
		startPayURL: host + "/pg/StartPay/",
		http:        hc,
		tracer:      otel.Tracer("github.com/Alijeyrad/simorq_booking/pkg/zarinpal"),
	}
}

// Request describes one payment. Amount is in the unit named by Currency
// ("IRR" rials or "IRT" tomans).
type Request struct {
	Amount      int64
	Currency    string
	Description string
	CallbackURL string
	Mobile      string
	Email       string
}

// Payment is an opened payment waiting for the payer.
type Payment struct {
	Authority string
	URL       string
	Fee       int64
}

// Verification is the outcome of a successful verify call.
type Verification struct {
	RefID           int64
	CardPan         string
	AlreadyVerified bool
}

type requestBody struct {
	MerchantID  string            `json:"merchant_id"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency,omitempty"`
	Description string            `json:"description"`
	CallbackURL string            `json:"callback_url"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type verifyBody struct {
	MerchantID string `json:"merchant_id"`
	Amount     int64  `json:"amount"`
	Authority  string `json:"authority"`
}

type envelope[T any] struct {
	Data   T               `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

type requestData struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Authority string `json:"authority"`
	Fee       int64  `json:"fee"`
}

type verifyData struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	RefID   int64  `json:"ref_id"`
	CardPan string `json:"card_pan"`
}

// RequestPayment opens a payment and returns its authority and the page the
// payer is sent to.
func (c *Client) RequestPayment(ctx context.Context, r Request) (*Payment, error) {
	body := requestBody{
		MerchantID:  c.merchantID,
		Amount:      r.Amount,
		Currency:    r.Currency,
		Description: r.Description,
		CallbackURL: r.CallbackURL,
		Metadata:    metadata(r),
	}

	var resp envelope[requestData]
	if err := c.call(ctx, "request", body, &resp); err != nil {
		return nil, fmt.Errorf("zarinpal request: %w", err)
	}
	if resp.Data.Code != codeOK {
		return nil, codeError(resp.Data.Code, resp.Data.Message)
	}
	if resp.Data.Authority == "" {
		return nil, ErrUnexpectedResponse
	}

	return &Payment{
		Authority: resp.Data.Authority,
		URL:       c.startPayURL + resp.Data.Authority,
		Fee:       resp.Data.Fee,
	}, nil
}

func metadata(r Request) map[string]string {
	meta := map[string]string{}
	if r.Mobile != "" {
		meta["mobile"] = r.Mobile
	}
	if r.Email != "" {
		meta["email"] = r.Email
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

// VerifyPayment confirms the payment behind authority once the payer is back
// from the gateway. A repeated verify (code 101) still counts as success.
func (c *Client) VerifyPayment(ctx context.Context, authority string, amount int64) (*Verification, error) {
	body := verifyBody{MerchantID: c.merchantID, Amount: amount, Authority: authority}

	var resp envelope[verifyData]
	if err := c.call(ctx, "verify", body, &resp); err != nil {
		return nil, fmt.Errorf("zarinpal verify: %w", err)
	}

	switch resp.Data.Code {
	case codeOK, codeAlreadyVerified:
		return &Verification{
			RefID:           resp.Data.RefID,
			CardPan:         resp.Data.CardPan,
			AlreadyVerified: resp.Data.Code == codeAlreadyVerified,
		}, nil
	default:
		return nil, codeError(resp.Data.Code, resp.Data.Message)
	}
}

func (c *Client) call(ctx context.Context, op string, body, out any) error {
	ctx, span := c.tracer.Start(ctx, "zarinpal."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("payment.gateway", "zarinpal")),
	)
	defer span.End()

	err := c.post(ctx, c.baseURL+op+".json", body, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, op)
	}
	return err
}

func (c *Client) post(ctx context.Context, url string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response (status %d): %w", res.StatusCode, err)
	}
	return nil
}
