package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Alijeyrad/simorq_booking/pkg/docstore"
	"github.com/Alijeyrad/simorq_booking/pkg/util/codes"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// CriteriaType is the eligibility rule family a discount code enforces.
type CriteriaType string

const (
	CriteriaAll             CriteriaType = "all"
	CriteriaService         CriteriaType = "service"
	CriteriaCategory        CriteriaType = "category"
	CriteriaMinimumAmount   CriteriaType = "minimum_amount"
	CriteriaReturningClient CriteriaType = "returning_client"
)

type DiscountCode struct {
	ID            string       `json:"id,omitempty" yaml:"id"`
	Code          string       `json:"code" yaml:"code"`
	DiscountType  DiscountType `json:"discountType" yaml:"discount_type"`
	DiscountValue float64      `json:"discountValue" yaml:"discount_value"`
	IsActive      bool         `json:"isActive" yaml:"is_active"`
	// UsageLimit of nil or <= 0 means unlimited.
	UsageLimit *int64     `json:"usageLimit,omitempty" yaml:"usage_limit"`
	UsageCount int64      `json:"usageCount" yaml:"usage_count"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty" yaml:"expires_at"`

	CriteriaType        CriteriaType `json:"criteriaType" yaml:"criteria_type"`
	ServiceID           string       `json:"serviceId,omitempty" yaml:"service_id"`
	ServiceName         string       `json:"serviceName,omitempty" yaml:"service_name"`
	CategorySlug        string       `json:"categorySlug,omitempty" yaml:"category_slug"`
	MinimumAmount       float64      `json:"minimumAmount,omitempty" yaml:"minimum_amount"`
	MinimumAppointments int64        `json:"minimumAppointments,omitempty" yaml:"minimum_appointments"`
}

// LimitReached reports whether the usage limit is set and exhausted.
func (d DiscountCode) LimitReached() bool {
	return d.UsageLimit != nil && *d.UsageLimit > 0 && d.UsageCount >= *d.UsageLimit
}

// FindDiscountCode looks a code up by exact match on its canonical form.
func (c *Client) FindDiscountCode(ctx context.Context, code string) (*DiscountCode, error) {
	snaps, err := c.store.Where(ctx, colDiscountCodes, "code", codes.NormalizeCode(code))
	if err != nil {
		return nil, fmt.Errorf("find discount code: %w", err)
	}
	if len(snaps) == 0 {
		return nil, docstore.ErrNotFound
	}
	var d DiscountCode
	if err := snaps[0].Decode(&d); err != nil {
		return nil, err
	}
	d.ID = snaps[0].ID()
	return &d, nil
}

// RedeemDiscountCode adds one use to the code, refusing to pass its limit.
func (c *Client) RedeemDiscountCode(ctx context.Context, id string) (int64, error) {
	n, err := c.store.IncrementWithin(ctx, docstore.Path(colDiscountCodes, id), "usageCount", "usageLimit")
	if err != nil {
		return 0, fmt.Errorf("redeem discount code: %w", err)
	}
	return n, nil
}

func (c *Client) PutDiscountCode(ctx context.Context, d DiscountCode) error {
	d.Code = codes.NormalizeCode(d.Code)
	return c.store.Set(ctx, docstore.Path(colDiscountCodes, d.ID), d)
}
