package pricing

import (
	"time"

	"github.com/retailrecon/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DiscountRule grants a percentage discount for a product category
// during one calendar month, contingent on a coupon being used.
// Multiple rules may exist for the same (category, month); the
// resolver applies a deterministic tie-break.
type DiscountRule struct {
	Category    string
	Month       time.Month
	CouponCode  string
	DiscountPct decimal.Decimal // 0-100
}

// NewDiscountRule creates a validated discount rule
func NewDiscountRule(category string, month time.Month, couponCode string, discountPct decimal.Decimal) (DiscountRule, error) {
	if category == "" {
		return DiscountRule{}, shared.NewDomainError("INVALID_CATEGORY", "Discount rule category cannot be empty")
	}
	if month < time.January || month > time.December {
		return DiscountRule{}, shared.NewDomainError("INVALID_MONTH", "Discount rule month must be a calendar month")
	}
	if discountPct.IsNegative() || discountPct.GreaterThan(hundred) {
		return DiscountRule{}, shared.NewDomainError("INVALID_DISCOUNT_PCT", "Discount percentage must be between 0 and 100")
	}
	return DiscountRule{
		Category:    category,
		Month:       month,
		CouponCode:  couponCode,
		DiscountPct: discountPct,
	}, nil
}

// Rate returns the discount as a fraction in [0,1]
func (r DiscountRule) Rate() decimal.Decimal {
	return r.DiscountPct.Div(hundred)
}
