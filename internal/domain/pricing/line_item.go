package pricing

import (
	"time"

	"github.com/retailrecon/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CouponStatus indicates whether a coupon was actively applied on a line
type CouponStatus string

const (
	CouponUsed    CouponStatus = "used"
	CouponNotUsed CouponStatus = "not_used"
)

// IsValid checks if the status is a valid CouponStatus
func (s CouponStatus) IsValid() bool {
	return s == CouponUsed || s == CouponNotUsed
}

// String returns the string representation of CouponStatus
func (s CouponStatus) String() string {
	return string(s)
}

// LineItem is one raw transaction row referencing a single product
// within an invoice. It is sourced externally and never mutated.
//
// DeliveryCharge is semantically invoice-level but arrives duplicated
// on every line of the same transaction; the reconciler is responsible
// for collapsing it to a single canonical value.
type LineItem struct {
	CustomerID      string
	TransactionID   string
	TransactionDate time.Time
	Category        string
	Description     string
	SKU             string
	Quantity        int64
	UnitPrice       decimal.Decimal
	DeliveryCharge  decimal.Decimal
	CouponStatus    CouponStatus
	Location        string
}

// Validate checks the structural constraints a line must satisfy
// before it may enter aggregation. A violation is a MalformedRecord:
// the line is rejected individually, never the whole batch.
func (l LineItem) Validate() *shared.DomainError {
	if l.TransactionID == "" {
		return shared.NewDomainError("MISSING_TRANSACTION_ID", "Line item has no transaction id")
	}
	if l.Quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if l.UnitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_UNIT_PRICE", "Unit price cannot be negative")
	}
	if l.DeliveryCharge.IsNegative() {
		return shared.NewDomainError("INVALID_DELIVERY_CHARGE", "Delivery charge cannot be negative")
	}
	if !l.CouponStatus.IsValid() {
		return shared.NewDomainError("INVALID_COUPON_STATUS", "Coupon status must be used or not_used")
	}
	return nil
}

// BaseAmount returns quantity * unit price, unrounded
func (l LineItem) BaseAmount() decimal.Decimal {
	return decimal.NewFromInt(l.Quantity).Mul(l.UnitPrice)
}

// Month returns the calendar month the line's transaction falls in,
// used to match discount rule periods.
func (l LineItem) Month() time.Month {
	return l.TransactionDate.Month()
}
