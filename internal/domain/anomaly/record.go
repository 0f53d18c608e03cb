package anomaly

import (
	"github.com/retailrecon/backend/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// Kind classifies a reported deviation from expected invariants.
// An anomaly is a finding about the underlying data, not a failure of
// the system; records are a report, never authoritative state.
type Kind string

const (
	// KindUnitPriceInconsistency: the same (SKU, date, location)
	// disagrees on unit price. Whether the variance is quantity-tier
	// pricing or an error is left to human review.
	KindUnitPriceInconsistency Kind = "UNIT_PRICE_INCONSISTENCY"
	// KindDeliveryRatioOutlier: delivery charge at or above the
	// configured percentage of the invoice base price.
	KindDeliveryRatioOutlier Kind = "DELIVERY_RATIO_OUTLIER"
	// KindDeliveryChargeMismatch: lines of one invoice carried
	// different delivery charges; the reconciler kept the maximum.
	KindDeliveryChargeMismatch Kind = "DELIVERY_CHARGE_MISMATCH"
	// KindZeroBasePrice: invoice with zero base price, excluded from
	// ratio statistics because the ratio is undefined.
	KindZeroBasePrice Kind = "ZERO_BASE_PRICE"
	// KindFreeDeliveryGroup: a (category, location) group whose lines
	// all carry a zero delivery charge. Surfaced without asserting
	// whether it is policy or incidental to non-physical goods.
	KindFreeDeliveryGroup Kind = "FREE_DELIVERY_GROUP"
)

// IsValid checks if the kind is a known anomaly kind
func (k Kind) IsValid() bool {
	switch k {
	case KindUnitPriceInconsistency, KindDeliveryRatioOutlier,
		KindDeliveryChargeMismatch, KindZeroBasePrice, KindFreeDeliveryGroup:
		return true
	}
	return false
}

// String returns the string representation of Kind
func (k Kind) String() string {
	return string(k)
}

// PriceObservation is one observed pricing of a SKU within a
// (SKU, date, location) group.
type PriceObservation struct {
	UnitPrice    decimal.Decimal
	Quantity     int64
	CouponStatus pricing.CouponStatus
}

// Record is a reported anomaly with the minimal evidence needed to
// act on it: the subject key, the observed values, and the threshold
// or comparison basis that triggered the report.
type Record struct {
	Kind       Kind
	SubjectKey string            // transaction id or group key
	Observed   []decimal.Decimal // observed monetary values
	Threshold  decimal.Decimal   // comparison basis, zero when n/a
	// Observations carries the full per-line evidence for unit price
	// inconsistency groups; empty for other kinds.
	Observations []PriceObservation
	Detail       string
}
