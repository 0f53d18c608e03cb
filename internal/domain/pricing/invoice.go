package pricing

import (
	"github.com/shopspring/decimal"
)

// InvoiceLine is one contributing line with its full monetary
// breakdown. Tax is computed on the post-discount amount, never on
// the base amount.
type InvoiceLine struct {
	Item               LineItem
	LineBase           decimal.Decimal
	DiscountRate       decimal.Decimal
	LineDiscount       decimal.Decimal
	PriceAfterDiscount decimal.Decimal
	TaxRate            decimal.Decimal
	LineTax            decimal.Decimal
	PriceAfterTax      decimal.Decimal
}

// Invoice is the canonical aggregate of all line items sharing one
// transaction id. It is built once per reconciliation pass, immutable
// once emitted, and re-derivable idempotently from the same inputs.
//
// All aggregate amounts are carried unrounded; rounding to the
// reporting precision happens only where a value leaves the system.
// FinalPrice is the exception: by contract it equals
// round(PriceAfterTax, precision) + DeliveryCharge exactly.
type Invoice struct {
	TransactionID      string
	Lines              []InvoiceLine
	BasePrice          decimal.Decimal
	DiscountEffect     decimal.Decimal
	PriceAfterDiscount decimal.Decimal
	TaxEffect          decimal.Decimal
	PriceAfterTax      decimal.Decimal
	// DeliveryCharge is the single canonical charge for the invoice.
	// When the source lines disagree it is the maximum observed value
	// and DeliveryConsistent is false.
	DeliveryCharge     decimal.Decimal
	ObservedDeliveries []decimal.Decimal // distinct values, input order
	DeliveryConsistent bool
	FinalPrice         decimal.Decimal
	Precision          int32
}

// LineCount returns the number of contributing lines
func (inv *Invoice) LineCount() int {
	return len(inv.Lines)
}

// HasZeroBase reports whether the invoice's base price is zero, which
// excludes it from delivery-ratio statistics (the ratio is undefined,
// not infinite).
func (inv *Invoice) HasZeroBase() bool {
	return inv.BasePrice.IsZero()
}

// Conserved verifies the invoice-level conservation invariant:
// FinalPrice == round(PriceAfterTax, precision) + DeliveryCharge.
func (inv *Invoice) Conserved() bool {
	return inv.FinalPrice.Equal(inv.PriceAfterTax.Round(inv.Precision).Add(inv.DeliveryCharge))
}

// DeliveryRatioPct returns delivery charge as a percentage of base
// price. The second return is false when the base price is zero and
// the ratio is undefined.
func (inv *Invoice) DeliveryRatioPct() (decimal.Decimal, bool) {
	if inv.BasePrice.IsZero() {
		return decimal.Zero, false
	}
	return inv.DeliveryCharge.Mul(hundred).Div(inv.BasePrice), true
}
