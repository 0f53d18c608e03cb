package pricing

import (
	"sort"

	"github.com/retailrecon/backend/internal/domain/shared"
	"github.com/retailrecon/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// RejectedLine pairs a malformed line item with the reason it was
// excluded from aggregation. Rejection is per-record; it never aborts
// the remaining transactions.
type RejectedLine struct {
	Line   LineItem
	Reason *shared.DomainError
}

// Reconciler consolidates raw line items into canonical invoices.
// It has no state between invocations: calling Reconcile twice on
// identical inputs produces identical output.
type Reconciler struct {
	resolver  *ReferenceResolver
	precision int32
}

// ReconcilerOption is a functional option for Reconciler configuration
type ReconcilerOption func(*Reconciler)

// WithPrecision sets the currency reporting precision (decimal places)
func WithPrecision(p int32) ReconcilerOption {
	return func(r *Reconciler) {
		if p >= 0 {
			r.precision = p
		}
	}
}

// NewReconciler creates a reconciler over the given reference resolver
func NewReconciler(resolver *ReferenceResolver, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		resolver:  resolver,
		precision: valueobject.DefaultPrecision,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Precision returns the configured reporting precision
func (r *Reconciler) Precision() int32 {
	return r.precision
}

// Reconcile groups lines by exact transaction id, computes per-line
// and per-invoice monetary breakdowns, and validates invoice-level
// consistency. Invoices are emitted sorted by transaction id so the
// operation is deterministic for identical inputs.
func (r *Reconciler) Reconcile(lines []LineItem) ([]Invoice, []RejectedLine) {
	groups := make(map[string][]LineItem)
	order := make([]string, 0)
	rejected := make([]RejectedLine, 0)

	for _, line := range lines {
		if derr := line.Validate(); derr != nil {
			rejected = append(rejected, RejectedLine{Line: line, Reason: derr})
			continue
		}
		if _, seen := groups[line.TransactionID]; !seen {
			order = append(order, line.TransactionID)
		}
		groups[line.TransactionID] = append(groups[line.TransactionID], line)
	}

	sort.Strings(order)
	invoices := make([]Invoice, 0, len(order))
	for _, txID := range order {
		invoices = append(invoices, r.buildInvoice(txID, groups[txID]))
	}
	return invoices, rejected
}

// ReconcileGroup builds the invoice for a single pre-grouped
// transaction. All lines must share the transaction id; the caller
// (the partitioned run in the application layer) guarantees this.
func (r *Reconciler) ReconcileGroup(txID string, lines []LineItem) Invoice {
	return r.buildInvoice(txID, lines)
}

func (r *Reconciler) buildInvoice(txID string, lines []LineItem) Invoice {
	inv := Invoice{
		TransactionID:      txID,
		Lines:              make([]InvoiceLine, 0, len(lines)),
		BasePrice:          decimal.Zero,
		DiscountEffect:     decimal.Zero,
		PriceAfterDiscount: decimal.Zero,
		TaxEffect:          decimal.Zero,
		PriceAfterTax:      decimal.Zero,
		DeliveryConsistent: true,
		Precision:          r.precision,
	}

	seenDelivery := make(map[string]struct{})
	maxDelivery := decimal.Zero
	for _, item := range lines {
		line := r.priceLine(item)
		inv.Lines = append(inv.Lines, line)

		inv.BasePrice = inv.BasePrice.Add(line.LineBase)
		inv.DiscountEffect = inv.DiscountEffect.Add(line.LineDiscount)
		inv.PriceAfterDiscount = inv.PriceAfterDiscount.Add(line.PriceAfterDiscount)
		inv.TaxEffect = inv.TaxEffect.Add(line.LineTax)
		inv.PriceAfterTax = inv.PriceAfterTax.Add(line.PriceAfterTax)

		key := item.DeliveryCharge.String()
		if _, ok := seenDelivery[key]; !ok {
			seenDelivery[key] = struct{}{}
			inv.ObservedDeliveries = append(inv.ObservedDeliveries, item.DeliveryCharge)
		}
		if item.DeliveryCharge.GreaterThan(maxDelivery) {
			maxDelivery = item.DeliveryCharge
		}
	}

	// The delivery charge is invoice-level data duplicated on every
	// line. One distinct value is canonical; disagreement is a
	// data-consistency violation resolved deterministically to the
	// maximum and surfaced, never averaged or summed away.
	if len(inv.ObservedDeliveries) == 1 {
		inv.DeliveryCharge = inv.ObservedDeliveries[0]
	} else if len(inv.ObservedDeliveries) > 1 {
		inv.DeliveryCharge = maxDelivery
		inv.DeliveryConsistent = false
	}

	inv.FinalPrice = inv.PriceAfterTax.Round(r.precision).Add(inv.DeliveryCharge)
	return inv
}

// priceLine computes the monetary breakdown for one line. Tax applies
// to the post-discount amount; intermediate values stay unrounded.
func (r *Reconciler) priceLine(item LineItem) InvoiceLine {
	base := item.BaseAmount()
	discountRate := r.resolver.ResolveDiscount(item.Category, item.Month(), item.CouponStatus)
	discount := base.Mul(discountRate)
	afterDiscount := base.Sub(discount)
	taxRate := r.resolver.ResolveTax(item.Category)
	tax := afterDiscount.Mul(taxRate)

	return InvoiceLine{
		Item:               item,
		LineBase:           base,
		DiscountRate:       discountRate,
		LineDiscount:       discount,
		PriceAfterDiscount: afterDiscount,
		TaxRate:            taxRate,
		LineTax:            tax,
		PriceAfterTax:      afterDiscount.Add(tax),
	}
}
