package anomaly

import (
	"fmt"

	"github.com/retailrecon/backend/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DefaultRatioThresholdPct flags invoices whose delivery charge is at
// least this percentage of the base price.
var DefaultRatioThresholdPct = decimal.NewFromInt(100)

// Scanner runs read-only scans over the canonical invoice/line model.
// The scans are independent of each other and may run concurrently
// against the same immutable inputs. Emitted records follow the
// insertion order of the grouping keys as encountered; callers must
// not rely on a specific order.
type Scanner struct {
	ratioThresholdPct decimal.Decimal
}

// ScannerOption is a functional option for Scanner configuration
type ScannerOption func(*Scanner)

// WithRatioThresholdPct sets the delivery-to-price ratio threshold
func WithRatioThresholdPct(pct decimal.Decimal) ScannerOption {
	return func(s *Scanner) {
		if pct.IsPositive() {
			s.ratioThresholdPct = pct
		}
	}
}

// NewScanner creates a scanner with the default ratio threshold of 100%
func NewScanner(opts ...ScannerOption) *Scanner {
	s := &Scanner{ratioThresholdPct: DefaultRatioThresholdPct}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RatioThresholdPct returns the configured threshold
func (s *Scanner) RatioThresholdPct() decimal.Decimal {
	return s.ratioThresholdPct
}

type priceGroup struct {
	key          string
	observations []PriceObservation
	distinct     map[string]struct{}
	prices       []decimal.Decimal
}

// ScanPriceConsistency groups raw lines by (SKU, transaction date,
// location) and emits one record per group that disagrees on unit
// price, listing all observed prices, quantities and coupon statuses.
// It reports the fact only; it does not judge legitimacy.
func (s *Scanner) ScanPriceConsistency(lines []pricing.LineItem) []Record {
	groups := make(map[string]*priceGroup)
	order := make([]string, 0)

	for _, line := range lines {
		key := fmt.Sprintf("%s|%s|%s", line.SKU, line.TransactionDate.Format("2006-01-02"), line.Location)
		g, ok := groups[key]
		if !ok {
			g = &priceGroup{key: key, distinct: make(map[string]struct{})}
			groups[key] = g
			order = append(order, key)
		}
		g.observations = append(g.observations, PriceObservation{
			UnitPrice:    line.UnitPrice,
			Quantity:     line.Quantity,
			CouponStatus: line.CouponStatus,
		})
		pk := line.UnitPrice.String()
		if _, seen := g.distinct[pk]; !seen {
			g.distinct[pk] = struct{}{}
			g.prices = append(g.prices, line.UnitPrice)
		}
	}

	records := make([]Record, 0)
	for _, key := range order {
		g := groups[key]
		if len(g.prices) <= 1 {
			continue
		}
		records = append(records, Record{
			Kind:         KindUnitPriceInconsistency,
			SubjectKey:   g.key,
			Observed:     g.prices,
			Observations: g.observations,
			Detail:       fmt.Sprintf("%d distinct unit prices across %d lines", len(g.prices), len(g.observations)),
		})
	}
	return records
}

// ScanDeliveryRatio reports invoices whose delivery-to-base-price
// ratio meets or exceeds the threshold. Invoices with a zero base
// price are never divided; they are reported under the distinct
// zero-base-price kind instead.
func (s *Scanner) ScanDeliveryRatio(invoices []pricing.Invoice) []Record {
	records := make([]Record, 0)
	for i := range invoices {
		inv := &invoices[i]
		ratio, ok := inv.DeliveryRatioPct()
		if !ok {
			records = append(records, Record{
				Kind:       KindZeroBasePrice,
				SubjectKey: inv.TransactionID,
				Observed:   []decimal.Decimal{inv.DeliveryCharge},
				Detail:     "invoice base price is zero; delivery ratio undefined",
			})
			continue
		}
		if ratio.GreaterThanOrEqual(s.ratioThresholdPct) {
			records = append(records, Record{
				Kind:       KindDeliveryRatioOutlier,
				SubjectKey: inv.TransactionID,
				Observed:   []decimal.Decimal{ratio.Round(2), inv.DeliveryCharge, inv.BasePrice},
				Threshold:  s.ratioThresholdPct,
				Detail:     fmt.Sprintf("delivery charge is %s%% of base price", ratio.Round(2)),
			})
		}
	}
	return records
}

// ScanDeliveryInconsistency reports invoices whose lines disagreed on
// the duplicated delivery charge, carrying every distinct observed
// value alongside the canonical maximum the reconciler kept.
func (s *Scanner) ScanDeliveryInconsistency(invoices []pricing.Invoice) []Record {
	records := make([]Record, 0)
	for i := range invoices {
		inv := &invoices[i]
		if inv.DeliveryConsistent {
			continue
		}
		records = append(records, Record{
			Kind:       KindDeliveryChargeMismatch,
			SubjectKey: inv.TransactionID,
			Observed:   inv.ObservedDeliveries,
			Threshold:  inv.DeliveryCharge, // canonical value kept
			Detail:     fmt.Sprintf("%d distinct delivery charges; kept maximum %s", len(inv.ObservedDeliveries), inv.DeliveryCharge),
		})
	}
	return records
}

// ScanFreeDelivery surfaces (category, location) groups whose lines
// all carry a zero delivery charge, without asserting a cause.
func (s *Scanner) ScanFreeDelivery(lines []pricing.LineItem) []Record {
	allZero := make(map[string]bool)
	counts := make(map[string]int)
	order := make([]string, 0)

	for _, line := range lines {
		key := fmt.Sprintf("%s|%s", line.Category, line.Location)
		if _, seen := allZero[key]; !seen {
			allZero[key] = true
			order = append(order, key)
		}
		counts[key]++
		if !line.DeliveryCharge.IsZero() {
			allZero[key] = false
		}
	}

	records := make([]Record, 0)
	for _, key := range order {
		if !allZero[key] {
			continue
		}
		records = append(records, Record{
			Kind:       KindFreeDeliveryGroup,
			SubjectKey: key,
			Observed:   []decimal.Decimal{decimal.Zero},
			Detail:     fmt.Sprintf("all %d lines in group have zero delivery charge", counts[key]),
		})
	}
	return records
}
