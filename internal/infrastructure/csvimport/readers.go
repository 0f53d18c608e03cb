package csvimport

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/retailrecon/backend/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// RowError describes why one CSV row was rejected. Rejection is
// per-row; a bad row never aborts the rest of the file.
type RowError struct {
	Line    int    `json:"line"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d, field %s: %s", e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Line, e.Message)
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "2006-01-02T15:04:05Z07:00"}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parseMonth(s string) (time.Month, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= 12 {
			return time.Month(n), nil
		}
		return 0, fmt.Errorf("month %d out of range", n)
	}
	for _, layout := range []string{"Jan", "January"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Month(), nil
		}
	}
	return 0, fmt.Errorf("unrecognized month %q", s)
}

func parseCouponStatus(s string) (pricing.CouponStatus, error) {
	switch strings.ToLower(strings.ReplaceAll(s, " ", "_")) {
	case "used":
		return pricing.CouponUsed, nil
	case "not_used", "notused", "":
		return pricing.CouponNotUsed, nil
	}
	return "", fmt.Errorf("unrecognized coupon status %q", s)
}

// ReadLineItems parses line item rows. Malformed rows are collected
// as RowErrors and skipped; the returned error is reserved for
// stream-level failures (bad header, unreadable input).
func ReadLineItems(r io.Reader) ([]pricing.LineItem, []RowError, error) {
	p, err := NewParser(r)
	if err != nil {
		return nil, nil, err
	}

	items := make([]pricing.LineItem, 0)
	rowErrs := make([]RowError, 0)
	for {
		row, err := p.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: p.line, Message: err.Error()})
			continue
		}
		if row.IsEmpty() {
			continue
		}

		item, rerr := lineItemFromRow(row)
		if rerr != nil {
			rowErrs = append(rowErrs, *rerr)
			continue
		}
		if derr := item.Validate(); derr != nil {
			rowErrs = append(rowErrs, RowError{Line: row.Line, Message: derr.Message})
			continue
		}
		items = append(items, item)
	}
	return items, rowErrs, nil
}

func lineItemFromRow(row *Row) (pricing.LineItem, *RowError) {
	date, err := parseDate(row.Get("transaction_date"))
	if err != nil {
		return pricing.LineItem{}, &RowError{Line: row.Line, Field: "transaction_date", Message: err.Error()}
	}
	qty, err := strconv.ParseInt(row.Get("quantity"), 10, 64)
	if err != nil {
		return pricing.LineItem{}, &RowError{Line: row.Line, Field: "quantity", Message: "not an integer"}
	}
	unitPrice, err := decimal.NewFromString(row.Get("unit_price"))
	if err != nil {
		return pricing.LineItem{}, &RowError{Line: row.Line, Field: "unit_price", Message: "not a decimal"}
	}
	delivery := decimal.Zero
	if v := row.Get("delivery_charge"); v != "" {
		delivery, err = decimal.NewFromString(v)
		if err != nil {
			return pricing.LineItem{}, &RowError{Line: row.Line, Field: "delivery_charge", Message: "not a decimal"}
		}
	}
	status, err := parseCouponStatus(row.Get("coupon_status"))
	if err != nil {
		return pricing.LineItem{}, &RowError{Line: row.Line, Field: "coupon_status", Message: err.Error()}
	}

	return pricing.LineItem{
		CustomerID:      row.Get("customer_id"),
		TransactionID:   row.Get("transaction_id"),
		TransactionDate: date,
		Category:        row.Get("product_category"),
		Description:     row.Get("product_description"),
		SKU:             row.Get("product_sku"),
		Quantity:        qty,
		UnitPrice:       unitPrice,
		DeliveryCharge:  delivery,
		CouponStatus:    status,
		Location:        row.Get("location"),
	}, nil
}

// ReadDiscountRules parses discount schedule rows
func ReadDiscountRules(r io.Reader) ([]pricing.DiscountRule, []RowError, error) {
	p, err := NewParser(r)
	if err != nil {
		return nil, nil, err
	}

	rules := make([]pricing.DiscountRule, 0)
	rowErrs := make([]RowError, 0)
	for {
		row, err := p.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: p.line, Message: err.Error()})
			continue
		}
		if row.IsEmpty() {
			continue
		}

		month, merr := parseMonth(row.Get("month"))
		if merr != nil {
			rowErrs = append(rowErrs, RowError{Line: row.Line, Field: "month", Message: merr.Error()})
			continue
		}
		pct, perr := decimal.NewFromString(row.Get("discount_pct"))
		if perr != nil {
			rowErrs = append(rowErrs, RowError{Line: row.Line, Field: "discount_pct", Message: "not a decimal"})
			continue
		}
		rule, derr := pricing.NewDiscountRule(row.Get("product_category"), month, row.Get("coupon_code"), pct)
		if derr != nil {
			rowErrs = append(rowErrs, RowError{Line: row.Line, Message: derr.Error()})
			continue
		}
		rules = append(rules, rule)
	}
	return rules, rowErrs, nil
}

// ReadTaxRates parses tax table rows
func ReadTaxRates(r io.Reader) ([]pricing.TaxRate, []RowError, error) {
	p, err := NewParser(r)
	if err != nil {
		return nil, nil, err
	}

	rates := make([]pricing.TaxRate, 0)
	rowErrs := make([]RowError, 0)
	for {
		row, err := p.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: p.line, Message: err.Error()})
			continue
		}
		if row.IsEmpty() {
			continue
		}

		pct, perr := decimal.NewFromString(row.Get("gst_pct"))
		if perr != nil {
			rowErrs = append(rowErrs, RowError{Line: row.Line, Field: "gst_pct", Message: "not a decimal"})
			continue
		}
		rate, derr := pricing.NewTaxRate(row.Get("product_category"), pct)
		if derr != nil {
			rowErrs = append(rowErrs, RowError{Line: row.Line, Message: derr.Error()})
			continue
		}
		rates = append(rates, rate)
	}
	return rates, rowErrs, nil
}
