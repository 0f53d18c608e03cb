package dto

import (
	"github.com/shopspring/decimal"

	"github.com/retailrecon/backend/internal/application/reconciliation"
	"github.com/retailrecon/backend/internal/domain/anomaly"
	"github.com/retailrecon/backend/internal/domain/pricing"
	"github.com/retailrecon/backend/internal/domain/shared/valueobject"
)

// RunRequest tunes a single reconciliation pass. Omitted fields fall
// back to the configured service defaults.
type RunRequest struct {
	RatioThresholdPct string `json:"ratio_threshold_pct" binding:"omitempty,decimalgt0"`
	Workers           int    `json:"workers" binding:"omitempty,min=1,max=256"`
}

// RunResponse summarizes one reconciliation pass
type RunResponse struct {
	InvoiceCount  int                    `json:"invoice_count"`
	LinesRead     int                    `json:"lines_read"`
	RejectedLines []RejectedLineResponse `json:"rejected_lines,omitempty"`
	AnomalyCount  int                    `json:"anomaly_count"`
	AmbiguousRefs int                    `json:"ambiguous_refs"`
}

// RejectedLineResponse reports one line excluded from aggregation
type RejectedLineResponse struct {
	TransactionID string `json:"transaction_id"`
	SKU           string `json:"sku,omitempty"`
	Code          string `json:"code"`
	Reason        string `json:"reason"`
}

// InvoiceLineResponse is one contributing line with its monetary breakdown.
// Amounts are rendered at the invoice's reporting precision.
type InvoiceLineResponse struct {
	SKU                string `json:"sku,omitempty"`
	Category           string `json:"category"`
	Description        string `json:"description,omitempty"`
	Quantity           int64  `json:"quantity"`
	UnitPrice          string `json:"unit_price"`
	CouponStatus       string `json:"coupon_status"`
	LineBase           string `json:"line_base"`
	DiscountRate       string `json:"discount_rate"`
	LineDiscount       string `json:"line_discount"`
	PriceAfterDiscount string `json:"price_after_discount"`
	TaxRate            string `json:"tax_rate"`
	LineTax            string `json:"line_tax"`
	PriceAfterTax      string `json:"price_after_tax"`
}

// InvoiceResponse is the canonical invoice view
type InvoiceResponse struct {
	TransactionID      string                `json:"transaction_id"`
	Currency           string                `json:"currency"`
	BasePrice          string                `json:"base_price"`
	DiscountEffect     string                `json:"discount_effect"`
	PriceAfterDiscount string                `json:"price_after_discount"`
	TaxEffect          string                `json:"tax_effect"`
	PriceAfterTax      string                `json:"price_after_tax"`
	DeliveryCharge     string                `json:"delivery_charge"`
	ObservedDeliveries []string              `json:"observed_deliveries,omitempty"`
	DeliveryConsistent bool                  `json:"delivery_consistent"`
	FinalPrice         string                `json:"final_price"`
	LineCount          int                   `json:"line_count"`
	Lines              []InvoiceLineResponse `json:"lines,omitempty"`
}

// AnomalyResponse is one anomaly finding
type AnomalyResponse struct {
	Kind         string                     `json:"kind"`
	SubjectKey   string                     `json:"subject_key"`
	Observed     []string                   `json:"observed,omitempty"`
	Threshold    string                     `json:"threshold,omitempty"`
	Observations []PriceObservationResponse `json:"observations,omitempty"`
	Detail       string                     `json:"detail,omitempty"`
}

// PriceObservationResponse is one piece of unit price evidence
type PriceObservationResponse struct {
	UnitPrice    string `json:"unit_price"`
	Quantity     int64  `json:"quantity"`
	CouponStatus string `json:"coupon_status"`
}

// renderMoney formats an amount at the reporting precision. Amounts
// cross the reporting boundary as Money so rounding and currency
// travel together.
func renderMoney(amount decimal.Decimal, p int32) string {
	m := valueobject.NewMoneyINR(amount).Round(p)
	return m.Amount().StringFixed(p)
}

// InvoiceResponseFromDomain renders a canonical invoice. Aggregates
// are carried unrounded internally; this is the reporting boundary
// where they are rounded to the invoice precision.
func InvoiceResponseFromDomain(inv *pricing.Invoice, withLines bool) InvoiceResponse {
	p := inv.Precision
	resp := InvoiceResponse{
		TransactionID:      inv.TransactionID,
		Currency:           string(valueobject.NewMoneyINR(inv.FinalPrice).Currency()),
		BasePrice:          renderMoney(inv.BasePrice, p),
		DiscountEffect:     renderMoney(inv.DiscountEffect, p),
		PriceAfterDiscount: renderMoney(inv.PriceAfterDiscount, p),
		TaxEffect:          renderMoney(inv.TaxEffect, p),
		PriceAfterTax:      renderMoney(inv.PriceAfterTax, p),
		DeliveryCharge:     renderMoney(inv.DeliveryCharge, p),
		DeliveryConsistent: inv.DeliveryConsistent,
		FinalPrice:         renderMoney(inv.FinalPrice, p),
		LineCount:          inv.LineCount(),
	}
	if !inv.DeliveryConsistent {
		for _, d := range inv.ObservedDeliveries {
			resp.ObservedDeliveries = append(resp.ObservedDeliveries, renderMoney(d, p))
		}
	}
	if withLines {
		resp.Lines = make([]InvoiceLineResponse, 0, len(inv.Lines))
		for _, line := range inv.Lines {
			resp.Lines = append(resp.Lines, InvoiceLineResponse{
				SKU:                line.Item.SKU,
				Category:           line.Item.Category,
				Description:        line.Item.Description,
				Quantity:           line.Item.Quantity,
				UnitPrice:          renderMoney(line.Item.UnitPrice, p),
				CouponStatus:       line.Item.CouponStatus.String(),
				LineBase:           renderMoney(line.LineBase, p),
				DiscountRate:       line.DiscountRate.String(),
				LineDiscount:       renderMoney(line.LineDiscount, p),
				PriceAfterDiscount: renderMoney(line.PriceAfterDiscount, p),
				TaxRate:            line.TaxRate.String(),
				LineTax:            renderMoney(line.LineTax, p),
				PriceAfterTax:      renderMoney(line.PriceAfterTax, p),
			})
		}
	}
	return resp
}

// AnomalyResponseFromDomain renders one anomaly record
func AnomalyResponseFromDomain(rec anomaly.Record) AnomalyResponse {
	resp := AnomalyResponse{
		Kind:       string(rec.Kind),
		SubjectKey: rec.SubjectKey,
		Detail:     rec.Detail,
	}
	for _, v := range rec.Observed {
		resp.Observed = append(resp.Observed, v.String())
	}
	if !rec.Threshold.IsZero() {
		resp.Threshold = rec.Threshold.String()
	}
	for _, obs := range rec.Observations {
		resp.Observations = append(resp.Observations, PriceObservationResponse{
			UnitPrice:    obs.UnitPrice.String(),
			Quantity:     obs.Quantity,
			CouponStatus: obs.CouponStatus.String(),
		})
	}
	return resp
}

// RunResponseFromResult summarizes a reconciliation pass
func RunResponseFromResult(result *reconciliation.RunResult) RunResponse {
	resp := RunResponse{
		InvoiceCount:  len(result.Invoices),
		LinesRead:     result.LinesRead,
		AnomalyCount:  len(result.Anomalies),
		AmbiguousRefs: result.AmbiguousRefs,
	}
	for _, rej := range result.RejectedLines {
		resp.RejectedLines = append(resp.RejectedLines, RejectedLineResponse{
			TransactionID: rej.Line.TransactionID,
			SKU:           rej.Line.SKU,
			Code:          rej.Reason.Code,
			Reason:        rej.Reason.Message,
		})
	}
	return resp
}
