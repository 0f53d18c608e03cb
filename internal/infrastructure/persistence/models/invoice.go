package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/retailrecon/backend/internal/domain/pricing"
)

// InvoiceModel is the persistence model for a canonical invoice. The
// stored set is replaced wholesale on every reconciliation pass, so the
// table always reflects exactly one derivation.
type InvoiceModel struct {
	TransactionID      string          `gorm:"type:varchar(64);primaryKey"`
	BasePrice          decimal.Decimal `gorm:"type:numeric(16,6);not null"`
	DiscountEffect     decimal.Decimal `gorm:"type:numeric(16,6);not null"`
	PriceAfterDiscount decimal.Decimal `gorm:"type:numeric(16,6);not null"`
	TaxEffect          decimal.Decimal `gorm:"type:numeric(16,6);not null"`
	PriceAfterTax      decimal.Decimal `gorm:"type:numeric(16,6);not null"`
	DeliveryCharge     decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	ObservedDeliveries string          `gorm:"type:varchar(512)"` // distinct values, comma-joined, input order
	DeliveryConsistent bool            `gorm:"not null"`
	FinalPrice         decimal.Decimal `gorm:"type:numeric(16,6);not null"`
	Precision          int32           `gorm:"not null"`
	Lines              []InvoiceLineModel `gorm:"foreignKey:TransactionID;references:TransactionID"`
	CreatedAt          time.Time          `gorm:"autoCreateTime"`
}

// TableName returns the table name for InvoiceModel
func (InvoiceModel) TableName() string {
	return "invoices"
}

// InvoiceLineModel is one contributing line of a canonical invoice,
// with the source line snapshot and its full monetary breakdown.
type InvoiceLineModel struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	TransactionID string `gorm:"type:varchar(64);not null;index"`
	Position      int    `gorm:"not null"`

	CustomerID      string          `gorm:"type:varchar(64)"`
	TransactionDate time.Time       `gorm:"not null"`
	Category        string          `gorm:"type:varchar(128);not null"`
	Description     string          `gorm:"type:varchar(512)"`
	SKU             string          `gorm:"type:varchar(64)"`
	Quantity        int64           `gorm:"not null"`
	UnitPrice       decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	DeliveryCharge  decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	CouponStatus    string          `gorm:"type:varchar(16);not null"`
	Location        string          `gorm:"type:varchar(128)"`

	LineBase           decimal.Decimal `gorm:"type:numeric(16,6);not null"`
	DiscountRate       decimal.Decimal `gorm:"type:numeric(9,6);not null"`
	LineDiscount       decimal.Decimal `gorm:"type:numeric(16,6);not null"`
	PriceAfterDiscount decimal.Decimal `gorm:"type:numeric(16,6);not null"`
	TaxRate            decimal.Decimal `gorm:"type:numeric(9,6);not null"`
	LineTax            decimal.Decimal `gorm:"type:numeric(16,6);not null"`
	PriceAfterTax      decimal.Decimal `gorm:"type:numeric(16,6);not null"`
}

// TableName returns the table name for InvoiceLineModel
func (InvoiceLineModel) TableName() string {
	return "invoice_lines"
}

// ToDomain converts the persistence model to a domain invoice
func (m *InvoiceModel) ToDomain() pricing.Invoice {
	inv := pricing.Invoice{
		TransactionID:      m.TransactionID,
		BasePrice:          m.BasePrice,
		DiscountEffect:     m.DiscountEffect,
		PriceAfterDiscount: m.PriceAfterDiscount,
		TaxEffect:          m.TaxEffect,
		PriceAfterTax:      m.PriceAfterTax,
		DeliveryCharge:     m.DeliveryCharge,
		ObservedDeliveries: splitDeliveries(m.ObservedDeliveries),
		DeliveryConsistent: m.DeliveryConsistent,
		FinalPrice:         m.FinalPrice,
		Precision:          m.Precision,
	}
	inv.Lines = make([]pricing.InvoiceLine, 0, len(m.Lines))
	for i := range m.Lines {
		inv.Lines = append(inv.Lines, m.Lines[i].ToDomain())
	}
	return inv
}

// ToDomain converts the persistence model to a domain invoice line
func (m *InvoiceLineModel) ToDomain() pricing.InvoiceLine {
	return pricing.InvoiceLine{
		Item: pricing.LineItem{
			CustomerID:      m.CustomerID,
			TransactionID:   m.TransactionID,
			TransactionDate: m.TransactionDate,
			Category:        m.Category,
			Description:     m.Description,
			SKU:             m.SKU,
			Quantity:        m.Quantity,
			UnitPrice:       m.UnitPrice,
			DeliveryCharge:  m.DeliveryCharge,
			CouponStatus:    pricing.CouponStatus(m.CouponStatus),
			Location:        m.Location,
		},
		LineBase:           m.LineBase,
		DiscountRate:       m.DiscountRate,
		LineDiscount:       m.LineDiscount,
		PriceAfterDiscount: m.PriceAfterDiscount,
		TaxRate:            m.TaxRate,
		LineTax:            m.LineTax,
		PriceAfterTax:      m.PriceAfterTax,
	}
}

// InvoiceModelFromDomain converts a domain invoice to its persistence model
func InvoiceModelFromDomain(inv pricing.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		TransactionID:      inv.TransactionID,
		BasePrice:          inv.BasePrice,
		DiscountEffect:     inv.DiscountEffect,
		PriceAfterDiscount: inv.PriceAfterDiscount,
		TaxEffect:          inv.TaxEffect,
		PriceAfterTax:      inv.PriceAfterTax,
		DeliveryCharge:     inv.DeliveryCharge,
		ObservedDeliveries: joinDeliveries(inv.ObservedDeliveries),
		DeliveryConsistent: inv.DeliveryConsistent,
		FinalPrice:         inv.FinalPrice,
		Precision:          inv.Precision,
	}
	m.Lines = make([]InvoiceLineModel, 0, len(inv.Lines))
	for i, line := range inv.Lines {
		m.Lines = append(m.Lines, InvoiceLineModel{
			TransactionID:      inv.TransactionID,
			Position:           i,
			CustomerID:         line.Item.CustomerID,
			TransactionDate:    line.Item.TransactionDate,
			Category:           line.Item.Category,
			Description:        line.Item.Description,
			SKU:                line.Item.SKU,
			Quantity:           line.Item.Quantity,
			UnitPrice:          line.Item.UnitPrice,
			DeliveryCharge:     line.Item.DeliveryCharge,
			CouponStatus:       string(line.Item.CouponStatus),
			Location:           line.Item.Location,
			LineBase:           line.LineBase,
			DiscountRate:       line.DiscountRate,
			LineDiscount:       line.LineDiscount,
			PriceAfterDiscount: line.PriceAfterDiscount,
			TaxRate:            line.TaxRate,
			LineTax:            line.LineTax,
			PriceAfterTax:      line.PriceAfterTax,
		})
	}
	return m
}

func joinDeliveries(values []decimal.Decimal) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, v.String())
	}
	return strings.Join(parts, ",")
}

func splitDeliveries(s string) []decimal.Decimal {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	values := make([]decimal.Decimal, 0, len(parts))
	for _, p := range parts {
		v, err := decimal.NewFromString(p)
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	return values
}
