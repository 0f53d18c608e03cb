package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/retailrecon/backend/internal/domain/pricing"
)

// LineItemModel is the persistence model for raw ingested transaction
// lines. Seq preserves ingestion order so replays see lines exactly as
// they arrived.
type LineItemModel struct {
	Seq             uint64          `gorm:"primaryKey;autoIncrement"`
	CustomerID      string          `gorm:"type:varchar(64);index"`
	TransactionID   string          `gorm:"type:varchar(64);not null;index"`
	TransactionDate time.Time       `gorm:"not null"`
	Category        string          `gorm:"type:varchar(128);not null"`
	Description     string          `gorm:"type:varchar(512)"`
	SKU             string          `gorm:"type:varchar(64);index"`
	Quantity        int64           `gorm:"not null"`
	UnitPrice       decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	DeliveryCharge  decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	CouponStatus    string          `gorm:"type:varchar(16);not null"`
	Location        string          `gorm:"type:varchar(128)"`
	CreatedAt       time.Time       `gorm:"autoCreateTime"`
}

// TableName returns the table name for LineItemModel
func (LineItemModel) TableName() string {
	return "line_items"
}

// ToDomain converts the persistence model to a domain line item
func (m *LineItemModel) ToDomain() pricing.LineItem {
	return pricing.LineItem{
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
	}
}

// LineItemModelFromDomain converts a domain line item to its persistence model
func LineItemModelFromDomain(item pricing.LineItem) *LineItemModel {
	return &LineItemModel{
		CustomerID:      item.CustomerID,
		TransactionID:   item.TransactionID,
		TransactionDate: item.TransactionDate,
		Category:        item.Category,
		Description:     item.Description,
		SKU:             item.SKU,
		Quantity:        item.Quantity,
		UnitPrice:       item.UnitPrice,
		DeliveryCharge:  item.DeliveryCharge,
		CouponStatus:    string(item.CouponStatus),
		Location:        item.Location,
	}
}
