package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/retailrecon/backend/internal/domain/pricing"
)

// DiscountRuleModel is the persistence model for the discount schedule
type DiscountRuleModel struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement"`
	Category    string          `gorm:"type:varchar(128);not null;index:idx_discount_match"`
	Month       int             `gorm:"not null;index:idx_discount_match"`
	CouponCode  string          `gorm:"type:varchar(64);not null"`
	DiscountPct decimal.Decimal `gorm:"type:numeric(7,4);not null"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
}

// TableName returns the table name for DiscountRuleModel
func (DiscountRuleModel) TableName() string {
	return "discount_rules"
}

// ToDomain converts the persistence model to a domain discount rule
func (m *DiscountRuleModel) ToDomain() pricing.DiscountRule {
	return pricing.DiscountRule{
		Category:    m.Category,
		Month:       time.Month(m.Month),
		CouponCode:  m.CouponCode,
		DiscountPct: m.DiscountPct,
	}
}

// DiscountRuleModelFromDomain converts a domain discount rule to its persistence model
func DiscountRuleModelFromDomain(rule pricing.DiscountRule) *DiscountRuleModel {
	return &DiscountRuleModel{
		Category:    rule.Category,
		Month:       int(rule.Month),
		CouponCode:  rule.CouponCode,
		DiscountPct: rule.DiscountPct,
	}
}

// TaxRateModel is the persistence model for the per-category GST table
type TaxRateModel struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement"`
	Category  string          `gorm:"type:varchar(128);not null;uniqueIndex"`
	GSTPct    decimal.Decimal `gorm:"type:numeric(7,4);not null"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
}

// TableName returns the table name for TaxRateModel
func (TaxRateModel) TableName() string {
	return "tax_rates"
}

// ToDomain converts the persistence model to a domain tax rate
func (m *TaxRateModel) ToDomain() pricing.TaxRate {
	return pricing.TaxRate{
		Category: m.Category,
		GSTPct:   m.GSTPct,
	}
}

// TaxRateModelFromDomain converts a domain tax rate to its persistence model
func TaxRateModelFromDomain(rate pricing.TaxRate) *TaxRateModel {
	return &TaxRateModel{
		Category: rate.Category,
		GSTPct:   rate.GSTPct,
	}
}
