package pricing

import (
	"github.com/retailrecon/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TaxRate maps a product category to its GST percentage.
// At most one active rate exists per category.
type TaxRate struct {
	Category string
	GSTPct   decimal.Decimal // 0-100
}

// NewTaxRate creates a validated tax rate
func NewTaxRate(category string, gstPct decimal.Decimal) (TaxRate, error) {
	if category == "" {
		return TaxRate{}, shared.NewDomainError("INVALID_CATEGORY", "Tax rate category cannot be empty")
	}
	if gstPct.IsNegative() || gstPct.GreaterThan(hundred) {
		return TaxRate{}, shared.NewDomainError("INVALID_GST_PCT", "GST percentage must be between 0 and 100")
	}
	return TaxRate{Category: category, GSTPct: gstPct}, nil
}

// Rate returns the tax as a fraction in [0,1]
func (t TaxRate) Rate() decimal.Decimal {
	return t.GSTPct.Div(hundred)
}
