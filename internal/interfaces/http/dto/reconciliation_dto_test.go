package dto

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailrecon/backend/internal/domain/pricing"
	"github.com/retailrecon/backend/internal/domain/shared/valueobject"
)

func dtoInvoice() *pricing.Invoice {
	return &pricing.Invoice{
		TransactionID:      "TXN-1",
		BasePrice:          decimal.RequireFromString("25"),
		DiscountEffect:     decimal.RequireFromString("2"),
		PriceAfterDiscount: decimal.RequireFromString("23"),
		TaxEffect:          decimal.RequireFromString("4.1399"),
		PriceAfterTax:      decimal.RequireFromString("27.1399"),
		DeliveryCharge:     decimal.RequireFromString("6.00"),
		ObservedDeliveries: []decimal.Decimal{decimal.RequireFromString("6.00")},
		DeliveryConsistent: true,
		FinalPrice:         decimal.RequireFromString("33.14"),
		Precision:          2,
		Lines: []pricing.InvoiceLine{
			{
				Item: pricing.LineItem{
					TransactionID:   "TXN-1",
					TransactionDate: time.Date(2024, 4, 12, 0, 0, 0, 0, time.UTC),
					Category:        "Apparel",
					SKU:             "SKU-A",
					Quantity:        2,
					UnitPrice:       decimal.RequireFromString("10"),
					DeliveryCharge:  decimal.RequireFromString("6.00"),
					CouponStatus:    pricing.CouponUsed,
				},
				LineBase:           decimal.RequireFromString("20"),
				DiscountRate:       decimal.RequireFromString("0.1"),
				LineDiscount:       decimal.RequireFromString("2"),
				PriceAfterDiscount: decimal.RequireFromString("18"),
				TaxRate:            decimal.RequireFromString("0.18"),
				LineTax:            decimal.RequireFromString("3.24"),
				PriceAfterTax:      decimal.RequireFromString("21.24"),
			},
		},
	}
}

func TestInvoiceResponseFromDomain(t *testing.T) {
	t.Run("rounds unrounded aggregates at the reporting boundary", func(t *testing.T) {
		resp := InvoiceResponseFromDomain(dtoInvoice(), true)

		assert.Equal(t, "TXN-1", resp.TransactionID)
		assert.Equal(t, "25.00", resp.BasePrice)
		assert.Equal(t, "2.00", resp.DiscountEffect)
		assert.Equal(t, "23.00", resp.PriceAfterDiscount)
		assert.Equal(t, "4.14", resp.TaxEffect)
		assert.Equal(t, "27.14", resp.PriceAfterTax)
		assert.Equal(t, "6.00", resp.DeliveryCharge)
		assert.Equal(t, "33.14", resp.FinalPrice)
		assert.Equal(t, 1, resp.LineCount)

		require.Len(t, resp.Lines, 1)
		assert.Equal(t, "10.00", resp.Lines[0].UnitPrice)
		assert.Equal(t, "20.00", resp.Lines[0].LineBase)
		assert.Equal(t, "3.24", resp.Lines[0].LineTax)
		assert.Equal(t, "0.1", resp.Lines[0].DiscountRate)
	})

	t.Run("carries the money currency", func(t *testing.T) {
		resp := InvoiceResponseFromDomain(dtoInvoice(), false)
		assert.Equal(t, string(valueobject.INR), resp.Currency)
	})

	t.Run("observed deliveries surface only on mismatch", func(t *testing.T) {
		inv := dtoInvoice()
		resp := InvoiceResponseFromDomain(inv, false)
		assert.Empty(t, resp.ObservedDeliveries)

		inv.DeliveryConsistent = false
		inv.ObservedDeliveries = []decimal.Decimal{
			decimal.RequireFromString("6.00"),
			decimal.RequireFromString("8"),
		}
		resp = InvoiceResponseFromDomain(inv, false)
		assert.Equal(t, []string{"6.00", "8.00"}, resp.ObservedDeliveries)
	})
}

func TestRenderMoney(t *testing.T) {
	assert.Equal(t, "27.14", renderMoney(decimal.RequireFromString("27.1399"), 2))
	assert.Equal(t, "27", renderMoney(decimal.RequireFromString("27.1399"), 0))
	assert.Equal(t, "0.00", renderMoney(decimal.Zero, 2))
}
