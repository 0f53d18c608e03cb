package reconciliation

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/retailrecon/backend/internal/domain/anomaly"
	"github.com/retailrecon/backend/internal/domain/pricing"
	"github.com/retailrecon/backend/internal/domain/shared"
)

type fakeLineItemRepo struct {
	items []pricing.LineItem
}

func (r *fakeLineItemRepo) SaveBatch(ctx context.Context, items []pricing.LineItem) error {
	r.items = append(r.items, items...)
	return nil
}

func (r *fakeLineItemRepo) FindAll(ctx context.Context) ([]pricing.LineItem, error) {
	return append([]pricing.LineItem(nil), r.items...), nil
}

func (r *fakeLineItemRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.items)), nil
}

type fakeDiscountRepo struct {
	rules []pricing.DiscountRule
}

func (r *fakeDiscountRepo) SaveBatch(ctx context.Context, rules []pricing.DiscountRule) error {
	r.rules = append(r.rules, rules...)
	return nil
}

func (r *fakeDiscountRepo) FindAll(ctx context.Context) ([]pricing.DiscountRule, error) {
	return append([]pricing.DiscountRule(nil), r.rules...), nil
}

type fakeTaxRepo struct {
	rates []pricing.TaxRate
}

func (r *fakeTaxRepo) SaveBatch(ctx context.Context, rates []pricing.TaxRate) error {
	r.rates = append(r.rates, rates...)
	return nil
}

func (r *fakeTaxRepo) FindAll(ctx context.Context) ([]pricing.TaxRate, error) {
	return append([]pricing.TaxRate(nil), r.rates...), nil
}

type fakeInvoiceRepo struct {
	invoices []pricing.Invoice
	replaces int
}

func (r *fakeInvoiceRepo) ReplaceAll(ctx context.Context, invoices []pricing.Invoice) error {
	r.invoices = append([]pricing.Invoice(nil), invoices...)
	r.replaces++
	return nil
}

func (r *fakeInvoiceRepo) FindByTransactionID(ctx context.Context, txID string) (*pricing.Invoice, error) {
	for i := range r.invoices {
		if r.invoices[i].TransactionID == txID {
			inv := r.invoices[i]
			return &inv, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeInvoiceRepo) FindAll(ctx context.Context, offset, limit int) ([]pricing.Invoice, error) {
	return append([]pricing.Invoice(nil), r.invoices...), nil
}

func (r *fakeInvoiceRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.invoices)), nil
}

var svcDate = time.Date(2023, time.May, 14, 0, 0, 0, 0, time.UTC)

func svcLine(txID, sku string, qty int64, unitPrice, delivery string, status pricing.CouponStatus) pricing.LineItem {
	return pricing.LineItem{
		CustomerID:      "C1",
		TransactionID:   txID,
		TransactionDate: svcDate,
		Category:        "Apparel",
		SKU:             sku,
		Quantity:        qty,
		UnitPrice:       decimal.RequireFromString(unitPrice),
		DeliveryCharge:  decimal.RequireFromString(delivery),
		CouponStatus:    status,
		Location:        "Mumbai",
	}
}

func newTestService(t *testing.T, lines []pricing.LineItem, opts ...ServiceOption) (*Service, *fakeInvoiceRepo) {
	t.Helper()
	rule, err := pricing.NewDiscountRule("Apparel", time.May, "SAVE10", decimal.NewFromInt(10))
	require.NoError(t, err)
	tax, err := pricing.NewTaxRate("Apparel", decimal.NewFromInt(18))
	require.NoError(t, err)

	invoiceRepo := &fakeInvoiceRepo{}
	svc := NewService(
		&fakeLineItemRepo{items: lines},
		&fakeDiscountRepo{rules: []pricing.DiscountRule{rule}},
		&fakeTaxRepo{rates: []pricing.TaxRate{tax}},
		invoiceRepo,
		zap.NewNop(),
		opts...,
	)
	return svc, invoiceRepo
}

func TestService_Run(t *testing.T) {
	lines := []pricing.LineItem{
		svcLine("T1", "SKU1", 2, "10.00", "6.00", pricing.CouponUsed),
		svcLine("T1", "SKU2", 1, "5.00", "6.00", pricing.CouponNotUsed),
		svcLine("T2", "SKU1", 0, "10.00", "0.00", pricing.CouponUsed), // malformed
	}
	svc, invoiceRepo := newTestService(t, lines)

	result, err := svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	require.Len(t, result.Invoices, 1)
	inv := result.Invoices[0]
	assert.Equal(t, "T1", inv.TransactionID)
	assert.True(t, inv.FinalPrice.Equal(decimal.RequireFromString("33.14")))
	assert.Len(t, result.RejectedLines, 1)
	assert.Equal(t, 3, result.LinesRead)

	// Canonical set was replaced in storage.
	assert.Equal(t, 1, invoiceRepo.replaces)
	require.Len(t, invoiceRepo.invoices, 1)
	assert.Equal(t, "T1", invoiceRepo.invoices[0].TransactionID)
}

func TestService_RunIdempotent(t *testing.T) {
	lines := []pricing.LineItem{
		svcLine("T2", "SKU1", 3, "7.50", "5.00", pricing.CouponUsed),
		svcLine("T1", "SKU1", 2, "10.00", "6.00", pricing.CouponUsed),
		svcLine("T1", "SKU2", 1, "5.00", "6.00", pricing.CouponNotUsed),
	}
	svc, invoiceRepo := newTestService(t, lines)

	first, err := svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	second, err := svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, first.Invoices, second.Invoices)
	assert.Equal(t, 2, invoiceRepo.replaces)
	assert.Len(t, invoiceRepo.invoices, 2)
}

func TestService_RunParallelMatchesSerial(t *testing.T) {
	lines := make([]pricing.LineItem, 0, 200)
	for i := 0; i < 100; i++ {
		txID := fmt.Sprintf("T%03d", i)
		lines = append(lines,
			svcLine(txID, "SKU1", 2, "10.00", "6.00", pricing.CouponUsed),
			svcLine(txID, "SKU2", 1, "5.00", "6.00", pricing.CouponNotUsed),
		)
	}

	serialSvc, _ := newTestService(t, lines, WithWorkers(1))
	parallelSvc, _ := newTestService(t, lines, WithWorkers(8))

	serial, err := serialSvc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	parallel, err := parallelSvc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, serial.Invoices, parallel.Invoices)
	require.Len(t, parallel.Invoices, 100)
	assert.True(t, sort.SliceIsSorted(parallel.Invoices, func(i, j int) bool {
		return parallel.Invoices[i].TransactionID < parallel.Invoices[j].TransactionID
	}))
}

func TestService_RunAnomalies(t *testing.T) {
	lines := []pricing.LineItem{
		// Delivery mismatch within T1.
		svcLine("T1", "SKU1", 2, "10.00", "6.00", pricing.CouponUsed),
		svcLine("T1", "SKU2", 1, "5.00", "8.00", pricing.CouponNotUsed),
		// Delivery ratio outlier: 30 delivery on 10 base.
		svcLine("T2", "SKU3", 1, "10.00", "30.00", pricing.CouponNotUsed),
		// Zero base price.
		svcLine("T3", "SKU4", 1, "0.00", "4.00", pricing.CouponNotUsed),
	}
	svc, _ := newTestService(t, lines)

	result, err := svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	kinds := make(map[anomaly.Kind]int)
	for _, rec := range result.Anomalies {
		kinds[rec.Kind]++
	}
	assert.Equal(t, 1, kinds[anomaly.KindDeliveryChargeMismatch])
	assert.Equal(t, 1, kinds[anomaly.KindZeroBasePrice])
	assert.GreaterOrEqual(t, kinds[anomaly.KindDeliveryRatioOutlier], 1)
}

func TestService_RunThresholdOverride(t *testing.T) {
	lines := []pricing.LineItem{
		// 6 delivery on 25 base = 24%.
		svcLine("T1", "SKU1", 2, "10.00", "6.00", pricing.CouponUsed),
		svcLine("T1", "SKU2", 1, "5.00", "6.00", pricing.CouponNotUsed),
	}
	svc, _ := newTestService(t, lines)

	base, err := svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	for _, rec := range base.Anomalies {
		assert.NotEqual(t, anomaly.KindDeliveryRatioOutlier, rec.Kind)
	}

	lowered, err := svc.Run(context.Background(), RunOptions{RatioThresholdPct: decimal.NewFromInt(20)})
	require.NoError(t, err)
	found := false
	for _, rec := range lowered.Anomalies {
		if rec.Kind == anomaly.KindDeliveryRatioOutlier {
			found = true
		}
	}
	assert.True(t, found, "24%% ratio should trip a 20%% threshold")
}

func TestService_Anomalies(t *testing.T) {
	lines := []pricing.LineItem{
		svcLine("T1", "SKU1", 2, "10.00", "6.00", pricing.CouponUsed),
	}
	svc, _ := newTestService(t, lines)

	_, err := svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	records, err := svc.Anomalies(context.Background(), decimal.NewFromInt(10))
	require.NoError(t, err)
	found := false
	for _, rec := range records {
		if rec.Kind == anomaly.KindDeliveryRatioOutlier && rec.SubjectKey == "T1" {
			found = true
		}
	}
	assert.True(t, found)
}
