package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/retailrecon/backend/internal/domain/pricing"
	"github.com/retailrecon/backend/internal/infrastructure/persistence/models"
)

func setupReferenceTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.DiscountRuleModel{}, &models.TaxRateModel{})
	require.NoError(t, err)

	return db
}

func TestDiscountRuleRepository(t *testing.T) {
	db := setupReferenceTestDB(t)
	repo := NewDiscountRuleRepository(db)
	ctx := context.Background()

	rules := []pricing.DiscountRule{
		{Category: "Apparel", Month: time.April, CouponCode: "SPRING10", DiscountPct: decimal.RequireFromString("10")},
		{Category: "Apparel", Month: time.April, CouponCode: "VIP15", DiscountPct: decimal.RequireFromString("15")},
		{Category: "Electronics", Month: time.May, CouponCode: "TECH5", DiscountPct: decimal.RequireFromString("5")},
	}
	require.NoError(t, repo.SaveBatch(ctx, rules))

	found, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, found, 3)

	// Insertion order survives the round trip, including duplicate
	// (category, month) rules; collapsing them is the resolver's job.
	assert.Equal(t, "SPRING10", found[0].CouponCode)
	assert.Equal(t, "VIP15", found[1].CouponCode)
	assert.Equal(t, time.April, found[0].Month)
	assert.True(t, found[1].DiscountPct.Equal(decimal.RequireFromString("15")))
}

func TestTaxRateRepository(t *testing.T) {
	db := setupReferenceTestDB(t)
	repo := NewTaxRateRepository(db)
	ctx := context.Background()

	rates := []pricing.TaxRate{
		{Category: "Apparel", GSTPct: decimal.RequireFromString("18")},
		{Category: "Books", GSTPct: decimal.RequireFromString("0")},
	}
	require.NoError(t, repo.SaveBatch(ctx, rates))

	found, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Apparel", found[0].Category)
	assert.True(t, found[0].GSTPct.Equal(decimal.RequireFromString("18")))
	assert.True(t, found[1].GSTPct.IsZero())
}

func TestTaxRateRepository_SaveBatch_Upsert(t *testing.T) {
	db := setupReferenceTestDB(t)
	repo := NewTaxRateRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SaveBatch(ctx, []pricing.TaxRate{
		{Category: "Apparel", GSTPct: decimal.RequireFromString("18")},
	}))

	// Re-importing the same category replaces the rate instead of
	// failing on the unique index.
	require.NoError(t, repo.SaveBatch(ctx, []pricing.TaxRate{
		{Category: "Apparel", GSTPct: decimal.RequireFromString("12")},
		{Category: "Books", GSTPct: decimal.RequireFromString("5")},
	}))

	found, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Apparel", found[0].Category)
	assert.True(t, found[0].GSTPct.Equal(decimal.RequireFromString("12")))
	assert.Equal(t, "Books", found[1].Category)
	assert.True(t, found[1].GSTPct.Equal(decimal.RequireFromString("5")))
}
