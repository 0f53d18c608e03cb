package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retailrecon/backend/internal/domain/pricing"
	"github.com/retailrecon/backend/internal/infrastructure/persistence/models"
)

type discountRuleRepository struct {
	db *gorm.DB
}

// NewDiscountRuleRepository creates a gorm-backed discount rule repository
func NewDiscountRuleRepository(db *gorm.DB) pricing.DiscountRuleRepository {
	return &discountRuleRepository{db: db}
}

func (r *discountRuleRepository) SaveBatch(ctx context.Context, rules []pricing.DiscountRule) error {
	if len(rules) == 0 {
		return nil
	}
	rows := make([]*models.DiscountRuleModel, 0, len(rules))
	for _, rule := range rules {
		rows = append(rows, models.DiscountRuleModelFromDomain(rule))
	}
	if err := r.db.WithContext(ctx).CreateInBatches(rows, 500).Error; err != nil {
		return fmt.Errorf("failed to save discount rules: %w", err)
	}
	return nil
}

func (r *discountRuleRepository) FindAll(ctx context.Context) ([]pricing.DiscountRule, error) {
	var rows []models.DiscountRuleModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find discount rules: %w", err)
	}
	rules := make([]pricing.DiscountRule, 0, len(rows))
	for i := range rows {
		rules = append(rules, rows[i].ToDomain())
	}
	return rules, nil
}

type taxRateRepository struct {
	db *gorm.DB
}

// NewTaxRateRepository creates a gorm-backed tax rate repository
func NewTaxRateRepository(db *gorm.DB) pricing.TaxRateRepository {
	return &taxRateRepository{db: db}
}

func (r *taxRateRepository) SaveBatch(ctx context.Context, rates []pricing.TaxRate) error {
	if len(rates) == 0 {
		return nil
	}
	rows := make([]*models.TaxRateModel, 0, len(rates))
	for _, rate := range rates {
		rows = append(rows, models.TaxRateModelFromDomain(rate))
	}
	// Category is unique; a re-import replaces the stored rate.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "category"}},
			DoUpdates: clause.AssignmentColumns([]string{"gst_pct"}),
		}).
		CreateInBatches(rows, 500).Error
	if err != nil {
		return fmt.Errorf("failed to save tax rates: %w", err)
	}
	return nil
}

func (r *taxRateRepository) FindAll(ctx context.Context) ([]pricing.TaxRate, error) {
	var rows []models.TaxRateModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find tax rates: %w", err)
	}
	rates := make([]pricing.TaxRate, 0, len(rows))
	for i := range rows {
		rates = append(rates, rows[i].ToDomain())
	}
	return rates, nil
}
