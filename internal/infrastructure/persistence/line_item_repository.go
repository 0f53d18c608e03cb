package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/retailrecon/backend/internal/domain/pricing"
	"github.com/retailrecon/backend/internal/infrastructure/persistence/models"
)

type lineItemRepository struct {
	db *gorm.DB
}

// NewLineItemRepository creates a gorm-backed line item repository
func NewLineItemRepository(db *gorm.DB) pricing.LineItemRepository {
	return &lineItemRepository{db: db}
}

func (r *lineItemRepository) SaveBatch(ctx context.Context, items []pricing.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]*models.LineItemModel, 0, len(items))
	for _, item := range items {
		rows = append(rows, models.LineItemModelFromDomain(item))
	}
	if err := r.db.WithContext(ctx).CreateInBatches(rows, 500).Error; err != nil {
		return fmt.Errorf("failed to save line items: %w", err)
	}
	return nil
}

func (r *lineItemRepository) FindAll(ctx context.Context) ([]pricing.LineItem, error) {
	var rows []models.LineItemModel
	if err := r.db.WithContext(ctx).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find line items: %w", err)
	}
	items := make([]pricing.LineItem, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].ToDomain())
	}
	return items, nil
}

func (r *lineItemRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.LineItemModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count line items: %w", err)
	}
	return count, nil
}
