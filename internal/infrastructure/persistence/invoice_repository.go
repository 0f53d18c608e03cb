package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/retailrecon/backend/internal/domain/pricing"
	"github.com/retailrecon/backend/internal/domain/shared"
	"github.com/retailrecon/backend/internal/infrastructure/persistence/models"
)

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a gorm-backed canonical invoice repository
func NewInvoiceRepository(db *gorm.DB) pricing.InvoiceRepository {
	return &invoiceRepository{db: db}
}

// ReplaceAll swaps the stored canonical set inside one transaction so
// readers never observe a partially derived view.
func (r *invoiceRepository) ReplaceAll(ctx context.Context, invoices []pricing.Invoice) error {
	invoiceRows := make([]*models.InvoiceModel, 0, len(invoices))
	lineRows := make([]*models.InvoiceLineModel, 0, len(invoices))
	for _, inv := range invoices {
		m := models.InvoiceModelFromDomain(inv)
		for i := range m.Lines {
			lineRows = append(lineRows, &m.Lines[i])
		}
		m.Lines = nil
		invoiceRows = append(invoiceRows, m)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.InvoiceLineModel{}).Error; err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.InvoiceModel{}).Error; err != nil {
			return err
		}
		if len(invoiceRows) > 0 {
			if err := tx.CreateInBatches(invoiceRows, 200).Error; err != nil {
				return err
			}
		}
		if len(lineRows) > 0 {
			if err := tx.CreateInBatches(lineRows, 500).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace canonical invoices: %w", err)
	}
	return nil
}

func (r *invoiceRepository) FindByTransactionID(ctx context.Context, txID string) (*pricing.Invoice, error) {
	var row models.InvoiceModel
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&row, "transaction_id = ?", txID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}
	inv := row.ToDomain()
	return &inv, nil
}

func (r *invoiceRepository) FindAll(ctx context.Context, offset, limit int) ([]pricing.Invoice, error) {
	var rows []models.InvoiceModel
	q := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("transaction_id ASC").
		Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find invoices: %w", err)
	}
	invoices := make([]pricing.Invoice, 0, len(rows))
	for i := range rows {
		invoices = append(invoices, rows[i].ToDomain())
	}
	return invoices, nil
}

func (r *invoiceRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count invoices: %w", err)
	}
	return count, nil
}
