package reconciliation

import (
	"context"
	"fmt"
	"io"

	"github.com/retailrecon/backend/internal/domain/pricing"
	"github.com/retailrecon/backend/internal/infrastructure/csvimport"
	"go.uber.org/zap"
)

// ImportService ingests the three input tables from CSV streams.
// Malformed rows are reported back to the caller, never fatal to the
// rest of the file.
type ImportService struct {
	lineItems pricing.LineItemRepository
	discounts pricing.DiscountRuleRepository
	taxes     pricing.TaxRateRepository
	logger    *zap.Logger
}

// NewImportService creates a new ImportService
func NewImportService(
	lineItems pricing.LineItemRepository,
	discounts pricing.DiscountRuleRepository,
	taxes pricing.TaxRateRepository,
	logger *zap.Logger,
) *ImportService {
	return &ImportService{
		lineItems: lineItems,
		discounts: discounts,
		taxes:     taxes,
		logger:    logger.Named("import"),
	}
}

// ImportSummary reports the outcome of one CSV ingestion
type ImportSummary struct {
	Imported  int                  `json:"imported"`
	Rejected  int                  `json:"rejected"`
	RowErrors []csvimport.RowError `json:"row_errors,omitempty"`
}

// ImportLineItems ingests raw transaction line items
func (s *ImportService) ImportLineItems(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	items, rowErrs, err := csvimport.ReadLineItems(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse line items: %w", err)
	}
	if len(items) > 0 {
		if err := s.lineItems.SaveBatch(ctx, items); err != nil {
			return nil, fmt.Errorf("failed to store line items: %w", err)
		}
	}
	s.logImport("line_items", len(items), rowErrs)
	return &ImportSummary{Imported: len(items), Rejected: len(rowErrs), RowErrors: rowErrs}, nil
}

// ImportDiscountRules ingests the discount schedule
func (s *ImportService) ImportDiscountRules(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	rules, rowErrs, err := csvimport.ReadDiscountRules(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse discount rules: %w", err)
	}
	if len(rules) > 0 {
		if err := s.discounts.SaveBatch(ctx, rules); err != nil {
			return nil, fmt.Errorf("failed to store discount rules: %w", err)
		}
	}
	s.logImport("discount_rules", len(rules), rowErrs)
	return &ImportSummary{Imported: len(rules), Rejected: len(rowErrs), RowErrors: rowErrs}, nil
}

// ImportTaxRates ingests the tax table
func (s *ImportService) ImportTaxRates(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	rates, rowErrs, err := csvimport.ReadTaxRates(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tax rates: %w", err)
	}
	if len(rates) > 0 {
		if err := s.taxes.SaveBatch(ctx, rates); err != nil {
			return nil, fmt.Errorf("failed to store tax rates: %w", err)
		}
	}
	s.logImport("tax_rates", len(rates), rowErrs)
	return &ImportSummary{Imported: len(rates), Rejected: len(rowErrs), RowErrors: rowErrs}, nil
}

func (s *ImportService) logImport(table string, imported int, rowErrs []csvimport.RowError) {
	if len(rowErrs) > 0 {
		s.logger.Warn("import finished with rejected rows",
			zap.String("table", table),
			zap.Int("imported", imported),
			zap.Int("rejected", len(rowErrs)),
		)
		return
	}
	s.logger.Info("import finished",
		zap.String("table", table),
		zap.Int("imported", imported),
	)
}
