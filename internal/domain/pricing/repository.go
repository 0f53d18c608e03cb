package pricing

import (
	"context"
)

// LineItemRepository defines the interface for raw line item persistence
type LineItemRepository interface {
	// SaveBatch inserts a batch of ingested line items
	SaveBatch(ctx context.Context, items []LineItem) error

	// FindAll returns every line item, in stable ingestion order
	FindAll(ctx context.Context) ([]LineItem, error)

	// Count returns the number of stored line items
	Count(ctx context.Context) (int64, error)
}

// DiscountRuleRepository defines the interface for discount schedule persistence
type DiscountRuleRepository interface {
	SaveBatch(ctx context.Context, rules []DiscountRule) error
	FindAll(ctx context.Context) ([]DiscountRule, error)
}

// TaxRateRepository defines the interface for tax table persistence
type TaxRateRepository interface {
	SaveBatch(ctx context.Context, rates []TaxRate) error
	FindAll(ctx context.Context) ([]TaxRate, error)
}

// InvoiceRepository defines the interface for the canonical invoice view.
// The canonical set is replaced wholesale on each reconciliation pass so
// that re-derivation from the same inputs is idempotent.
type InvoiceRepository interface {
	// ReplaceAll atomically swaps the stored canonical invoice set
	ReplaceAll(ctx context.Context, invoices []Invoice) error

	// FindByTransactionID returns one canonical invoice with its lines.
	// Implementations must return shared.ErrNotFound when no invoice
	// exists for txID, never a nil invoice with a nil error.
	FindByTransactionID(ctx context.Context, txID string) (*Invoice, error)

	// FindAll returns canonical invoices ordered by transaction id
	FindAll(ctx context.Context, offset, limit int) ([]Invoice, error)

	// Count returns the number of canonical invoices
	Count(ctx context.Context) (int64, error)
}
