package reconciliation

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/retailrecon/backend/internal/domain/anomaly"
	"github.com/retailrecon/backend/internal/domain/pricing"
	"github.com/retailrecon/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service orchestrates a reconciliation pass: load inputs, build the
// resolver, reduce line items to canonical invoices, replace the
// stored canonical set, then scan for anomalies.
type Service struct {
	lineItems pricing.LineItemRepository
	discounts pricing.DiscountRuleRepository
	taxes     pricing.TaxRateRepository
	invoices  pricing.InvoiceRepository

	precision    int32
	tieBreak     pricing.TieBreak
	thresholdPct decimal.Decimal
	workers      int
	logger       *zap.Logger
}

// ServiceOption is a functional option for Service configuration
type ServiceOption func(*Service)

// WithPrecision sets the currency reporting precision
func WithPrecision(p int32) ServiceOption {
	return func(s *Service) {
		if p >= 0 {
			s.precision = p
		}
	}
}

// WithTieBreak sets the discount rule tie-break policy
func WithTieBreak(t pricing.TieBreak) ServiceOption {
	return func(s *Service) {
		if t.IsValid() {
			s.tieBreak = t
		}
	}
}

// WithRatioThresholdPct sets the default delivery ratio threshold
func WithRatioThresholdPct(pct decimal.Decimal) ServiceOption {
	return func(s *Service) {
		if pct.IsPositive() {
			s.thresholdPct = pct
		}
	}
}

// WithWorkers sets the number of reconciliation workers (0 = GOMAXPROCS)
func WithWorkers(n int) ServiceOption {
	return func(s *Service) {
		if n >= 0 {
			s.workers = n
		}
	}
}

// NewService creates a reconciliation service
func NewService(
	lineItems pricing.LineItemRepository,
	discounts pricing.DiscountRuleRepository,
	taxes pricing.TaxRateRepository,
	invoices pricing.InvoiceRepository,
	logger *zap.Logger,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		lineItems:    lineItems,
		discounts:    discounts,
		taxes:        taxes,
		invoices:     invoices,
		precision:    valueobject.DefaultPrecision,
		tieBreak:     pricing.TieBreakCouponCode,
		thresholdPct: anomaly.DefaultRatioThresholdPct,
		workers:      0,
		logger:       logger.Named("reconciliation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunOptions tunes a single reconciliation pass. Zero values fall
// back to the service configuration.
type RunOptions struct {
	RatioThresholdPct decimal.Decimal
	Workers           int
}

// RunResult is the outcome of one reconciliation pass
type RunResult struct {
	Invoices      []pricing.Invoice
	RejectedLines []pricing.RejectedLine
	Anomalies     []anomaly.Record
	LinesRead     int
	AmbiguousRefs int
}

// Run executes a full reconciliation pass. The per-transaction groups
// are reduced in parallel: each worker owns its partition exclusively
// and writes to an independent result slot, so no locking is needed.
// The canonical invoice set in storage is replaced atomically, which
// keeps re-derivation from the same inputs idempotent.
func (s *Service) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	lines, err := s.lineItems.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}
	resolver, err := s.buildResolver(ctx)
	if err != nil {
		return nil, err
	}

	reconciler := pricing.NewReconciler(resolver, pricing.WithPrecision(s.precision))
	invoices, rejected := s.reconcileParallel(ctx, reconciler, lines, opts.Workers)

	for _, rej := range rejected {
		s.logger.Warn("rejected malformed line item",
			zap.String("transaction_id", rej.Line.TransactionID),
			zap.String("sku", rej.Line.SKU),
			zap.String("reason", rej.Reason.Code),
		)
	}

	if err := s.invoices.ReplaceAll(ctx, invoices); err != nil {
		return nil, fmt.Errorf("failed to store canonical invoices: %w", err)
	}

	records := s.scan(lines, invoices, opts.RatioThresholdPct)
	s.logger.Info("reconciliation pass complete",
		zap.Int("lines", len(lines)),
		zap.Int("invoices", len(invoices)),
		zap.Int("rejected", len(rejected)),
		zap.Int("anomalies", len(records)),
	)

	return &RunResult{
		Invoices:      invoices,
		RejectedLines: rejected,
		Anomalies:     records,
		LinesRead:     len(lines),
		AmbiguousRefs: resolver.AmbiguousMatches(),
	}, nil
}

// Anomalies re-scans the stored canonical model without rebuilding it
func (s *Service) Anomalies(ctx context.Context, thresholdPct decimal.Decimal) ([]anomaly.Record, error) {
	lines, err := s.lineItems.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}
	invoices, err := s.invoices.FindAll(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load canonical invoices: %w", err)
	}
	return s.scan(lines, invoices, thresholdPct), nil
}

// Invoices lists stored canonical invoices
func (s *Service) Invoices(ctx context.Context, offset, limit int) ([]pricing.Invoice, int64, error) {
	invoices, err := s.invoices.FindAll(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.invoices.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

// Invoice returns one canonical invoice by transaction id
func (s *Service) Invoice(ctx context.Context, txID string) (*pricing.Invoice, error) {
	return s.invoices.FindByTransactionID(ctx, txID)
}

func (s *Service) buildResolver(ctx context.Context) (*pricing.ReferenceResolver, error) {
	rules, err := s.discounts.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load discount rules: %w", err)
	}
	rates, err := s.taxes.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tax rates: %w", err)
	}
	resolver := pricing.NewReferenceResolver(rules, rates, pricing.WithTieBreak(s.tieBreak))
	if n := resolver.AmbiguousMatches(); n > 0 {
		s.logger.Warn("ambiguous discount rules collapsed by tie-break",
			zap.Int("pairs", n),
			zap.String("policy", string(s.tieBreak)),
		)
	}
	return resolver, nil
}

// reconcileParallel validates and partitions lines by transaction id,
// then reduces the partitions across a bounded worker pool. Workers
// share only the read-only resolver; each writes invoices to its own
// slot, merged and sorted at the end for deterministic output.
func (s *Service) reconcileParallel(ctx context.Context, reconciler *pricing.Reconciler, lines []pricing.LineItem, workers int) ([]pricing.Invoice, []pricing.RejectedLine) {
	groups := make(map[string][]pricing.LineItem)
	txIDs := make([]string, 0)
	rejected := make([]pricing.RejectedLine, 0)
	for _, line := range lines {
		if derr := line.Validate(); derr != nil {
			rejected = append(rejected, pricing.RejectedLine{Line: line, Reason: derr})
			continue
		}
		if _, seen := groups[line.TransactionID]; !seen {
			txIDs = append(txIDs, line.TransactionID)
		}
		groups[line.TransactionID] = append(groups[line.TransactionID], line)
	}

	if workers <= 0 {
		workers = s.workers
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(txIDs) {
		workers = len(txIDs)
	}
	if workers <= 1 {
		invoices := make([]pricing.Invoice, 0, len(txIDs))
		sort.Strings(txIDs)
		for _, txID := range txIDs {
			invoices = append(invoices, reconciler.ReconcileGroup(txID, groups[txID]))
		}
		return invoices, rejected
	}

	results := make([]pricing.Invoice, len(txIDs))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				txID := txIDs[idx]
				results[idx] = reconciler.ReconcileGroup(txID, groups[txID])
			}
		}()
	}

	// Stop scheduling further partitions on cancellation; results for
	// completed partitions remain valid.
	scheduled := 0
dispatch:
	for idx := range txIDs {
		select {
		case jobs <- idx:
			scheduled++
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	// Unscheduled slots (cancelled run) stay zero-valued; skip them.
	invoices := make([]pricing.Invoice, 0, scheduled)
	for _, inv := range results {
		if inv.TransactionID != "" {
			invoices = append(invoices, inv)
		}
	}
	sort.Slice(invoices, func(i, j int) bool {
		return invoices[i].TransactionID < invoices[j].TransactionID
	})
	return invoices, rejected
}

func scanConcurrently(scanner *anomaly.Scanner, lines []pricing.LineItem, invoices []pricing.Invoice) []anomaly.Record {
	var priceRecs, ratioRecs []anomaly.Record
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		priceRecs = scanner.ScanPriceConsistency(lines)
	}()
	go func() {
		defer wg.Done()
		ratioRecs = scanner.ScanDeliveryRatio(invoices)
	}()
	wg.Wait()

	records := make([]anomaly.Record, 0, len(priceRecs)+len(ratioRecs))
	records = append(records, priceRecs...)
	records = append(records, ratioRecs...)
	records = append(records, scanner.ScanDeliveryInconsistency(invoices)...)
	records = append(records, scanner.ScanFreeDelivery(lines)...)
	return records
}

func (s *Service) scan(lines []pricing.LineItem, invoices []pricing.Invoice, thresholdPct decimal.Decimal) []anomaly.Record {
	if !thresholdPct.IsPositive() {
		thresholdPct = s.thresholdPct
	}
	scanner := anomaly.NewScanner(anomaly.WithRatioThresholdPct(thresholdPct))
	return scanConcurrently(scanner, lines, invoices)
}
