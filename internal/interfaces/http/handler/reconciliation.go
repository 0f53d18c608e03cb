package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/retailrecon/backend/internal/application/reconciliation"
	"github.com/retailrecon/backend/internal/domain/shared"
	"github.com/retailrecon/backend/internal/interfaces/http/dto"
)

// ReconciliationHandler exposes reconciliation runs and their derived views
type ReconciliationHandler struct {
	BaseHandler
	service *reconciliation.Service
	logger  *zap.Logger
}

// NewReconciliationHandler creates a new reconciliation handler
func NewReconciliationHandler(service *reconciliation.Service, logger *zap.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{
		service: service,
		logger:  logger.Named("reconciliation_handler"),
	}
}

// RegisterRoutes registers reconciliation routes
func (h *ReconciliationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reconciliation/runs", h.Run)
	rg.GET("/invoices", h.ListInvoices)
	rg.GET("/invoices/:transaction_id", h.GetInvoice)
	rg.GET("/anomalies", h.ListAnomalies)
}

// Run executes a full reconciliation pass over the stored line items
func (h *ReconciliationHandler) Run(c *gin.Context) {
	var req dto.RunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	opts := reconciliation.RunOptions{Workers: req.Workers}
	if req.RatioThresholdPct != "" {
		pct, err := decimal.NewFromString(req.RatioThresholdPct)
		if err != nil {
			h.BadRequest(c, "ratio_threshold_pct must be a decimal number")
			return
		}
		opts.RatioThresholdPct = pct
	}

	result, err := h.service.Run(c.Request.Context(), opts)
	if err != nil {
		h.logger.Error("reconciliation run failed", zap.Error(err))
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, dto.RunResponseFromResult(result))
}

// ListInvoices returns the canonical invoice set, paginated and
// ordered by transaction id
func (h *ReconciliationHandler) ListInvoices(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	invoices, total, err := h.service.Invoices(c.Request.Context(), req.Offset(), req.PageSize)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]dto.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		responses = append(responses, dto.InvoiceResponseFromDomain(&invoices[i], false))
	}
	h.SuccessWithMeta(c, responses, total, req.Page, req.PageSize)
}

// GetInvoice returns one canonical invoice with its line breakdown
func (h *ReconciliationHandler) GetInvoice(c *gin.Context) {
	txID := c.Param("transaction_id")
	if txID == "" {
		h.BadRequest(c, "transaction_id is required")
		return
	}

	inv, err := h.service.Invoice(c.Request.Context(), txID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if inv == nil {
		h.HandleDomainError(c, shared.ErrNotFound)
		return
	}

	h.Success(c, dto.InvoiceResponseFromDomain(inv, true))
}

// ListAnomalies re-scans the current data set and returns the findings
func (h *ReconciliationHandler) ListAnomalies(c *gin.Context) {
	threshold := decimal.Zero
	if raw := c.Query("ratio_threshold_pct"); raw != "" {
		pct, err := decimal.NewFromString(raw)
		if err != nil || !pct.IsPositive() {
			h.BadRequest(c, "ratio_threshold_pct must be a positive decimal")
			return
		}
		threshold = pct
	}

	records, err := h.service.Anomalies(c.Request.Context(), threshold)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]dto.AnomalyResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, dto.AnomalyResponseFromDomain(rec))
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(responses))
}
