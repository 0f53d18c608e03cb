package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/retailrecon/backend/internal/application/reconciliation"
	"github.com/retailrecon/backend/internal/infrastructure/csvimport"
	"github.com/retailrecon/backend/internal/interfaces/http/dto"
)

var errMissingPayload = errors.New("csv payload required: multipart \"file\" field or raw request body")

// ImportHandler ingests the three CSV data sets
type ImportHandler struct {
	BaseHandler
	service *reconciliation.ImportService
	logger  *zap.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(service *reconciliation.ImportService, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{
		service: service,
		logger:  logger.Named("import_handler"),
	}
}

// RegisterRoutes registers import routes
func (h *ImportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	imports := rg.Group("/imports")
	imports.POST("/line-items", h.ImportLineItems)
	imports.POST("/discount-rules", h.ImportDiscountRules)
	imports.POST("/tax-rates", h.ImportTaxRates)
}

// ImportLineItems ingests raw transaction lines from CSV
func (h *ImportHandler) ImportLineItems(c *gin.Context) {
	h.runImport(c, h.service.ImportLineItems)
}

// ImportDiscountRules ingests the discount schedule from CSV
func (h *ImportHandler) ImportDiscountRules(c *gin.Context) {
	h.runImport(c, h.service.ImportDiscountRules)
}

// ImportTaxRates ingests the GST table from CSV
func (h *ImportHandler) ImportTaxRates(c *gin.Context) {
	h.runImport(c, h.service.ImportTaxRates)
}

type importFunc func(ctx context.Context, r io.Reader) (*reconciliation.ImportSummary, error)

func (h *ImportHandler) runImport(c *gin.Context, run importFunc) {
	reader, err := h.csvReader(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	defer reader.Close()

	summary, err := run(c.Request.Context(), reader)
	if err != nil {
		if errors.Is(err, csvimport.ErrEmptyFile) || errors.Is(err, csvimport.ErrMissingHeader) {
			h.BadRequest(c, err.Error())
			return
		}
		h.logger.Error("csv import failed", zap.Error(err))
		h.HandleDomainError(c, err)
		return
	}

	status := http.StatusOK
	if summary.Imported == 0 && summary.Rejected > 0 {
		// Nothing usable in the upload
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, dto.NewSuccessResponse(summary))
}

// csvReader returns the CSV payload: a multipart "file" field when the
// request is a form upload, the raw request body otherwise.
func (h *ImportHandler) csvReader(c *gin.Context) (io.ReadCloser, error) {
	file, _, err := c.Request.FormFile("file")
	if err == nil {
		return file, nil
	}
	if c.Request.Body == nil {
		return nil, errMissingPayload
	}
	return c.Request.Body, nil
}
