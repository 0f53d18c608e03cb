package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/retailrecon/backend/internal/application/reconciliation"
	"github.com/retailrecon/backend/internal/interfaces/http/dto"
)

func setupImportAPI(t *testing.T) (*gin.Engine, *memLineItemRepo, *memDiscountRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	lineRepo := &memLineItemRepo{}
	discountRepo := &memDiscountRepo{}
	taxRepo := &memTaxRepo{}

	service := reconciliation.NewImportService(lineRepo, discountRepo, taxRepo, zap.NewNop())

	engine := gin.New()
	api := engine.Group("/api/v1")
	NewImportHandler(service, zap.NewNop()).RegisterRoutes(api)

	return engine, lineRepo, discountRepo
}

func postCSV(t *testing.T, engine *gin.Engine, path, csv string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, path, strings.NewReader(csv))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/csv")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestImportHandler_LineItems(t *testing.T) {
	engine, lineRepo, _ := setupImportAPI(t)

	csv := "customer_id,transaction_id,transaction_date,product_category,product_sku,quantity,unit_price,delivery_charge,coupon_status,location\n" +
		"CUST-1,TXN-1,2024-04-12,Apparel,SKU-A,2,10.00,6.00,used,Chennai\n" +
		"CUST-1,TXN-1,2024-04-12,Apparel,SKU-B,1,5.00,6.00,not_used,Chennai\n"

	w := postCSV(t, engine, "/api/v1/imports/line-items", csv)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(2), data["imported"])
	assert.Equal(t, float64(0), data["rejected"])
	assert.Len(t, lineRepo.items, 2)
}

func TestImportHandler_LineItems_Multipart(t *testing.T) {
	engine, lineRepo, _ := setupImportAPI(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "lines.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("customer_id,transaction_id,transaction_date,product_category,product_sku,quantity,unit_price,delivery_charge,coupon_status,location\n" +
		"CUST-1,TXN-9,2024-04-12,Apparel,SKU-A,1,10.00,0,not_used,Chennai\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, "/api/v1/imports/line-items", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, lineRepo.items, 1)
}

func TestImportHandler_LineItems_AllRowsRejected(t *testing.T) {
	engine, lineRepo, _ := setupImportAPI(t)

	// Zero quantity and negative price are both rejected per row
	csv := "customer_id,transaction_id,transaction_date,product_category,product_sku,quantity,unit_price,delivery_charge,coupon_status,location\n" +
		"CUST-1,TXN-1,2024-04-12,Apparel,SKU-A,0,10.00,6.00,used,Chennai\n" +
		"CUST-1,TXN-1,2024-04-12,Apparel,SKU-B,1,-5.00,6.00,not_used,Chennai\n"

	w := postCSV(t, engine, "/api/v1/imports/line-items", csv)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(0), data["imported"])
	assert.Equal(t, float64(2), data["rejected"])
	assert.Len(t, data["row_errors"], 2)
	assert.Empty(t, lineRepo.items)
}

func TestImportHandler_LineItems_EmptyBody(t *testing.T) {
	engine, _, _ := setupImportAPI(t)

	w := postCSV(t, engine, "/api/v1/imports/line-items", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportHandler_DiscountRules(t *testing.T) {
	engine, _, discountRepo := setupImportAPI(t)

	csv := "product_category,month,coupon_code,discount_pct\n" +
		"Apparel,April,SPRING10,10\n" +
		"Electronics,5,TECH5,5\n"

	w := postCSV(t, engine, "/api/v1/imports/discount-rules", csv)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, discountRepo.rules, 2)
}
