package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailrecon/backend/internal/domain/shared"
	"github.com/retailrecon/backend/internal/interfaces/http/dto"
)

func TestBaseHandler_HandleDomainError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &BaseHandler{}

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"invalid input", shared.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
		{"wrapped domain error", fmt.Errorf("lookup: %w", shared.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"unknown code", shared.NewDomainError("SOMETHING_ELSE", "boom"), http.StatusInternalServerError, "SOMETHING_ELSE"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)

			h.HandleDomainError(c, tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)

			var resp dto.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.wantCode, resp.Error.Code)
		})
	}
}

func TestBaseHandler_BadRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &BaseHandler{}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	h.BadRequest(c, "quantity must be positive")

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, shared.ErrInvalidInput.Code, resp.Error.Code)
	assert.Equal(t, "quantity must be positive", resp.Error.Message)
}
