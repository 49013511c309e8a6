package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yigit/edupay/internal/app/models"
	"github.com/yigit/edupay/internal/app/models/dto"
	"github.com/yigit/edupay/internal/pkg/apperrors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    dto.ErrorCode
		wantMessage string
	}{
		{
			name:        "duplicate transaction",
			err:         &apperrors.DuplicateTransactionError{TransactionID: "TXN123", PaymentID: "p1", StudentName: "Diya Patel"},
			wantStatus:  http.StatusConflict,
			wantCode:    dto.ErrorCodeDuplicateTransaction,
			wantMessage: "duplicate transaction: id (TXN123) used for Diya Patel",
		},
		{
			name:        "validation passes message through",
			err:         apperrors.Validation("Select student & amount."),
			wantStatus:  http.StatusBadRequest,
			wantCode:    dto.ErrorCodeValidationFailed,
			wantMessage: "Select student & amount.",
		},
		{
			name:        "bad credentials",
			err:         apperrors.ErrInvalidCredentials,
			wantStatus:  http.StatusUnauthorized,
			wantCode:    dto.ErrorCodeInvalidCredentials,
			wantMessage: "Invalid credentials",
		},
		{
			name:        "admin only",
			err:         apperrors.NewForbiddenError("Only an administrator can approve changes."),
			wantStatus:  http.StatusForbidden,
			wantCode:    dto.ErrorCodeForbidden,
			wantMessage: "Only an administrator can approve changes.",
		},
		{
			name:        "wrapped not found",
			err:         fmt.Errorf("%w: p9", apperrors.ErrPaymentNotFound),
			wantStatus:  http.StatusNotFound,
			wantCode:    dto.ErrorCodeResourceNotFound,
			wantMessage: "Payment not found",
		},
		{
			name:       "login taken",
			err:        fmt.Errorf("%w: priya", apperrors.ErrLoginIDExists),
			wantStatus: http.StatusConflict,
			wantCode:   dto.ErrorCodeResourceAlreadyExists,
		},
		{
			name:       "store down",
			err:        fmt.Errorf("loading: %w", apperrors.ErrStoreUnavailable),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   dto.ErrorCodeStoreUnavailable,
		},
		{
			name:        "unknown",
			err:         errors.New("boom"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    dto.ErrorCodeInternalServer,
			wantMessage: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, detail := errorResponse(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, detail.Code)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, detail.Message)
			}
		})
	}
}

func TestRoleRequired(t *testing.T) {
	m := &AuthMiddleware{}
	tests := []struct {
		name    string
		session *models.Session
		want    int
	}{
		{name: "no session", want: http.StatusUnauthorized},
		{name: "accountant", session: &models.Session{UserID: "priya", Role: models.RoleAccountant}, want: http.StatusForbidden},
		{name: "admin", session: &models.Session{UserID: "admin", Role: models.RoleAdmin}, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", func(c *gin.Context) {
				if tt.session != nil {
					c.Set(ContextSession, *tt.session)
				}
				c.Next()
			}, m.RoleRequired(models.RoleAdmin), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
