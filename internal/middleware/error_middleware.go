package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yigit/edupay/internal/app/models/dto"
	"github.com/yigit/edupay/internal/pkg/apperrors"
	"github.com/yigit/edupay/internal/pkg/logger"
)

// HandleAPIError maps service errors onto status codes. Messages that were
// written for the user are passed through.
func HandleAPIError(c *gin.Context, err error) {
	status, detail := errorResponse(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}

func errorResponse(err error) (int, *dto.ErrorDetail) {
	var dup *apperrors.DuplicateTransactionError
	switch {
	case errors.As(err, &dup):
		detail := dto.NewErrorDetail(dto.ErrorCodeDuplicateTransaction, dup.Error()).WithField("transactionId")
		if dup.PaymentID != "" {
			detail = detail.WithDetails(map[string]string{"paymentId": dup.PaymentID, "studentName": dup.StudentName})
		}
		return http.StatusConflict, detail
	case errors.Is(err, apperrors.ErrValidationFailed), errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, apperrors.Message(err, "Validation failed"))
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidCredentials, "Invalid credentials")
	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")
	case errors.Is(err, apperrors.ErrTokenInvalid), errors.Is(err, apperrors.ErrTokenRevoked):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeForbidden, apperrors.Message(err, "Permission denied"))
	case apperrors.Is(err, apperrors.ErrResourceNotFound,
		apperrors.ErrPaymentNotFound, apperrors.ErrPendingNotFound, apperrors.ErrStudentNotFound,
		apperrors.ErrCourseNotFound, apperrors.ErrAccountantNotFound):
		return http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, notFoundMessage(err))
	case errors.Is(err, apperrors.ErrLoginIDExists):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Login id already in use").WithField("userId")
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeConflict, apperrors.Message(err, "Conflict"))
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, dto.NewErrorDetail(dto.ErrorCodeStoreUnavailable, "Data store unavailable, please retry")
	default:
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
	}
}

func notFoundMessage(err error) string {
	for _, target := range []error{
		apperrors.ErrPaymentNotFound, apperrors.ErrPendingNotFound, apperrors.ErrStudentNotFound,
		apperrors.ErrCourseNotFound, apperrors.ErrAccountantNotFound,
	} {
		if errors.Is(err, target) {
			return capitalize(target.Error())
		}
	}
	return apperrors.Message(err, "Resource not found")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
