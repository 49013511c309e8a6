package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/edupay/internal/app/models"
	"github.com/yigit/edupay/internal/app/models/dto"
	"github.com/yigit/edupay/internal/app/services"
	"github.com/yigit/edupay/internal/middleware"
	"github.com/yigit/edupay/internal/pkg/export"
)

// currentSession returns the caller's session, writing a 401 when the auth
// middleware did not run.
func currentSession(ctx *gin.Context) (models.Session, bool) {
	session, ok := middleware.GetSession(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return models.Session{}, false
	}
	return session, true
}

func dateRange(ctx *gin.Context) services.DateRange {
	return services.DateRange{From: ctx.Query("from"), To: ctx.Query("to")}
}

func exportFormat(ctx *gin.Context) (export.Format, bool) {
	format, err := export.ParseFormat(ctx.Query("format"))
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Unsupported export format").WithField("format")
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail.WithDetails(err.Error())))
		return "", false
	}
	return format, true
}

func sendFile(ctx *gin.Context, file *export.File) {
	ctx.Header("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	ctx.Data(http.StatusOK, file.ContentType, file.Data)
}

func respond(ctx *gin.Context, status int, data interface{}) {
	ctx.JSON(status, dto.NewDataResponse(data))
}

// intQuery reads a positive integer query parameter, falling back to def.
func intQuery(ctx *gin.Context, name string, def int) int {
	n, err := strconv.Atoi(ctx.Query(name))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
