package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/edupay/internal/app/models/dto"
	"github.com/yigit/edupay/internal/app/services"
	"github.com/yigit/edupay/internal/app/state"
	"github.com/yigit/edupay/internal/middleware"
	"github.com/yigit/edupay/internal/pkg/apperrors"
)

// ReportController serves derived views and the manual refresh
type ReportController struct {
	reportService services.ReportService
	refresher     *state.Refresher
	state         *state.Store
}

// NewReportController creates a new ReportController
func NewReportController(reportService services.ReportService, refresher *state.Refresher, st *state.Store) *ReportController {
	return &ReportController{reportService: reportService, refresher: refresher, state: st}
}

// GetDashboard returns the summary, collections by course and recent payments
// @Summary Dashboard
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=services.Dashboard} "Dashboard"
// @Router /dashboard [get]
func (c *ReportController) GetDashboard(ctx *gin.Context) {
	respond(ctx, http.StatusOK, c.reportService.Dashboard(ctx))
}

// GetSummary returns receivable, collected and outstanding totals
// @Summary Financial summary
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=services.Summary} "Summary"
// @Router /reports/summary [get]
func (c *ReportController) GetSummary(ctx *gin.Context) {
	respond(ctx, http.StatusOK, c.reportService.Summary(ctx))
}

// GetLedger returns every student's dues
// @Summary Fee ledger
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} dto.APIResponse{data=[]services.LedgerRow} "Ledger"
// @Failure 400 {object} dto.ErrorResponse "Invalid date range"
// @Router /reports/ledger [get]
func (c *ReportController) GetLedger(ctx *gin.Context) {
	rows, err := c.reportService.Ledger(ctx, dateRange(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, rows)
}

// GetCollections returns the most recent payments
// @Summary Recent collections
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param limit query int false "How many payments" default(5)
// @Success 200 {object} dto.APIResponse{data=[]services.PaymentRow} "Recent payments, newest first"
// @Router /reports/collections [get]
func (c *ReportController) GetCollections(ctx *gin.Context) {
	respond(ctx, http.StatusOK, c.reportService.RecentActivity(ctx, intQuery(ctx, "limit", services.DashboardRecent)))
}

// GetByCourse returns the amount collected per course
// @Summary Collections by course
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]services.CourseCollection} "Collections"
// @Router /reports/by-course [get]
func (c *ReportController) GetByCourse(ctx *gin.Context) {
	respond(ctx, http.StatusOK, c.reportService.CollectionsByCourse(ctx))
}

// ExportLedger downloads the fee ledger
// @Summary Export fee ledger
// @Tags reports
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv (default) or xlsx"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {file} file "Fee_Ledger_<date>.<ext>"
// @Router /reports/ledger/export [get]
func (c *ReportController) ExportLedger(ctx *gin.Context) {
	format, ok := exportFormat(ctx)
	if !ok {
		return
	}
	file, err := c.reportService.ExportLedger(ctx, format, dateRange(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	sendFile(ctx, file)
}

// GetReminderLink builds a WhatsApp pending-fee reminder
// @Summary Fee reminder link
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.LinkResponse} "Link"
// @Failure 400 {object} dto.ErrorResponse "No phone found"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /reports/ledger/{studentId}/reminder-link [get]
func (c *ReportController) GetReminderLink(ctx *gin.Context) {
	link, err := c.reportService.ReminderLink(ctx, ctx.Param("studentId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, dto.LinkResponse{URL: link})
}

// Sync reloads every collection from the store
// @Summary Refresh data
// @Description Collections that fail to load keep their previous contents
// @Tags system
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.SyncResponse} "Refreshed"
// @Failure 503 {object} dto.ErrorResponse "Store unavailable"
// @Router /sync [post]
func (c *ReportController) Sync(ctx *gin.Context) {
	err := c.refresher.Refresh(ctx.Request.Context())
	if err != nil && !errors.Is(err, apperrors.ErrRefreshSuperseded) {
		middleware.HandleAPIError(ctx, err)
		return
	}
	snap := c.state.Current()
	respond(ctx, http.StatusOK, dto.SyncResponse{LoadedAt: snap.LoadedAt, Counts: snap.Counts()})
}

// Health reports liveness and when data was last loaded
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} dto.HealthResponse "OK"
// @Router /health [get]
func (c *ReportController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", LoadedAt: c.state.Current().LoadedAt})
}
