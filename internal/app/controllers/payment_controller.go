package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/edupay/internal/app/models/dto"
	"github.com/yigit/edupay/internal/app/services"
	"github.com/yigit/edupay/internal/middleware"
)

// PaymentController handles collection, edits, approvals and receipts
type PaymentController struct {
	paymentService services.PaymentService
	reportService  services.ReportService
}

// NewPaymentController creates a new PaymentController
func NewPaymentController(paymentService services.PaymentService, reportService services.ReportService) *PaymentController {
	return &PaymentController{paymentService: paymentService, reportService: reportService}
}

// ListPayments returns payments matching an optional search and date range
// @Summary List payments
// @Description q matches transaction id, UPI id, bank account, student name or receipt number
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search text"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} dto.APIResponse{data=[]services.PaymentRow} "Payments"
// @Failure 400 {object} dto.ErrorResponse "Invalid date range"
// @Router /payments [get]
func (c *PaymentController) ListPayments(ctx *gin.Context) {
	rows, err := c.reportService.SearchPayments(ctx, ctx.Query("q"), dateRange(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, rows)
}

// CreatePayment records a payment
// @Summary Record a payment
// @Description Rejects a transaction id already used by another payment (case-insensitive, trimmed)
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreatePaymentRequest true "Payment"
// @Success 201 {object} dto.APIResponse{data=models.Payment} "Payment recorded"
// @Failure 400 {object} dto.ErrorResponse "Invalid payment data"
// @Failure 409 {object} dto.ErrorResponse "Duplicate transaction id"
// @Router /payments [post]
func (c *PaymentController) CreatePayment(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		return
	}
	var req dto.CreatePaymentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	payment, err := c.paymentService.Record(ctx, session, services.PaymentInput{
		StudentID:     req.StudentID,
		Amount:        req.Amount,
		Date:          req.Date,
		PaymentMethod: req.PaymentMethod,
		FeeHeadIDs:    req.FeeHeadIDs,
		SessionID:     req.SessionID,
		TransactionID: req.TransactionID,
		UPIID:         req.UPIID,
		BankAccount:   req.BankAccount,
		Remarks:       req.Remarks,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, payment)
}

// UpdatePayment edits a payment
// @Summary Edit a payment
// @Description Administrators edit in place (200); accountants create a pending change (202)
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Param request body dto.UpdatePaymentRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=services.EditResult} "Edit applied"
// @Success 202 {object} dto.APIResponse{data=services.EditResult} "Submitted for approval"
// @Failure 404 {object} dto.ErrorResponse "Payment not found"
// @Failure 409 {object} dto.ErrorResponse "Duplicate transaction id"
// @Router /payments/{id} [put]
func (c *PaymentController) UpdatePayment(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		return
	}
	var req dto.UpdatePaymentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	result, err := c.paymentService.Edit(ctx, session, ctx.Param("id"), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	status := http.StatusOK
	if result.Outcome == services.OutcomeSubmitted {
		status = http.StatusAccepted
	}
	respond(ctx, status, result)
}

// GetReceipt returns the data for a printable receipt
// @Summary Receipt data
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {object} dto.APIResponse{data=services.Receipt} "Receipt"
// @Failure 404 {object} dto.ErrorResponse "Payment not found"
// @Router /payments/{id}/receipt [get]
func (c *PaymentController) GetReceipt(ctx *gin.Context) {
	receipt, err := c.paymentService.Receipt(ctx, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, receipt)
}

// GetShareLink builds a WhatsApp link sharing the receipt with the student
// @Summary Receipt share link
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {object} dto.APIResponse{data=dto.LinkResponse} "Link"
// @Failure 400 {object} dto.ErrorResponse "No student phone number"
// @Failure 404 {object} dto.ErrorResponse "Payment not found"
// @Router /payments/{id}/share-link [get]
func (c *PaymentController) GetShareLink(ctx *gin.Context) {
	link, err := c.reportService.ShareLink(ctx, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, dto.LinkResponse{URL: link})
}

// ExportPayments downloads the payment history
// @Summary Export payment history
// @Tags payments
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv (default) or xlsx"
// @Param q query string false "Search text"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {file} file "Payment_History_<date>.<ext>"
// @Failure 400 {object} dto.ErrorResponse "Invalid format or date range"
// @Router /payments/export [get]
func (c *PaymentController) ExportPayments(ctx *gin.Context) {
	format, ok := exportFormat(ctx)
	if !ok {
		return
	}
	file, err := c.reportService.ExportPayments(ctx, format, ctx.Query("q"), dateRange(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	sendFile(ctx, file)
}

// ListPendingChanges returns edits awaiting approval
// @Summary List pending changes
// @Tags approvals
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]services.PendingView} "Pending changes"
// @Failure 403 {object} dto.ErrorResponse "Administrator only"
// @Router /pending-changes [get]
func (c *PaymentController) ListPendingChanges(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		return
	}
	views, err := c.paymentService.ListPending(ctx, session)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, views)
}

// ApproveChange applies a pending change
// @Summary Approve a pending change
// @Tags approvals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pending change ID"
// @Success 200 {object} dto.APIResponse{data=models.Payment} "Change applied"
// @Failure 404 {object} dto.ErrorResponse "Pending change not found"
// @Router /pending-changes/{id}/approve [post]
func (c *PaymentController) ApproveChange(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		return
	}
	payment, err := c.paymentService.Approve(ctx, session, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, payment)
}

// RejectChange discards a pending change
// @Summary Reject a pending change
// @Tags approvals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pending change ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Change rejected"
// @Failure 404 {object} dto.ErrorResponse "Pending change not found"
// @Router /pending-changes/{id}/reject [post]
func (c *PaymentController) RejectChange(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		return
	}
	if err := c.paymentService.Reject(ctx, session, ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, dto.SuccessResponse{Message: "Change rejected"})
}
