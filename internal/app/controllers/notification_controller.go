package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/edupay/internal/app/models"
	"github.com/yigit/edupay/internal/app/models/dto"
	"github.com/yigit/edupay/internal/app/services"
	"github.com/yigit/edupay/internal/middleware"
)

// NotificationController serves console notifications
type NotificationController struct {
	notificationService services.NotificationService
}

// NewNotificationController creates a new NotificationController
func NewNotificationController(notificationService services.NotificationService) *NotificationController {
	return &NotificationController{notificationService: notificationService}
}

// notificationsResponse is the notification list with its unread count
type notificationsResponse struct {
	Unread int                   `json:"unread"`
	Items  []models.Notification `json:"items"`
}

// ListNotifications returns notifications, newest first
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse "Notifications and unread count"
// @Router /notifications [get]
func (c *NotificationController) ListNotifications(ctx *gin.Context) {
	respond(ctx, http.StatusOK, notificationsResponse{
		Unread: c.notificationService.Unread(ctx),
		Items:  c.notificationService.List(ctx),
	})
}

// MarkRead flags a notification as read
// @Summary Mark notification read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Marked read"
// @Failure 404 {object} dto.ErrorResponse "Notification not found"
// @Router /notifications/{id}/read [post]
func (c *NotificationController) MarkRead(ctx *gin.Context) {
	if err := c.notificationService.MarkRead(ctx, ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, dto.SuccessResponse{Message: "Marked read"})
}
