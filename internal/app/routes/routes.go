package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/edupay/internal/app/controllers"
	"github.com/yigit/edupay/internal/app/models"
	"github.com/yigit/edupay/internal/middleware"
	"github.com/yigit/edupay/internal/pkg/websocket"
)

// Controllers groups every handler the router mounts
type Controllers struct {
	Auth         *controllers.AuthController
	Course       *controllers.CourseController
	Student      *controllers.StudentController
	Payment      *controllers.PaymentController
	Report       *controllers.ReportController
	Settings     *controllers.SettingsController
	Accountant   *controllers.AccountantController
	Notification *controllers.NotificationController
	Events       *websocket.Handler
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, ctrl Controllers, authMiddleware *middleware.AuthMiddleware) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public routes ---
	v1.POST("/auth/login", ctrl.Auth.Login)
	v1.GET("/health", ctrl.Report.Health)

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	// Admin-only routes; services check the role again
	admin := authenticated.Group("")
	admin.Use(authMiddleware.RoleRequired(models.RoleAdmin))

	auth := authenticated.Group("/auth")
	{
		auth.POST("/logout", ctrl.Auth.Logout)
		auth.GET("/me", ctrl.Auth.Me)
	}

	authenticated.GET("/dashboard", ctrl.Report.GetDashboard)
	authenticated.POST("/sync", ctrl.Report.Sync)
	authenticated.GET("/ws", ctrl.Events.HandleConnection)

	authenticated.GET("/courses", ctrl.Course.ListCourses)
	courses := admin.Group("/courses")
	{
		courses.POST("", ctrl.Course.CreateCourse)
		courses.PUT("/:id", ctrl.Course.UpdateCourse)
		courses.DELETE("/:id", ctrl.Course.DeleteCourse)
	}

	authenticated.GET("/students", ctrl.Student.ListStudents)
	students := admin.Group("/students")
	{
		students.POST("", ctrl.Student.CreateStudent)
		students.PUT("/:id", ctrl.Student.UpdateStudent)
		students.DELETE("/:id", ctrl.Student.DeleteStudent)
	}

	// Accountants record payments and submit edits for approval
	payments := authenticated.Group("/payments")
	{
		payments.GET("", ctrl.Payment.ListPayments)
		payments.POST("", ctrl.Payment.CreatePayment)
		payments.GET("/export", ctrl.Payment.ExportPayments)
		payments.PUT("/:id", ctrl.Payment.UpdatePayment)
		payments.GET("/:id/receipt", ctrl.Payment.GetReceipt)
		payments.GET("/:id/share-link", ctrl.Payment.GetShareLink)
	}

	pending := admin.Group("/pending-changes")
	{
		pending.GET("", ctrl.Payment.ListPendingChanges)
		pending.POST("/:id/approve", ctrl.Payment.ApproveChange)
		pending.POST("/:id/reject", ctrl.Payment.RejectChange)
	}

	reports := authenticated.Group("/reports")
	{
		reports.GET("/summary", ctrl.Report.GetSummary)
		reports.GET("/ledger", ctrl.Report.GetLedger)
		reports.GET("/ledger/export", ctrl.Report.ExportLedger)
		reports.GET("/ledger/:studentId/reminder-link", ctrl.Report.GetReminderLink)
		reports.GET("/collections", ctrl.Report.GetCollections)
		reports.GET("/by-course", ctrl.Report.GetByCourse)
	}

	authenticated.GET("/settings", ctrl.Settings.GetSettings)
	settings := admin.Group("/settings")
	{
		settings.PUT("/profile", ctrl.Settings.UpdateProfile)
		settings.POST("/logo", ctrl.Settings.UploadLogo)
		settings.POST("/lists/:list", ctrl.Settings.AddListItem)
		settings.DELETE("/lists/:list", ctrl.Settings.RemoveListItem)
	}

	accountants := admin.Group("/accountants")
	{
		accountants.GET("", ctrl.Accountant.ListAccountants)
		accountants.POST("", ctrl.Accountant.CreateAccountant)
		accountants.PUT("/:id", ctrl.Accountant.UpdateAccountant)
		accountants.DELETE("/:id", ctrl.Accountant.DeleteAccountant)
	}

	notifications := authenticated.Group("/notifications")
	{
		notifications.GET("", ctrl.Notification.ListNotifications)
		notifications.POST("/:id/read", ctrl.Notification.MarkRead)
	}
}
