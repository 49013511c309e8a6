package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/edupay/internal/app/models"
	"github.com/yigit/edupay/internal/app/models/dto"
	"github.com/yigit/edupay/internal/app/services"
	"github.com/yigit/edupay/internal/middleware"
)

// SettingsController handles the institution profile, lists and logo
type SettingsController struct {
	settingsService services.SettingsService
}

// NewSettingsController creates a new SettingsController
func NewSettingsController(settingsService services.SettingsService) *SettingsController {
	return &SettingsController{settingsService: settingsService}
}

// GetSettings returns the institution settings
// @Summary Get settings
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.Settings} "Settings"
// @Router /settings [get]
func (c *SettingsController) GetSettings(ctx *gin.Context) {
	respond(ctx, http.StatusOK, c.settingsService.Get(ctx))
}

// UpdateProfile changes the institution name, address and contact number
// @Summary Update institution profile
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Profile"
// @Success 200 {object} dto.APIResponse{data=models.Settings} "Settings"
// @Failure 400 {object} dto.ErrorResponse "Invalid profile"
// @Router /settings/profile [put]
func (c *SettingsController) UpdateProfile(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		return
	}
	var req dto.UpdateProfileRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	settings, err := c.settingsService.UpdateProfile(ctx, session, services.ProfileUpdate{
		InstitutionName: req.InstitutionName,
		Address:         req.Address,
		ContactNumber:   req.ContactNumber,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, settings)
}

// UploadLogo replaces the institution logo
// @Summary Upload logo
// @Description Image files up to 1 MB
// @Tags settings
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param logo formData file true "Logo image"
// @Success 200 {object} dto.APIResponse{data=models.Settings} "Settings"
// @Failure 400 {object} dto.ErrorResponse "Missing, oversized or non-image file"
// @Router /settings/logo [post]
func (c *SettingsController) UploadLogo(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		return
	}
	fileHeader, err := ctx.FormFile("logo")
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Choose a logo image.").WithField("logo")
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	defer file.Close()

	settings, err := c.settingsService.UploadLogo(ctx, session, services.LogoUpload{
		Filename: fileHeader.Filename,
		Content:  file,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, settings)
}

// AddListItem adds a branch, semester or session
// @Summary Add list value
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param list path string true "branches, semesters or sessions"
// @Param request body dto.ListItemRequest true "Value"
// @Success 200 {object} dto.APIResponse{data=models.Settings} "Settings"
// @Failure 400 {object} dto.ErrorResponse "Unknown list or empty value"
// @Router /settings/lists/{list} [post]
func (c *SettingsController) AddListItem(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		return
	}
	var req dto.ListItemRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	settings, err := c.settingsService.AddListItem(ctx, session, models.SettingsList(ctx.Param("list")), req.Value)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, settings)
}

// RemoveListItem removes a branch, semester or session
// @Summary Remove list value
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Param list path string true "branches, semesters or sessions"
// @Param value query string true "Value to remove"
// @Success 200 {object} dto.APIResponse{data=models.Settings} "Settings"
// @Failure 404 {object} dto.ErrorResponse "Value not in list"
// @Router /settings/lists/{list} [delete]
func (c *SettingsController) RemoveListItem(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		return
	}
	value := ctx.Query("value")
	if value == "" {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "value is required").WithField("value")
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	settings, err := c.settingsService.RemoveListItem(ctx, session, models.SettingsList(ctx.Param("list")), value)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, settings)
}
