package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/edupay/internal/app/models/dto"
	"github.com/yigit/edupay/internal/app/services"
	"github.com/yigit/edupay/internal/middleware"
)

// AccountantController manages accountant logins
type AccountantController struct {
	accountantService services.AccountantService
}

// NewAccountantController creates a new AccountantController
func NewAccountantController(accountantService services.AccountantService) *AccountantController {
	return &AccountantController{accountantService: accountantService}
}

func accountantInput(req dto.AccountantRequest) services.AccountantInput {
	return services.AccountantInput{Name: req.Name, UserID: req.UserID, Password: req.Password}
}

// ListAccountants returns accountants without their passwords
// @Summary List accountants
// @Tags accountants
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Accountant} "Accountants"
// @Router /accountants [get]
func (c *AccountantController) ListAccountants(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		return
	}
	list, err := c.accountantService.List(ctx, session)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, list)
}

// CreateAccountant adds an accountant login
// @Summary Create accountant
// @Tags accountants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AccountantRequest true "Accountant"
// @Success 201 {object} dto.APIResponse{data=models.Accountant} "Accountant created"
// @Failure 409 {object} dto.ErrorResponse "Login id already in use"
// @Router /accountants [post]
func (c *AccountantController) CreateAccountant(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		return
	}
	var req dto.AccountantRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	acc, err := c.accountantService.Create(ctx, session, accountantInput(req))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, acc)
}

// UpdateAccountant changes an accountant; an empty password keeps the old one
// @Summary Update accountant
// @Tags accountants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Accountant ID"
// @Param request body dto.AccountantRequest true "Accountant"
// @Success 200 {object} dto.APIResponse{data=models.Accountant} "Accountant updated"
// @Failure 404 {object} dto.ErrorResponse "Accountant not found"
// @Router /accountants/{id} [put]
func (c *AccountantController) UpdateAccountant(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		return
	}
	var req dto.AccountantRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	acc, err := c.accountantService.Update(ctx, session, ctx.Param("id"), accountantInput(req))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, acc)
}

// DeleteAccountant removes an accountant
// @Summary Delete accountant
// @Tags accountants
// @Produce json
// @Security BearerAuth
// @Param id path string true "Accountant ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Accountant deleted"
// @Failure 404 {object} dto.ErrorResponse "Accountant not found"
// @Router /accountants/{id} [delete]
func (c *AccountantController) DeleteAccountant(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		return
	}
	if err := c.accountantService.Delete(ctx, session, ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, dto.SuccessResponse{Message: "Accountant deleted"})
}
