package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	appauth "github.com/yigit/edupay/internal/app/auth"
	"github.com/yigit/edupay/internal/app/models/dto"
	"github.com/yigit/edupay/internal/middleware"
)

// AuthController handles login, logout and the current session
type AuthController struct {
	authenticator *appauth.Authenticator
}

// NewAuthController creates a new AuthController
func NewAuthController(authenticator *appauth.Authenticator) *AuthController {
	return &AuthController{authenticator: authenticator}
}

// Login handles user login
// @Summary Log in
// @Description Checks the administrator credentials first, then accountants, and issues a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Logged in"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	result, err := c.authenticator.Login(req.LoginID, req.Password)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respond(ctx, http.StatusOK, dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken: result.Token,
			TokenType:   "Bearer",
			ExpiresAt:   result.ExpiresAt,
		},
		User: result.Session,
	})
}

// Logout revokes the caller's token
// @Summary Log out
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Logged out"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	c.authenticator.Logout(ctx.GetString(middleware.ContextToken))
	respond(ctx, http.StatusOK, dto.SuccessResponse{Message: "Logged out"})
}

// Me returns the caller's session
// @Summary Current session
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.Session} "Current session"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	session, ok := currentSession(ctx)
	if !ok {
		return
	}
	respond(ctx, http.StatusOK, session)
}
