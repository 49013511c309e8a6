package dto

import (
	"time"

	"github.com/yigit/edupay/internal/app/models"
)

// LoginRequest represents login credentials
type LoginRequest struct {
	LoginID  string `json:"loginId" binding:"required" example:"admin"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType" example:"Bearer"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse  `json:"token"`
	User  models.Session `json:"user"`
}
