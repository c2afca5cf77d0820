package auth

import (
	"time"

	"github.com/labledger/labledger-backend/pkg/enums"
)

// LoginRequest carries the lab-office credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=256"`
}

// LoginResponse is the bearer token for the admin routes.
type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	Role        enums.ActorRole `json:"role"`
	ExpiresAt   time.Time       `json:"expires_at"`
}
