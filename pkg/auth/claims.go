package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/labledger/labledger-backend/pkg/enums"
)

// TokenPayload captures the data available when minting a JWT.
type TokenPayload struct {
	Subject string
	Role    enums.ActorRole
	JTI     string
}

// TokenClaims represents the typed JWT presented on admin routes.
type TokenClaims struct {
	Role enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
