package auth

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	pkgAuth "github.com/labledger/labledger-backend/pkg/auth"
	"github.com/labledger/labledger-backend/pkg/config"
	"github.com/labledger/labledger-backend/pkg/enums"
	pkgerrors "github.com/labledger/labledger-backend/pkg/errors"
	"github.com/labledger/labledger-backend/pkg/logger"
	"github.com/labledger/labledger-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service exchanges the configured admin credentials for a bearer token.
type Service interface {
	AdminLogin(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Admin  config.AdminConfig
	JWT    config.JWTConfig
	Logger *logger.Logger
	Now    func() time.Time
}

type service struct {
	admin config.AdminConfig
	jwt   config.JWTConfig
	logg  *logger.Logger
	now   func() time.Time
}

// NewService constructs the admin login service.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	if params.JWT.Secret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "jwt secret required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{admin: params.Admin, jwt: params.JWT, logg: params.Logger, now: now}, nil
}

// AdminLogin verifies the credentials and mints an admin token. Every
// credential failure answers with the same message.
func (s *service) AdminLogin(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	username := strings.TrimSpace(req.Username)
	ctx = s.logg.WithField(ctx, "username", username)

	if !s.admin.LoginEnabled() {
		s.logg.Warn(ctx, "auth.admin_login_disabled")
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	valid, err := security.VerifyPassword(req.Password, s.admin.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	sameUser := subtle.ConstantTimeCompare([]byte(username), []byte(strings.TrimSpace(s.admin.Username))) == 1
	if !valid || !sameUser {
		s.logg.Info(ctx, "auth.admin_login_rejected")
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	now := s.now().UTC()
	token, err := pkgAuth.MintToken(s.jwt, now, pkgAuth.TokenPayload{Subject: username, Role: enums.ActorRoleAdmin})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	s.logg.Info(ctx, "auth.admin_login")
	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		Role:        enums.ActorRoleAdmin,
		ExpiresAt:   now.Add(time.Duration(s.jwt.ExpirationMinutes) * time.Minute),
	}, nil
}
