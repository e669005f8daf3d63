package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/totegamma/guardiansos/internal/domain"
	"github.com/totegamma/guardiansos/jwt"
)

var tracer = otel.Tracer("auth")

type AuthService struct {
	config *domain.Config
}

func NewAuthService(config *domain.Config) *AuthService {
	return &AuthService{
		config: config,
	}
}

type AuthResult struct {
	UserID string
}

// AuthJwt validates a bearer token. Every failure matches domain.ErrUnauthenticated.
func (s *AuthService) AuthJwt(ctx context.Context, token string) (*AuthResult, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.AuthJwt")
	defer span.End()

	claims, err := jwt.Validate(token, s.config.JWTSecret)
	if err != nil {
		span.RecordError(errors.Wrap(err, "jwt validation failed"))
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	if s.config.JWTIssuer != "" && claims.Issuer != s.config.JWTIssuer {
		err := fmt.Errorf("jwt issuer mismatch: expected %s, got %s", s.config.JWTIssuer, claims.Issuer)
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	return &AuthResult{UserID: claims.UserID()}, nil
}

// Authenticate resolves token to a user id.
func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	result, err := s.AuthJwt(ctx, token)
	if err != nil {
		return "", err
	}
	return result.UserID, nil
}
