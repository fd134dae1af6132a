package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shikshalaya/attendance-api/internal/models"
	"github.com/shikshalaya/attendance-api/pkg/config"
	appErrors "github.com/shikshalaya/attendance-api/pkg/errors"
)

// AuthService verifies access tokens issued by the central auth service.
// This API never issues or refreshes tokens itself.
type AuthService struct {
	secret string
}

// NewAuthService constructs the token verifier.
func NewAuthService(cfg config.JWTConfig) *AuthService {
	return &AuthService{secret: cfg.Secret}
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}
