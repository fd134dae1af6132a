package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims embeds the registered claims plus application identity.
// Tokens are issued by the central auth service; this API only verifies.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}
