// Package auth consumes access tokens issued elsewhere. The marketplace's
// identity service signs them; this process only verifies and extracts the
// principal.
package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"estateline/internal/domain/principal"
	estateline_errors "estateline/pkg/errors"
)

type AccessClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type TokenParser struct {
	secret []byte
}

func NewTokenParser(secret string) *TokenParser {
	return &TokenParser{secret: []byte(secret)}
}

// Parse verifies the token and returns the principal it carries. Every
// failure collapses to ErrUnauthorized; callers get no hint why.
func (p *TokenParser) Parse(tokenString string) (principal.Principal, error) {
	if tokenString == "" {
		return principal.Principal{}, estateline_errors.ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, estateline_errors.ErrUnauthorized
		}
		return p.secret, nil
	})
	if err != nil || !parsed.Valid {
		return principal.Principal{}, estateline_errors.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok {
		return principal.Principal{}, estateline_errors.ErrUnauthorized
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return principal.Principal{}, estateline_errors.ErrUnauthorized
	}
	role, err := principal.ParseRole(claims.Role)
	if err != nil {
		return principal.Principal{}, estateline_errors.ErrUnauthorized
	}

	return principal.Principal{UserID: userID, Role: role}, nil
}
