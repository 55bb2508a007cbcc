package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estateline/internal/domain/principal"
	estateline_errors "estateline/pkg/errors"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims AccessClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestParseValidToken(t *testing.T) {
	parser := NewTokenParser(testSecret)
	userID := uuid.New()

	token := signToken(t, testSecret, AccessClaims{
		UserID: userID.String(),
		Role:   "agent",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	p, err := parser.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, userID, p.UserID)
	assert.Equal(t, principal.RoleAgent, p.Role)
}

func TestParseFailuresCollapseToUnauthorized(t *testing.T) {
	parser := NewTokenParser(testSecret)
	userID := uuid.New().String()
	future := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}

	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"wrong secret", signToken(t, "other-secret", AccessClaims{UserID: userID, Role: "buyer", RegisteredClaims: future})},
		{"expired", signToken(t, testSecret, AccessClaims{
			UserID: userID,
			Role:   "buyer",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})},
		{"bad user id", signToken(t, testSecret, AccessClaims{UserID: "not-a-uuid", Role: "buyer", RegisteredClaims: future})},
		{"unknown role", signToken(t, testSecret, AccessClaims{UserID: userID, Role: "admin", RegisteredClaims: future})},
		{"missing role", signToken(t, testSecret, AccessClaims{UserID: userID, RegisteredClaims: future})},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parser.Parse(tc.token)
			assert.ErrorIs(t, err, estateline_errors.ErrUnauthorized)
		})
	}
}

func TestParseRejectsUnsignedToken(t *testing.T) {
	parser := NewTokenParser(testSecret)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, AccessClaims{
		UserID: uuid.New().String(),
		Role:   "buyer",
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = parser.Parse(signed)
	assert.ErrorIs(t, err, estateline_errors.ErrUnauthorized)
}
