package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	auth "github.com/nanopulse/go-auth"
)

func TestJWTClaims(t *testing.T) {
	t.Run("user id falls back to subject", func(t *testing.T) {
		claims := &auth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "subject-id"},
		}
		assert.Equal(t, "subject-id", claims.UserID())

		claims.UID = "uid-wins"
		assert.Equal(t, "uid-wins", claims.UserID())
	})

	t.Run("kind defaults to bearer", func(t *testing.T) {
		claims := &auth.JWTClaims{}
		assert.Equal(t, auth.TokenKindBearer, claims.Kind())
		assert.False(t, claims.IsRefresh())

		claims.TokenKind = auth.TokenKindRefresh
		assert.True(t, claims.IsRefresh())
	})

	t.Run("authorities derive from the role claim", func(t *testing.T) {
		claims := &auth.JWTClaims{UserRole: "admin"}
		assert.Equal(t, []string{"ROLE_ADMIN", "ROLE_USER"}, claims.Authorities())

		claims.UserRole = ""
		assert.Nil(t, claims.Authorities())
	})

	t.Run("timestamps tolerate missing claims", func(t *testing.T) {
		claims := &auth.JWTClaims{}
		assert.True(t, claims.Expires().IsZero())
		assert.True(t, claims.IssuedAt().IsZero())

		now := time.Now()
		claims.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(now)
		assert.WithinDuration(t, now, claims.Expires(), time.Second)
	})
}
