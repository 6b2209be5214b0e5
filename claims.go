package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthClaims represents structured JWT claims as seen by callers that do not
// care about the signing implementation.
type AuthClaims interface {
	Subject() string
	UserID() string
	Role() string
	Kind() TokenKind
	Authorities() []string
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID       string         `json:"uid,omitempty"`
	UserRole  string         `json:"role,omitempty"`
	TokenKind TokenKind      `json:"kind,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID, falling back to the subject claim
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Role returns the role claim
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// Kind returns the token kind, defaulting to bearer for legacy tokens that
// predate the kind claim
func (c *JWTClaims) Kind() TokenKind {
	if c.TokenKind == "" {
		return TokenKindBearer
	}
	return c.TokenKind
}

// IsRefresh reports whether this is a refresh token
func (c *JWTClaims) IsRefresh() bool {
	return c.Kind() == TokenKindRefresh
}

// Authorities derives the authority set from the role claim
func (c *JWTClaims) Authorities() []string {
	return Authorities(UserRole(c.UserRole))
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
