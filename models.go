package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the identity record owned by the credential store.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	FirstName      string     `bun:"first_name" json:"first_name,omitempty"`
	LastName       string     `bun:"last_name" json:"last_name,omitempty"`
	Role           UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	PasswordHash   string     `bun:"password_hash,notnull" json:"-"`
	Enabled        bool       `bun:"is_enabled" json:"is_enabled,omitempty"`
	Locked         bool       `bun:"is_locked" json:"is_locked,omitempty"`
	FailedAttempts int        `bun:"failed_attempts" json:"failed_attempts,omitempty"`
	LockedAt       *time.Time `bun:"locked_at,nullzero" json:"locked_at,omitempty"`
	LastLoginAt    *time.Time `bun:"last_login_at,nullzero" json:"last_login_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// NormalizeEmail lowercases and trims the email so the unique index behaves
// case-insensitively regardless of caller input.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CanAuthenticate reports whether the account can enter password
// verification at all. Locked and disabled accounts are rejected up front.
func (u *User) CanAuthenticate() error {
	if u == nil {
		return ErrIdentityNotFound
	}
	if !u.Enabled {
		return ErrAccountDisabled
	}
	if u.Locked {
		return ErrAccountLocked
	}
	return nil
}

// TokenKind labels ledger records. Only bearer access tokens are persisted,
// refresh tokens are stateless and validated purely by the codec.
type TokenKind string

const (
	// TokenKindBearer is a persisted access token
	TokenKindBearer TokenKind = "bearer"
	// TokenKindRefresh is minted but never persisted in the ledger
	TokenKindRefresh TokenKind = "refresh"
)

// Token is one issued bearer credential tracked by the ledger.
type Token struct {
	bun.BaseModel `bun:"table:tokens,alias:tkn"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Token         string     `bun:"token,notnull,unique" json:"token,omitempty"`
	Kind          TokenKind  `bun:"kind,notnull" json:"kind,omitempty"`
	Revoked       bool       `bun:"revoked" json:"revoked,omitempty"`
	Expired       bool       `bun:"expired" json:"expired,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	UserAgent     string     `bun:"user_agent" json:"user_agent,omitempty"`
	IPAddress     string     `bun:"ip_address" json:"ip_address,omitempty"`
	LastUsedAt    *time.Time `bun:"last_used_at,nullzero" json:"last_used_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// IsLive reports whether the ledger record is neither revoked nor expired.
// A token is only fully valid when IsLive holds AND the codec independently
// confirms signature and expiry.
func (t *Token) IsLive() bool {
	return t != nil && !t.Revoked && !t.Expired
}
