package auth

import "time"

// SimpleConfig is a concrete Config for embedding applications. Zero values
// fall back to the defaults below.
type SimpleConfig struct {
	SigningKey       string
	SigningMethod    string
	ContextKey       string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	Issuer           string
	Audience         []string
	TokenLookup      string
	AuthScheme       string
	ExemptPaths      []string
	MaxLoginAttempts int
}

const (
	// DefaultAccessTokenTTL keeps access tokens short-lived
	DefaultAccessTokenTTL = 15 * time.Minute
	// DefaultRefreshTokenTTL is deliberately long, refresh tokens are
	// stateless and only bounded by their own expiry
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
	// DefaultMaxLoginAttempts is the lockout threshold
	DefaultMaxLoginAttempts = 5
	// DefaultContextKey is where claims live in the request context
	DefaultContextKey = "user"
	// DefaultAuthScheme is the bearer header scheme
	DefaultAuthScheme = "Bearer"
)

var defaultExemptPaths = []string{"/auth", "/docs", "/swagger"}

var _ Config = (*SimpleConfig)(nil)

func (c *SimpleConfig) GetSigningKey() string { return c.SigningKey }

func (c *SimpleConfig) GetSigningMethod() string {
	if c.SigningMethod == "" {
		return "HS256"
	}
	return c.SigningMethod
}

func (c *SimpleConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return DefaultContextKey
	}
	return c.ContextKey
}

func (c *SimpleConfig) GetAccessTokenTTL() time.Duration {
	if c.AccessTokenTTL <= 0 {
		return DefaultAccessTokenTTL
	}
	return c.AccessTokenTTL
}

func (c *SimpleConfig) GetRefreshTokenTTL() time.Duration {
	if c.RefreshTokenTTL <= 0 {
		return DefaultRefreshTokenTTL
	}
	return c.RefreshTokenTTL
}

func (c *SimpleConfig) GetIssuer() string { return c.Issuer }

func (c *SimpleConfig) GetAudience() []string { return c.Audience }

func (c *SimpleConfig) GetTokenLookup() string {
	if c.TokenLookup == "" {
		return "header:Authorization"
	}
	return c.TokenLookup
}

func (c *SimpleConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return DefaultAuthScheme
	}
	return c.AuthScheme
}

func (c *SimpleConfig) GetExemptPaths() []string {
	if len(c.ExemptPaths) == 0 {
		return defaultExemptPaths
	}
	return c.ExemptPaths
}

func (c *SimpleConfig) GetMaxLoginAttempts() int {
	if c.MaxLoginAttempts <= 0 {
		return DefaultMaxLoginAttempts
	}
	return c.MaxLoginAttempts
}
