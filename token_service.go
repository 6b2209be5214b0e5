package auth

import (
	"errors"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/golang-jwt/jwt/v5"
)

// TokenService is the codec that mints and verifies signed bearer tokens.
// Signature and expiry are self-contained; liveness (not-yet-revoked) is the
// ledger's job, the codec alone cannot determine revocation.
type TokenService interface {
	IssueAccessToken(identity Identity, metadata map[string]any) (string, error)
	IssueRefreshToken(identity Identity) (string, error)
	Validate(tokenString string) (AuthClaims, error)
	AccessTokenTTL() time.Duration
	RefreshTokenTTL() time.Duration
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey      []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	issuer          string
	audience        jwt.ClaimStrings
	logger          Logger
	timeFunc        func() time.Time
}

// TokenServiceOption customizes a TokenServiceImpl
type TokenServiceOption func(*TokenServiceImpl)

// WithTokenServiceLogger overrides the logger
func WithTokenServiceLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// WithTokenServiceClock injects a clock, useful to simulate expiry in tests
func WithTokenServiceClock(clock func() time.Time) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if clock != nil {
			ts.timeFunc = clock
		}
	}
}

// NewTokenService creates a new TokenService instance from configuration
func NewTokenService(cfg Config, opts ...TokenServiceOption) *TokenServiceImpl {
	ts := &TokenServiceImpl{
		signingKey:      []byte(cfg.GetSigningKey()),
		accessTokenTTL:  cfg.GetAccessTokenTTL(),
		refreshTokenTTL: cfg.GetRefreshTokenTTL(),
		issuer:          cfg.GetIssuer(),
		audience:        cfg.GetAudience(),
		logger:          defLogger{},
		timeFunc:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts
}

// AccessTokenTTL is the exact configured access token lifetime. Callers use
// it to report expiresIn, so it must match the minted exp claim.
func (ts *TokenServiceImpl) AccessTokenTTL() time.Duration {
	return ts.accessTokenTTL
}

// RefreshTokenTTL is the configured refresh token lifetime
func (ts *TokenServiceImpl) RefreshTokenTTL() time.Duration {
	return ts.refreshTokenTTL
}

// IssueAccessToken mints a short-lived bearer token for the identity. The
// metadata map rides along as an extension claim.
func (ts *TokenServiceImpl) IssueAccessToken(identity Identity, metadata map[string]any) (string, error) {
	if identity == nil {
		return "", goerrors.New("identity is required", goerrors.CategoryBadInput)
	}

	claims := ts.newClaims(identity, TokenKindBearer, ts.accessTokenTTL)
	claims.Metadata = metadata

	return ts.signClaims(claims)
}

// IssueRefreshToken mints a long-lived refresh token. Refresh tokens are
// stateless: the ledger never records them, only signature and expiry bound
// their validity.
func (ts *TokenServiceImpl) IssueRefreshToken(identity Identity) (string, error) {
	if identity == nil {
		return "", goerrors.New("identity is required", goerrors.CategoryBadInput)
	}

	return ts.signClaims(ts.newClaims(identity, TokenKindRefresh, ts.refreshTokenTTL))
}

func (ts *TokenServiceImpl) newClaims(identity Identity, kind TokenKind, ttl time.Duration) *JWTClaims {
	now := ts.timeFunc()

	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UID:       identity.ID(),
		UserRole:  string(identity.Role()),
		TokenKind: kind,
	}

	ensureTokenID(&claims.RegisteredClaims)

	return claims
}

func (ts *TokenServiceImpl) signClaims(claims *JWTClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and verifies a token string, returning structured claims.
// Expired tokens map to ErrTokenExpired, everything else that fails parsing
// or signature checks maps to ErrTokenMalformed.
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithTimeFunc(ts.timeFunc),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode or validate claims")
	return nil, ErrTokenMalformed
}

var _ TokenService = (*TokenServiceImpl)(nil)
