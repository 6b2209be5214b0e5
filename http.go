package auth

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"

	"github.com/nanopulse/go-auth/middleware/jwtware"
)

// LedgerGuard adapts the token repository to the middleware's liveness
// interface. A token the ledger has no record of is reported not live, so
// refresh tokens and foreign-but-validly-signed tokens never authenticate a
// request.
type LedgerGuard struct {
	tokens Tokens
}

// NewLedgerGuard wires the guard to the token ledger.
func NewLedgerGuard(tokens Tokens) *LedgerGuard {
	return &LedgerGuard{tokens: tokens}
}

// IsLive reports whether the ledger holds a live record for the raw token.
func (g *LedgerGuard) IsLive(ctx context.Context, rawToken string) (bool, error) {
	record, err := g.tokens.GetByRawToken(ctx, rawToken)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return false, nil
		}
		return false, err
	}

	return record.IsLive(), nil
}

// TouchLastUsed stamps the ledger record's last-used timestamp.
func (g *LedgerGuard) TouchLastUsed(ctx context.Context, rawToken string, at time.Time) error {
	return g.tokens.TouchLastUsed(ctx, rawToken, at)
}

var _ jwtware.TokenLedger = (*LedgerGuard)(nil)

// claimsAdapter bridges the package AuthClaims into the middleware's local
// mirror of the interface.
type claimsAdapter struct {
	AuthClaims
}

// validatorAdapter lets the middleware call the package token codec.
type validatorAdapter struct {
	service TokenService
}

func (v validatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.service.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	if claims, ok := claims.(jwtware.AuthClaims); ok {
		return claims, nil
	}

	return claimsAdapter{AuthClaims: claims}, nil
}

// ProtectedRouteOptions tune the middleware produced by ProtectedRoute.
type ProtectedRouteOptions struct {
	// StrictRevocation turns revoked tokens into a 401 instead of letting
	// the request proceed unauthenticated.
	StrictRevocation bool
	ErrorHandler     router.ErrorHandler

	// IdentityProvider re-resolves the token subject against the credential
	// store on every request. Accounts disabled or locked after the token
	// was minted fail resolution and lose their session immediately instead
	// of riding out the token's TTL.
	IdentityProvider IdentityProvider
}

// ProtectedRoute builds the bearer validation middleware from the engine's
// configuration: the codec verifies signature and expiry, the ledger guard
// checks liveness, and exempt path prefixes bypass the filter entirely.
func ProtectedRoute(cfg Config, service TokenService, tokens Tokens, opts ...ProtectedRouteOptions) router.MiddlewareFunc {
	var opt ProtectedRouteOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	mwCfg := jwtware.Config{
		Filter:           jwtware.ExemptPathsFilter(cfg.GetExemptPaths()...),
		TokenValidator:   validatorAdapter{service: service},
		ContextKey:       cfg.GetContextKey(),
		TokenLookup:      cfg.GetTokenLookup(),
		AuthScheme:       cfg.GetAuthScheme(),
		StrictRevocation: opt.StrictRevocation,
		ErrorHandler:     opt.ErrorHandler,
		ContextEnricher: func(ctx context.Context, claims jwtware.AuthClaims) context.Context {
			if ac, ok := claims.(AuthClaims); ok {
				return WithClaimsContext(ctx, ac)
			}
			return ctx
		},
	}

	if tokens != nil {
		mwCfg.Ledger = NewLedgerGuard(tokens)
	}

	if opt.IdentityProvider != nil {
		mwCfg.IdentityResolver = func(ctx context.Context, subject string) error {
			_, err := opt.IdentityProvider.FindIdentityByIdentifier(ctx, subject)
			return err
		}
	}

	return jwtware.New(mwCfg)
}

// RouterErrorResponse is the wire shape for auth failures at the HTTP
// boundary.
type RouterErrorResponse struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RenderAuthError translates the package error taxonomy into a structured
// JSON response with the right status code.
func RenderAuthError(ctx router.Context, err error) error {
	resp := RouterErrorResponse{
		Status:  router.StatusInternalServerError,
		Error:   "Internal Server Error",
		Message: "An unexpected error occurred",
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		switch richErr.Category {
		case goerrors.CategoryAuth, goerrors.CategoryAuthz:
			resp.Status = router.StatusUnauthorized
			resp.Error = "Unauthorized"
			resp.Message = richErr.Message
		case goerrors.CategoryConflict:
			resp.Status = fiber.StatusConflict
			resp.Error = "Conflict"
			resp.Message = richErr.Message
		case goerrors.CategoryValidation, goerrors.CategoryBadInput:
			resp.Status = router.StatusBadRequest
			resp.Error = "Bad Request"
			resp.Message = richErr.Message
		case goerrors.CategoryNotFound:
			resp.Status = fiber.StatusNotFound
			resp.Error = "Not Found"
			resp.Message = richErr.Message
		}

		if errors.Is(err, ErrAccountLocked) || errors.Is(err, ErrAccountDisabled) {
			resp.Status = router.StatusForbidden
			resp.Error = "Forbidden"
		}
	}

	return ctx.JSON(resp.Status, resp)
}
