package auth

import (
	"context"

	"github.com/goliatone/go-router"
)

var userCtxKey = &contextKey{"user"}
var claimsCtxKey = &contextKey{"claims"}
var requestMetaCtxKey = &contextKey{"request_meta"}

type contextKey struct {
	name string
}

// RequestMeta carries per-request transport attributes into the engine so
// issued ledger records can capture where a login came from.
type RequestMeta struct {
	UserAgent string
	IPAddress string
}

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(r context.Context, claims AuthClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}

// WithRequestMeta sets the request metadata in the given context
func WithRequestMeta(r context.Context, meta RequestMeta) context.Context {
	return context.WithValue(r, requestMetaCtxKey, meta)
}

// RequestMetaFromContext finds the request metadata from the context. An
// absent value yields the zero RequestMeta.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaCtxKey).(RequestMeta)
	return meta
}

// GetRouterClaims extracts the AuthClaims from the router context
func GetRouterClaims(ctx router.Context, key string) (AuthClaims, bool) {
	if key == "" {
		key = DefaultContextKey
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(AuthClaims)
	return claims, ok
}

// HasAuthority reports whether the claims in the context carry the given
// authority string.
func HasAuthority(ctx context.Context, authority string) bool {
	claims, ok := GetClaims(ctx)
	if !ok {
		return false
	}

	for _, a := range claims.Authorities() {
		if a == authority {
			return true
		}
	}

	return false
}

// HasAuthorityFromRouter is the router-context variant of HasAuthority.
func HasAuthorityFromRouter(ctx router.Context, authority string) bool {
	claims, ok := GetRouterClaims(ctx, "")
	if !ok {
		return false
	}

	for _, a := range claims.Authorities() {
		if a == authority {
			return true
		}
	}

	return false
}
