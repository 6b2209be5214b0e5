package auth

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ErrDuplicateIdentity is returned when a registration collides with an
// existing email. The engine-level existence check is advisory; the unique
// index on users.email is the real guarantee and constraint violations are
// mapped to this same error.
var ErrDuplicateIdentity = goerrors.New("email already registered", goerrors.CategoryConflict).
	WithTextCode("DUPLICATE_IDENTITY").
	WithCode(goerrors.CodeConflict)

// ErrInvalidCredentials is the generic login failure. It deliberately does
// not distinguish an unknown email from a wrong password.
var ErrInvalidCredentials = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountLocked is returned once the failed-attempt threshold has been
// reached. Locked accounts are rejected before the password is verified.
var ErrAccountLocked = goerrors.New("account is locked", goerrors.CategoryAuth).
	WithTextCode("ACCOUNT_LOCKED").
	WithCode(goerrors.CodeForbidden)

// ErrAccountDisabled is returned for accounts deactivated by admin tooling.
var ErrAccountDisabled = goerrors.New("account is disabled", goerrors.CategoryAuth).
	WithTextCode("ACCOUNT_DISABLED").
	WithCode(goerrors.CodeForbidden)

// ErrTokenExpired is returned when a token fails wall-clock expiry.
var ErrTokenExpired = goerrors.New("Token has expired", goerrors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed covers malformed tokens and bad signatures.
var ErrTokenMalformed = goerrors.New("Invalid token", goerrors.CategoryAuth).
	WithTextCode("TOKEN_INVALID").
	WithCode(goerrors.CodeUnauthorized)

// ErrIdentityNotFound signals a missing user on an internal lookup that
// should never fail post-validation. Treated as a defect, not a business
// error, but still rendered as a safe response at the boundary.
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode("IDENTITY_NOT_FOUND").
	WithCode(goerrors.CodeNotFound)

// ErrMismatchedHashAndPassword is the hasher-level mismatch. Callers expose
// it as ErrInvalidCredentials.
var ErrMismatchedHashAndPassword = goerrors.New("password does not match", goerrors.CategoryAuth).
	WithTextCode("PASSWORD_MISMATCH").
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString rejects empty input where a value is required.
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryValidation).
	WithTextCode("EMPTY_VALUE").
	WithCode(goerrors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens, including errors
// surfaced by the underlying JWT library.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for malformed or badly signed tokens.
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "signature is invalid") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
