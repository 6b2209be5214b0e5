package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

// UserTracker is the slice of the credential store the provider needs to
// verify credentials and persist lockout transitions.
type UserTracker interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error)
	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

// UserProvider verifies credentials against the credential store and applies
// the lockout policy around the password check.
type UserProvider struct {
	store  UserTracker
	hasher PasswordAuthenticator
	policy LockoutPolicy
	sink   ActivitySink
	logger Logger
}

// NewUserProvider builds a provider backed by the given store.
func NewUserProvider(store UserTracker, cfg Config) *UserProvider {
	threshold := DefaultMaxLoginAttempts
	if cfg != nil && cfg.GetMaxLoginAttempts() > 0 {
		threshold = cfg.GetMaxLoginAttempts()
	}

	return &UserProvider{
		store:  store,
		hasher: BcryptHasher{},
		policy: NewLockoutPolicy(threshold),
		sink:   noopActivitySink{},
		logger: defLogger{},
	}
}

// WithLogger overrides the provider logger.
func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// WithActivitySink attaches a sink that receives the account-locked event,
// which is detected here rather than in the engine.
func (u *UserProvider) WithActivitySink(sink ActivitySink) *UserProvider {
	u.sink = normalizeActivitySink(sink)
	return u
}

// WithPasswordAuthenticator overrides the password hasher.
func (u *UserProvider) WithPasswordAuthenticator(hasher PasswordAuthenticator) *UserProvider {
	if hasher != nil {
		u.hasher = hasher
	}
	return u
}

// WithLockoutPolicy overrides the lockout policy.
func (u *UserProvider) WithLockoutPolicy(policy LockoutPolicy) *UserProvider {
	u.policy = policy
	return u
}

// VerifyIdentity finds the user by email, gates on the account state, and
// compares the password. A wrong password increments the failed-attempt
// counter and may lock the account, but the caller always sees the generic
// invalid-credentials error for credential mismatches. Locked and disabled
// accounts are rejected before the password is ever checked.
func (u *UserProvider) VerifyIdentity(ctx context.Context, email, password string) (Identity, error) {
	user, err := u.store.GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) || repository.IsRecordNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during verification")
	}

	if err := user.CanAuthenticate(); err != nil {
		return nil, err
	}

	if u.policy.Blocks(user) {
		return nil, ErrAccountLocked
	}

	if err := u.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		lockedNow := u.policy.RecordFailure(user)

		if err := u.store.TrackAttemptedLogin(ctx, user); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to track login attempt")
		}

		if lockedNow {
			u.notifyLocked(ctx, user)
		}

		return nil, ErrInvalidCredentials
	}

	u.policy.RecordSuccess(user)
	if err := u.store.TrackSuccessfulLogin(ctx, user); err != nil {
		u.logger.Error("failed to track successful login: %v", err)
	}

	return NewIdentityFromUser(user), nil
}

// FindIdentityByIdentifier resolves an identity by user id or email without
// touching the lockout counters. Locked and disabled accounts still fail.
func (u *UserProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	if err := user.CanAuthenticate(); err != nil {
		return nil, err
	}

	return NewIdentityFromUser(user), nil
}

func (u *UserProvider) notifyLocked(ctx context.Context, user *User) {
	event := ActivityEvent{
		EventType: ActivityEventAccountLocked,
		UserID:    user.ID.String(),
		Email:     user.Email,
		Metadata: map[string]any{
			"failed_attempts": user.FailedAttempts,
		},
	}
	if user.LockedAt != nil {
		event.OccurredAt = *user.LockedAt
	}

	if err := u.sink.Record(ctx, event); err != nil {
		u.logger.Error("failed to notify account locked event: %v", err)
	}
}

var _ IdentityProvider = (*UserProvider)(nil)
