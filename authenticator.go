package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RegisterUserMessage carries a registration request into the engine.
type RegisterUserMessage struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	UseHashid bool   `json:"-"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate checks the registration payload.
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 128)),
	)
}

// AuthResult is the issuance payload returned by Register and Login. Both
// succeed the same way: a fresh access/refresh pair plus the identity
// attributes the caller may render.
type AuthResult struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	TokenType    string   `json:"tokenType"`
	ExpiresIn    int64    `json:"expiresIn"`
	UserID       string   `json:"-"`
	Email        string   `json:"email,omitempty"`
	FirstName    string   `json:"firstName,omitempty"`
	LastName     string   `json:"lastName,omitempty"`
	Role         UserRole `json:"-"`
}

// Auther is the authentication engine: registration, login with
// revoke-then-issue, and logout.
type Auther struct {
	repo         RepositoryManager
	provider     IdentityProvider
	hasher       PasswordAuthenticator
	tokenService TokenService
	logger       Logger
	sink         ActivitySink
	timeFunc     func() time.Time
}

// NewAuthenticator returns a new Authenticator backed by the repository
// manager and identity provider.
func NewAuthenticator(repo RepositoryManager, provider IdentityProvider, cfg Config) *Auther {
	return &Auther{
		repo:         repo,
		provider:     provider,
		hasher:       BcryptHasher{},
		tokenService: NewTokenService(cfg),
		logger:       defLogger{},
		sink:         noopActivitySink{},
		timeFunc:     time.Now,
	}
}

// WithLogger overrides the engine logger.
func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.sink = normalizeActivitySink(sink)
	return s
}

// WithTokenService overrides the token codec.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// WithPasswordAuthenticator overrides the password hasher.
func (s *Auther) WithPasswordAuthenticator(hasher PasswordAuthenticator) *Auther {
	if hasher != nil {
		s.hasher = hasher
	}
	return s
}

// WithClock injects a clock for issued-at and event timestamps.
func (s *Auther) WithClock(clock func() time.Time) *Auther {
	if clock != nil {
		s.timeFunc = clock
	}
	return s
}

// TokenService returns the token codec used by this engine.
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Register creates a new user and immediately issues a token pair, so a
// fresh registration behaves exactly like a first login. The existence
// check is advisory; the unique index on users.email is the real guard and
// a constraint violation surfaces as the same duplicate-identity error.
func (s *Auther) Register(ctx context.Context, msg RegisterUserMessage) (*AuthResult, error) {
	if err := msg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload").
			WithTextCode("INVALID_PAYLOAD")
	}

	email := NormalizeEmail(msg.Email)

	exists, err := s.repo.Users().ExistsByEmail(ctx, email)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
	}
	if exists {
		return nil, ErrDuplicateIdentity.WithMetadata(map[string]any{"email": email})
	}

	hash, err := s.hasher.HashPassword(msg.Password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	role := RoleUser
	if msg.Role != "" {
		parsed, ok := ParseRole(msg.Role)
		if !ok {
			return nil, goerrors.New("unknown or invalid role", goerrors.CategoryValidation).
				WithTextCode("INVALID_ROLE").
				WithMetadata(map[string]any{"role": msg.Role})
		}
		role = parsed
	}

	user := &User{
		Email:        email,
		FirstName:    msg.FirstName,
		LastName:     msg.LastName,
		Role:         role,
		PasswordHash: hash,
		Enabled:      true,
	}

	if msg.UseHashid {
		if id, err := hashid.NewUUID(email); err == nil {
			user.ID = id
		}
	}

	var result *AuthResult
	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := s.repo.Users().CreateTx(ctx, tx, user)
		if err != nil {
			return err
		}
		user = created

		result, err = s.issueTokensTx(ctx, tx, NewIdentityFromUser(user))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventUserRegistered, user.ID.String(), email, nil)

	return result, nil
}

// Login verifies the credentials and rotates the user's ledger: every token
// still live for the user is revoked and a fresh pair is issued, both inside
// one transaction so no interleaving observes old and new live together.
func (s *Auther) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	identity, err := s.provider.VerifyIdentity(ctx, email, password)
	if err != nil {
		s.logger.Error("Login verify identity error: %v", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, "", NormalizeEmail(email), map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}

	if identity == nil {
		s.logger.Error("Login identity is nil")
		return nil, ErrIdentityNotFound
	}

	userID, err := uuid.Parse(identity.ID())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "identity has malformed id")
	}

	var result *AuthResult
	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.repo.Tokens().RevokeAllForUserTx(ctx, tx, userID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to revoke previous tokens")
		}

		result, err = s.issueTokensTx(ctx, tx, identity)
		return err
	})
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, identity.ID(), identity.Email(), map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, identity.ID(), identity.Email(), nil)

	return result, nil
}

// Logout revokes the ledger record for the presented token. Unknown or
// already revoked tokens are a no-op, logout is idempotent.
func (s *Auther) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}

	if err := s.repo.Tokens().RevokeByRawToken(ctx, rawToken); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to revoke token")
	}

	userID := ""
	if claims, err := s.tokenService.Validate(rawToken); err == nil {
		userID = claims.UserID()
	}

	s.emitAuthEvent(ctx, ActivityEventLogout, userID, "", nil)

	return nil
}

// issueTokensTx mints the access/refresh pair and records the access token
// in the ledger. Refresh tokens are never persisted.
func (s *Auther) issueTokensTx(ctx context.Context, tx bun.IDB, identity Identity) (*AuthResult, error) {
	accessToken, err := s.tokenService.IssueAccessToken(identity, nil)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokenService.IssueRefreshToken(identity)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(identity.ID())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "identity has malformed id")
	}

	meta := RequestMetaFromContext(ctx)
	record := &Token{
		Token:     accessToken,
		Kind:      TokenKindBearer,
		UserID:    userID,
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
	}

	if _, err := s.repo.Tokens().SaveTx(ctx, tx, record); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist issued token")
	}

	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokenService.AccessTokenTTL().Seconds()),
		UserID:       identity.ID(),
		Email:        identity.Email(),
		FirstName:    identity.FirstName(),
		LastName:     identity.LastName(),
		Role:         identity.Role(),
	}, nil
}

// emitAuthEvent records an activity event. Sink failures are logged and
// swallowed, the notifier never changes an auth outcome.
func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, userID, email string, metadata map[string]any) {
	meta := RequestMetaFromContext(ctx)
	event := ActivityEvent{
		EventType:  eventType,
		UserID:     userID,
		Email:      email,
		IP:         meta.IPAddress,
		UserAgent:  meta.UserAgent,
		Metadata:   metadata,
		OccurredAt: s.timeFunc(),
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := s.sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

var _ Authenticator = (*Auther)(nil)
