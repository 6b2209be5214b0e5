package auth_test

import (
	"context"
	"database/sql"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"

	auth "github.com/nanopulse/go-auth"
)

// TestIdentity is a simple implementation of Identity interface for testing
type TestIdentity struct {
	id        string
	email     string
	firstName string
	lastName  string
	role      auth.UserRole
}

func (t TestIdentity) ID() string            { return t.id }
func (t TestIdentity) Email() string         { return t.email }
func (t TestIdentity) FirstName() string     { return t.firstName }
func (t TestIdentity) LastName() string      { return t.lastName }
func (t TestIdentity) Role() auth.UserRole   { return t.role }
func (t TestIdentity) Authorities() []string { return auth.Authorities(t.role) }

// MockIdentityProvider implements auth.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, email, password string) (auth.Identity, error) {
	args := m.Called(ctx, email, password)
	identity, _ := args.Get(0).(auth.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (auth.Identity, error) {
	args := m.Called(ctx, identifier)
	identity, _ := args.Get(0).(auth.Identity)
	return identity, args.Error(1)
}

// MockUserTracker implements auth.UserTracker
type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUserTracker) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*auth.User, error) {
	args := m.Called(ctx, identifier)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUserTracker) TrackAttemptedLogin(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserTracker) TrackSuccessfulLogin(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// RecordingSink collects activity events.
type RecordingSink struct {
	Events []auth.ActivityEvent
	Err    error
}

func (s *RecordingSink) Record(ctx context.Context, event auth.ActivityEvent) error {
	s.Events = append(s.Events, event)
	return s.Err
}

func (s *RecordingSink) EventTypes() []auth.ActivityEventType {
	out := make([]auth.ActivityEventType, 0, len(s.Events))
	for _, e := range s.Events {
		out = append(out, e.EventType)
	}
	return out
}

// stubUsers is an in-memory credential store.
type stubUsers struct {
	auth.Users
	byEmail   map[string]*auth.User
	created   []*auth.User
	createErr error
}

func newStubUsers(users ...*auth.User) *stubUsers {
	s := &stubUsers{byEmail: map[string]*auth.User{}}
	for _, u := range users {
		s.byEmail[auth.NormalizeEmail(u.Email)] = u
	}
	return s
}

func (s *stubUsers) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	if user, ok := s.byEmail[auth.NormalizeEmail(email)]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubUsers) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*auth.User, error) {
	for _, u := range s.byEmail {
		if u.ID.String() == identifier || u.Email == identifier {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, ok := s.byEmail[auth.NormalizeEmail(email)]
	return ok, nil
}

func (s *stubUsers) CreateTx(ctx context.Context, tx bun.IDB, record *auth.User, criteria ...repository.InsertCriteria) (*auth.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if _, ok := s.byEmail[auth.NormalizeEmail(record.Email)]; ok {
		return nil, auth.ErrDuplicateIdentity
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	s.byEmail[auth.NormalizeEmail(record.Email)] = record
	s.created = append(s.created, record)
	return record, nil
}

func (s *stubUsers) TrackAttemptedLogin(ctx context.Context, user *auth.User) error {
	return nil
}

func (s *stubUsers) TrackSuccessfulLogin(ctx context.Context, user *auth.User) error {
	return nil
}

// memTokens is an in-memory token ledger keyed by raw token.
type memTokens struct {
	auth.Tokens
	records map[string]*auth.Token
	saveErr error
}

func newMemTokens() *memTokens {
	return &memTokens{records: map[string]*auth.Token{}}
}

func (m *memTokens) Save(ctx context.Context, token *auth.Token) (*auth.Token, error) {
	return m.SaveTx(ctx, nil, token)
}

func (m *memTokens) SaveTx(ctx context.Context, tx bun.IDB, token *auth.Token) (*auth.Token, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	if token.Kind == "" {
		token.Kind = auth.TokenKindBearer
	}
	m.records[token.Token] = token
	return token, nil
}

func (m *memTokens) GetByRawToken(ctx context.Context, raw string) (*auth.Token, error) {
	if record, ok := m.records[raw]; ok {
		return record, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (m *memTokens) ListLiveByUser(ctx context.Context, userID uuid.UUID) ([]*auth.Token, error) {
	var out []*auth.Token
	for _, record := range m.records {
		if record.UserID == userID && record.IsLive() {
			out = append(out, record)
		}
	}
	return out, nil
}

func (m *memTokens) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return m.RevokeAllForUserTx(ctx, nil, userID)
}

func (m *memTokens) RevokeAllForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (int64, error) {
	var affected int64
	for _, record := range m.records {
		if record.UserID == userID && record.IsLive() {
			record.Revoked = true
			record.Expired = true
			affected++
		}
	}
	return affected, nil
}

func (m *memTokens) RevokeByRawToken(ctx context.Context, raw string) error {
	if record, ok := m.records[raw]; ok {
		record.Revoked = true
		record.Expired = true
	}
	return nil
}

func (m *memTokens) TouchLastUsed(ctx context.Context, raw string, at time.Time) error {
	if record, ok := m.records[raw]; ok {
		record.LastUsedAt = &at
	}
	return nil
}

// stubRepo wires the in-memory stores behind the RepositoryManager shape.
// RunInTx forwards to the callback directly, the stubs have no transactions.
type stubRepo struct {
	users  *stubUsers
	tokens *memTokens
}

func newStubRepo(users *stubUsers, tokens *memTokens) *stubRepo {
	return &stubRepo{users: users, tokens: tokens}
}

func (r *stubRepo) Users() auth.Users   { return r.users }
func (r *stubRepo) Tokens() auth.Tokens { return r.tokens }

func (r *stubRepo) AuditLogs() repository.Repository[*auth.AuditLog] { return nil }

func (r *stubRepo) Validate() error { return nil }
func (r *stubRepo) MustValidate()  {}

func (r *stubRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}
