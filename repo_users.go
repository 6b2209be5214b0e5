package auth

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TrackSuccessfulLoginSQL resets the failed-attempt counter and stamps the
// last login in a single statement. The locked flag is deliberately left
// alone, unlocking is an explicit administrative action.
var TrackSuccessfulLoginSQL = `UPDATE "users" AS "usr"
SET
	"last_login_at" = ?,
	"failed_attempts" = 0,
	"updated_at" = ?
WHERE
	"usr"."id" = ? RETURNING *;`

// Users is the credential store. It owns User records and the persistence
// half of the lockout transitions.
type Users interface {
	repository.Repository[*User]

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error

	Unlock(ctx context.Context, id uuid.UUID) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

// NewUsersRepository builds the bun-backed credential store.
func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("lower(?TableAlias.email) = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": NormalizeEmail(email),
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return a.db.NewSelect().
		Model((*User)(nil)).
		Where("lower(?TableAlias.email) = ?", NormalizeEmail(email)).
		Exists(ctx)
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	return a.CreateTx(ctx, tx, user)
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)

	created, err := a.Repository.CreateTx(ctx, tx, record, criteria...)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicateIdentity.WithMetadata(map[string]any{
				"email": record.Email,
			})
		}
		return nil, err
	}

	return created, nil
}

func (a *users) TrackAttemptedLogin(ctx context.Context, user *User) error {
	return a.TrackAttemptedLoginTx(ctx, a.db, user)
}

// TrackAttemptedLoginTx persists the lockout fields mutated by
// LockoutPolicy.RecordFailure. Single-row update, the backing store's
// per-row atomicity is the unit of consistency here.
func (a *users) TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	if user == nil || user.ID == uuid.Nil {
		return ErrIdentityNotFound
	}

	_, err := tx.NewUpdate().
		Model(user).
		Column("failed_attempts", "is_locked", "locked_at").
		WherePK().
		Exec(ctx)

	return err
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, user)
}

func (a *users) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	if user == nil || user.ID == uuid.Nil {
		return ErrIdentityNotFound
	}

	if user.LastLoginAt == nil {
		return goerrors.New("last login timestamp not set", goerrors.CategoryInternal)
	}

	_, err := tx.NewRaw(TrackSuccessfulLoginSQL, *user.LastLoginAt, *user.LastLoginAt, user.ID).Exec(ctx)
	return err
}

// Unlock clears the locked flag and counter. This is the administrative
// escape hatch, the engine itself never unlocks.
func (a *users) Unlock(ctx context.Context, id uuid.UUID) (*User, error) {
	record := &User{
		ID:             id,
		Locked:         false,
		FailedAttempts: 0,
		LockedAt:       nil,
	}

	_, err := a.db.NewUpdate().
		Model(record).
		Column("is_locked", "failed_attempts", "locked_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return a.Repository.GetByIdentifier(ctx, id.String())
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.Email = NormalizeEmail(record.Email)
	if record.Role == "" {
		record.Role = RoleUser
	}
}

// IsUniqueViolation sniffs driver-level unique constraint errors so they can
// be mapped to the duplicate-identity taxonomy.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "Duplicate entry")
}
