package auth

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Tokens is the ledger of issued access tokens. Records are never physically
// deleted here, revocation and expiry are flag flips so the audit trail
// stays intact.
type Tokens interface {
	repository.Repository[*Token]

	Save(ctx context.Context, token *Token) (*Token, error)
	SaveTx(ctx context.Context, tx bun.IDB, token *Token) (*Token, error)
	GetByRawToken(ctx context.Context, raw string) (*Token, error)
	ListLiveByUser(ctx context.Context, userID uuid.UUID) ([]*Token, error)

	RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	RevokeAllForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (int64, error)
	RevokeByRawToken(ctx context.Context, raw string) error

	TouchLastUsed(ctx context.Context, raw string, at time.Time) error
}

type tokens struct {
	repository.Repository[*Token]
	db *bun.DB
}

var (
	_ Tokens                        = (*tokens)(nil)
	_ repository.Repository[*Token] = (*tokens)(nil)
)

// NewTokensRepository builds the bun-backed token ledger.
func NewTokensRepository(db *bun.DB) Tokens {
	repo := repository.NewRepository[*Token](db, repository.ModelHandlers[*Token]{
		NewRecord: func() *Token { return &Token{} },
		GetID: func(t *Token) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *Token, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	return &tokens{
		Repository: repo,
		db:         db,
	}
}

func (r *tokens) Save(ctx context.Context, token *Token) (*Token, error) {
	return r.SaveTx(ctx, r.db, token)
}

func (r *tokens) SaveTx(ctx context.Context, tx bun.IDB, token *Token) (*Token, error) {
	if token != nil {
		if token.ID == uuid.Nil {
			token.ID = uuid.New()
		}
		if token.Kind == "" {
			token.Kind = TokenKindBearer
		}
	}
	return r.Repository.CreateTx(ctx, tx, token)
}

func (r *tokens) GetByRawToken(ctx context.Context, raw string) (*Token, error) {
	record := &Token{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", raw).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}

	return record, nil
}

func (r *tokens) ListLiveByUser(ctx context.Context, userID uuid.UUID) ([]*Token, error) {
	var records []*Token
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.revoked = ?", false).
		Where("?TableAlias.expired = ?", false).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *tokens) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.RevokeAllForUserTx(ctx, r.db, userID)
}

// RevokeAllForUserTx marks every live token for the user revoked and expired
// in one bulk UPDATE. A concurrent validation check observes each row either
// before or after the statement, never a half-updated row. Calling it when
// the user has no live tokens is a no-op.
func (r *tokens) RevokeAllForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (int64, error) {
	now := time.Now()
	res, err := tx.NewUpdate().
		Model((*Token)(nil)).
		Set("revoked = ?", true).
		Set("expired = ?", true).
		Set("updated_at = ?", now).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.revoked = ?", false).
		Where("?TableAlias.expired = ?", false).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return affected, nil
}

// RevokeByRawToken revokes a single ledger record, used by logout. Unknown
// tokens are a no-op so logout stays idempotent.
func (r *tokens) RevokeByRawToken(ctx context.Context, raw string) error {
	now := time.Now()
	_, err := r.db.NewUpdate().
		Model((*Token)(nil)).
		Set("revoked = ?", true).
		Set("expired = ?", true).
		Set("updated_at = ?", now).
		Where("?TableAlias.token = ?", raw).
		Exec(ctx)

	return err
}

// TouchLastUsed stamps the last-used timestamp. Best-effort bookkeeping, the
// caller logs and swallows failures.
func (r *tokens) TouchLastUsed(ctx context.Context, raw string, at time.Time) error {
	_, err := r.db.NewUpdate().
		Model((*Token)(nil)).
		Set("last_used_at = ?", at).
		Where("?TableAlias.token = ?", raw).
		Exec(ctx)

	return err
}
