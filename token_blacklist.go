package accounts

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TokenBlacklist stores revoked refresh tokens by jti. Revocation is
// idempotent: blacklisting an already revoked token succeeds.
type TokenBlacklist interface {
	Revoke(ctx context.Context, record *RevokedToken) error
	RevokeTx(ctx context.Context, tx bun.IDB, record *RevokedToken) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

type tokenBlacklist struct {
	repository.Repository[*RevokedToken]
	db *bun.DB
}

var _ TokenBlacklist = (*tokenBlacklist)(nil)

func NewTokenBlacklist(db *bun.DB) TokenBlacklist {
	repo := repository.NewRepository[*RevokedToken](db, repository.ModelHandlers[*RevokedToken]{
		NewRecord: func() *RevokedToken { return &RevokedToken{} },
		GetID: func(r *RevokedToken) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *RevokedToken, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token_id"
		},
	})

	return &tokenBlacklist{
		Repository: repo,
		db:         db,
	}
}

func (t *tokenBlacklist) Revoke(ctx context.Context, record *RevokedToken) error {
	return t.RevokeTx(ctx, t.db, record)
}

func (t *tokenBlacklist) RevokeTx(ctx context.Context, tx bun.IDB, record *RevokedToken) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.RevokedAt == nil {
		now := time.Now()
		record.RevokedAt = &now
	}

	_, err := tx.NewInsert().
		Model(record).
		On("CONFLICT (token_id) DO NOTHING").
		Exec(ctx)

	return err
}

func (t *tokenBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return t.db.NewSelect().
		Model((*RevokedToken)(nil)).
		Where("?TableAlias.token_id = ?", tokenID).
		Exists(ctx)
}

// PurgeExpired drops blacklist rows whose tokens expired before the cutoff.
// Revocation stays correct without it since expired tokens fail validation
// anyway; this only keeps the table bounded.
func (t *tokenBlacklist) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := t.db.NewDelete().
		Model((*RevokedToken)(nil)).
		Where("?TableAlias.expires_at IS NOT NULL").
		Where("?TableAlias.expires_at < ?", before).
		Exec(ctx)

	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
