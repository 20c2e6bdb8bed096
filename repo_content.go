package accounts

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProfileCounts resolves the derived posts/comments counts attached to a
// Profile projection.
type ProfileCounts interface {
	CountPosts(ctx context.Context, authorID uuid.UUID) int
	CountComments(ctx context.Context, authorID uuid.UUID) int
}

type profileCounts struct {
	db     *bun.DB
	logger Logger
}

var _ ProfileCounts = (*profileCounts)(nil)

func NewProfileCounts(db *bun.DB) ProfileCounts {
	return &profileCounts{
		db:     db,
		logger: defLogger{},
	}
}

// CountPosts returns the number of posts authored by the account, zero when
// the posts table is absent or the query fails.
func (p *profileCounts) CountPosts(ctx context.Context, authorID uuid.UUID) int {
	count, err := p.db.NewSelect().
		Model((*Post)(nil)).
		Where("?TableAlias.author_id = ?", authorID).
		Count(ctx)

	if err != nil {
		p.logger.Debug("posts count unavailable", "error", err)
		return 0
	}

	return count
}

// CountComments returns the number of comments authored by the account, zero
// when the comments table is absent or the query fails.
func (p *profileCounts) CountComments(ctx context.Context, authorID uuid.UUID) int {
	count, err := p.db.NewSelect().
		Model((*Comment)(nil)).
		Where("?TableAlias.author_id = ?", authorID).
		Count(ctx)

	if err != nil {
		p.logger.Debug("comments count unavailable", "error", err)
		return 0
	}

	return count
}
