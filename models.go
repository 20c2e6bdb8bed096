package accounts

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the persisted user identity record
type Account struct {
	bun.BaseModel     `bun:"table:users,alias:usr"`
	ID                uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username          string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email             string     `bun:"email,notnull,unique" json:"email,omitempty"`
	FirstName         string     `bun:"first_name" json:"first_name,omitempty"`
	LastName          string     `bun:"last_name" json:"last_name,omitempty"`
	Bio               string     `bun:"bio" json:"bio,omitempty"`
	Avatar            string     `bun:"avatar" json:"avatar,omitempty"`
	PasswordHash      string     `bun:"password_hash" json:"-"`
	IsActive          bool       `bun:"is_active,notnull,default:true" json:"is_active,omitempty"`
	PasswordChangedAt *time.Time `bun:"password_changed_at,nullzero" json:"-"`
	CreatedAt         *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt         *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// FullName combines first and last name, trimmed of extra whitespace
func (a *Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Identity adapts the account to the Identity interface consumed by
// the token service.
func (a *Account) Identity() Identity {
	return accountIdentity{
		id:       a.ID.String(),
		username: a.Username,
		email:    a.Email,
	}
}

type accountIdentity struct {
	id       string
	username string
	email    string
}

func (i accountIdentity) ID() string       { return i.id }
func (i accountIdentity) Username() string { return i.username }
func (i accountIdentity) Email() string    { return i.email }

var _ Identity = accountIdentity{}

// Post is an authored content record. The accounts package only reads it
// to compute profile counts; ownership of the table lives elsewhere.
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:pst"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AuthorID      uuid.UUID  `bun:"author_id,notnull,type:uuid" json:"author_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Comment is an authored comment record, tracked for profile counts only.
type Comment struct {
	bun.BaseModel `bun:"table:comments,alias:cmt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AuthorID      uuid.UUID  `bun:"author_id,notnull,type:uuid" json:"author_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// RevokedToken records a blacklisted refresh token by its jti claim.
type RevokedToken struct {
	bun.BaseModel `bun:"table:revoked_tokens,alias:rvk"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	TokenID       string     `bun:"token_id,notnull,unique" json:"token_id,omitempty"`
	AccountID     *uuid.UUID `bun:"account_id,nullzero,type:uuid" json:"account_id,omitempty"`
	ExpiresAt     *time.Time `bun:"expires_at,nullzero" json:"expires_at,omitempty"`
	RevokedAt     *time.Time `bun:"revoked_at,nullzero,default:current_timestamp" json:"revoked_at,omitempty"`
}
