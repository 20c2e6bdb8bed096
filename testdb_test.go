package accounts_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	sqliteCreateUsers = `CREATE TABLE users (
    id TEXT NOT NULL PRIMARY KEY,
    username TEXT NOT NULL,
    email TEXT NOT NULL,
    first_name TEXT,
    last_name TEXT,
    bio TEXT,
    avatar TEXT,
    password_hash TEXT NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT true,
    password_changed_at TIMESTAMP NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    deleted_at TIMESTAMP NULL,
    CONSTRAINT uq_users_username UNIQUE (username),
    CONSTRAINT uq_users_email UNIQUE (email)
);`

	sqliteCreatePosts = `CREATE TABLE posts (
    id TEXT NOT NULL PRIMARY KEY,
    author_id TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

	sqliteCreateComments = `CREATE TABLE comments (
    id TEXT NOT NULL PRIMARY KEY,
    author_id TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

	sqliteCreateRevokedTokens = `CREATE TABLE revoked_tokens (
    id TEXT NOT NULL PRIMARY KEY,
    token_id TEXT NOT NULL,
    account_id TEXT,
    expires_at TIMESTAMP NULL,
    revoked_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    CONSTRAINT uq_revoked_tokens_token_id UNIQUE (token_id)
);`
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	for _, ddl := range []string{
		sqliteCreateUsers,
		sqliteCreatePosts,
		sqliteCreateComments,
		sqliteCreateRevokedTokens,
	} {
		_, err = bunDB.Exec(ddl)
		require.NoError(t, err)
	}

	t.Cleanup(func() {
		bunDB.Close()
	})

	return bunDB
}

func setupManager(t *testing.T) (accounts.RepositoryManager, *bun.DB) {
	t.Helper()
	db := setupTestDB(t)
	return accounts.NewRepositoryManager(db), db
}

func registerTestAccount(t *testing.T, svc *accounts.AccountService, email, password string) *accounts.Account {
	t.Helper()

	account, err := svc.Register(context.Background(), accounts.RegisterAccountMessage{
		Email:           email,
		Password:        password,
		PasswordConfirm: password,
	})
	require.NoError(t, err)
	require.NotNil(t, account)

	return account
}
