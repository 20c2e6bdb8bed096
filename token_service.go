package accounts

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenPair is an access/refresh token pair bound to a single identity.
type TokenPair struct {
	Access           string    `json:"access"`
	Refresh          string    `json:"refresh"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// PasswordCutoff reports when an account last changed its password. Refresh
// tokens issued before that moment are treated as revoked.
type PasswordCutoff interface {
	PasswordChangedAt(ctx context.Context, accountID string) (*time.Time, error)
}

type repoPasswordCutoff struct {
	accounts Accounts
}

// NewRepositoryPasswordCutoff adapts the accounts repository to the
// PasswordCutoff interface.
func NewRepositoryPasswordCutoff(accounts Accounts) PasswordCutoff {
	return &repoPasswordCutoff{accounts: accounts}
}

func (r *repoPasswordCutoff) PasswordChangedAt(ctx context.Context, accountID string) (*time.Time, error) {
	account, err := r.accounts.GetByIdentifier(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return account.PasswordChangedAt, nil
}

// TokenServiceImpl implements the TokenIssuer interface
type TokenServiceImpl struct {
	signingKey        []byte
	accessExpiration  int
	refreshExpiration int
	issuer            string
	audience          jwt.ClaimStrings
	blacklist         TokenBlacklist
	cutoff            PasswordCutoff
	logger            Logger
}

var _ TokenIssuer = (*TokenServiceImpl)(nil)

// NewTokenService creates a new TokenServiceImpl. Expirations are in hours,
// matching the Config contract.
func NewTokenService(signingKey []byte, accessExpiration, refreshExpiration int, issuer string, audience jwt.ClaimStrings, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		signingKey:        signingKey,
		accessExpiration:  accessExpiration,
		refreshExpiration: refreshExpiration,
		issuer:            issuer,
		audience:          audience,
		logger:            logger,
	}
}

// WithBlacklist wires the persistent refresh token blacklist.
func (ts *TokenServiceImpl) WithBlacklist(blacklist TokenBlacklist) *TokenServiceImpl {
	ts.blacklist = blacklist
	return ts
}

// WithPasswordCutoff wires the password-change cutoff check for refresh
// token validation.
func (ts *TokenServiceImpl) WithPasswordCutoff(cutoff PasswordCutoff) *TokenServiceImpl {
	ts.cutoff = cutoff
	return ts
}

// WithLogger replaces the logger.
func (ts *TokenServiceImpl) WithLogger(logger Logger) *TokenServiceImpl {
	if logger != nil {
		ts.logger = logger
	}
	return ts
}

// IssuePair mints a fresh access/refresh pair for the identity.
func (ts *TokenServiceImpl) IssuePair(ctx context.Context, identity Identity) (*TokenPair, error) {
	if identity == nil {
		return nil, errors.New("identity is required", errors.CategoryBadInput)
	}

	now := time.Now()
	accessExpiresAt := now.Add(time.Duration(ts.accessExpiration) * time.Hour)
	refreshExpiresAt := now.Add(time.Duration(ts.refreshExpiration) * time.Hour)

	access, err := ts.SignClaims(ts.newClaims(identity, TokenUseAccess, now, accessExpiresAt))
	if err != nil {
		return nil, err
	}

	refresh, err := ts.SignClaims(ts.newClaims(identity, TokenUseRefresh, now, refreshExpiresAt))
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		Access:           access,
		Refresh:          refresh,
		AccessExpiresAt:  accessExpiresAt,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates an access token, returning structured claims
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	claims, err := ts.parse(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.TokenUse() != TokenUseAccess {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// ValidateRefresh parses and validates a refresh token, additionally
// checking the blacklist and the password-change cutoff.
func (ts *TokenServiceImpl) ValidateRefresh(ctx context.Context, tokenString string) (AuthClaims, error) {
	claims, err := ts.parse(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.TokenUse() != TokenUseRefresh {
		return nil, ErrTokenMalformed
	}

	if ts.blacklist != nil {
		revoked, err := ts.blacklist.IsRevoked(ctx, claims.TokenID())
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check token blacklist")
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	if ts.cutoff != nil {
		changedAt, err := ts.cutoff.PasswordChangedAt(ctx, claims.UserID())
		if err != nil {
			if errors.IsNotFound(err) {
				return nil, ErrTokenRevoked
			}
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check password cutoff")
		}
		if changedAt != nil && claims.IssuedAt().Before(*changedAt) {
			return nil, ErrTokenRevoked
		}
	}

	return claims, nil
}

// Refresh validates a refresh token and mints a new pair for its subject.
// The presented refresh token is not rotated out; revocation is explicit
// via Revoke.
func (ts *TokenServiceImpl) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := ts.ValidateRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	return ts.IssuePair(ctx, accountIdentity{id: claims.UserID()})
}

// Revoke blacklists a refresh token. Structurally invalid or expired tokens
// fail; revoking an already revoked token succeeds.
func (ts *TokenServiceImpl) Revoke(ctx context.Context, refreshToken string) error {
	claims, err := ts.parse(refreshToken)
	if err != nil {
		return err
	}

	if claims.TokenUse() != TokenUseRefresh {
		return ErrTokenMalformed
	}

	if ts.blacklist == nil {
		return errors.New("token blacklist not configured", errors.CategoryInternal)
	}

	record := &RevokedToken{
		TokenID: claims.TokenID(),
	}

	if id, err := uuid.Parse(claims.UserID()); err == nil {
		record.AccountID = &id
	}

	expires := claims.Expires()
	if !expires.IsZero() {
		record.ExpiresAt = &expires
	}

	if err := ts.blacklist.Revoke(ctx, record); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to blacklist token")
	}

	return nil
}

// SessionFromToken builds a Session from a valid access token.
func (ts *TokenServiceImpl) SessionFromToken(raw string) (Session, error) {
	claims, err := ts.Validate(raw)
	if err != nil {
		ts.logger.Error("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		ts.logger.Error("SessionFromToken failed to create session from claims", "error", err)
		return nil, err
	}

	return session, nil
}

func (ts *TokenServiceImpl) newClaims(identity Identity, use string, issuedAt, expiresAt time.Time) *JWTClaims {
	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UID: identity.ID(),
		Use: use,
	}

	ensureTokenID(&claims.RegisteredClaims)

	return claims
}

func (ts *TokenServiceImpl) parse(tokenString string) (*JWTClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode or validate claims")
	return nil, ErrUnableToMapClaims
}
