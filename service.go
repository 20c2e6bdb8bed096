package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// fallbackHash is compared against when an email lookup misses, so unknown
// identifiers and wrong passwords cost the same.
var fallbackHash = RandomPasswordHash()

type RegisterAccountMessage struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	UseHashid       bool
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

// ProfileUpdateMessage is a partial profile update; nil fields keep their
// prior values.
type ProfileUpdateMessage struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	Avatar    *string `json:"avatar,omitempty"`
}

func (e ProfileUpdateMessage) Type() string { return "account.update_profile" }

type ChangePasswordMessage struct {
	OldPassword        string `json:"old_password"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

func (e ChangePasswordMessage) Type() string { return "account.change_password" }

// AccountService enforces every account business rule. It is stateless
// between calls except for what it reads and writes through the repository
// manager; the caller identity arrives as an explicit parameter on every
// operation.
type AccountService struct {
	repo     RepositoryManager
	policy   PasswordPolicy
	logger   Logger
	activity ActivitySink
}

type AccountServiceOption func(*AccountService)

func WithPasswordPolicy(policy PasswordPolicy) AccountServiceOption {
	return func(s *AccountService) {
		if policy != nil {
			s.policy = policy
		}
	}
}

func WithServiceLogger(logger Logger) AccountServiceOption {
	return func(s *AccountService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithActivitySink wires an audit sink; account lifecycle events are
// recorded best-effort and never fail the operation.
func WithActivitySink(sink ActivitySink) AccountServiceOption {
	return func(s *AccountService) {
		s.activity = normalizeActivitySink(sink)
	}
}

func NewAccountService(repo RepositoryManager, opts ...AccountServiceOption) *AccountService {
	svc := &AccountService{
		repo:     repo,
		policy:   NewDefaultPasswordPolicy(),
		logger:   defLogger{},
		activity: noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}

	return svc
}

// Register creates a new active account. The password is hashed before the
// store transaction opens; the confirmation field is discarded and never
// persisted. Uniqueness is enforced by the store constraints so concurrent
// duplicate submissions resolve to exactly one success.
func (s *AccountService) Register(ctx context.Context, msg RegisterAccountMessage) (*Account, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return s.register(ctx, msg)
	}
}

func (s *AccountService) register(ctx context.Context, msg RegisterAccountMessage) (*Account, error) {
	if msg.Password != msg.PasswordConfirm {
		return nil, ValidationError("password", "password fields did not match")
	}

	if err := s.policy.ValidatePassword(msg.Password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(msg.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	account := &Account{
		Username:     msg.Username,
		Email:        msg.Email,
		FirstName:    msg.FirstName,
		LastName:     msg.LastName,
		PasswordHash: hash,
	}

	if msg.UseHashid {
		if id, err := hashid.NewUUID(msg.Email); err == nil {
			account.ID = id
		}
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if account, err = s.repo.Accounts().RegisterTx(ctx, tx, account); err != nil {
			if IsUniqueViolation(err) {
				field := UniqueViolationField(err)
				if field == "" {
					field = "email"
				}
				return ValidationError(field, field+" already in use").
					WithCode(goerrors.CodeConflict)
			}
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
		}
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "account registration transaction failed")
	}

	s.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventRegistered,
		AccountID: account.ID.String(),
	})

	return account, nil
}

// Authenticate verifies the email/password pair. Unknown emails and wrong
// passwords return the same error; a disabled account is reported only after
// the credentials verify.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	account, err := s.repo.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			// burn a bcrypt comparison so the miss is not observable
			ComparePasswordAndHash(password, fallbackHash)
			s.recordLoginFailure(ctx, email)
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account during verification")
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		s.recordLoginFailure(ctx, email)
		return nil, ErrMismatchedHashAndPassword
	}

	if !account.IsActive {
		s.recordLoginFailure(ctx, email)
		return nil, ErrAccountDisabled
	}

	s.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		AccountID: account.ID.String(),
	})

	return account, nil
}

// UpdateProfile applies a partial update to the caller's own profile fields.
// Identity columns (username, email) and credentials are not reachable from
// here. updated_at is always refreshed.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID uuid.UUID, msg ProfileUpdateMessage) (*Account, error) {
	account, err := s.repo.Accounts().GetByIdentifier(ctx, accountID.String())
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load account for update")
	}

	if msg.FirstName != nil {
		account.FirstName = *msg.FirstName
	}
	if msg.LastName != nil {
		account.LastName = *msg.LastName
	}
	if msg.Bio != nil {
		account.Bio = *msg.Bio
	}
	if msg.Avatar != nil {
		account.Avatar = *msg.Avatar
	}

	account, err = s.repo.Accounts().UpdateProfile(ctx, account)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist profile update")
	}

	s.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventProfileUpdated,
		AccountID: account.ID.String(),
	})

	return account, nil
}

// ChangePassword swaps the stored hash after verifying the old password.
// The new hash is computed before the row update executes; the update is a
// single statement so concurrent changes cannot interleave a corrupt hash.
func (s *AccountService) ChangePassword(ctx context.Context, accountID uuid.UUID, msg ChangePasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password change",
		)
	default:
	}

	account, err := s.repo.Accounts().GetByIdentifier(ctx, accountID.String())
	if err != nil {
		if goerrors.IsNotFound(err) {
			return ErrIdentityNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load account for password change")
	}

	if err := ComparePasswordAndHash(msg.OldPassword, account.PasswordHash); err != nil {
		return ValidationError("old_password", "old password is incorrect").
			WithCode(goerrors.CodeBadRequest)
	}

	if msg.NewPassword != msg.NewPasswordConfirm {
		return ValidationError("new_password", "password fields did not match")
	}

	if err := s.policy.ValidatePassword(msg.NewPassword); err != nil {
		return err
	}

	hash, err := HashPassword(msg.NewPassword)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	if err := s.repo.Accounts().ChangePassword(ctx, account.ID, hash); err != nil {
		if goerrors.IsNotFound(err) {
			return ErrIdentityNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist password change")
	}

	s.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventPasswordChanged,
		AccountID: account.ID.String(),
	})

	return nil
}

// Profile loads the account and projects it together with its authored
// content counts.
func (s *AccountService) Profile(ctx context.Context, accountID uuid.UUID) (*Profile, error) {
	account, err := s.repo.Accounts().GetByIdentifier(ctx, accountID.String())
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load account")
	}

	return s.ProjectProfile(ctx, account), nil
}

func (s *AccountService) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := s.activity.Record(ctx, event); err != nil {
		s.logger.Debug("activity sink record failed", "event", string(event.EventType), "error", err)
	}
}

// RecordLogout notes a logout for auditing after the refresh token has been
// revoked. The account id is best effort; revocation works without one.
func (s *AccountService) RecordLogout(ctx context.Context, accountID string) {
	s.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventLogout,
		AccountID: accountID,
	})
}

func (s *AccountService) recordLoginFailure(ctx context.Context, email string) {
	s.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		Metadata:  map[string]any{"email": email},
	})
}

// ProjectProfile builds the Profile projection for an already loaded
// account.
func (s *AccountService) ProjectProfile(ctx context.Context, account *Account) *Profile {
	counts := s.repo.ProfileCounts()
	return NewProfile(
		account,
		counts.CountPosts(ctx, account.ID),
		counts.CountComments(ctx, account.ID),
	)
}
