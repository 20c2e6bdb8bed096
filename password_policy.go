package accounts

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

// DefaultPasswordPolicy enforces bounded length. Swap it for a stricter
// implementation through the AccountService option when products need
// entropy or dictionary checks.
type DefaultPasswordPolicy struct {
	MinLength int
	MaxLength int
}

var _ PasswordPolicy = (*DefaultPasswordPolicy)(nil)

// NewDefaultPasswordPolicy returns the stock 8..128 length policy.
func NewDefaultPasswordPolicy() *DefaultPasswordPolicy {
	return &DefaultPasswordPolicy{
		MinLength: 8,
		MaxLength: 128,
	}
}

// ValidatePassword runs the policy against a candidate password.
func (p *DefaultPasswordPolicy) ValidatePassword(password string) error {
	err := validation.Validate(password,
		validation.Required,
		validation.Length(p.MinLength, p.MaxLength),
	)
	if err != nil {
		return ValidationError("password", err.Error())
	}
	return nil
}

// PasswordPolicyFunc adapts a plain function to the PasswordPolicy interface.
type PasswordPolicyFunc func(password string) error

func (f PasswordPolicyFunc) ValidatePassword(password string) error {
	return f(password)
}
