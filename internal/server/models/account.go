package models

import "time"

// AccountType tags the account as a standard user or a creator profile.
type AccountType string

const (
	AccountTypeStandard AccountType = "standard"
	AccountTypeCreator  AccountType = "creator"
)

// Account is the identity record. Zero values mean "absent" for the
// optional fields: an account with an empty PasswordHash is federated-only,
// an empty ExternalID means no federated identity is linked.
//
// Invariant: PasswordHash and ExternalID are never both empty — an account
// must be reachable by at least one credential path.
type Account struct {
	ID               string
	Email            string
	PasswordHash     string
	Type             AccountType
	CreatorProfileID string
	FirstName        string
	LastName         string
	PhotoURL         string
	Active           bool
	EmailVerified    bool
	ExternalID       string
	PermitsFederated bool

	VerificationToken   string
	VerificationExpires time.Time

	RecoveryCode    string
	RecoveryExpires time.Time

	CreatedAt time.Time
}

// HasPassword reports whether the account can log in with a password.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// VerificationExpired reports whether the outstanding verification token,
// if any, is past its window.
func (a *Account) VerificationExpired(now time.Time) bool {
	return !a.VerificationExpires.IsZero() && now.After(a.VerificationExpires)
}

// RecoveryExpired reports whether the outstanding recovery code, if any,
// is past its window.
func (a *Account) RecoveryExpired(now time.Time) bool {
	return a.RecoveryExpires.IsZero() || now.After(a.RecoveryExpires)
}
