package models

import "time"

// RefreshToken is the stored form of a long-lived session credential.
// Only the SHA-256 hash of the opaque token string is persisted, so a
// read-only database leak cannot be replayed as a session.
//
// Validity = not expired AND not revoked. Rotation revokes the row and
// inserts a replacement; a refresh token is single-use.
type RefreshToken struct {
	ID        string
	AccountID string
	TokenHash string
	Expires   time.Time
	Revoked   bool
	CreatedAt time.Time
}

// IsExpired reports whether the token is past its absolute expiry.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(t.Expires)
}

// IsValid reports logical validity; it does not depend on the cleanup
// sweep having run.
func (t *RefreshToken) IsValid(now time.Time) bool {
	return !t.Revoked && !t.IsExpired(now)
}
