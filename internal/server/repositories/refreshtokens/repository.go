// Package refreshtokens declares the server-side repository contract for
// managing refresh tokens in persistent storage.
package refreshtokens

import (
	"context"
	"time"

	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking
// refresh tokens. Only token hashes are stored and looked up.
type Repository interface {
	// Create stores a new refresh token hash for accountID with an expiry
	// of now+validity.
	Create(ctx context.Context, accountID, tokenHash string, validity time.Duration) (*models.RefreshToken, error)

	// FindByHash looks up a refresh token by its stored hash and returns
	// its metadata. Returns common.ErrorNotFound when absent.
	FindByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// Revoke marks the token revoked, guarded by revoked = false. It
	// reports whether this call performed the revocation: under two
	// concurrent rotations of the same token exactly one caller sees true.
	// Revoking an absent or already-revoked token returns false, nil.
	Revoke(ctx context.Context, tokenHash string) (bool, error)

	// RevokeAllForAccount revokes every non-revoked token owned by the
	// account. Safe to call with zero active tokens.
	RevokeAllForAccount(ctx context.Context, accountID string) error

	// DeleteExpired physically removes tokens past their expiry. Pure
	// cleanup; validity checks never rely on it.
	DeleteExpired(ctx context.Context) (int64, error)
}
