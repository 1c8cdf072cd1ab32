// Package accounts declares the persistence contract for identity records.
package accounts

import (
	"context"

	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/models"
)

// Repository defines the account lookups and writes consumed by the
// lifecycle flows. Lookups return common.ErrorNotFound when no row matches.
type Repository interface {
	// Create inserts a new account. A duplicate email surfaces as
	// common.ErrorEmailAlreadyExists.
	Create(ctx context.Context, account *models.Account) (*models.Account, error)

	// Update persists every mutable field of the account.
	Update(ctx context.Context, account *models.Account) error

	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.Account, error)
	FindByVerificationToken(ctx context.Context, token string) (*models.Account, error)
	FindByRecoveryCode(ctx context.Context, code string) (*models.Account, error)

	// ClearExpiredArtifacts blanks verification tokens and recovery codes
	// whose windows have passed. Used by the cleanup sweep only; logical
	// validity never depends on it.
	ClearExpiredArtifacts(ctx context.Context) (int64, error)
}
