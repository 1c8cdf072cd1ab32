// Package paymentmethods declares persistence for stored payment
// instruments. Sensitive columns hold ciphertext; encryption happens in the
// service layer before values reach this contract.
package paymentmethods

import (
	"context"

	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, method *models.PaymentMethod) (*models.PaymentMethod, error)
	FindByID(ctx context.Context, id string) (*models.PaymentMethod, error)
	ListByAccount(ctx context.Context, accountID string) ([]*models.PaymentMethod, error)
	Delete(ctx context.Context, id string) error
}
