package paymentmethods

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/common"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/dbx"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const paymentColumns = `id, account_id, kind, label, holder, card_number, card_cvv,
	iban, wallet_email, wallet_phone, created_at`

func (r *PostgresRepository) Create(ctx context.Context, method *models.PaymentMethod) (*models.PaymentMethod, error) {
	if method.ID == "" {
		method.ID = uuid.NewString()
	}

	query := `
		INSERT INTO payment_methods (id, account_id, kind, label, holder,
			card_number, card_cvv, iban, wallet_email, wallet_phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		method.ID, method.AccountID, method.Kind, method.Label, method.Holder,
		method.Number, method.CVV, method.IBAN, method.Email, method.Phone,
	).Scan(&method.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return method, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.PaymentMethod, error) {
	query := fmt.Sprintf(`SELECT %s FROM payment_methods WHERE id = $1`, paymentColumns)

	method := &models.PaymentMethod{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&method.ID, &method.AccountID, &method.Kind, &method.Label,
		&method.Holder, &method.Number, &method.CVV, &method.IBAN,
		&method.Email, &method.Phone, &method.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return method, nil
}

func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.PaymentMethod, error) {
	query := fmt.Sprintf(`SELECT %s FROM payment_methods WHERE account_id = $1 ORDER BY created_at`, paymentColumns)

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var methods []*models.PaymentMethod
	for rows.Next() {
		method := &models.PaymentMethod{}
		err := rows.Scan(
			&method.ID, &method.AccountID, &method.Kind, &method.Label,
			&method.Holder, &method.Number, &method.CVV, &method.IBAN,
			&method.Email, &method.Phone, &method.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		methods = append(methods, method)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return methods, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM payment_methods WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
