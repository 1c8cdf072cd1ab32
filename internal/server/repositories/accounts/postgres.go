package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/common"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/dbx"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, email, password_hash, account_type, creator_profile_id,
	first_name, last_name, photo_url, active, email_verified, external_id,
	permits_federated, verification_token, verification_expires,
	recovery_code, recovery_expires, created_at`

const uniqueViolation = "23505"

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query := `
		INSERT INTO accounts (id, email, password_hash, account_type, creator_profile_id,
			first_name, last_name, photo_url, active, email_verified, external_id,
			permits_federated, verification_token, verification_expires,
			recovery_code, recovery_expires)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		account.ID, account.Email, account.PasswordHash, account.Type,
		account.CreatorProfileID, account.FirstName, account.LastName,
		account.PhotoURL, account.Active, account.EmailVerified,
		account.ExternalID, account.PermitsFederated,
		account.VerificationToken, nullableTime(account.VerificationExpires),
		account.RecoveryCode, nullableTime(account.RecoveryExpires),
	).Scan(&account.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorEmailAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) Update(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts
		SET email = $2, password_hash = $3, account_type = $4, creator_profile_id = $5,
			first_name = $6, last_name = $7, photo_url = $8, active = $9,
			email_verified = $10, external_id = $11, permits_federated = $12,
			verification_token = $13, verification_expires = $14,
			recovery_code = $15, recovery_expires = $16
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		account.ID, account.Email, account.PasswordHash, account.Type,
		account.CreatorProfileID, account.FirstName, account.LastName,
		account.PhotoURL, account.Active, account.EmailVerified,
		account.ExternalID, account.PermitsFederated,
		account.VerificationToken, nullableTime(account.VerificationExpires),
		account.RecoveryCode, nullableTime(account.RecoveryExpires),
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	return r.findBy(ctx, "id = $1", id)
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findBy(ctx, "email = $1", email)
}

func (r *PostgresRepository) FindByExternalID(ctx context.Context, externalID string) (*models.Account, error) {
	return r.findBy(ctx, "external_id = $1 AND external_id <> ''", externalID)
}

func (r *PostgresRepository) FindByVerificationToken(ctx context.Context, token string) (*models.Account, error) {
	return r.findBy(ctx, "verification_token = $1 AND verification_token <> ''", token)
}

func (r *PostgresRepository) FindByRecoveryCode(ctx context.Context, code string) (*models.Account, error) {
	return r.findBy(ctx, "recovery_code = $1 AND recovery_code <> ''", code)
}

func (r *PostgresRepository) findBy(ctx context.Context, where string, arg any) (*models.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE %s`, accountColumns, where)

	account := &models.Account{}
	var verificationExpires, recoveryExpires sql.NullTime

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&account.ID, &account.Email, &account.PasswordHash, &account.Type,
		&account.CreatorProfileID, &account.FirstName, &account.LastName,
		&account.PhotoURL, &account.Active, &account.EmailVerified,
		&account.ExternalID, &account.PermitsFederated,
		&account.VerificationToken, &verificationExpires,
		&account.RecoveryCode, &recoveryExpires,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	account.VerificationExpires = verificationExpires.Time
	account.RecoveryExpires = recoveryExpires.Time
	return account, nil
}

func (r *PostgresRepository) ClearExpiredArtifacts(ctx context.Context) (int64, error) {
	query := `
		UPDATE accounts
		SET verification_token = '', verification_expires = NULL
		WHERE verification_token <> '' AND verification_expires < now()
	`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	verifications, _ := res.RowsAffected()

	query = `
		UPDATE accounts
		SET recovery_code = '', recovery_expires = NULL
		WHERE recovery_code <> '' AND recovery_expires < now()
	`
	res, err = r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	recoveries, _ := res.RowsAffected()

	return verifications + recoveries, nil
}

func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
