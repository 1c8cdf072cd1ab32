package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/common"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/cryptox"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/models"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/repositories/repomanager"
)

// sensitiveFields maps every payment kind to the fields the cipher must
// cover. The map is the single source of truth per kind: adding a kind
// without registering it here makes every operation on it fail loudly
// instead of silently storing plaintext.
var sensitiveFields = map[models.PaymentKind]func(*models.PaymentMethod) []*string{
	models.PaymentKindCard: func(m *models.PaymentMethod) []*string {
		return []*string{&m.Holder, &m.Number, &m.CVV}
	},
	models.PaymentKindIBAN: func(m *models.PaymentMethod) []*string {
		return []*string{&m.Holder, &m.IBAN}
	},
	models.PaymentKindWallet: func(m *models.PaymentMethod) []*string {
		return []*string{&m.Email, &m.Phone}
	},
}

// PaymentService stores payment instruments with their sensitive fields
// encrypted at rest by the field cipher.
type PaymentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cipher      *cryptox.FieldCipher
}

func NewPaymentService(db *sql.DB, m repomanager.RepositoryManager, cipher *cryptox.FieldCipher) *PaymentService {
	return &PaymentService{db: db, repomanager: m, cipher: cipher}
}

func (s *PaymentService) applyCipher(method *models.PaymentMethod, apply func(string) (string, error)) error {
	fields, ok := sensitiveFields[method.Kind]
	if !ok {
		return common.ErrorUnknownPaymentKind
	}
	for _, field := range fields(method) {
		transformed, err := apply(*field)
		if err != nil {
			return err
		}
		*field = transformed
	}
	return nil
}

// Add encrypts the method's sensitive fields and persists it. The returned
// method carries plaintext again so callers never see ciphertext.
func (s *PaymentService) Add(ctx context.Context, method *models.PaymentMethod) (*models.PaymentMethod, error) {
	if err := s.applyCipher(method, s.cipher.Encrypt); err != nil {
		if errors.Is(err, common.ErrorUnknownPaymentKind) {
			return nil, err
		}
		return nil, common.ErrorInternal
	}

	method, err := s.repomanager.PaymentMethods(s.db).Create(ctx, method)
	if err != nil {
		return nil, common.ErrorInternal
	}

	if err := s.applyCipher(method, s.cipher.Decrypt); err != nil {
		return nil, common.ErrorInternal
	}
	return method, nil
}

// List returns the account's payment methods with sensitive fields
// decrypted.
func (s *PaymentService) List(ctx context.Context, accountID string) ([]*models.PaymentMethod, error) {
	methods, err := s.repomanager.PaymentMethods(s.db).ListByAccount(ctx, accountID)
	if err != nil {
		return nil, common.ErrorInternal
	}

	for _, method := range methods {
		if err := s.applyCipher(method, s.cipher.Decrypt); err != nil {
			return nil, common.ErrorInternal
		}
	}
	return methods, nil
}

// Remove deletes one payment method after an ownership check.
func (s *PaymentService) Remove(ctx context.Context, accountID, methodID string) error {
	repo := s.repomanager.PaymentMethods(s.db)

	method, err := repo.FindByID(ctx, methodID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}

	if method.AccountID != accountID {
		return common.ErrorForbidden
	}

	if err := repo.Delete(ctx, methodID); err != nil {
		return common.ErrorInternal
	}
	return nil
}
