package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/common"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/dbx"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/logging"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/auth"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/config"
	accountsrepo "github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/repositories/accounts"
	paymentsrepo "github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/repositories/paymentmethods"
	tokensrepo "github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/repositories/refreshtokens"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/models"
)

// --- helpers ---

// newTestDB returns a sqlmock-backed DB with enough transaction
// expectations queued for any test in this package. Repositories are
// faked, so only Begin/Commit/Rollback ever reach the mock.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 16; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.JWTSecret = "test-jwt-secret"
	cfg.AccessTokenValidityDuration = time.Minute
	cfg.RefreshTokenValidityDuration = time.Hour
	return cfg
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// --- accounts repository fake ---

type fakeAccountsRepo struct {
	mu       sync.Mutex
	accounts map[string]*models.Account

	createErr error
	updateErr error
}

func newFakeAccountsRepo() *fakeAccountsRepo {
	return &fakeAccountsRepo{accounts: map[string]*models.Account{}}
}

func (f *fakeAccountsRepo) put(account *models.Account) *models.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *account
	f.accounts[cp.ID] = &cp
	return &cp
}

func (f *fakeAccountsRepo) get(id string) *models.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.accounts[id]; ok {
		cp := *a
		return &cp
	}
	return nil
}

func (f *fakeAccountsRepo) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Email == account.Email {
			return nil, common.ErrorEmailAlreadyExists
		}
	}
	cp := *account
	cp.CreatedAt = time.Now()
	f.accounts[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeAccountsRepo) Update(ctx context.Context, account *models.Account) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[account.ID]; !ok {
		return common.ErrorNotFound
	}
	cp := *account
	f.accounts[cp.ID] = &cp
	return nil
}

func (f *fakeAccountsRepo) findBy(match func(*models.Account) bool) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if match(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAccountsRepo) FindByID(ctx context.Context, id string) (*models.Account, error) {
	return f.findBy(func(a *models.Account) bool { return a.ID == id })
}

func (f *fakeAccountsRepo) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return f.findBy(func(a *models.Account) bool { return a.Email == email })
}

func (f *fakeAccountsRepo) FindByExternalID(ctx context.Context, externalID string) (*models.Account, error) {
	return f.findBy(func(a *models.Account) bool { return a.ExternalID != "" && a.ExternalID == externalID })
}

func (f *fakeAccountsRepo) FindByVerificationToken(ctx context.Context, token string) (*models.Account, error) {
	return f.findBy(func(a *models.Account) bool { return a.VerificationToken != "" && a.VerificationToken == token })
}

func (f *fakeAccountsRepo) FindByRecoveryCode(ctx context.Context, code string) (*models.Account, error) {
	return f.findBy(func(a *models.Account) bool { return a.RecoveryCode != "" && a.RecoveryCode == code })
}

func (f *fakeAccountsRepo) ClearExpiredArtifacts(ctx context.Context) (int64, error) {
	return 0, nil
}

// --- refresh token repository fake ---

// fakeRefreshRepo mirrors the conditional-update semantics of the Postgres
// implementation: Revoke flips revoked under a lock only when it was
// false, so the rotation race test exercises the same
// exactly-one-winner behavior as the real store.
type fakeRefreshRepo struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken

	createErr error
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{tokens: map[string]*models.RefreshToken{}}
}

func (f *fakeRefreshRepo) Create(ctx context.Context, accountID, tokenHash string, validity time.Duration) (*models.RefreshToken, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	token := &models.RefreshToken{
		ID:        uuid.NewString(),
		AccountID: accountID,
		TokenHash: tokenHash,
		Expires:   time.Now().Add(validity),
		CreatedAt: time.Now(),
	}
	f.tokens[tokenHash] = token
	cp := *token
	return &cp, nil
}

func (f *fakeRefreshRepo) FindByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	token, ok := f.tokens[tokenHash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *token
	return &cp, nil
}

func (f *fakeRefreshRepo) Revoke(ctx context.Context, tokenHash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	token, ok := f.tokens[tokenHash]
	if !ok || token.Revoked {
		return false, nil
	}
	token.Revoked = true
	return true, nil
}

func (f *fakeRefreshRepo) RevokeAllForAccount(ctx context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, token := range f.tokens {
		if token.AccountID == accountID {
			token.Revoked = true
		}
	}
	return nil
}

func (f *fakeRefreshRepo) DeleteExpired(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for hash, token := range f.tokens {
		if token.IsExpired(time.Now()) {
			delete(f.tokens, hash)
			n++
		}
	}
	return n, nil
}

func (f *fakeRefreshRepo) activeCount(accountID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, token := range f.tokens {
		if token.AccountID == accountID && !token.Revoked {
			n++
		}
	}
	return n
}

func (f *fakeRefreshRepo) expire(tokenHash string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if token, ok := f.tokens[tokenHash]; ok {
		token.Expires = time.Now().Add(-time.Minute)
	}
}

// --- payment method repository fake ---

type fakePaymentsRepo struct {
	mu      sync.Mutex
	methods map[string]*models.PaymentMethod
}

func newFakePaymentsRepo() *fakePaymentsRepo {
	return &fakePaymentsRepo{methods: map[string]*models.PaymentMethod{}}
}

func (f *fakePaymentsRepo) Create(ctx context.Context, method *models.PaymentMethod) (*models.PaymentMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if method.ID == "" {
		method.ID = uuid.NewString()
	}
	method.CreatedAt = time.Now()
	cp := *method
	f.methods[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakePaymentsRepo) FindByID(ctx context.Context, id string) (*models.PaymentMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	method, ok := f.methods[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *method
	return &cp, nil
}

func (f *fakePaymentsRepo) ListByAccount(ctx context.Context, accountID string) ([]*models.PaymentMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PaymentMethod
	for _, method := range f.methods {
		if method.AccountID == accountID {
			cp := *method
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakePaymentsRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.methods, id)
	return nil
}

func (f *fakePaymentsRepo) stored(id string) *models.PaymentMethod {
	f.mu.Lock()
	defer f.mu.Unlock()
	if method, ok := f.methods[id]; ok {
		cp := *method
		return &cp
	}
	return nil
}

// --- repository manager fake ---

type fakeRepoManager struct {
	accounts *fakeAccountsRepo
	tokens   *fakeRefreshRepo
	payments *fakePaymentsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		accounts: newFakeAccountsRepo(),
		tokens:   newFakeRefreshRepo(),
		payments: newFakePaymentsRepo(),
	}
}

func (f *fakeRepoManager) Accounts(db dbx.DBTX) accountsrepo.Repository {
	return f.accounts
}

func (f *fakeRepoManager) RefreshTokens(db dbx.DBTX) tokensrepo.Repository {
	return f.tokens
}

func (f *fakeRepoManager) PaymentMethods(db dbx.DBTX) paymentsrepo.Repository {
	return f.payments
}

func (f *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

// --- collaborator fakes ---

type fakeMailer struct {
	mu sync.Mutex

	verifications map[string]string // email -> token
	recoveries    map[string]string // email -> code
	changed       []string

	err error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{
		verifications: map[string]string{},
		recoveries:    map[string]string{},
	}
}

func (f *fakeMailer) SendVerification(ctx context.Context, email, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.verifications[email] = token
	return nil
}

func (f *fakeMailer) SendRecoveryCode(ctx context.Context, email, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.recoveries[email] = code
	return nil
}

func (f *fakeMailer) SendPasswordChanged(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.changed = append(f.changed, email)
	return nil
}

type fakeVerifier struct {
	identity *auth.ExternalIdentity
	err      error
}

func (f *fakeVerifier) Verify(ctx context.Context, rawToken string) (*auth.ExternalIdentity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

type fakeAvatars struct {
	key string
	err error

	mu    sync.Mutex
	calls int
}

func (f *fakeAvatars) Refresh(ctx context.Context, accountID, photoURL string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if f.key != "" {
		return f.key, nil
	}
	return "avatars/" + accountID, nil
}
