package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/common"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/dbx"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/logging"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/password"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/auth"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/config"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/mailer"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/models"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/repositories/repomanager"
)

const (
	verificationTokenBytes = 32
	recoveryCodeDigits     = 6
)

// IdentityVerifier validates an externally issued identity token.
// Implemented by auth.FederatedVerifier.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawToken string) (*auth.ExternalIdentity, error)
}

// AvatarCache copies a provider photo into our own storage. Implemented by
// avatars.Cache; failures are logged and never block a login.
type AvatarCache interface {
	Refresh(ctx context.Context, accountID, photoURL string) (string, error)
}

// AccountService orchestrates the account lifecycle: registration, email
// verification, password and federated login, password recovery and
// change. It composes the session service, the federated verifier, and
// the best-effort mailer.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sessions    *SessionService
	verifier    IdentityVerifier
	mail        mailer.Mailer
	avatars     AvatarCache
	logger      logging.Logger

	verificationTokenValidityDuration time.Duration
	recoveryCodeValidityDuration      time.Duration
}

func NewAccountService(
	db *sql.DB,
	m repomanager.RepositoryManager,
	sessions *SessionService,
	verifier IdentityVerifier,
	mail mailer.Mailer,
	avatars AvatarCache,
	cfg *config.Config,
	logger logging.Logger,
) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: m,
		sessions:    sessions,
		verifier:    verifier,
		mail:        mail,
		avatars:     avatars,
		logger:      logger,

		verificationTokenValidityDuration: cfg.VerificationTokenValidityDuration,
		recoveryCodeValidityDuration:      cfg.RecoveryCodeValidityDuration,
	}
}

// Register creates an unverified, active account with a hashed password
// and a 24h verification token. The verification mail is best-effort:
// delivery failures are logged and registration still succeeds.
func (s *AccountService) Register(ctx context.Context, email, plainPassword, firstName, lastName string) (*models.Account, error) {
	repo := s.repomanager.Accounts(s.db)

	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, common.ErrorInternal
	}

	verificationToken, err := common.MakeRandHexString(verificationTokenBytes)
	if err != nil {
		return nil, common.ErrorInternal
	}

	account := &models.Account{
		ID:                  uuid.NewString(),
		Email:               email,
		PasswordHash:        hash,
		Type:                models.AccountTypeStandard,
		FirstName:           firstName,
		LastName:            lastName,
		Active:              true,
		EmailVerified:       false,
		PermitsFederated:    true,
		VerificationToken:   verificationToken,
		VerificationExpires: time.Now().Add(s.verificationTokenValidityDuration),
	}

	account, err = repo.Create(ctx, account)
	if err != nil {
		if errors.Is(err, common.ErrorEmailAlreadyExists) {
			return nil, common.ErrorEmailAlreadyExists
		}
		return nil, common.ErrorInternal
	}

	s.sendVerification(ctx, account.Email, verificationToken)

	return account, nil
}

// VerifyEmail consumes a verification token: the token is cleared and the
// account marked verified. A token for an already-verified account is a
// no-op success; unknown or expired tokens fail.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) error {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorInvalidVerificationToken
		}
		return common.ErrorInternal
	}

	if account.EmailVerified {
		return nil
	}

	if account.VerificationExpired(time.Now()) {
		return common.ErrorInvalidVerificationToken
	}

	account.EmailVerified = true
	account.VerificationToken = ""
	account.VerificationExpires = time.Time{}

	if err := repo.Update(ctx, account); err != nil {
		return common.ErrorInternal
	}
	return nil
}

// ResendVerification issues a fresh verification token and resends the
// mail. Unlike login and recovery, this endpoint may say the email is
// unknown: it sits behind the registration flow where the address was
// already disclosed.
func (s *AccountService) ResendVerification(ctx context.Context, email string) error {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorAccountNotFound
		}
		return common.ErrorInternal
	}

	if account.EmailVerified {
		return common.ErrorEmailAlreadyVerified
	}

	verificationToken, err := common.MakeRandHexString(verificationTokenBytes)
	if err != nil {
		return common.ErrorInternal
	}

	account.VerificationToken = verificationToken
	account.VerificationExpires = time.Now().Add(s.verificationTokenValidityDuration)

	if err := repo.Update(ctx, account); err != nil {
		return common.ErrorInternal
	}

	s.sendVerification(ctx, account.Email, verificationToken)

	return nil
}

// Login authenticates with email and password. Unknown email, wrong
// password, and a password-less (federated-only) account all collapse to
// ErrorInvalidCredentials so the endpoint cannot be used to enumerate
// accounts.
func (s *AccountService) Login(ctx context.Context, email, plainPassword string) (*TokenPair, error) {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidCredentials
		}
		return nil, common.ErrorInternal
	}

	if !account.HasPassword() {
		return nil, common.ErrorInvalidCredentials
	}

	ok, err := password.Verify(plainPassword, account.PasswordHash)
	if err != nil || !ok {
		return nil, common.ErrorInvalidCredentials
	}

	if !account.Active {
		return nil, common.ErrorAccountInactive
	}

	if !account.EmailVerified {
		return nil, common.ErrorEmailNotVerified
	}

	return s.sessions.IssuePair(ctx, account)
}

// FederatedLogin authenticates with an externally issued identity token.
// A matching account (by external subject id, then by email) is linked
// and logged in; otherwise a verified, active account is auto-provisioned,
// since federated identities arrive with a provider-verified email.
func (s *AccountService) FederatedLogin(ctx context.Context, rawToken string) (*TokenPair, error) {
	identity, err := s.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, common.ErrorInvalidExternalToken
	}

	repo := s.repomanager.Accounts(s.db)

	account, err := repo.FindByExternalID(ctx, identity.Subject)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInternal
		}
		account, err = repo.FindByEmail(ctx, identity.Email)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInternal
		}
	}

	if account == nil {
		account, err = s.provisionFederated(ctx, identity)
		if err != nil {
			return nil, err
		}
		return s.sessions.IssuePair(ctx, account)
	}

	if !account.PermitsFederated {
		return nil, common.ErrorFederatedLoginDisabled
	}
	if !account.Active {
		return nil, common.ErrorAccountInactive
	}

	changed := false
	if account.ExternalID == "" {
		account.ExternalID = identity.Subject
		changed = true
	}
	if key := s.refreshAvatar(ctx, account.ID, identity.Picture); key != "" && key != account.PhotoURL {
		account.PhotoURL = key
		changed = true
	}
	if changed {
		if err := repo.Update(ctx, account); err != nil {
			return nil, common.ErrorInternal
		}
	}

	return s.sessions.IssuePair(ctx, account)
}

func (s *AccountService) provisionFederated(ctx context.Context, identity *auth.ExternalIdentity) (*models.Account, error) {
	firstName, lastName := splitDisplayName(identity.Name)

	account := &models.Account{
		ID:               uuid.NewString(),
		Email:            identity.Email,
		Type:             models.AccountTypeStandard,
		FirstName:        firstName,
		LastName:         lastName,
		Active:           true,
		EmailVerified:    true,
		ExternalID:       identity.Subject,
		PermitsFederated: true,
	}

	if key := s.refreshAvatar(ctx, account.ID, identity.Picture); key != "" {
		account.PhotoURL = key
	}

	account, err := s.repomanager.Accounts(s.db).Create(ctx, account)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return account, nil
}

// splitDisplayName splits a provider display name into first and last name
// at the first whitespace boundary. A name with no whitespace becomes the
// first name with an empty last name.
func splitDisplayName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}
	if i := strings.IndexAny(name, " \t"); i >= 0 {
		return name[:i], strings.TrimSpace(name[i+1:])
	}
	return name, ""
}

// Refresh rotates a refresh token; see SessionService.Rotate for the
// single-use guarantee.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	return s.sessions.Rotate(ctx, refreshToken)
}

// Logout revokes one refresh token; always succeeds.
func (s *AccountService) Logout(ctx context.Context, refreshToken string) error {
	return s.sessions.Revoke(ctx, refreshToken)
}

// LogoutAll revokes every refresh token owned by the account.
func (s *AccountService) LogoutAll(ctx context.Context, accountID string) error {
	return s.sessions.RevokeAll(ctx, accountID)
}

// RequestPasswordReset always reports success to the caller. Internally,
// a real and active account gets a fresh 6-digit code with a 1h window
// and a recovery mail; anything else is a silent no-op.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return common.ErrorInternal
	}

	if !account.Active {
		return nil
	}

	code, err := common.MakeNumericCode(recoveryCodeDigits)
	if err != nil {
		return common.ErrorInternal
	}

	account.RecoveryCode = code
	account.RecoveryExpires = time.Now().Add(s.recoveryCodeValidityDuration)

	if err := repo.Update(ctx, account); err != nil {
		return common.ErrorInternal
	}

	if err := s.mail.SendRecoveryCode(ctx, account.Email, code); err != nil {
		s.logger.Warn(ctx, "recovery mail failed", "error", err.Error())
	}

	return nil
}

// ConfirmPasswordReset consumes a recovery code: the new password is
// hashed and stored, the code cleared, and every refresh token revoked so
// a possibly compromised account is logged out everywhere.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	account, err := s.repomanager.Accounts(s.db).FindByRecoveryCode(ctx, code)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorInvalidPasswordResetToken
		}
		return common.ErrorInternal
	}

	if account.RecoveryExpired(time.Now()) {
		return common.ErrorInvalidPasswordResetToken
	}

	if !account.Active {
		return common.ErrorAccountInactive
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return common.ErrorInternal
	}

	account.PasswordHash = hash
	account.RecoveryCode = ""
	account.RecoveryExpires = time.Time{}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Accounts(tx).Update(ctx, account); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).RevokeAllForAccount(ctx, account.ID)
	})
	if err != nil {
		return common.ErrorInternal
	}

	if err := s.mail.SendPasswordChanged(ctx, account.Email); err != nil {
		s.logger.Warn(ctx, "password changed mail failed", "error", err.Error())
	}

	return nil
}

// ChangePassword replaces the password of the caller's own account after
// checking the current one, then revokes every refresh token. Federated
// -only accounts (no password hash) cannot use this path.
func (s *AccountService) ChangePassword(ctx context.Context, callerID, accountID, currentPassword, newPassword string) error {
	if callerID != accountID {
		return common.ErrorForbidden
	}

	account, err := s.repomanager.Accounts(s.db).FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorInvalidCredentials
		}
		return common.ErrorInternal
	}

	if !account.Active {
		return common.ErrorAccountInactive
	}

	if !account.HasPassword() {
		return common.ErrorInvalidCredentials
	}

	ok, err := password.Verify(currentPassword, account.PasswordHash)
	if err != nil || !ok {
		return common.ErrorInvalidCredentials
	}

	if newPassword == currentPassword {
		return common.ErrorInvalidNewPassword
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return common.ErrorInternal
	}
	account.PasswordHash = hash

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Accounts(tx).Update(ctx, account); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).RevokeAllForAccount(ctx, account.ID)
	})
	if err != nil {
		return common.ErrorInternal
	}

	if err := s.mail.SendPasswordChanged(ctx, account.Email); err != nil {
		s.logger.Warn(ctx, "password changed mail failed", "error", err.Error())
	}

	return nil
}

func (s *AccountService) sendVerification(ctx context.Context, email, token string) {
	if err := s.mail.SendVerification(ctx, email, token); err != nil {
		s.logger.Warn(ctx, "verification mail failed", "error", err.Error())
	}
}

// refreshAvatar caches the provider photo and returns the stored key, or
// "" when there is nothing to cache or caching failed.
func (s *AccountService) refreshAvatar(ctx context.Context, accountID, photoURL string) string {
	if s.avatars == nil || photoURL == "" {
		return ""
	}
	key, err := s.avatars.Refresh(ctx, accountID, photoURL)
	if err != nil {
		s.logger.Warn(ctx, "avatar refresh failed", "error", err.Error())
		return ""
	}
	return key
}
