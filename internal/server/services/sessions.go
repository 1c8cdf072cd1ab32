package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/common"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/dbx"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/logging"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/auth"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/config"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/models"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/repositories/repomanager"
)

// TokenPair is what a successful login, federated login, or rotation
// returns to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

const refreshTokenBytes = 32

// SessionService owns the refresh-token state machine: issuance,
// validation, single-use rotation, and revocation (single and bulk).
// Refresh tokens are opaque random strings; only their SHA-256 hash is
// ever stored or looked up.
type SessionService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *SessionService {
	return &SessionService{
		db:                           db,
		repomanager:                  m,
		logger:                       logger,
		jwtSecret:                    []byte(cfg.JWTSecret),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// IssuePair mints an access token and a fresh refresh token for the account.
func (s *SessionService) IssuePair(ctx context.Context, account *models.Account) (*TokenPair, error) {
	return s.issuePair(ctx, s.db, account)
}

func (s *SessionService) issuePair(ctx context.Context, db dbx.DBTX, account *models.Account) (*TokenPair, error) {
	accessToken, err := auth.GenerateAccessToken(account, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	refreshToken, err := common.MakeRandHexString(refreshTokenBytes)
	if err != nil {
		return nil, common.ErrorInternal
	}

	repo := s.repomanager.RefreshTokens(db)
	if _, err := repo.Create(ctx, account.ID, hashToken(refreshToken), s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Validate resolves a raw refresh-token string to its stored record.
// Absent, expired, and revoked all collapse to ErrorInvalidRefreshToken so
// a caller cannot probe which tokens once existed.
func (s *SessionService) Validate(ctx context.Context, tokenString string) (*models.RefreshToken, error) {
	return s.validate(ctx, s.db, tokenString)
}

func (s *SessionService) validate(ctx context.Context, db dbx.DBTX, tokenString string) (*models.RefreshToken, error) {
	repo := s.repomanager.RefreshTokens(db)

	token, err := repo.FindByHash(ctx, hashToken(tokenString))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidRefreshToken
		}
		return nil, common.ErrorInternal
	}

	if !token.IsValid(time.Now()) {
		return nil, common.ErrorInvalidRefreshToken
	}

	return token, nil
}

// Rotate exchanges a valid refresh token for a new token pair and revokes
// the old token. The conditional revoke makes the old token unusable the
// instant rotation begins: when two requests race on the same token, the
// store lets exactly one revoke succeed and the loser fails with
// ErrorInvalidRefreshToken.
func (s *SessionService) Rotate(ctx context.Context, tokenString string) (*TokenPair, error) {
	var pair *TokenPair

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		token, err := s.validate(ctx, tx, tokenString)
		if err != nil {
			return err
		}

		revoked, err := s.repomanager.RefreshTokens(tx).Revoke(ctx, token.TokenHash)
		if err != nil {
			return common.ErrorInternal
		}
		if !revoked {
			// lost the race to a concurrent rotation
			return common.ErrorInvalidRefreshToken
		}

		account, err := s.repomanager.Accounts(tx).FindByID(ctx, token.AccountID)
		if err != nil {
			return common.ErrorInternal
		}
		if !account.Active {
			return common.ErrorAccountInactive
		}

		pair, err = s.issuePair(ctx, tx, account)
		return err
	})
	if err != nil {
		return nil, err
	}

	return pair, nil
}

// Revoke invalidates one refresh token. It is idempotent: revoking an
// already-revoked or unknown token is a no-op, not an error.
func (s *SessionService) Revoke(ctx context.Context, tokenString string) error {
	if _, err := s.repomanager.RefreshTokens(s.db).Revoke(ctx, hashToken(tokenString)); err != nil {
		return common.ErrorInternal
	}
	return nil
}

// RevokeAll invalidates every active refresh token owned by the account.
// Used for logout-everywhere, password change, and password reset.
func (s *SessionService) RevokeAll(ctx context.Context, accountID string) error {
	if err := s.repomanager.RefreshTokens(s.db).RevokeAllForAccount(ctx, accountID); err != nil {
		return common.ErrorInternal
	}
	return nil
}

// Sweep physically deletes expired refresh tokens and blanks expired
// verification/recovery artifacts. Pure cleanup: validity checks above
// never depend on it having run.
func (s *SessionService) Sweep(ctx context.Context) {
	if n, err := s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx); err != nil {
		s.logger.Warn(ctx, "refresh token sweep failed", "error", err.Error())
	} else if n > 0 {
		s.logger.Info(ctx, "expired refresh tokens deleted", "count", n)
	}

	if n, err := s.repomanager.Accounts(s.db).ClearExpiredArtifacts(ctx); err != nil {
		s.logger.Warn(ctx, "account artifact sweep failed", "error", err.Error())
	} else if n > 0 {
		s.logger.Info(ctx, "expired account artifacts cleared", "count", n)
	}
}
