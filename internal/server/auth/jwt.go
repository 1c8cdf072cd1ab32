// Package auth issues and verifies the service's own access tokens and
// validates externally issued federated identity tokens.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/common"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/models"
)

// Claims carried by an access token: the registered claims plus the
// account's email, type tag and, for creator sessions, the creator
// profile id.
type Claims struct {
	jwt.RegisteredClaims
	Email            string `json:"email"`
	AccountType      string `json:"account_type"`
	CreatorProfileID string `json:"creator_profile_id,omitempty"`
}

// GenerateAccessToken mints a short-lived HS256 token for the account.
// The subject is the account id; iat/exp are set from validityDuration.
func GenerateAccessToken(account *models.Account, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Email:            account.Email,
		AccountType:      string(account.Type),
		CreatorProfileID: account.CreatorProfileID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseAccessToken validates the signature and expiry of an access token
// and returns its claims. Any failure surfaces as ErrorInvalidCredentials;
// callers never see parser internals.
func ParseAccessToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, common.ErrorInvalidCredentials
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrorInvalidCredentials
	}

	return claims, nil
}
