package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/common"
)

// ExternalIdentity is what a successfully verified federated token proves:
// a stable provider-side subject id and a provider-verified email.
type ExternalIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

type externalClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// FederatedVerifier validates externally issued identity tokens against the
// provider's published keys. It does not implement any provider flow
// itself; it only consumes tokens the client already obtained.
type FederatedVerifier struct {
	issuer   string
	audience string
	timeout  time.Duration
	keys     *jwksCache
}

// NewFederatedVerifier configures verification for one provider: expected
// issuer, our registered client id (the required audience), and the JWKS
// endpoint. timeout bounds every provider key fetch.
func NewFederatedVerifier(issuer, audience, jwksURL string, timeout time.Duration) *FederatedVerifier {
	return &FederatedVerifier{
		issuer:   issuer,
		audience: audience,
		timeout:  timeout,
		keys:     newJWKSCache(jwksURL, timeout),
	}
}

// Verify checks signature, issuer, audience and expiry of rawToken and
// requires the provider to assert the email as verified. Every failure —
// bad signature, wrong audience, expiry, provider unreachable, timeout —
// collapses to ErrorInvalidExternalToken: no partial trust.
func (v *FederatedVerifier) Verify(ctx context.Context, rawToken string) (*ExternalIdentity, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	claims := &externalClaims{}

	token, err := jwt.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		return v.keys.Key(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, common.ErrorInvalidExternalToken
	}

	// Never trust an email the provider itself has not verified; this
	// service does not re-verify federated emails.
	if claims.Subject == "" || claims.Email == "" || !claims.EmailVerified {
		return nil, common.ErrorInvalidExternalToken
	}

	return &ExternalIdentity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}
