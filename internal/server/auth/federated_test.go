package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/common"
)

const (
	testIssuer   = "https://issuer.example.com"
	testAudience = "client-id-123"
	testKid      = "kid-1"
)

type providerFixture struct {
	key    *rsa.PrivateKey
	server *httptest.Server
}

func newProviderFixture(t *testing.T) *providerFixture {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/certs", func(w http.ResponseWriter, r *http.Request) {
		doc := map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": testKid,
				"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
			}},
		}
		_ = json.NewEncoder(w).Encode(doc)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &providerFixture{key: key, server: server}
}

func (f *providerFixture) verifier() *FederatedVerifier {
	return NewFederatedVerifier(testIssuer, testAudience, f.server.URL+"/certs", 2*time.Second)
}

func (f *providerFixture) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKid
	s, err := token.SignedString(f.key)
	require.NoError(t, err)
	return s
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss":            testIssuer,
		"aud":            testAudience,
		"sub":            "ext-subject-42",
		"email":          "bob@example.com",
		"email_verified": true,
		"name":           "Bob Builder",
		"picture":        "https://photos.example.com/bob.jpg",
		"exp":            time.Now().Add(time.Hour).Unix(),
		"iat":            time.Now().Unix(),
	}
}

func TestFederatedVerifier_Valid(t *testing.T) {
	f := newProviderFixture(t)

	identity, err := f.verifier().Verify(context.Background(), f.sign(t, validClaims()))
	require.NoError(t, err)

	assert.Equal(t, "ext-subject-42", identity.Subject)
	assert.Equal(t, "bob@example.com", identity.Email)
	assert.Equal(t, "Bob Builder", identity.Name)
	assert.Equal(t, "https://photos.example.com/bob.jpg", identity.Picture)
}

func TestFederatedVerifier_Failures(t *testing.T) {
	f := newProviderFixture(t)

	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	wrongAudience := validClaims()
	wrongAudience["aud"] = "someone-else"

	wrongIssuer := validClaims()
	wrongIssuer["iss"] = "https://evil.example.com"

	unverifiedEmail := validClaims()
	unverifiedEmail["email_verified"] = false

	noSubject := validClaims()
	delete(noSubject, "sub")

	tests := map[string]string{
		"expired":          f.sign(t, expired),
		"wrong audience":   f.sign(t, wrongAudience),
		"wrong issuer":     f.sign(t, wrongIssuer),
		"unverified email": f.sign(t, unverifiedEmail),
		"missing subject":  f.sign(t, noSubject),
		"garbage":          "nope.nope.nope",
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.verifier().Verify(context.Background(), raw)
			assert.ErrorIs(t, err, common.ErrorInvalidExternalToken)
		})
	}
}

func TestFederatedVerifier_WrongSigningKey(t *testing.T) {
	f := newProviderFixture(t)

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims())
	token.Header["kid"] = testKid
	raw, err := token.SignedString(otherKey)
	require.NoError(t, err)

	_, err = f.verifier().Verify(context.Background(), raw)
	assert.ErrorIs(t, err, common.ErrorInvalidExternalToken)
}

func TestFederatedVerifier_ProviderUnreachable(t *testing.T) {
	f := newProviderFixture(t)
	raw := f.sign(t, validClaims())

	v := NewFederatedVerifier(testIssuer, testAudience, "http://127.0.0.1:1/certs", 500*time.Millisecond)

	_, err := v.Verify(context.Background(), raw)
	assert.ErrorIs(t, err, common.ErrorInvalidExternalToken)
}

func TestFederatedVerifier_HMACRejected(t *testing.T) {
	f := newProviderFixture(t)

	// alg confusion: a token HMAC-signed with an arbitrary secret must not pass
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
	token.Header["kid"] = testKid
	raw, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = f.verifier().Verify(context.Background(), raw)
	assert.ErrorIs(t, err, common.ErrorInvalidExternalToken)
}
