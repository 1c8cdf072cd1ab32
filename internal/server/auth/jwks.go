package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"
)

// jwksCache fetches and caches the federated provider's RSA public keys,
// indexed by key id. Providers rotate keys, so a lookup that misses the
// cache triggers a refetch; refetches are rate limited to once per minute
// to keep a flood of bad tokens from hammering the provider.
type jwksCache struct {
	url    string
	client *http.Client

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	lastFetch time.Time
}

const jwksRefetchMinInterval = time.Minute

func newJWKSCache(url string, timeout time.Duration) *jwksCache {
	return &jwksCache{
		url:    url,
		client: &http.Client{Timeout: timeout},
		keys:   map[string]*rsa.PublicKey{},
	}
}

// Key returns the public key for kid, refetching the key set when the kid
// is unknown. Provider unreachability or a still-unknown kid is an error;
// verification fails closed.
func (c *jwksCache) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if key, ok := c.keys[kid]; ok {
		return key, nil
	}

	if time.Since(c.lastFetch) < jwksRefetchMinInterval {
		return nil, errors.New("unknown key id")
	}

	if err := c.fetchLocked(ctx); err != nil {
		return nil, err
	}

	key, ok := c.keys[kid]
	if !ok {
		return nil, errors.New("unknown key id")
	}
	return key, nil
}

type jwksDocument struct {
	Keys []struct {
		Kty string `json:"kty"`
		Kid string `json:"kid"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

func (c *jwksCache) fetchLocked(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch jwks: status %d", resp.StatusCode)
	}

	doc := &jwksDocument{}
	if err := json.NewDecoder(resp.Body).Decode(doc); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}

	keys := map[string]*rsa.PublicKey{}
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := rsaKeyFromJWK(k.N, k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return errors.New("jwks document contains no usable keys")
	}

	c.keys = keys
	c.lastFetch = time.Now()
	return nil
}

func rsaKeyFromJWK(n, e string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, err
	}

	exponent := 0
	for _, b := range eb {
		exponent = exponent<<8 | int(b)
	}
	if exponent == 0 {
		return nil, errors.New("zero exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nb),
		E: exponent,
	}, nil
}
