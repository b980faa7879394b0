package config

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	"github.com/jonathan/swrite/internal/fetch"
)

// KeyCache caches the signing-key set of an external token issuer. It is an
// injected object with an explicit Refresh rather than an implicit process
// singleton, so tests can substitute a fake and callers control
// invalidation.
type KeyCache struct {
	jwksURL string

	mu   sync.RWMutex
	keys map[string]*rsa.PublicKey // by kid
}

// NewKeyCache creates a cache for the JWKS document at jwksURL. The cache
// starts empty; the first lookup or an explicit Refresh populates it.
func NewKeyCache(jwksURL string) *KeyCache {
	return &KeyCache{jwksURL: jwksURL}
}

// Key returns the RSA public key for a key ID, fetching the key set on first
// use. A miss after a successful fetch is an error (the token references a
// key the issuer no longer publishes); callers may Refresh and retry.
func (c *KeyCache) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	c.mu.RLock()
	key, ok := c.keys[kid]
	loaded := c.keys != nil
	c.mu.RUnlock()
	if ok {
		return key, nil
	}
	if !loaded {
		if err := c.Refresh(ctx); err != nil {
			return nil, err
		}
		c.mu.RLock()
		key, ok = c.keys[kid]
		c.mu.RUnlock()
		if ok {
			return key, nil
		}
	}
	return nil, fmt.Errorf("no signing key with kid %q", kid)
}

// Refresh re-fetches the key set, replacing the cached copy.
func (c *KeyCache) Refresh(ctx context.Context) error {
	if c.jwksURL == "" {
		return fmt.Errorf("no JWKS URL configured")
	}

	body, err := fetch.Bytes(ctx, c.jwksURL)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	var doc struct {
		Keys []struct {
			Kty string `json:"kty"`
			Kid string `json:"kid"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("failed to parse JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := parseRSAKey(k.N, k.E)
		if err != nil {
			return fmt.Errorf("failed to parse JWKS key %s: %w", k.Kid, err)
		}
		keys[k.Kid] = pub
	}

	c.mu.Lock()
	c.keys = keys
	c.mu.Unlock()
	return nil
}

func parseRSAKey(n, e string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, fmt.Errorf("bad modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, fmt.Errorf("bad exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}
