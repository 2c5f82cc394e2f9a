package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"
	"sync"

	"mercator-hq/prgate/pkg/config"
)

var (
	// ErrMissingKey means the request carried no key.
	ErrMissingKey = errors.New("missing API key")
	// ErrInvalidKey means the key is not configured.
	ErrInvalidKey = errors.New("invalid API key")
	// ErrKeyDisabled means the key is configured but disabled.
	ErrKeyDisabled = errors.New("API key disabled")
)

// KeyInfo describes the client an API key belongs to.
type KeyInfo struct {
	Client  string
	Enabled bool
}

// KeyStore validates API keys.
type KeyStore interface {
	Validate(key string) (*KeyInfo, error)
}

// APIKeyValidator validates API keys against a configured set. Keys are
// held as SHA-256 digests.
type APIKeyValidator struct {
	mu   sync.RWMutex
	keys map[[sha256.Size]byte]*KeyInfo
}

// NewAPIKeyValidator creates a validator with keys mapped to their clients.
func NewAPIKeyValidator(keys map[string]*KeyInfo) *APIKeyValidator {
	v := &APIKeyValidator{keys: make(map[[sha256.Size]byte]*KeyInfo, len(keys))}
	for key, info := range keys {
		v.keys[sha256.Sum256([]byte(key))] = info
	}
	return v
}

// FromConfig builds a validator from the auth config. KeyEnv entries are
// resolved through lookup; an unset or empty variable is an error.
func FromConfig(cfg config.AuthConfig, lookup func(string) (string, bool)) (*APIKeyValidator, error) {
	keys := make(map[string]*KeyInfo, len(cfg.Keys))
	for i, k := range cfg.Keys {
		key := k.Key
		if k.KeyEnv != "" {
			val, ok := lookup(k.KeyEnv)
			if !ok || val == "" {
				return nil, fmt.Errorf("server.auth.keys[%d]: environment variable %s is not set", i, k.KeyEnv)
			}
			key = val
		}
		if _, dup := keys[key]; dup {
			return nil, fmt.Errorf("server.auth.keys[%d]: duplicate key for client %q", i, k.Client)
		}
		keys[key] = &KeyInfo{Client: k.Client, Enabled: !k.Disabled}
	}
	return NewAPIKeyValidator(keys), nil
}

// Validate returns the info of key, or ErrInvalidKey / ErrKeyDisabled.
func (v *APIKeyValidator) Validate(key string) (*KeyInfo, error) {
	if key == "" {
		return nil, ErrMissingKey
	}
	v.mu.RLock()
	defer v.mu.RUnlock()

	info, ok := v.keys[sha256.Sum256([]byte(key))]
	if !ok {
		return nil, ErrInvalidKey
	}
	if !info.Enabled {
		return nil, ErrKeyDisabled
	}
	return info, nil
}

// Add registers or replaces key.
func (v *APIKeyValidator) Add(key string, info *KeyInfo) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.keys[sha256.Sum256([]byte(key))] = info
}

// Remove forgets key.
func (v *APIKeyValidator) Remove(key string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.keys, sha256.Sum256([]byte(key)))
}

// Clients returns the sorted client names of every configured key.
func (v *APIKeyValidator) Clients() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	clients := make([]string, 0, len(v.keys))
	for _, info := range v.keys {
		clients = append(clients, info.Client)
	}
	sort.Strings(clients)
	return clients
}
