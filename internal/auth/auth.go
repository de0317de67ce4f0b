// Package auth gates the flow editor and outcome endpoints.
//
// Authentication model:
// - Public endpoints (categories, flows, checks, assess): no auth
// - Viewer keys read the outcome audit trail
// - Editor keys also change flow definitions
// - The admin secret mints and revokes keys
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// Errors
var (
	ErrNoAPIKey      = errors.New("API key required")
	ErrInvalidAPIKey = errors.New("invalid or expired API key")
	ErrKeyNotFound   = errors.New("API key not found")
	ErrInvalidRole   = errors.New("unknown role")
)

// Role is what a key may do.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleViewer || r == RoleEditor
}

// Allows reports whether a key with role r may act as required.
func (r Role) Allows(required Role) bool {
	switch required {
	case RoleViewer:
		return r == RoleViewer || r == RoleEditor
	case RoleEditor:
		return r == RoleEditor
	}
	return false
}

// APIKey represents an editor or viewer key
type APIKey struct {
	ID        string     `json:"id"`
	Hash      string     `json:"-"`     // SHA256 hash of key (stored)
	Owner     string     `json:"owner"` // who the key was issued to
	Name      string     `json:"name"`
	Role      Role       `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
	LastUsed  time.Time  `json:"lastUsed,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Revoked   bool       `json:"revoked"`
}

// Store persists API keys
type Store interface {
	Create(ctx context.Context, key *APIKey) error
	GetByHash(ctx context.Context, hash string) (*APIKey, error)
	List(ctx context.Context) ([]*APIKey, error)
	Update(ctx context.Context, key *APIKey) error
	Delete(ctx context.Context, id string) error
}

// Manager handles authentication
type Manager struct {
	store       Store
	adminSecret string
}

// NewManager creates a new auth manager. An empty adminSecret disables
// admin access.
func NewManager(store Store, adminSecret string) *Manager {
	return &Manager{store: store, adminSecret: adminSecret}
}

// IsAdminSecret compares candidate to the admin secret in constant time.
func (m *Manager) IsAdminSecret(candidate string) bool {
	if m.adminSecret == "" || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(m.adminSecret)) == 1
}

// GenerateKey creates a new key. Returns the raw key (shown once) and the
// stored metadata. A zero ttl means the key does not expire.
func (m *Manager) GenerateKey(ctx context.Context, owner, name string, role Role, ttl time.Duration) (rawKey string, key *APIKey, err error) {
	if !role.Valid() {
		return "", nil, ErrInvalidRole
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", nil, err
	}
	rawKey = "sk_" + hex.EncodeToString(b)

	now := time.Now()
	key = &APIKey{
		ID:        "ak_" + hex.EncodeToString(b[:8]),
		Hash:      hashKey(rawKey),
		Owner:     strings.TrimSpace(owner),
		Name:      name,
		Role:      role,
		CreatedAt: now,
	}
	if ttl > 0 {
		exp := now.Add(ttl)
		key.ExpiresAt = &exp
	}

	if err := m.store.Create(ctx, key); err != nil {
		return "", nil, err
	}
	return rawKey, key, nil
}

// ValidateKey validates an API key and returns the key metadata
func (m *Manager) ValidateKey(ctx context.Context, rawKey string) (*APIKey, error) {
	if rawKey == "" {
		return nil, ErrNoAPIKey
	}

	rawKey = strings.TrimPrefix(rawKey, "Bearer ")
	rawKey = strings.TrimSpace(rawKey)
	if !strings.HasPrefix(rawKey, "sk_") {
		return nil, ErrInvalidAPIKey
	}

	key, err := m.store.GetByHash(ctx, hashKey(rawKey))
	if err != nil {
		return nil, ErrInvalidAPIKey
	}
	if key.Revoked {
		return nil, ErrInvalidAPIKey
	}
	if key.ExpiresAt != nil && time.Now().After(*key.ExpiresAt) {
		return nil, ErrInvalidAPIKey
	}

	// Last-used is advisory; update a copy off the request path.
	touched := *key
	touched.LastUsed = time.Now()
	go func() { _ = m.store.Update(context.Background(), &touched) }()

	return key, nil
}

// ListKeys returns every issued key, newest first
func (m *Manager) ListKeys(ctx context.Context) ([]*APIKey, error) {
	return m.store.List(ctx)
}

// RevokeKey revokes an API key by id
func (m *Manager) RevokeKey(ctx context.Context, keyID string) error {
	keys, err := m.store.List(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if k.ID == keyID {
			if k.Revoked {
				return ErrKeyNotFound
			}
			k.Revoked = true
			return m.store.Update(ctx, k)
		}
	}
	return ErrKeyNotFound
}

func hashKey(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

// MemoryStore is an in-memory implementation of Store. Keys are copied in
// and out.
type MemoryStore struct {
	mu   sync.RWMutex
	keys map[string]*APIKey // by ID
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		keys: make(map[string]*APIKey),
	}
}

func (s *MemoryStore) Create(ctx context.Context, key *APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *key
	s.keys[key.ID] = &cp
	return nil
}

func (s *MemoryStore) GetByHash(ctx context.Context, hash string) (*APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range s.keys {
		if k.Hash == hash {
			cp := *k
			return &cp, nil
		}
	}
	return nil, ErrKeyNotFound
}

func (s *MemoryStore) List(ctx context.Context) ([]*APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*APIKey, 0, len(s.keys))
	for _, k := range s.keys {
		cp := *k
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

// Update writes the mutable fields (last used, revoked) of an existing key.
func (s *MemoryStore) Update(ctx context.Context, key *APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[key.ID]
	if !ok {
		return ErrKeyNotFound
	}
	if key.LastUsed.After(k.LastUsed) {
		k.LastUsed = key.LastUsed
	}
	k.Revoked = k.Revoked || key.Revoked
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, id)
	return nil
}
