package registry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/webstarter/authkit/internal/common"
)

type memoryRecord struct {
	identity   Identity
	secretHash string
}

// MemoryRegistry keeps identities in process memory. It backs the demo
// (mock) provider and tests. Secrets are still bcrypt-hashed: demo data is
// not an excuse for plaintext storage.
type MemoryRegistry struct {
	mu      sync.RWMutex
	byID    map[string]*memoryRecord
	byEmail map[string]string // normalized email -> id
	now     func() time.Time
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		byID:    make(map[string]*memoryRecord),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

// WithClock replaces the registry's clock and returns the registry.
func (m *MemoryRegistry) WithClock(now func() time.Time) *MemoryRegistry {
	m.now = now
	return m
}

func (m *MemoryRegistry) Create(_ context.Context, identity *Identity, secretHash string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := NormalizeEmail(identity.Email)
	if _, ok := m.byEmail[email]; ok {
		return nil, common.ErrAlreadyExists
	}

	now := m.now()
	rec := &memoryRecord{identity: *identity, secretHash: secretHash}
	rec.identity.Email = email
	if rec.identity.ID == "" {
		rec.identity.ID = uuid.NewString()
	}
	if rec.identity.Role == "" {
		rec.identity.Role = RoleUser
	}
	rec.identity.CreatedAt = now
	rec.identity.UpdatedAt = now

	m.byID[rec.identity.ID] = rec
	m.byEmail[email] = rec.identity.ID

	cp := rec.identity
	return &cp, nil
}

func (m *MemoryRegistry) GetByEmail(_ context.Context, email string) (*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := m.byID[id].identity
	return &cp, nil
}

func (m *MemoryRegistry) GetByID(_ context.Context, id string) (*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := rec.identity
	return &cp, nil
}

func (m *MemoryRegistry) Update(_ context.Context, id string, p Patch) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if p.Name != nil {
		rec.identity.Name = *p.Name
	}
	if p.AvatarURL != nil {
		rec.identity.AvatarURL = *p.AvatarURL
	}
	if p.Role != nil {
		rec.identity.Role = *p.Role
	}
	rec.identity.UpdatedAt = m.now()

	cp := rec.identity
	return &cp, nil
}

func (m *MemoryRegistry) secretHash(_ context.Context, id string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.byID[id]
	if !ok {
		return "", common.ErrNotFound
	}
	return rec.secretHash, nil
}

func (m *MemoryRegistry) setSecretHash(_ context.Context, id string, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	rec.secretHash = hash
	rec.identity.UpdatedAt = m.now()
	return nil
}
