package provisioning

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pictotext/pictotext/internal/pkg/cache"
)

// PendingTTL bounds how long an unpaid registration is held before the
// visitor has to start over.
const PendingTTL = time.Hour

const pendingKeyPrefix = "pending_registration:"

// PendingRegistration holds the signup a visitor submitted before paying.
// The password is stored as a bcrypt hash, never in the clear.
type PendingRegistration struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// PendingStore keeps pending registrations keyed by session ID.
type PendingStore interface {
	Put(sessionID string, reg *PendingRegistration) error
	// Get returns nil without error when no pending registration exists.
	Get(sessionID string) (*PendingRegistration, error)
	Delete(sessionID string) error
}

// redisPendingStore persists pending registrations in Redis with a TTL so
// abandoned signups expire on their own.
type redisPendingStore struct{}

// NewRedisPendingStore creates a store backed by the shared cache client.
func NewRedisPendingStore() PendingStore {
	return &redisPendingStore{}
}

func (s *redisPendingStore) Put(sessionID string, reg *PendingRegistration) error {
	data, err := json.Marshal(reg)
	if err != nil {
		return err
	}
	return cache.Set(pendingKeyPrefix+sessionID, data, PendingTTL)
}

func (s *redisPendingStore) Get(sessionID string) (*PendingRegistration, error) {
	data, err := cache.Get(pendingKeyPrefix + sessionID)
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var reg PendingRegistration
	if err := json.Unmarshal([]byte(data), &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (s *redisPendingStore) Delete(sessionID string) error {
	return cache.Delete(pendingKeyPrefix + sessionID)
}

// memoryPendingStore backs tests and cache-less deployments.
type memoryPendingStore struct {
	mu      sync.Mutex
	entries map[string]pendingEntry
	now     func() time.Time
}

type pendingEntry struct {
	reg       PendingRegistration
	expiresAt time.Time
}

// NewMemoryPendingStore creates an in-process store with the same TTL
// behavior as the Redis one.
func NewMemoryPendingStore() PendingStore {
	return &memoryPendingStore{entries: make(map[string]pendingEntry), now: time.Now}
}

func (s *memoryPendingStore) Put(sessionID string, reg *PendingRegistration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = pendingEntry{reg: *reg, expiresAt: s.now().Add(PendingTTL)}
	return nil
}

func (s *memoryPendingStore) Get(sessionID string) (*PendingRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[sessionID]
	if !ok {
		return nil, nil
	}
	if s.now().After(entry.expiresAt) {
		delete(s.entries, sessionID)
		return nil, nil
	}
	reg := entry.reg
	return &reg, nil
}

func (s *memoryPendingStore) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}
