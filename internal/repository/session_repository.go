package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stemsi/studyplan-backend/internal/model"
)

// Session store errors.
var (
	ErrSessionNotFound = errors.New("plan session not found")
	ErrSessionExists   = errors.New("plan session already exists")
)

// SessionStore keeps plan sessions until they expire.
type SessionStore interface {
	Create(ctx context.Context, sess *model.PlanSession) error
	Get(ctx context.Context, id string) (*model.PlanSession, error)
	Save(ctx context.Context, sess *model.PlanSession) error
	Delete(ctx context.Context, id string) error
}

// Purger is implemented by stores that need expired sessions swept.
type Purger interface {
	Purge(ctx context.Context) (int, error)
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemorySessionStore keeps sessions in process memory. Sessions are stored
// encoded so callers never share state with the store.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

// NewMemorySessionStore creates an empty MemorySessionStore.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (r *MemorySessionStore) Create(ctx context.Context, sess *model.PlanSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sess.ID]; ok && r.now().Before(e.expiresAt) {
		return ErrSessionExists
	}
	r.sessions[sess.ID] = memoryEntry{data: data, expiresAt: sess.ExpiresAt}
	return nil
}

func (r *MemorySessionStore) Get(ctx context.Context, id string) (*model.PlanSession, error) {
	r.mu.Lock()
	e, ok := r.sessions[id]
	r.mu.Unlock()

	if !ok || !r.now().Before(e.expiresAt) {
		return nil, ErrSessionNotFound
	}

	var sess model.PlanSession
	if err := json.Unmarshal(e.data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (r *MemorySessionStore) Save(ctx context.Context, sess *model.PlanSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sess.ID]
	if !ok || !r.now().Before(e.expiresAt) {
		return ErrSessionNotFound
	}
	r.sessions[sess.ID] = memoryEntry{data: data, expiresAt: e.expiresAt}
	return nil
}

func (r *MemorySessionStore) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// Purge drops expired sessions and reports how many were removed.
func (r *MemorySessionStore) Purge(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, e := range r.sessions {
		if !now.Before(e.expiresAt) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions, expired or not.
func (r *MemorySessionStore) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
