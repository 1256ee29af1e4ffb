package api

import (
	"strings"
	"sync"

	"github.com/proqol/proscore/internal/services"
)

type memoryStore struct {
	mu           sync.RWMutex
	batches      map[string]*services.Batch
	runs         map[string]*services.ScoreRun
	tenants      map[string]*services.Tenant
	usersByEmail map[string]*services.User
	audit        []services.AuditEntry
}

func NewMemoryStore() Store { return newMemoryStore() }

func newMemoryStore() *memoryStore {
	return &memoryStore{
		batches:      map[string]*services.Batch{},
		runs:         map[string]*services.ScoreRun{},
		tenants:      map[string]*services.Tenant{},
		usersByEmail: map[string]*services.User{},
		audit:        []services.AuditEntry{},
	}
}

func (s *memoryStore) AddBatch(b *services.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[b.ID] = b
	return nil
}

func (s *memoryStore) GetBatch(id string) (*services.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.batches[id], nil
}

func (s *memoryStore) DeleteBatch(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.batches, id)
	for runID, r := range s.runs {
		if r.BatchID == id {
			delete(s.runs, runID)
		}
	}
	return nil
}

func (s *memoryStore) AddScoreRun(r *services.ScoreRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = r
	return nil
}

func (s *memoryStore) GetScoreRun(id string) (*services.ScoreRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs[id], nil
}

func (s *memoryStore) AddAudit(e services.AuditEntry) {
	s.mu.Lock()
	s.audit = append(s.audit, e)
	s.mu.Unlock()
}

func (s *memoryStore) ListAudit() []services.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]services.AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}

func (s *memoryStore) AddTenant(t *services.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[t.ID] = t
	return nil
}

func (s *memoryStore) AddUser(u *services.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usersByEmail[strings.ToLower(u.Email)] = u
	return nil
}

func (s *memoryStore) FindUserByEmail(email string) (*services.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usersByEmail[strings.ToLower(email)], nil
}
