package clientstate

import (
	"context"
	"sync"
)

// MemoryStore keeps records in process. Used by tests and when the service
// runs without a database.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]Record)}
}

func memKey(ownerID, key string) string {
	return ownerID + "\x00" + key
}

func (m *MemoryStore) Load(_ context.Context, ownerID, key string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.recs[memKey(ownerID, key)]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec.Payload = append([]byte(nil), rec.Payload...)
	return rec, nil
}

func (m *MemoryStore) Save(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.Payload = append([]byte(nil), rec.Payload...)
	m.recs[memKey(rec.OwnerID, rec.Key)] = rec
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, ownerID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, memKey(ownerID, key))
	return nil
}
