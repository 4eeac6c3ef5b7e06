package media

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryStore keeps uploaded assets in memory. Used by tests and as a
// stand-in when no media backend is configured.
type MemoryStore struct {
	mu      sync.Mutex
	seq     int
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Upload(ctx context.Context, scope string, r io.Reader, opts UploadOptions) (Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Object{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	key := fmt.Sprintf("%s/%d", scope, m.seq)
	m.objects[key] = data

	return Object{URL: "memory://" + key, Key: key}, nil
}

func (m *MemoryStore) Destroy(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[key]; !ok {
		return fmt.Errorf("object %s not found", key)
	}
	delete(m.objects, key)
	return nil
}

// Has reports whether an asset is still stored.
func (m *MemoryStore) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// Len reports the number of stored assets.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
