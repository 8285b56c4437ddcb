package docstore

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/centinela-app/centinela/internal/common"
)

// Memory is an in-process Store used by tests and the offline mode.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]map[string]any
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]map[string]any)}
}

func (m *Memory) Get(ctx context.Context, path string) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fields, ok := m.docs[path]
	if !ok {
		return nil, common.ErrNotFound
	}
	return maps.Clone(fields), nil
}

func (m *Memory) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.NewString()
	m.mu.Lock()
	m.docs[collection+"/"+id] = maps.Clone(fields)
	m.mu.Unlock()
	return id, nil
}

func (m *Memory) Set(ctx context.Context, path string, fields map[string]any) error {
	m.mu.Lock()
	m.docs[path] = maps.Clone(fields)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Update(ctx context.Context, path string, updates []Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fields, ok := m.docs[path]
	if !ok {
		return common.ErrNotFound
	}
	for _, u := range updates {
		if inc, ok := u.Value.(increment); ok {
			cur, _ := fields[u.Field].(int64)
			if f, ok := fields[u.Field].(float64); ok {
				cur = int64(f)
			}
			fields[u.Field] = cur + inc.delta
			continue
		}
		fields[u.Field] = u.Value
	}
	return nil
}

func (m *Memory) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	delete(m.docs, path)
	m.mu.Unlock()
	return nil
}

// List returns the documents directly inside collection, keyed by id.
// Subcollection documents are not included.
func (m *Memory) List(collection string) map[string]map[string]any {
	prefix := collection + "/"
	out := make(map[string]map[string]any)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for path, fields := range m.docs {
		if len(path) <= len(prefix) || path[:len(prefix)] != prefix {
			continue
		}
		id := path[len(prefix):]
		for i := 0; i < len(id); i++ {
			if id[i] == '/' {
				id = ""
				break
			}
		}
		if id != "" {
			out[id] = maps.Clone(fields)
		}
	}
	return out
}
