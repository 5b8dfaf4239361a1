package store

import (
	"context"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// MemoryStore keeps history in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	threads map[string][]llms.MessageContent
	recent  []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{threads: make(map[string][]llms.MessageContent)}
}

func (m *MemoryStore) Load(ctx context.Context, threadID string) ([]llms.MessageContent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	history := m.threads[threadID]
	out := make([]llms.MessageContent, len(history))
	copy(out, history)
	return out, nil
}

func (m *MemoryStore) Append(ctx context.Context, threadID string, msgs ...llms.MessageContent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads[threadID] = append(m.threads[threadID], msgs...)

	recent := make([]string, 0, len(m.recent)+1)
	recent = append(recent, threadID)
	for _, id := range m.recent {
		if id != threadID {
			recent = append(recent, id)
		}
	}
	m.recent = recent
	return nil
}

func (m *MemoryStore) Threads(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.recent...), nil
}
