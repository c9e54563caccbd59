package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"secretbox/models"
)

// Memory keeps secrets in process memory. Records are appended whole under the write
// lock, so readers never observe a partial record.
type Memory struct {
	mu       sync.RWMutex
	messages []models.Message
}

func NewMemory() *Memory {
	return &Memory{messages: make([]models.Message, 0)}
}

func (m *Memory) Insert(_ context.Context, msg models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *Memory) Recent(_ context.Context, limit int) ([]models.Message, error) {
	m.mu.RLock()
	out := slices.Clone(m.messages)
	m.mu.RUnlock()
	slices.Reverse(out)

	// Reversed first so equal timestamps list the later insert first.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit < 0 {
		limit = 0
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close(context.Context) error { return nil }

// Len reports how many secrets are held.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}
