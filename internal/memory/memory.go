// Package memory keeps per-thread conversation history for the agent.
package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/cloudwego/eino/schema"
)

var ErrThreadIDRequired = errors.New("thread id is required")

type Store interface {
	Load(ctx context.Context, threadID string) ([]*schema.Message, error)
	Append(ctx context.Context, threadID string, msgs ...*schema.Message) error
}

// InMemory keeps the most recent MaxMessages messages per thread in process
// memory. A non-positive MaxMessages keeps everything.
type InMemory struct {
	MaxMessages int

	mu      sync.RWMutex
	threads map[string][]*schema.Message
}

func NewInMemory(maxMessages int) *InMemory {
	return &InMemory{MaxMessages: maxMessages, threads: make(map[string][]*schema.Message)}
}

func (m *InMemory) Load(_ context.Context, threadID string) ([]*schema.Message, error) {
	if strings.TrimSpace(threadID) == "" {
		return nil, ErrThreadIDRequired
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	history := m.threads[threadID]
	out := make([]*schema.Message, len(history))
	copy(out, history)
	return out, nil
}

func (m *InMemory) Append(_ context.Context, threadID string, msgs ...*schema.Message) error {
	if strings.TrimSpace(threadID) == "" {
		return ErrThreadIDRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.threads == nil {
		m.threads = make(map[string][]*schema.Message)
	}
	history := append(m.threads[threadID], msgs...)
	m.threads[threadID] = trim(history, m.MaxMessages)
	return nil
}

// Nop forgets everything; every thread starts empty.
type Nop struct{}

func (Nop) Load(_ context.Context, threadID string) ([]*schema.Message, error) {
	if strings.TrimSpace(threadID) == "" {
		return nil, ErrThreadIDRequired
	}
	return nil, nil
}

func (Nop) Append(_ context.Context, threadID string, _ ...*schema.Message) error {
	if strings.TrimSpace(threadID) == "" {
		return ErrThreadIDRequired
	}
	return nil
}

// trim drops the oldest messages beyond max, and never starts a history
// with a tool result whose assistant call was dropped.
func trim(history []*schema.Message, max int) []*schema.Message {
	if max > 0 && len(history) > max {
		history = history[len(history)-max:]
	}
	for len(history) > 0 && history[0].Role == schema.Tool {
		history = history[1:]
	}
	return history
}
