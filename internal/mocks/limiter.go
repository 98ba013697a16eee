package mocks

import (
	"context"
	"sync"
)

// MockAttemptLimiter counts failures in memory.
type MockAttemptLimiter struct {
	mu          sync.Mutex
	MaxAttempts int
	Failures    map[string]int
	AllowError  error
}

func NewMockAttemptLimiter(maxAttempts int) *MockAttemptLimiter {
	return &MockAttemptLimiter{MaxAttempts: maxAttempts, Failures: make(map[string]int)}
}

func (m *MockAttemptLimiter) Allow(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AllowError != nil {
		return false, m.AllowError
	}
	return m.MaxAttempts <= 0 || m.Failures[key] < m.MaxAttempts, nil
}

func (m *MockAttemptLimiter) Fail(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Failures[key]++
	return nil
}

func (m *MockAttemptLimiter) Reset(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Failures, key)
	return nil
}
