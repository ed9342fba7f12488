package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockGenerator is a Generator for tests that do not exercise storage.
// It keeps plain in-process counters and ignores transactions.
type MockGenerator struct {
	mu       sync.Mutex
	counters map[string]int64
	Err      error
}

var _ Generator = (*MockGenerator)(nil)

// NewMockGenerator creates an empty MockGenerator.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{counters: make(map[string]int64)}
}

func (m *MockGenerator) NextNumber(ctx context.Context, documentType string, fiscalYearID int64) (string, error) {
	return m.NextNumberAt(ctx, documentType, fiscalYearID, time.Now())
}

func (m *MockGenerator) NextNumberAt(_ context.Context, documentType string, fiscalYearID int64, _ time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	key := fmt.Sprintf("%s:%d", documentType, fiscalYearID)
	m.counters[key]++
	return Format(fmt.Sprintf("%s-FY%d-", documentType, fiscalYearID), 5, m.counters[key]), nil
}

func (m *MockGenerator) SetNextNumber(_ context.Context, documentType string, fiscalYearID int64, _ time.Time, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters[fmt.Sprintf("%s:%d", documentType, fiscalYearID)] = value - 1
	return nil
}
