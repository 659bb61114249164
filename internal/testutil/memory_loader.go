// memory_loader.go - In-memory dataset loader for testing
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/gcviewer/backend/internal/dataset"
	"github.com/gcviewer/backend/internal/models"
	"github.com/gcviewer/backend/internal/resource"
)

// MemoryLoader implements dataset.Loader over a map.
type MemoryLoader struct {
	summaries map[resource.ID]models.DatasetSummary
	calls     int
	mu        sync.RWMutex
}

// NewMemoryLoader creates an empty loader.
func NewMemoryLoader() *MemoryLoader {
	return &MemoryLoader{
		summaries: make(map[resource.ID]models.DatasetSummary),
	}
}

// Set stores the summary of id.
func (m *MemoryLoader) Set(id resource.ID, s models.DatasetSummary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries[id] = s
}

// Load returns the stored summary. Series parts are combined.
func (m *MemoryLoader) Load(ctx context.Context, entry resource.Entry) (models.DatasetSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	var parts []models.DatasetSummary
	for _, id := range entry.IDs() {
		s, ok := m.summaries[id]
		if !ok {
			return models.DatasetSummary{}, fmt.Errorf("%w: %s", dataset.ErrNotFound, id)
		}
		parts = append(parts, s)
	}
	return models.Combine(parts...), nil
}

// Calls returns how often Load was called.
func (m *MemoryLoader) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}
