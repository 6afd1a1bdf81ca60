package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

type memoryEntry struct {
	manifest Manifest
	chunks   []string
	vectors  [][]float32
}

// MemoryStore keeps indexes in process memory and searches them exhaustively
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Save(_ context.Context, key string, manifest Manifest, chunks []string, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks for %d vectors", ErrIndexBuild, len(chunks), len(vectors))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{
		manifest: manifest,
		chunks:   append([]string(nil), chunks...),
		vectors:  append([][]float32(nil), vectors...),
	}
	return nil
}

func (s *MemoryStore) Manifest(_ context.Context, key string) (Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return Manifest{}, fmt.Errorf("%w: %s", ErrIndexNotFound, key)
	}
	return e.manifest, nil
}

func (s *MemoryStore) Search(_ context.Context, key string, query []float32, k int) ([]Hit, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, key)
	}
	if k <= 0 {
		return []Hit{}, nil
	}

	hits := make([]Hit, len(e.vectors))
	for i, v := range e.vectors {
		if len(v) != len(query) {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, query %d", ErrEmbeddingMismatch, i, len(v), len(query))
		}
		hits[i] = Hit{Position: i, Content: e.chunks[i], Distance: L2(v, query)}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Distance < hits[b].Distance })

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// L2 returns the Euclidean distance between equal-length vectors
func L2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
