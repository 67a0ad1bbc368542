package vector

import (
	"context"
	"math"
	"sort"
	"sync"
)

type entry struct {
	vec      []float32
	metadata map[string]string
}

// MemoryIndex is a brute-force cosine index. Inventory sizes here are
// hundreds of items at most, so a scan per query is fine.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[string]entry)}
}

func (m *MemoryIndex) Upsert(ctx context.Context, id string, vec []float32, metadata map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]float32, len(vec))
	copy(cp, vec)
	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}
	m.entries[id] = entry{vec: cp, metadata: meta}
	return nil
}

func (m *MemoryIndex) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

func (m *MemoryIndex) Query(ctx context.Context, vec []float32, k int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Match, 0, len(m.entries))
	for id, e := range m.entries {
		out = append(out, Match{ID: id, Score: cosine(vec, e.vec), Metadata: e.metadata})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
