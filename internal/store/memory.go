package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"storagevoice/pkg"
)

// Memory is the in-process backend. State lives for the life of the session.
type Memory struct {
	mu    sync.Mutex
	boxes map[string]pkg.Box
	items map[string]pkg.Item
}

func NewMemory() *Memory {
	return &Memory{
		boxes: make(map[string]pkg.Box),
		items: make(map[string]pkg.Item),
	}
}

func (m *Memory) ListBoxes(ctx context.Context) ([]pkg.Box, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]pkg.Box, 0, len(m.boxes))
	for _, b := range m.boxes {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (m *Memory) CreateBox(ctx context.Context, name string) (*pkg.Box, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := pkg.Box{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	m.boxes[b.ID] = b
	return &b, nil
}

func (m *Memory) DeleteBox(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.boxes[id]; !ok {
		return false, nil
	}
	delete(m.boxes, id)
	return true, nil
}

func (m *Memory) ListItems(ctx context.Context) ([]pkg.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]pkg.Item, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (m *Memory) AddItem(ctx context.Context, name, canonical string, quantity int, boxID string) (*pkg.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it := pkg.Item{
		ID:            uuid.NewString(),
		Name:          name,
		CanonicalName: canonical,
		Quantity:      quantity,
		BoxID:         boxID,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339Nano),
	}
	m.items[it.ID] = it
	return &it, nil
}

func (m *Memory) UpdateItemQuantity(ctx context.Context, id string, quantity int) (*pkg.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if quantity <= 0 {
		delete(m.items, id)
		it.Quantity = 0
		return &it, nil
	}
	it.Quantity = quantity
	m.items[id] = it
	return &it, nil
}

func (m *Memory) MoveItemToBox(ctx context.Context, id, boxID string) (*pkg.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	it.BoxID = boxID
	m.items[id] = it
	return &it, nil
}

func (m *Memory) DeleteItem(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return false, nil
	}
	delete(m.items, id)
	return true, nil
}
