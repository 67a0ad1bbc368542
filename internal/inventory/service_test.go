package inventory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storagevoice/internal/store"
	"storagevoice/internal/vector"
)

type stubEmbedder struct {
	vecs map[string][]float32
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, ok := s.vecs[text]
	if !ok {
		return nil, fmt.Errorf("no stub vector for %q", text)
	}
	return v, nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	emb := &stubEmbedder{vecs: map[string][]float32{
		"flashlight": {1, 0, 0},
		"torch":      {0.9, 0.44, 0},
		"hammer":     {0, 1, 0},
		"battery":    {0, 0, 1},
	}}
	search := vector.NewSemanticSearch(emb, vector.NewMemoryIndex(), 0.8, 3)
	return NewService(store.NewMemory(), search)
}

func TestAddBoxIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	box, created, err := svc.AddBox(ctx, "b")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "B", box.Name)

	again, created, err := svc.AddBox(ctx, "B")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, box.ID, again.ID)
}

func TestAddItemMergesIntoExistingBox(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	_, _, err := svc.AddBox(ctx, "a")
	require.NoError(t, err)
	_, _, err = svc.AddBox(ctx, "b")
	require.NoError(t, err)

	item, created, err := svc.AddItem(ctx, "flashlight", 1, "a")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, item.Quantity)

	// "torch" resolves to the stored flashlight; the existing box wins
	// over the requested destination.
	merged, created, err := svc.AddItem(ctx, "torch", 2, "b")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, item.ID, merged.ID)
	assert.Equal(t, 3, merged.Quantity)
	assert.Equal(t, item.BoxID, merged.BoxID)
}

func TestAddItemMergeRefreshesIndex(t *testing.T) {
	ctx := context.Background()
	emb := &stubEmbedder{vecs: map[string][]float32{
		"flashlight": {1, 0, 0},
		"torch":      {0.9, 0.44, 0},
	}}
	idx := vector.NewMemoryIndex()
	svc := NewService(store.NewMemory(), vector.NewSemanticSearch(emb, idx, 0.8, 3))

	box, _, err := svc.AddBox(ctx, "a")
	require.NoError(t, err)
	item, _, err := svc.AddItem(ctx, "flashlight", 1, "a")
	require.NoError(t, err)

	// Drifted index entry; the merge write-back must restore it.
	err = idx.Upsert(ctx, item.ID, []float32{1, 0, 0}, map[string]string{
		"name":           item.Name,
		"canonical_name": item.CanonicalName,
		"box_id":         "gone",
		"box_name":       "Z",
	})
	require.NoError(t, err)

	_, created, err := svc.AddItem(ctx, "torch", 2, "a")
	require.NoError(t, err)
	assert.False(t, created)

	hits, err := idx.Query(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, box.ID, hits[0].Metadata["box_id"])
	assert.Equal(t, "A", hits[0].Metadata["box_name"])
}

func TestMoveAllSameBoxIsNoOp(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	box, _, err := svc.AddBox(ctx, "a")
	require.NoError(t, err)
	_, _, err = svc.AddItem(ctx, "hammer", 2, "a")
	require.NoError(t, err)

	moved, err := svc.MoveAllItemsBetweenBoxes(ctx, box, box)
	require.NoError(t, err)
	assert.Zero(t, moved)
}

func TestAddItemUnknownBox(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, _, err := svc.AddItem(ctx, "hammer", 1, "zebra")
	assert.ErrorIs(t, err, ErrBoxNotFound)
}

func TestRemoveItemDeletesAtZero(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	_, _, err := svc.AddBox(ctx, "a")
	require.NoError(t, err)

	item, _, err := svc.AddItem(ctx, "battery", 3, "a")
	require.NoError(t, err)

	updated, err := svc.RemoveItem(ctx, item, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Quantity)

	updated, err = svc.RemoveItem(ctx, updated, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Quantity)

	// Record and index entry are both gone.
	found, suggestions, err := svc.FindItemBySemantic(ctx, "battery")
	require.NoError(t, err)
	assert.Nil(t, found)
	assert.Empty(t, suggestions)
}

func TestMoveItem(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	_, _, err := svc.AddBox(ctx, "a")
	require.NoError(t, err)
	dest, _, err := svc.AddBox(ctx, "b")
	require.NoError(t, err)

	item, _, err := svc.AddItem(ctx, "hammer", 1, "a")
	require.NoError(t, err)

	// A stated source that does not hold the item fails closed.
	_, _, err = svc.MoveItem(ctx, item, "b", dest)
	assert.Error(t, err)

	moved, didMove, err := svc.MoveItem(ctx, item, "a", dest)
	require.NoError(t, err)
	assert.True(t, didMove)
	assert.Equal(t, dest.ID, moved.BoxID)

	// Moving to the current box is a reported no-op.
	_, didMove, err = svc.MoveItem(ctx, moved, "", dest)
	require.NoError(t, err)
	assert.False(t, didMove)
}

func TestFindBoxByNameSpokenForms(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	box, _, err := svc.AddBox(ctx, "b")
	require.NoError(t, err)

	for _, spoken := range []string{"b", "B", "bee", "box b", "box bee", "bee."} {
		got, err := svc.FindBoxByName(ctx, spoken)
		require.NoError(t, err)
		require.NotNil(t, got, "spoken %q", spoken)
		assert.Equal(t, box.ID, got.ID, "spoken %q", spoken)
	}

	got, err := svc.FindBoxByName(ctx, "zebra")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRemoveBoxIfEmpty(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	box, _, err := svc.AddBox(ctx, "a")
	require.NoError(t, err)

	_, _, err = svc.AddItem(ctx, "hammer", 1, "a")
	require.NoError(t, err)

	ok, count, err := svc.RemoveBoxIfEmpty(ctx, box)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, count)

	cleared, err := svc.ClearBoxItems(ctx, box)
	require.NoError(t, err)
	assert.Equal(t, 1, cleared)

	ok, _, err = svc.RemoveBoxIfEmpty(ctx, box)
	require.NoError(t, err)
	assert.True(t, ok)
}
