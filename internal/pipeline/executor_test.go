package pipeline

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storagevoice/internal/inventory"
	"storagevoice/internal/store"
	"storagevoice/internal/vector"
	"storagevoice/pkg"
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

type scriptedVoice struct {
	replies []string
	spoken  []string
}

func (v *scriptedVoice) Transcribe(ctx context.Context) (string, error) {
	if len(v.replies) == 0 {
		return "", io.EOF
	}
	r := v.replies[0]
	v.replies = v.replies[1:]
	return r, nil
}

func (v *scriptedVoice) Speak(ctx context.Context, text string) {
	v.spoken = append(v.spoken, text)
}

func newTestExecutor(t *testing.T, voice *scriptedVoice) (*Executor, *inventory.Service) {
	t.Helper()
	emb := &stubEmbedder{vecs: map[string][]float32{
		"flashlight": {1, 0},
		"lamp":       {0, 1},
		"torch":      {0.714, 0.7},
		"hammer":     {0.5, -0.866},
	}}
	search := vector.NewSemanticSearch(emb, vector.NewMemoryIndex(), 0.9, 3)
	svc := inventory.NewService(store.NewMemory(), search)
	return NewExecutor(svc, voice), svc
}

func TestExecuteAdd(t *testing.T) {
	ctx := context.Background()
	voice := &scriptedVoice{}
	ex, svc := newTestExecutor(t, voice)
	_, _, err := svc.AddBox(ctx, "a")
	require.NoError(t, err)

	res := ex.Execute(ctx, pkg.Op{Intent: pkg.IntentAdd, ObjectName: "hammer", Quantity: "2", ToBox: "a"}, false)
	assert.Equal(t, "added 2 hammer to box A", res.Message)

	res = ex.Execute(ctx, pkg.Op{Intent: pkg.IntentAdd, ObjectName: "hammer", Quantity: "1", ToBox: "a"}, false)
	assert.Equal(t, "added 1 hammer; you now have 3 in box A", res.Message)
}

func TestExecuteAddRepromptsForUnknownBox(t *testing.T) {
	ctx := context.Background()
	voice := &scriptedVoice{replies: []string{"box a"}}
	ex, svc := newTestExecutor(t, voice)
	_, _, err := svc.AddBox(ctx, "a")
	require.NoError(t, err)

	res := ex.Execute(ctx, pkg.Op{Intent: pkg.IntentAdd, ObjectName: "hammer", Quantity: "1", ToBox: "zebra"}, false)
	assert.Equal(t, "added 1 hammer to box A", res.Message)
	require.NotEmpty(t, voice.spoken)
	assert.Contains(t, voice.spoken[0], "Which box")
}

func TestExecuteAddAsksNeutrallyWhenNoBoxGiven(t *testing.T) {
	ctx := context.Background()
	voice := &scriptedVoice{replies: []string{"box a"}}
	ex, svc := newTestExecutor(t, voice)
	_, _, err := svc.AddBox(ctx, "a")
	require.NoError(t, err)

	res := ex.Execute(ctx, pkg.Op{Intent: pkg.IntentAdd, ObjectName: "hammer", Quantity: "1"}, false)
	assert.Equal(t, "added 1 hammer to box A", res.Message)
	require.NotEmpty(t, voice.spoken)
	assert.Equal(t, "Which box should I add hammer to?", voice.spoken[0])
}

func TestExecuteAddSkipsWhenRepromptFails(t *testing.T) {
	ctx := context.Background()
	voice := &scriptedVoice{replies: []string{"wherever"}}
	ex, svc := newTestExecutor(t, voice)
	_, _, err := svc.AddBox(ctx, "a")
	require.NoError(t, err)

	res := ex.Execute(ctx, pkg.Op{Intent: pkg.IntentAdd, ObjectName: "hammer", Quantity: "1", ToBox: "zebra"}, false)
	assert.Contains(t, res.Message, "skipped")
}

func TestExecuteRemoveAmbiguous(t *testing.T) {
	ctx := context.Background()
	voice := &scriptedVoice{}
	ex, svc := newTestExecutor(t, voice)
	_, _, err := svc.AddBox(ctx, "a")
	require.NoError(t, err)
	_, _, err = svc.AddItem(ctx, "flashlight", 1, "a")
	require.NoError(t, err)
	_, _, err = svc.AddItem(ctx, "lamp", 1, "a")
	require.NoError(t, err)

	// "torch" scores below the 0.9 threshold against everything.
	res := ex.Execute(ctx, pkg.Op{Intent: pkg.IntentRemove, ObjectName: "torch", Quantity: "1"}, false)
	assert.Empty(t, res.Message)
	require.NotEmpty(t, res.Suggestions)
	assert.Equal(t, "flashlight", res.Suggestions[0].Item.Name)

	// The same op in a multi-op batch is skipped with a notice instead.
	res = ex.Execute(ctx, pkg.Op{Intent: pkg.IntentRemove, ObjectName: "torch", Quantity: "1"}, true)
	assert.Empty(t, res.Suggestions)
	assert.Contains(t, res.Message, "skipped torch")
}

func TestExecuteRemoveCapsAtStored(t *testing.T) {
	ctx := context.Background()
	ex, svc := newTestExecutor(t, &scriptedVoice{})
	_, _, err := svc.AddBox(ctx, "a")
	require.NoError(t, err)
	_, _, err = svc.AddItem(ctx, "hammer", 2, "a")
	require.NoError(t, err)

	res := ex.Execute(ctx, pkg.Op{Intent: pkg.IntentRemove, ObjectName: "hammer", Quantity: "5"}, false)
	assert.Equal(t, "removed the last hammer from box A", res.Message)
}

func TestExecuteFindReportsWithoutAsking(t *testing.T) {
	ctx := context.Background()
	voice := &scriptedVoice{}
	ex, svc := newTestExecutor(t, voice)
	_, _, err := svc.AddBox(ctx, "a")
	require.NoError(t, err)
	_, _, err = svc.AddItem(ctx, "flashlight", 2, "a")
	require.NoError(t, err)

	res := ex.Execute(ctx, pkg.Op{Intent: pkg.IntentFind, ObjectName: "flashlight"}, false)
	assert.Equal(t, "you have 2 flashlight in box A", res.Message)

	// A miss reports the closest names and never opens a dialogue.
	res = ex.Execute(ctx, pkg.Op{Intent: pkg.IntentFind, ObjectName: "torch"}, false)
	assert.Empty(t, res.Suggestions)
	assert.Contains(t, res.Message, "no exact match for torch")
	assert.Contains(t, res.Message, "flashlight")
	assert.Empty(t, voice.spoken)
}

func TestExecuteFindListsBox(t *testing.T) {
	ctx := context.Background()
	ex, svc := newTestExecutor(t, &scriptedVoice{})
	_, _, err := svc.AddBox(ctx, "b")
	require.NoError(t, err)
	_, _, err = svc.AddItem(ctx, "hammer", 2, "b")
	require.NoError(t, err)

	res := ex.Execute(ctx, pkg.Op{Intent: pkg.IntentFind, Everything: true, ToBox: "b"}, false)
	assert.Equal(t, "box B has 2 hammer", res.Message)
}

func TestExecuteBoxLifecycle(t *testing.T) {
	ctx := context.Background()
	ex, svc := newTestExecutor(t, &scriptedVoice{})

	res := ex.Execute(ctx, pkg.Op{Intent: pkg.IntentAddBox, ToBox: "c"}, false)
	assert.Equal(t, "box C is ready", res.Message)

	res = ex.Execute(ctx, pkg.Op{Intent: pkg.IntentAddBox, ToBox: "c"}, false)
	assert.Contains(t, res.Message, "already exists")

	_, _, err := svc.AddItem(ctx, "hammer", 1, "c")
	require.NoError(t, err)

	res = ex.Execute(ctx, pkg.Op{Intent: pkg.IntentRemoveBox, ToBox: "c"}, false)
	assert.Contains(t, res.Message, "still has 1 items")

	res = ex.Execute(ctx, pkg.Op{Intent: pkg.IntentClearBox, ToBox: "c"}, false)
	assert.Equal(t, "cleared 1 items from box C", res.Message)

	res = ex.Execute(ctx, pkg.Op{Intent: pkg.IntentRemoveBox, ToBox: "c"}, false)
	assert.Equal(t, "removed box C", res.Message)
}

func TestExecuteMove(t *testing.T) {
	ctx := context.Background()
	ex, svc := newTestExecutor(t, &scriptedVoice{})
	_, _, err := svc.AddBox(ctx, "a")
	require.NoError(t, err)
	_, _, err = svc.AddBox(ctx, "b")
	require.NoError(t, err)
	_, _, err = svc.AddItem(ctx, "hammer", 1, "a")
	require.NoError(t, err)

	res := ex.Execute(ctx, pkg.Op{Intent: pkg.IntentMove, ObjectName: "hammer", ToBox: "b"}, false)
	assert.Equal(t, "moved hammer to box B", res.Message)

	res = ex.Execute(ctx, pkg.Op{Intent: pkg.IntentMove, ObjectName: "hammer", ToBox: "b"}, false)
	assert.Equal(t, "hammer is already in box B", res.Message)

	res = ex.Execute(ctx, pkg.Op{Intent: pkg.IntentMove, Everything: true, FromBox: "b", ToBox: "a"}, false)
	assert.Equal(t, "moved 1 items from box B to box A", res.Message)
}
