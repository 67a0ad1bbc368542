package dialogue

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storagevoice/internal/nlu"
	"storagevoice/pkg"
)

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

// nullAligner always defers to the raw-transcript heuristics.
type nullAligner struct{}

func (nullAligner) Normalize(ctx context.Context, field, answer string, intent pkg.Intent, objectName string) nlu.Aligned {
	return nlu.Aligned{}
}

func TestNormalizeBatchClearBoxRewrite(t *testing.T) {
	ops := NormalizeBatch([]pkg.Op{
		{Intent: pkg.IntentRemove, RemoveAll: true, ToBox: "b"},
		{Intent: pkg.IntentRemove, RemoveAll: true, ObjectName: "candy"},
	})
	assert.Equal(t, pkg.IntentClearBox, ops[0].Intent)
	assert.Equal(t, "b", ops[0].ToBox)
	// A removal that names an object stays a removal.
	assert.Equal(t, pkg.IntentRemove, ops[1].Intent)
}

func TestFillAsksForObjectName(t *testing.T) {
	ctx := context.Background()
	svc := newBoxService(t, "a")
	voice := &scriptedVoice{replies: []string{"a hammer"}}
	f := NewFiller(svc, voice, nullAligner{}, nil)

	filled, ok := f.Fill(ctx, []pkg.Op{{Intent: pkg.IntentAdd, Quantity: "1"}})
	require.True(t, ok)
	require.Len(t, filled, 1)
	assert.Equal(t, "hammer", filled[0].ObjectName)
	require.NotEmpty(t, voice.spoken)
	assert.Contains(t, voice.spoken[0], "add")
}

func TestFillSkipsQuantityForSingleStoredUnit(t *testing.T) {
	ctx := context.Background()
	svc := newBoxService(t, "a")
	_, _, err := svc.AddItem(ctx, "hammer", 1, "a")
	require.NoError(t, err)

	voice := &scriptedVoice{}
	f := NewFiller(svc, voice, nullAligner{}, nil)

	filled, ok := f.Fill(ctx, []pkg.Op{{Intent: pkg.IntentRemove, ObjectName: "hammer"}})
	require.True(t, ok)
	require.Len(t, filled, 1)
	assert.Equal(t, "1", filled[0].Quantity)
	assert.Empty(t, voice.spoken, "one stored unit needs no quantity question")
}

func TestFillQuantityAnswerAll(t *testing.T) {
	ctx := context.Background()
	svc := newBoxService(t, "a")
	_, _, err := svc.AddItem(ctx, "battery", 5, "a")
	require.NoError(t, err)

	voice := &scriptedVoice{replies: []string{"all of them"}}
	f := NewFiller(svc, voice, nullAligner{}, nil)

	filled, ok := f.Fill(ctx, []pkg.Op{{Intent: pkg.IntentRemove, ObjectName: "battery"}})
	require.True(t, ok)
	require.Len(t, filled, 1)
	assert.True(t, filled[0].RemoveAll)
}

func TestFillResolvesSpokenBox(t *testing.T) {
	ctx := context.Background()
	svc := newBoxService(t, "b")
	voice := &scriptedVoice{replies: []string{"bee"}}
	f := NewFiller(svc, voice, nullAligner{}, nil)

	filled, ok := f.Fill(ctx, []pkg.Op{{Intent: pkg.IntentClearBox}})
	require.True(t, ok)
	require.Len(t, filled, 1)
	assert.Equal(t, "B", filled[0].ToBox)
}

func TestFillRetriesPerQuestion(t *testing.T) {
	ctx := context.Background()
	svc := newBoxService(t, "a")
	// The first box answer names nothing real; the object question already
	// asked does not eat into the box question's own retries.
	voice := &scriptedVoice{replies: []string{"hammer", "box z", "box a"}}
	f := NewFiller(svc, voice, nullAligner{}, nil)

	filled, ok := f.Fill(ctx, []pkg.Op{{Intent: pkg.IntentMove}})
	require.True(t, ok)
	require.Len(t, filled, 1)
	assert.Equal(t, "hammer", filled[0].ObjectName)
	assert.Equal(t, "A", filled[0].ToBox)
}

func TestFillCancelsBatchWhenBudgetExhausted(t *testing.T) {
	ctx := context.Background()
	svc := newBoxService(t, "a")
	voice := &scriptedVoice{replies: []string{"zzz qqq", "zzz qqq", "zzz qqq", "zzz qqq"}}
	f := NewFiller(svc, voice, nullAligner{}, nil)

	// The unfillable op cancels the whole batch, completed members included.
	filled, ok := f.Fill(ctx, []pkg.Op{
		{Intent: pkg.IntentClearBox},
		{Intent: pkg.IntentAddBox, ToBox: "d"},
	})
	assert.False(t, ok)
	assert.Empty(t, filled)
}

func TestFillRejectsNoiseTranscripts(t *testing.T) {
	ctx := context.Background()
	svc := newBoxService(t, "a")
	voice := &scriptedVoice{replies: []string{"thanks for watching!", "a hammer"}}
	f := NewFiller(svc, voice, nullAligner{}, []string{"thanks for watching"})

	filled, ok := f.Fill(ctx, []pkg.Op{{Intent: pkg.IntentAdd, Quantity: "1"}})
	require.True(t, ok)
	require.Len(t, filled, 1)
	assert.Equal(t, "hammer", filled[0].ObjectName)
}
