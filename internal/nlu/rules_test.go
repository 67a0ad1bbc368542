package nlu

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storagevoice/pkg"
)

type fakeClient struct {
	response string
	err      error
	calls    int
}

func (f *fakeClient) Generate(ctx context.Context, instruction, input string) (string, error) {
	f.calls++
	return f.response, f.err
}

func TestParseAddWithBox(t *testing.T) {
	client := &fakeClient{}
	p := NewRuleParser(client)

	op := p.Parse(context.Background(), "add three apples to box B")
	assert.Equal(t, pkg.IntentAdd, op.Intent)
	assert.Equal(t, "apple", op.ObjectName)
	assert.Equal(t, "3", op.Quantity)
	assert.Equal(t, "b", op.ToBox)
	assert.Zero(t, client.calls, "rules should not call the model")
}

func TestParseAddDefaultsSingular(t *testing.T) {
	p := NewRuleParser(&fakeClient{})

	for _, text := range []string{"add an apple", "add a hammer", "add one flashlight"} {
		op := p.Parse(context.Background(), text)
		assert.Equal(t, pkg.IntentAdd, op.Intent, text)
		assert.Equal(t, "1", op.Quantity, text)
	}
}

func TestParseMove(t *testing.T) {
	p := NewRuleParser(&fakeClient{})

	op := p.Parse(context.Background(), "move the hammer from box A to box B")
	assert.Equal(t, pkg.IntentMove, op.Intent)
	assert.Equal(t, "hammer", op.ObjectName)
	assert.Equal(t, "a", op.FromBox)
	assert.Equal(t, "b", op.ToBox)

	op = p.Parse(context.Background(), "move the hammer")
	assert.Equal(t, pkg.IntentMove, op.Intent)
	assert.Equal(t, "hammer", op.ObjectName)
	assert.Empty(t, op.ToBox)
}

func TestParseRemoveAll(t *testing.T) {
	p := NewRuleParser(&fakeClient{})

	op := p.Parse(context.Background(), "remove all the candy")
	assert.Equal(t, pkg.IntentRemove, op.Intent)
	assert.Equal(t, "candy", op.ObjectName)
	assert.True(t, op.RemoveAll)
	assert.Empty(t, op.Quantity)
}

func TestParseRemoveWithQuantity(t *testing.T) {
	p := NewRuleParser(&fakeClient{})

	op := p.Parse(context.Background(), "remove two batteries")
	assert.Equal(t, pkg.IntentRemove, op.Intent)
	assert.Equal(t, "battery", op.ObjectName)
	assert.Equal(t, "2", op.Quantity)
}

func TestParseBoxLifecycle(t *testing.T) {
	p := NewRuleParser(&fakeClient{})

	op := p.Parse(context.Background(), "create a new box called bee")
	assert.Equal(t, pkg.IntentAddBox, op.Intent)
	assert.Equal(t, "b", op.ToBox)

	op = p.Parse(context.Background(), "add a box")
	assert.Equal(t, pkg.IntentAddBox, op.Intent)
	assert.Empty(t, op.ToBox)

	op = p.Parse(context.Background(), "delete the box C")
	assert.Equal(t, pkg.IntentRemoveBox, op.Intent)
	assert.Equal(t, "c", op.ToBox)
}

func TestParseClearBox(t *testing.T) {
	p := NewRuleParser(&fakeClient{})

	op := p.Parse(context.Background(), "remove everything from box A")
	assert.Equal(t, pkg.IntentClearBox, op.Intent)
	assert.Equal(t, "a", op.ToBox)

	op = p.Parse(context.Background(), "clear all the items in box B")
	assert.Equal(t, pkg.IntentClearBox, op.Intent)
	assert.Equal(t, "b", op.ToBox)
}

func TestParseFind(t *testing.T) {
	p := NewRuleParser(&fakeClient{})

	op := p.Parse(context.Background(), "where is the flashlight?")
	assert.Equal(t, pkg.IntentFind, op.Intent)
	assert.Equal(t, "flashlight", op.ObjectName)

	op = p.Parse(context.Background(), "do i have batteries")
	assert.Equal(t, pkg.IntentFind, op.Intent)
	assert.Equal(t, "battery", op.ObjectName)
}

func TestParseFallsBackToModel(t *testing.T) {
	client := &fakeClient{response: `{"intent":"find","object_name":"screwdrivers"}`}
	p := NewRuleParser(client)

	op := p.Parse(context.Background(), "that yellow-handled thing, any idea which bin?")
	require.Equal(t, 1, client.calls)
	assert.Equal(t, pkg.IntentFind, op.Intent)
	assert.Equal(t, "screwdriver", op.ObjectName)
}

func TestParseFallbackNeverFails(t *testing.T) {
	client := &fakeClient{err: errors.New("backend down")}
	p := NewRuleParser(client)

	op := p.Parse(context.Background(), "mumble mumble nothing useful")
	assert.Empty(t, op.Intent)
}
