package nlu

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storagevoice/pkg"
)

func TestExtractBatch(t *testing.T) {
	client := &fakeClient{response: `[
		{"intent": "add", "object_name": "AA batteries", "quantity": 2, "to_box": "bee"},
		{"intent": "add", "object_name": "a flashlight", "quantity": 1}
	]`}
	e := NewExtractor(client)

	ops := e.Extract(context.Background(), "put two AA batteries and a flashlight in box B")
	require.Len(t, ops, 2)

	assert.Equal(t, pkg.IntentAdd, ops[0].Intent)
	assert.Equal(t, "aa battery", ops[0].ObjectName)
	assert.Equal(t, "2", ops[0].Quantity)
	assert.Equal(t, "b", ops[0].ToBox)

	assert.Equal(t, pkg.IntentAdd, ops[1].Intent)
	assert.Equal(t, "flashlight", ops[1].ObjectName)
	assert.Equal(t, "1", ops[1].Quantity)
	// Destination stated once propagates to the addition that lacked it.
	assert.Equal(t, "b", ops[1].ToBox)
}

func TestExtractRemoveEverythingRepair(t *testing.T) {
	client := &fakeClient{response: `[{"intent": "remove", "object_name": "candy"}]`}
	e := NewExtractor(client)

	ops := e.Extract(context.Background(), "remove all the candy")
	require.Len(t, ops, 1)
	assert.True(t, ops[0].RemoveAll)
}

func TestExtractNoPropagationOnConflict(t *testing.T) {
	client := &fakeClient{response: `[
		{"intent": "add", "object_name": "pens", "quantity": 1, "to_box": "a"},
		{"intent": "add", "object_name": "tape", "quantity": 1, "to_box": "c"},
		{"intent": "add", "object_name": "glue", "quantity": 1}
	]`}
	e := NewExtractor(client)

	ops := e.Extract(context.Background(), "add pens to box a, tape to box c, and glue")
	require.Len(t, ops, 3)
	assert.Empty(t, ops[2].ToBox, "two different destinations must not propagate")
}

func TestExtractDegradesToEmpty(t *testing.T) {
	e := NewExtractor(&fakeClient{err: errors.New("backend down")})
	assert.Nil(t, e.Extract(context.Background(), "whatever"))

	e = NewExtractor(&fakeClient{response: "not json at all"})
	assert.Nil(t, e.Extract(context.Background(), "whatever"))
}
