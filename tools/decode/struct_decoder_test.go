package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestStructDecodesJSONTags(t *testing.T) {
	got, err := Struct[samplePayload](map[string]any{"name": "x", "count": 3})
	require.NoError(t, err)
	assert.Equal(t, "x", got.Name)
	assert.Equal(t, 3, got.Count)
}

func TestStructWeakTyping(t *testing.T) {
	// JSON numbers arrive as float64; strings holding numbers also decode
	got, err := Struct[samplePayload](map[string]any{"count": float64(7)})
	require.NoError(t, err)
	assert.Equal(t, 7, got.Count)

	got, err = Struct[samplePayload](map[string]any{"count": "9"})
	require.NoError(t, err)
	assert.Equal(t, 9, got.Count)
}

func TestStructIgnoresUnknownKeys(t *testing.T) {
	got, err := Struct[samplePayload](map[string]any{"name": "x", "bogus": true})
	require.NoError(t, err)
	assert.Equal(t, "x", got.Name)
}

func TestStructNilPayload(t *testing.T) {
	_, err := Struct[samplePayload](nil)
	assert.Error(t, err)
}
