package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchEvent(t *testing.T) {
	tests := []struct {
		pattern string
		event   string
		want    bool
	}{
		{"collection_update", "collection_update", true},
		{"collection_update", "collection_updates", false},
		{"initial_data:*", "initial_data:units", true},
		{"initial_data:*", "initial_data:", true},
		{"initial_data:*", "initial_data", false},
		{"*", "anything", true},
		{"", "", true},
		{"", "x", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchEvent(tt.pattern, tt.event), "%q ~ %q", tt.pattern, tt.event)
	}
}

func TestDecodeResponse(t *testing.T) {
	resp, err := decodeResponse(map[string]any{
		"success": true,
		"found":   true,
		"data":    map[string]any{"a": 1},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Found)
	assert.True(t, *resp.Found)
	assert.Equal(t, map[string]any{"a": 1}, resp.Data)

	resp, err = decodeResponse(map[string]any{"success": false, "message": "Invalid payload."})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Found)
	assert.Equal(t, "Invalid payload.", resp.Message)

	_, err = decodeResponse("nope")
	assert.Error(t, err)
}
