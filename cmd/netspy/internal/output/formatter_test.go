package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/netspy/internal/spy"
	"github.com/nfrund/netspy/internal/topics"
)

func TestDisplayTopicsTable(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		var buf bytes.Buffer
		DisplayTopicsTable(&buf, nil)
		assert.Contains(t, buf.String(), "No topics found")
	})

	t.Run("Rows", func(t *testing.T) {
		var buf bytes.Buffer
		DisplayTopicsTable(&buf, []topics.Descriptor{
			topics.NewDescriptor("Chatter", "std_msgs::String", topics.QoS{Reliable: true, Partitions: []string{"a", "b"}}),
		})
		assert.Regexp(t, `Chatter\s+std_msgs::String\s+reliable\s+false\s+a,b`, buf.String())
	})
}

func TestDisplayTopicsJSON(t *testing.T) {
	var buf bytes.Buffer
	err := DisplayTopicsJSON(&buf, []topics.Descriptor{
		topics.NewDescriptor("Square", "ShapeType", topics.QoS{Keyed: true}),
	}, spy.Snapshot{Writers: 2, Readers: 1})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, float64(1), decoded["count"])
	assert.Equal(t, float64(2), decoded["writers"])
	topicsOut := decoded["topics"].([]any)
	assert.Equal(t, "ShapeType", topicsOut[0].(map[string]any)["type"])
	assert.Equal(t, true, topicsOut[0].(map[string]any)["keyed"])
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcd...", truncateString("abcdefghij", 7))
	assert.Equal(t, "ab", truncateString("abcdef", 2))
}
