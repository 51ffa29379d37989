package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append(args, "--env", filepath.Join(t.TempDir(), ".env")))
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "netspy v"+version+"\n", out)
}

func TestTopicsCommand(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		out, err := execute(t, "", "topics", "--wait", "500ms", "--format", "json")
		require.NoError(t, err)

		var result struct {
			Topics []struct {
				Name string `json:"name"`
				Type string `json:"type"`
			} `json:"topics"`
			Count   int `json:"count"`
			Writers int `json:"writers"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Equal(t, 3, result.Count)
		assert.Equal(t, 3, result.Writers)
		assert.Equal(t, "Chatter", result.Topics[0].Name)
		assert.Equal(t, "std_msgs::String", result.Topics[0].Type)
	})

	t.Run("Table", func(t *testing.T) {
		out, err := execute(t, "", "topics", "--wait", "500ms", "--format", "table")
		require.NoError(t, err)
		assert.Regexp(t, `Chatter\s+std_msgs::String\s+reliable`, out)
		assert.Regexp(t, `Square\s+ShapeType\s+best-effort\s+true`, out)
	})

	t.Run("Invalid Format", func(t *testing.T) {
		_, err := execute(t, "", "topics", "--format", "xml")
		assert.ErrorContains(t, err, `invalid format "xml"`)
	})
}

func TestInteractiveCommand(t *testing.T) {
	out, err := execute(t, "help\nprint Nowhere\nexit\n")
	require.NoError(t, err)

	assert.Contains(t, out, "Insert a command for netspy:")
	assert.Contains(t, out, "print <topic>")
	assert.Contains(t, out, "! Topic <Nowhere> is not in the network.")
}

func TestInvalidConfigurationFile(t *testing.T) {
	_, err := execute(t, "", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Cleanup(func() { configFile = "" })
	assert.ErrorContains(t, err, "cannot read")
}
