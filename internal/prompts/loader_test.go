package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetKnownPrompts(t *testing.T) {
	ClearCache()

	tests := []struct {
		filename string
		key      string
	}{
		{"controller.json", "next-question"},
		{"analyzer.json", "analyze-answer"},
		{"evaluator.json", "final-evaluation"},
	}

	for _, tt := range tests {
		t.Run(tt.filename+"/"+tt.key, func(t *testing.T) {
			prompt, err := Get(tt.filename, tt.key)
			require.NoError(t, err)
			assert.NotEmpty(t, prompt)
			assert.Contains(t, prompt, "JSON")
		})
	}
}

func TestGetMissingKey(t *testing.T) {
	_, err := Get("controller.json", "no-such-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-key")
}

func TestGetMissingFile(t *testing.T) {
	_, err := Get("missing.json", "anything")
	require.Error(t, err)
}

func TestFormatReplacesPlaceholders(t *testing.T) {
	template := "Role: {{.Title}} in section {{.Section}}. {{.Title}} again."
	out := Format(template, map[string]string{
		"Title":   "Backend Engineer",
		"Section": "core",
	})

	assert.Equal(t, "Role: Backend Engineer in section core. Backend Engineer again.", out)
	assert.False(t, strings.Contains(out, "{{"))
}

func TestFormatLeavesUnknownPlaceholders(t *testing.T) {
	out := Format("{{.Known}} {{.Unknown}}", map[string]string{"Known": "x"})
	assert.Equal(t, "x {{.Unknown}}", out)
}

func TestMustGetPanicsOnMissing(t *testing.T) {
	assert.Panics(t, func() {
		MustGet("controller.json", "definitely-missing")
	})
}
