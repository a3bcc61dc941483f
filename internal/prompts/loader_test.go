package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetKnownPrompts(t *testing.T) {
	for _, key := range []string{"generate-bullets", "rewrite-bullet"} {
		prompt, err := Get("generation.json", key)
		require.NoError(t, err, "key %s", key)
		assert.NotEmpty(t, prompt)
	}
}

func TestGetMissingKey(t *testing.T) {
	_, err := Get("generation.json", "no-such-prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-prompt")
}

func TestGetMissingFile(t *testing.T) {
	_, err := Get("missing.json", "anything")
	assert.Error(t, err)
}

func TestMustGetPanicsOnMissing(t *testing.T) {
	assert.Panics(t, func() { MustGet("generation.json", "absent") })
}

func TestFormatReplacesPlaceholders(t *testing.T) {
	out := Format("Hello {{.Name}}, tone is {{.Tone}}.", map[string]string{
		"Name": "world",
		"Tone": "direct",
	})
	assert.Equal(t, "Hello world, tone is direct.", out)
}

func TestFormatLeavesUnknownPlaceholders(t *testing.T) {
	out := Format("{{.Known}} and {{.Unknown}}", map[string]string{"Known": "x"})
	assert.Equal(t, "x and {{.Unknown}}", out)
}

func TestGenerationPromptsCarryPlaceholders(t *testing.T) {
	generate := MustGet("generation.json", "generate-bullets")
	for _, ph := range []string{"{{.Entries}}", "{{.Keywords}}", "{{.Tone}}", "{{.JDSummary}}", "{{.Sections}}"} {
		assert.Contains(t, generate, ph)
	}

	rewrite := MustGet("generation.json", "rewrite-bullet")
	for _, ph := range []string{"{{.BulletText}}", "{{.EntryBlock}}", "{{.SourceEntryID}}", "{{.Section}}"} {
		assert.Contains(t, rewrite, ph)
	}
}

func TestListReturnsKeys(t *testing.T) {
	keys, err := List("generation.json")
	require.NoError(t, err)
	assert.Contains(t, keys, "generate-bullets")
	assert.Contains(t, keys, "rewrite-bullet")
}
