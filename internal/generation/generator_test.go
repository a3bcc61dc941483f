package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-pipeline/internal/llm"
	"github.com/jonathan/resume-pipeline/internal/types"
)

// scriptedClient returns canned responses in order. When failures is
// set, the first that many calls fail with err; with failures zero and
// err set, every call fails.
type scriptedClient struct {
	responses []string
	err       error
	failures  int
	calls     int
	prompts   []string
}

func (c *scriptedClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return c.GenerateJSON(ctx, prompt, tier)
}

func (c *scriptedClient) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	c.prompts = append(c.prompts, prompt)
	call := c.calls
	c.calls++
	if c.err != nil && (c.failures == 0 || call < c.failures) {
		return "", c.err
	}
	idx := call
	if idx >= len(c.responses) {
		idx = len(c.responses) - 1
	}
	return c.responses[idx], nil
}

func (c *scriptedClient) Close() error { return nil }

// testGenerator shrinks the retry backoff so exhaustion tests run fast.
func testGenerator(client llm.Client) *LLMGenerator {
	g := NewLLMGenerator(client)
	g.backoff = time.Millisecond
	return g
}

func generationRequest() (*Request, uuid.UUID) {
	entryID := uuid.New()
	return &Request{
		Entries: []types.ContextEntry{{EntryID: entryID, EntryType: types.EntryTypeExperience}},
		EntryBlocks: map[uuid.UUID]string{
			entryID: "### Entry: " + entryID.String() + "\nShipped the payments service.",
		},
		ParsedJD: &types.ParsedJD{Title: "Go Engineer", DetectedTone: types.ToneCollaborativeEnterprise},
	}, entryID
}

func TestLLMGeneratorParsesValidOutput(t *testing.T) {
	req, entryID := generationRequest()
	client := &scriptedClient{responses: []string{
		`{"bullets": [{"text": "Shipped the payments service.", "source_entry_id": "` + entryID.String() + `", "section": "experience", "line_estimate": 1}]}`,
	}}

	bullets, err := NewLLMGenerator(client).Generate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, bullets, 1)
	assert.Equal(t, entryID, bullets[0].SourceEntryID)
	assert.Equal(t, "experience", bullets[0].Section)
}

func TestLLMGeneratorPromptCarriesContext(t *testing.T) {
	req, entryID := generationRequest()
	client := &scriptedClient{responses: []string{`{"bullets": []}`}}

	_, err := NewLLMGenerator(client).Generate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], entryID.String())
	assert.Contains(t, client.prompts[0], "Go Engineer")
	assert.Contains(t, client.prompts[0], types.ToneCollaborativeEnterprise)
}

func TestLLMGeneratorRetriesMalformed(t *testing.T) {
	req, entryID := generationRequest()
	client := &scriptedClient{responses: []string{
		`{"bullets": [{"text": "missing citation"}]}`, // schema violation
		`{"bullets": [{"text": "Shipped the payments service.", "source_entry_id": "` + entryID.String() + `", "section": "experience"}]}`,
	}}

	bullets, err := testGenerator(client).Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls)
	assert.Len(t, bullets, 1)
}

func TestLLMGeneratorMalformedOutputExhausted(t *testing.T) {
	req, _ := generationRequest()
	client := &scriptedClient{responses: []string{`not json at all`}}

	_, err := testGenerator(client).Generate(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedOutput))
	assert.Equal(t, callAttempts, client.calls)
}

func TestLLMGeneratorRecoversFromTransientFailure(t *testing.T) {
	req, entryID := generationRequest()
	client := &scriptedClient{
		err:      errors.New("connection refused"),
		failures: 2,
		responses: []string{
			`{"bullets": [{"text": "Shipped the payments service.", "source_entry_id": "` + entryID.String() + `", "section": "experience"}]}`,
		},
	}

	bullets, err := testGenerator(client).Generate(context.Background(), req)
	require.NoError(t, err, "two transient failures fit inside the retry budget")
	assert.Equal(t, 3, client.calls)
	require.Len(t, bullets, 1)
	assert.Equal(t, entryID, bullets[0].SourceEntryID)
}

func TestLLMGeneratorUnavailableAfterRetries(t *testing.T) {
	req, _ := generationRequest()
	client := &scriptedClient{err: errors.New("connection refused")}

	_, err := testGenerator(client).Generate(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGenerationUnavailable))
	assert.Equal(t, callAttempts, client.calls)
}

func TestLLMGeneratorStopsRetryingOnCancel(t *testing.T) {
	req, _ := generationRequest()
	client := &scriptedClient{err: errors.New("connection refused")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testGenerator(client).Generate(ctx, req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, client.calls, "no further calls once the caller gives up")
}

func TestLLMGeneratorRewriteReturnsFirstBullet(t *testing.T) {
	req, entryID := generationRequest()
	client := &scriptedClient{responses: []string{
		`{"bullets": [{"text": "Shipped the payments service end to end.", "source_entry_id": "` + entryID.String() + `", "section": "experience"}]}`,
	}}

	candidate := types.CandidateBullet{
		Text:          "Vague original claim.",
		SourceEntryID: entryID,
		Section:       "experience",
	}
	rewritten, err := NewLLMGenerator(client).Rewrite(context.Background(), req, candidate, req.EntryBlocks[entryID])
	require.NoError(t, err)
	assert.Equal(t, "Shipped the payments service end to end.", rewritten.Text)
	assert.Equal(t, entryID, rewritten.SourceEntryID)
}

func TestLLMGeneratorRewriteEmptyResultIsMalformed(t *testing.T) {
	req, entryID := generationRequest()
	client := &scriptedClient{responses: []string{`{"bullets": []}`}}

	_, err := NewLLMGenerator(client).Rewrite(context.Background(), req, types.CandidateBullet{SourceEntryID: entryID, Section: "experience"}, "block")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedOutput))
}
