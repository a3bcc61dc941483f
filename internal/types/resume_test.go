package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidJobTransition_LegalEdges(t *testing.T) {
	legal := []struct{ from, to string }{
		{JobStatusQueued, JobStatusProcessing},
		{JobStatusQueued, JobStatusFailed}, // user cancellation
		{JobStatusProcessing, JobStatusDone},
		{JobStatusProcessing, JobStatusFailed},
		{JobStatusProcessing, JobStatusQueued}, // lease reclaim
	}
	for _, tc := range legal {
		assert.True(t, ValidJobTransition(tc.from, tc.to), "%s -> %s should be legal", tc.from, tc.to)
	}
}

func TestValidJobTransition_IllegalEdges(t *testing.T) {
	illegal := []struct{ from, to string }{
		{JobStatusQueued, JobStatusDone},
		{JobStatusDone, JobStatusQueued},
		{JobStatusDone, JobStatusProcessing},
		{JobStatusFailed, JobStatusProcessing},
		{JobStatusFailed, JobStatusQueued},
		{JobStatusDone, JobStatusFailed},
	}
	for _, tc := range illegal {
		assert.False(t, ValidJobTransition(tc.from, tc.to), "%s -> %s should be illegal", tc.from, tc.to)
	}
}

func TestRenderJobTerminal(t *testing.T) {
	assert.False(t, (&RenderJob{Status: JobStatusQueued}).Terminal())
	assert.False(t, (&RenderJob{Status: JobStatusProcessing}).Terminal())
	assert.True(t, (&RenderJob{Status: JobStatusDone}).Terminal())
	assert.True(t, (&RenderJob{Status: JobStatusFailed}).Terminal())
}
