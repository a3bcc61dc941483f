package observability

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resume-pipeline/internal/types"
)

func TestPrintParsedJD(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintParsedJD(&types.ParsedJD{
		Title:        "Senior Backend Engineer",
		DetectedTone: "collaborative_enterprise",
		RoleSignals:  types.RoleSignals{Seniority: "senior"},
		KeywordInventory: []types.KeywordEntry{
			{Keyword: "go", Frequency: 3, PositionWeight: 1.0, WeightedScore: 3.0},
			{Keyword: "postgresql", Frequency: 1, PositionWeight: 0.8, WeightedScore: 0.8},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "PARSED JOB DESCRIPTION")
	assert.Contains(t, out, "Senior Backend Engineer")
	assert.Contains(t, out, "go (3.00)")
}

func TestPrintParsedJDNil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintParsedJD(nil)
	assert.Empty(t, buf.String())
}

func TestPrintBulletsTruncatesList(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	bullets := make([]types.ResumeBullet, 7)
	for i := range bullets {
		bullets[i] = types.ResumeBullet{
			Section:        "experience",
			Text:           "Shipped a thing",
			GroundingScore: 0.91,
		}
	}
	p.PrintBullets(bullets)

	out := buf.String()
	assert.Contains(t, out, "ACCEPTED BULLETS")
	assert.Contains(t, out, "Accepted 7 bullets")
	assert.Contains(t, out, "... and 2 more bullets")
	assert.Contains(t, out, "grounding 0.91")
}

func TestPrintRejectionsEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRejections(nil)
	assert.Contains(t, buf.String(), "NO CANDIDATES REJECTED")
}

func TestPrintRejectionsShowsReasonAndScore(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRejections([]types.RejectedBullet{
		{
			Candidate: types.CandidateBullet{Text: "Invented a fact", SourceEntryID: uuid.New()},
			Reason:    types.RejectBelowThreshold,
			Score:     0.42,
			Attempts:  2,
		},
		{
			Candidate: types.CandidateBullet{Text: "Cited nothing"},
			Reason:    types.RejectUngroundedReference,
		},
	})

	out := buf.String()
	assert.Contains(t, out, "REJECTED CANDIDATES")
	assert.Contains(t, out, types.RejectBelowThreshold)
	assert.Contains(t, out, "score 0.42 after 2 attempts")
	assert.Contains(t, out, types.RejectUngroundedReference)
}

func TestPrintFitReport(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintFitReport(&types.FitReport{
		OverallScore:   0.73,
		StrongMatches:  []types.FitMatch{{Keyword: "go"}},
		PartialMatches: []types.FitMatch{{Keyword: "kubernetes"}},
		Gaps:           []types.Gap{{Keyword: "terraform"}},
		Recommendation: "Moderate fit (73/100).",
	})

	out := buf.String()
	assert.Contains(t, out, "FIT REPORT")
	assert.Contains(t, out, "Overall fit: 73/100")
	assert.Contains(t, out, "Strong: 1  Partial: 1  Gaps: 1")
	assert.Contains(t, out, "terraform")
}

func TestPrintSnapshot(t *testing.T) {
	var buf bytes.Buffer
	personaID := uuid.New()
	NewPrinter(&buf).PrintSnapshot(&types.Snapshot{
		Version:     4,
		ContentHash: "abcdef0123456789abcdef",
		PersonaID:   &personaID,
		EntryRefs:   []types.EntryRef{{}, {}},
	})

	out := buf.String()
	assert.Contains(t, out, "COMPILED SNAPSHOT")
	assert.Contains(t, out, "Snapshot: v4")
	assert.Contains(t, out, "Entries:  2")
}
