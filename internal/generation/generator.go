// Package generation orchestrates resume compilation: it invokes the
// external generation collaborator, validates every candidate bullet
// against the snapshot's source facts, and persists the surviving set.
package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-pipeline/internal/llm"
	"github.com/jonathan/resume-pipeline/internal/prompts"
	"github.com/jonathan/resume-pipeline/internal/schemas"
	"github.com/jonathan/resume-pipeline/internal/types"
)

// Request carries everything the collaborator needs for one generation
// run. EntryBlocks holds the canonical text block per entry id, the same
// blocks the grounding validator scores against.
type Request struct {
	Snapshot    *types.Snapshot
	Entries     []types.ContextEntry
	EntryBlocks map[uuid.UUID]string
	ParsedJD    *types.ParsedJD
	Persona     *types.Persona
	JDText      string
}

// Generator is the external generation collaborator. Implementations
// return candidate bullets; they never decide what is persisted. That is
// the validator's job.
type Generator interface {
	// Generate proposes candidate bullets for the snapshot and JD.
	Generate(ctx context.Context, req *Request) ([]types.CandidateBullet, error)
	// Rewrite reworks one rejected bullet to stay closer to its cited
	// source entry.
	Rewrite(ctx context.Context, req *Request, candidate types.CandidateBullet, entryBlock string) (types.CandidateBullet, error)
}

// callAttempts bounds how many times one collaborator call is tried.
// Transient failures and malformed output both count against it.
const callAttempts = 3

// backoffBase is the first retry delay; it doubles per attempt.
const backoffBase = 500 * time.Millisecond

// LLMGenerator is the production Generator backed by the llm client.
type LLMGenerator struct {
	client  llm.Client
	backoff time.Duration
}

// NewLLMGenerator wraps an llm client as a Generator.
func NewLLMGenerator(client llm.Client) *LLMGenerator {
	return &LLMGenerator{client: client, backoff: backoffBase}
}

type bulletEnvelope struct {
	Bullets []types.CandidateBullet `json:"bullets"`
}

// Generate calls the collaborator with the full snapshot context and
// parses its JSON output.
func (g *LLMGenerator) Generate(ctx context.Context, req *Request) ([]types.CandidateBullet, error) {
	prompt := prompts.Format(prompts.MustGet("generation.json", "generate-bullets"), map[string]string{
		"Tone":      tone(req),
		"Entries":   entriesText(req),
		"Keywords":  keywordsJSON(req.ParsedJD),
		"JDSummary": jdSummary(req.ParsedJD),
		"Sections":  strings.Join(req.Persona.Sections(), ", "),
	})

	envelope, err := g.callJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, err
	}
	return envelope.Bullets, nil
}

// Rewrite asks the collaborator for a more tightly grounded version of a
// rejected bullet.
func (g *LLMGenerator) Rewrite(ctx context.Context, req *Request, candidate types.CandidateBullet, entryBlock string) (types.CandidateBullet, error) {
	prompt := prompts.Format(prompts.MustGet("generation.json", "rewrite-bullet"), map[string]string{
		"BulletText":    candidate.Text,
		"EntryBlock":    entryBlock,
		"Keywords":      keywordsJSON(req.ParsedJD),
		"SourceEntryID": candidate.SourceEntryID.String(),
		"Section":       candidate.Section,
	})

	envelope, err := g.callJSON(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return types.CandidateBullet{}, err
	}
	if len(envelope.Bullets) == 0 {
		return types.CandidateBullet{}, fmt.Errorf("%w: rewrite returned no bullets", ErrMalformedOutput)
	}
	return envelope.Bullets[0], nil
}

// callJSON runs one collaborator call with schema validation. Transient
// client failures and malformed output are retried with exponential
// backoff up to callAttempts total attempts; the last failure wins.
func (g *LLMGenerator) callJSON(ctx context.Context, prompt string, tier llm.ModelTier) (*bulletEnvelope, error) {
	var lastErr error
	for attempt := 0; attempt < callAttempts; attempt++ {
		if attempt > 0 {
			log.Printf("[generation] retrying collaborator call (attempt %d/%d): %v", attempt+1, callAttempts, lastErr)
			if err := sleep(ctx, g.backoff<<(attempt-1)); err != nil {
				return nil, err
			}
		}

		raw, err := g.client.GenerateJSON(ctx, prompt, tier)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
			continue
		}

		if err := schemas.ValidateCandidateBullets(raw); err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrMalformedOutput, err)
			continue
		}

		var envelope bulletEnvelope
		if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrMalformedOutput, err)
			continue
		}
		return &envelope, nil
	}
	return nil, lastErr
}

// sleep waits for d unless the context ends first.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func tone(req *Request) string {
	if req.Persona != nil && req.Persona.TonePreference != "" {
		return req.Persona.TonePreference
	}
	return req.ParsedJD.DetectedTone
}

// entriesText concatenates the canonical blocks in entry order so the
// collaborator sees exactly what the grounding validator will score
// against.
func entriesText(req *Request) string {
	var b strings.Builder
	for _, e := range req.Entries {
		block, ok := req.EntryBlocks[e.EntryID]
		if !ok {
			continue
		}
		b.WriteString(block)
		b.WriteString("\n")
	}
	return b.String()
}

// keywordsJSON renders the top keywords as compact JSON.
func keywordsJSON(parsed *types.ParsedJD) string {
	inventory := parsed.KeywordInventory
	if len(inventory) > 20 {
		inventory = inventory[:20]
	}
	data, err := json.Marshal(inventory)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// jdSummary condenses the parsed JD into title plus requirements.
func jdSummary(parsed *types.ParsedJD) string {
	var b strings.Builder
	b.WriteString(parsed.Title)
	b.WriteString("\n")
	for _, r := range parsed.HardRequirements {
		if r.IsRequired {
			b.WriteString("- ")
		} else {
			b.WriteString("- (nice to have) ")
		}
		b.WriteString(r.Text)
		b.WriteString("\n")
	}
	return b.String()
}
