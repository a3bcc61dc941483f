// Package snapshot compiles a user's current context entries into an
// immutable, content-addressed document. Compilation is deterministic:
// identical entries and persona always produce byte-identical output, so
// the grounding validator can be tested against fixed snapshots.
package snapshot

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/resume-pipeline/internal/types"
)

// RenderEntryBlock renders one entry to its canonical text block: stable
// field order, fixed score formatting, sorted tags, and canonical JSON for
// the structured data (encoding/json emits map keys sorted). The grounding
// validator scores bullets against these exact blocks.
func RenderEntryBlock(e *types.ContextEntry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### Entry: %s\n", e.EntryID)
	fmt.Fprintf(&sb, "- Type: %s\n", e.EntryType)
	fmt.Fprintf(&sb, "- Version: %d\n", e.Version)
	fmt.Fprintf(&sb, "- Recency: %.2f\n", e.RecencyScore)
	fmt.Fprintf(&sb, "- Impact: %.2f\n", e.ImpactScore)
	fmt.Fprintf(&sb, "- Contribution: %s\n", e.ContributionType)
	if len(e.Tags) > 0 {
		tags := make([]string, len(e.Tags))
		copy(tags, e.Tags)
		sort.Strings(tags)
		fmt.Fprintf(&sb, "- Tags: %s\n", strings.Join(tags, ", "))
	}
	if e.RawText != "" {
		fmt.Fprintf(&sb, "\n%s\n", strings.TrimSpace(e.RawText))
	}
	if len(e.Data) > 0 {
		if data, err := json.MarshalIndent(e.Data, "", "  "); err == nil {
			sb.WriteString("```json\n")
			sb.Write(data)
			sb.WriteString("\n```\n")
		}
	}
	return sb.String()
}

// sectionTitle converts an entry type to a display heading
// ("open_source" -> "Open Source").
func sectionTitle(entryType string) string {
	words := strings.Split(entryType, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// orderEntries sorts entries by the composite compilation key:
// emphasized-tag match first, then recency, then impact, with entry id as
// the deterministic tiebreak.
func orderEntries(entries []types.ContextEntry, persona *types.Persona) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := &entries[i], &entries[j]
		ae, be := persona.Emphasizes(a), persona.Emphasizes(b)
		if ae != be {
			return ae
		}
		if a.RecencyScore != b.RecencyScore {
			return a.RecencyScore > b.RecencyScore
		}
		if a.ImpactScore != b.ImpactScore {
			return a.ImpactScore > b.ImpactScore
		}
		return a.EntryID.String() < b.EntryID.String()
	})
}

// RenderDocument renders the filtered, ordered entries into the full
// snapshot document grouped by section.
func RenderDocument(userID string, entries []types.ContextEntry, persona *types.Persona) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Context Snapshot: User %s\n\n", userID)

	bySection := make(map[string][]types.ContextEntry)
	for _, e := range entries {
		bySection[e.EntryType] = append(bySection[e.EntryType], e)
	}

	for _, section := range persona.Sections() {
		sectionEntries := bySection[section]
		if len(sectionEntries) == 0 {
			continue
		}
		orderEntries(sectionEntries, persona)
		fmt.Fprintf(&sb, "## %s\n\n", sectionTitle(section))
		for i := range sectionEntries {
			sb.WriteString(RenderEntryBlock(&sectionEntries[i]))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
