// Package observability provides formatted output utilities for verbose
// CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-pipeline/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintParsedJD outputs a human-readable summary of the parsed job
// description.
func (p *Printer) PrintParsedJD(parsed *types.ParsedJD) {
	if parsed == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title:     %s\n", parsed.Title))
	sb.WriteString(fmt.Sprintf("Tone:      %s\n", parsed.DetectedTone))
	sb.WriteString(fmt.Sprintf("Seniority: %s\n", parsed.RoleSignals.Seniority))
	sb.WriteString("\n")

	if len(parsed.KeywordInventory) > 0 {
		sb.WriteString("Top keywords:\n")
		count := min(len(parsed.KeywordInventory), maxItemsToShow)
		for i := 0; i < count; i++ {
			kw := parsed.KeywordInventory[i]
			sb.WriteString(fmt.Sprintf("  • %s (%.2f)\n", kw.Keyword, kw.WeightedScore))
		}
		if len(parsed.KeywordInventory) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(parsed.KeywordInventory)-maxItemsToShow))
		}
	}

	p.printBox("PARSED JOB DESCRIPTION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSnapshot outputs a summary of a compiled context snapshot.
func (p *Printer) PrintSnapshot(snap *types.Snapshot) {
	if snap == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Snapshot: v%d\n", snap.Version))
	sb.WriteString(fmt.Sprintf("Entries:  %d\n", len(snap.EntryRefs)))
	sb.WriteString(fmt.Sprintf("Hash:     %.16s…\n", snap.ContentHash))
	if snap.PersonaID != nil {
		sb.WriteString(fmt.Sprintf("Persona:  %s\n", snap.PersonaID))
	}

	p.printBox("COMPILED SNAPSHOT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBullets outputs the accepted bullets with their grounding scores.
func (p *Printer) PrintBullets(bullets []types.ResumeBullet) {
	if len(bullets) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Accepted %d bullets:\n\n", len(bullets)))

	count := min(len(bullets), maxItemsToShow)
	for i := 0; i < count; i++ {
		b := bullets[i]
		text := b.Text
		if len(text) > 50 {
			text = text[:47] + "..."
		}
		sb.WriteString(fmt.Sprintf("• %s\n", text))
		sb.WriteString(fmt.Sprintf("  [%s  grounding %.2f]\n", b.Section, b.GroundingScore))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(bullets) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more bullets", len(bullets)-maxItemsToShow))
	}

	p.printBox("ACCEPTED BULLETS", sb.String())
}

// PrintRejections outputs the candidates dropped during validation.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintRejections(rejected []types.RejectedBullet) {
	if len(rejected) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ NO CANDIDATES REJECTED")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Dropped %d candidates:\n\n", len(rejected)))

	for i, r := range rejected {
		text := r.Candidate.Text
		if len(text) > 45 {
			text = text[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("⚠ %s\n", r.Reason))
		sb.WriteString(fmt.Sprintf("  %s\n", text))
		if r.Reason == types.RejectBelowThreshold {
			sb.WriteString(fmt.Sprintf("  score %.2f after %d attempts\n", r.Score, r.Attempts))
		}
		if i < len(rejected)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("REJECTED CANDIDATES", sb.String())
}

// PrintFitReport outputs the fit report for a generated resume.
func (p *Printer) PrintFitReport(report *types.FitReport) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Overall fit: %d/100\n", int(report.OverallScore*100)))
	sb.WriteString(fmt.Sprintf("Strong: %d  Partial: %d  Gaps: %d\n",
		len(report.StrongMatches), len(report.PartialMatches), len(report.Gaps)))

	if len(report.Gaps) > 0 {
		sb.WriteString("\nTop gaps:\n")
		count := min(len(report.Gaps), 3)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", report.Gaps[i].Keyword))
		}
		if len(report.Gaps) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(report.Gaps)-3))
		}
	}

	if report.Recommendation != "" {
		sb.WriteString("\n")
		sb.WriteString(report.Recommendation)
	}

	p.printBox("FIT REPORT", strings.TrimSuffix(sb.String(), "\n"))
}
