// Package jd parses raw job description text into a structured form:
// requirements, a weighted keyword inventory, tone, and role signals.
// Parsing is a pure function of the input text, with no model calls, so the
// same posting always produces the same ParsedJD and downstream fit
// scores are reproducible.
package jd

import (
	"bytes"
	"sort"
	"strings"
	"unicode"

	"github.com/jonathan/resume-pipeline/internal/types"
)

// section identifies which part of the posting a line belongs to.
type section int

const (
	sectionTitle section = iota
	sectionRequirements
	sectionNiceToHave
	sectionResponsibilities
	sectionAbout
)

func (s section) positionWeight() float64 {
	switch s {
	case sectionTitle:
		return types.WeightTitle
	case sectionRequirements, sectionNiceToHave:
		return types.WeightRequirements
	case sectionResponsibilities:
		return types.WeightResponsibilities
	default:
		return types.WeightAbout
	}
}

// sectionHeaders maps recognizable header prefixes to sections. Checked
// against trimmed, lowercased lines with trailing punctuation removed.
var sectionHeaders = []struct {
	prefix string
	sec    section
}{
	{"requirements", sectionRequirements},
	{"required", sectionRequirements},
	{"qualifications", sectionRequirements},
	{"what you'll need", sectionRequirements},
	{"what you will need", sectionRequirements},
	{"must have", sectionRequirements},
	{"nice to have", sectionNiceToHave},
	{"nice-to-have", sectionNiceToHave},
	{"preferred", sectionNiceToHave},
	{"bonus", sectionNiceToHave},
	{"responsibilities", sectionResponsibilities},
	{"what you'll do", sectionResponsibilities},
	{"what you will do", sectionResponsibilities},
	{"the role", sectionResponsibilities},
	{"your impact", sectionResponsibilities},
	{"about us", sectionAbout},
	{"about the company", sectionAbout},
	{"about the team", sectionAbout},
	{"about", sectionAbout},
	{"who we are", sectionAbout},
	{"benefits", sectionAbout},
	{"compensation", sectionAbout},
}

// Parse extracts structure from raw JD text. The first non-empty line is
// the title; header lines switch the active section; everything before
// the first recognized header counts as responsibilities (the typical
// opening pitch describes the work, not the company).
func Parse(jdText string) *types.ParsedJD {
	lines := strings.Split(jdText, "\n")

	parsed := &types.ParsedJD{
		HardRequirements: []types.Requirement{},
		SoftSignals:      []string{},
		KeywordInventory: []types.KeywordEntry{},
	}

	// Per-section text accumulators for keyword scanning.
	sectionText := map[section]*strings.Builder{
		sectionTitle:            {},
		sectionRequirements:     {},
		sectionNiceToHave:       {},
		sectionResponsibilities: {},
		sectionAbout:            {},
	}

	current := sectionResponsibilities
	titleSeen := false
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if !titleSeen {
			parsed.Title = line
			sectionText[sectionTitle].WriteString(line + "\n")
			titleSeen = true
			continue
		}

		if sec, rest, ok := matchHeader(line); ok {
			current = sec
			// Inline headers like "Required: Java, SQL" carry content
			// on the same line.
			line = rest
			if line == "" {
				continue
			}
		}

		sectionText[current].WriteString(line + "\n")

		switch current {
		case sectionRequirements:
			// Postings often pack both on one line:
			// "Required: Java, SQL. Preferred: Kubernetes."
			required, nice := splitInlineNiceToHave(line)
			for _, item := range splitItems(required) {
				parsed.HardRequirements = append(parsed.HardRequirements, types.Requirement{
					Text:       item,
					IsRequired: true,
				})
			}
			for _, item := range splitItems(nice) {
				parsed.HardRequirements = append(parsed.HardRequirements, types.Requirement{
					Text:       item,
					IsRequired: false,
				})
				parsed.SoftSignals = append(parsed.SoftSignals, item)
			}
		case sectionNiceToHave:
			for _, item := range splitItems(line) {
				parsed.HardRequirements = append(parsed.HardRequirements, types.Requirement{
					Text:       item,
					IsRequired: false,
				})
				parsed.SoftSignals = append(parsed.SoftSignals, item)
			}
		}
	}

	parsed.KeywordInventory = buildKeywordInventory(sectionText)
	parsed.DetectedTone = detectTone(jdText)
	parsed.RoleSignals = detectRoleSignals(jdText, parsed.Title)
	return parsed
}

// matchHeader reports whether the line opens a new section. Returns any
// inline content following a "Header:" prefix.
func matchHeader(line string) (section, string, bool) {
	lower := strings.ToLower(line)
	for _, h := range sectionHeaders {
		if !strings.HasPrefix(lower, h.prefix) {
			continue
		}
		rest := strings.TrimSpace(line[len(h.prefix):])
		rest = strings.TrimLeft(rest, ":- ")
		// A header is either the whole line or a "Header: content" lead.
		if rest == "" || strings.HasPrefix(strings.TrimSpace(line[len(h.prefix):]), ":") {
			return h.sec, strings.TrimSpace(rest), true
		}
	}
	return 0, "", false
}

var inlineNiceMarkers = []string{"preferred:", "nice to have:", "nice-to-have:", "bonus:"}

// splitInlineNiceToHave splits a requirements line at an embedded
// preferred/nice-to-have marker. The second return is empty when the
// line has no such marker.
func splitInlineNiceToHave(line string) (required, nice string) {
	lower := strings.ToLower(line)
	for _, marker := range inlineNiceMarkers {
		if idx := strings.Index(lower, marker); idx >= 0 {
			return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+len(marker):])
		}
	}
	return line, ""
}

// splitItems breaks a requirement line into individual items. Handles
// bullet markers and comma/semicolon separated inline lists.
func splitItems(line string) []string {
	line = strings.TrimLeft(line, "-*• \t")
	parts := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ';'
	})
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(p), "."))
		if p != "" {
			items = append(items, p)
		}
	}
	return items
}

// scanOrder is the lexicon sorted longest-first so multi-word phrases
// claim their text before their constituent words are counted.
var scanOrder = func() []string {
	order := make([]string, len(skillLexicon))
	copy(order, skillLexicon)
	sort.Slice(order, func(i, j int) bool {
		if len(order[i]) != len(order[j]) {
			return len(order[i]) > len(order[j])
		}
		return order[i] < order[j]
	})
	return order
}()

// countSkills counts boundary-delimited lexicon matches in text, blanking
// matched spans so overlapping shorter phrases are not recounted.
func countSkills(text string) map[string]int {
	buf := []byte(strings.ToLower(text))
	counts := make(map[string]int)
	for _, phrase := range scanOrder {
		needle := []byte(phrase)
		from := 0
		for {
			idx := bytes.Index(buf[from:], needle)
			if idx < 0 {
				break
			}
			start := from + idx
			end := start + len(needle)
			if boundedAt(buf, start, end) {
				counts[NormalizeSkillName(phrase)]++
				for i := start; i < end; i++ {
					buf[i] = ' '
				}
				from = end
			} else {
				from = start + 1
			}
		}
	}
	return counts
}

// boundedAt reports whether buf[start:end] sits on word boundaries.
func boundedAt(buf []byte, start, end int) bool {
	if start > 0 && isWordByte(buf[start-1]) {
		return false
	}
	if end < len(buf) && isWordByte(buf[end]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	return unicode.IsLetter(rune(b)) || unicode.IsDigit(rune(b))
}

// buildKeywordInventory scans each section, assigns every keyword the
// weight of the highest-weighted section it appears in, and sums
// frequency across all sections. Sorted by weighted score descending,
// keyword ascending for a stable order.
func buildKeywordInventory(sectionText map[section]*strings.Builder) []types.KeywordEntry {
	// Highest weight first so the first section claiming a keyword
	// sets its position weight.
	ordered := []section{sectionTitle, sectionRequirements, sectionNiceToHave, sectionResponsibilities, sectionAbout}

	freq := make(map[string]int)
	weight := make(map[string]float64)
	for _, sec := range ordered {
		for keyword, n := range countSkills(sectionText[sec].String()) {
			freq[keyword] += n
			if _, claimed := weight[keyword]; !claimed {
				weight[keyword] = sec.positionWeight()
			}
		}
	}

	inventory := make([]types.KeywordEntry, 0, len(freq))
	for keyword, n := range freq {
		inventory = append(inventory, types.KeywordEntry{
			Keyword:        keyword,
			Frequency:      n,
			PositionWeight: weight[keyword],
			WeightedScore:  float64(n) * weight[keyword],
		})
	}
	sort.Slice(inventory, func(i, j int) bool {
		if inventory[i].WeightedScore != inventory[j].WeightedScore {
			return inventory[i].WeightedScore > inventory[j].WeightedScore
		}
		return inventory[i].Keyword < inventory[j].Keyword
	})
	return inventory
}

// Tone marker vocabularies. Ties resolve in declaration order with
// collaborative_enterprise as the default.
var toneMarkers = []struct {
	tone    string
	markers []string
}{
	{types.ToneAggressiveStartup, []string{
		"fast-paced", "move fast", "disrupt", "spearhead", "hypergrowth",
		"startup", "own everything", "end-to-end", "from zero",
	}},
	{types.ToneResearchOriented, []string{
		"research", "publication", "publish", "phd", "novel", "neurips",
		"icml", "state-of-the-art", "investigate",
	}},
	{types.ToneProductOriented, []string{
		"customer", "user experience", "product manager", "roadmap",
		"user-facing", "delight", "design partner",
	}},
	{types.ToneCollaborativeEnterprise, []string{
		"collaborative", "partner with", "cross-functional", "stakeholder",
		"enterprise", "mentorship", "inclusive",
	}},
}

func detectTone(jdText string) string {
	lower := strings.ToLower(jdText)
	best := types.ToneCollaborativeEnterprise
	bestHits := 0
	for _, tm := range toneMarkers {
		hits := 0
		for _, marker := range tm.markers {
			hits += strings.Count(lower, marker)
		}
		if hits > bestHits {
			best = tm.tone
			bestHits = hits
		}
	}
	return best
}

var managerMarkers = []string{
	"direct reports", "people management", "manage a team", "build and lead",
	"hiring manager", "performance reviews", "engineering manager",
}

func detectRoleSignals(jdText, title string) types.RoleSignals {
	lower := strings.ToLower(jdText)
	lowerTitle := strings.ToLower(title)

	signals := types.RoleSignals{
		IsStartup: strings.Contains(lower, "startup") ||
			strings.Contains(lower, "fast-paced") ||
			strings.Contains(lower, "series a") || strings.Contains(lower, "series b") ||
			strings.Contains(lower, "series c"),
		IsResearch: strings.Contains(lower, "research") ||
			strings.Contains(lower, "phd") || strings.Contains(lower, "publication"),
		IsICFocus: true,
	}
	for _, m := range managerMarkers {
		if strings.Contains(lower, m) {
			signals.IsICFocus = false
			break
		}
	}

	switch {
	case strings.Contains(lowerTitle, "principal") || strings.Contains(lowerTitle, "staff"):
		signals.Seniority = "staff"
	case strings.Contains(lowerTitle, "senior") || strings.Contains(lowerTitle, "sr."):
		signals.Seniority = "senior"
	case strings.Contains(lowerTitle, "junior") || strings.Contains(lowerTitle, "intern") ||
		strings.Contains(lower, "entry level") || strings.Contains(lower, "entry-level"):
		signals.Seniority = "junior"
	default:
		signals.Seniority = "mid"
	}
	return signals
}
