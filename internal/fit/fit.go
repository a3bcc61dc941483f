// Package fit measures how well an accepted bullet set covers a parsed
// job description. Pure and deterministic: the same bullets and ParsedJD
// always produce the same report.
package fit

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jonathan/resume-pipeline/internal/grounding"
	"github.com/jonathan/resume-pipeline/internal/types"
)

// Match strength tiers.
const (
	strengthExact   = 1.0
	strengthPartial = 0.6
	strongFloor     = 0.8
	partialFloor    = 0.4
)

// Options tunes the weighting policy.
type Options struct {
	// RequiredBoost multiplies the weight of keywords that appear in a
	// required (not nice-to-have) requirement. 1.0 disables the boost.
	RequiredBoost float64
}

// DefaultOptions weights required-requirement keywords 1.5x.
func DefaultOptions() Options {
	return Options{RequiredBoost: 1.5}
}

// Score computes the fit report for a set of accepted bullets against a
// parsed JD. Per keyword: an exact phrase match in some bullet scores
// 1.0, a stemmed all-tokens match 0.6, no match 0. The overall score is
// the weighted mean of best strengths over the keyword inventory,
// bounded to [0,1].
func Score(bullets []types.ResumeBullet, parsedJD *types.ParsedJD, opts Options) *types.FitReport {
	if opts.RequiredBoost <= 0 {
		opts.RequiredBoost = 1.0
	}

	report := &types.FitReport{
		StrongMatches:  []types.FitMatch{},
		PartialMatches: []types.FitMatch{},
		Gaps:           []types.Gap{},
	}
	if len(parsedJD.KeywordInventory) == 0 {
		report.Recommendation = "No keywords found in the job description, fit cannot be scored."
		return report
	}

	requiredText := strings.ToLower(joinRequired(parsedJD.HardRequirements))

	var totalWeight, totalScore float64
	for _, kw := range parsedJD.KeywordInventory {
		weight := kw.WeightedScore
		if strings.Contains(requiredText, strings.ToLower(kw.Keyword)) {
			weight *= opts.RequiredBoost
		}
		totalWeight += weight

		strength, evidence := bestMatch(kw.Keyword, bullets)
		totalScore += strength * weight

		switch {
		case strength >= strongFloor:
			report.StrongMatches = append(report.StrongMatches, types.FitMatch{
				Keyword: kw.Keyword, Evidence: evidence, WeightedScore: weight, Strength: strength,
			})
		case strength >= partialFloor:
			report.PartialMatches = append(report.PartialMatches, types.FitMatch{
				Keyword: kw.Keyword, Evidence: evidence, WeightedScore: weight, Strength: strength,
			})
		default:
			report.Gaps = append(report.Gaps, types.Gap{Keyword: kw.Keyword, WeightedScore: weight})
		}
	}

	if totalWeight > 0 {
		report.OverallScore = math.Min(1, math.Max(0, totalScore/totalWeight))
	}
	sort.Slice(report.Gaps, func(i, j int) bool {
		if report.Gaps[i].WeightedScore != report.Gaps[j].WeightedScore {
			return report.Gaps[i].WeightedScore > report.Gaps[j].WeightedScore
		}
		return report.Gaps[i].Keyword < report.Gaps[j].Keyword
	})
	report.Recommendation = buildRecommendation(report.OverallScore, report.Gaps)
	return report
}

func joinRequired(reqs []types.Requirement) string {
	var b strings.Builder
	for _, r := range reqs {
		if r.IsRequired {
			b.WriteString(r.Text)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// bestMatch returns the strongest match for the keyword across bullets
// and the text of the bullet that provides it.
func bestMatch(keyword string, bullets []types.ResumeBullet) (float64, string) {
	lower := strings.ToLower(keyword)
	kwTokens := grounding.Tokenize(keyword)

	best := 0.0
	evidence := ""
	for _, b := range bullets {
		strength := 0.0
		if strings.Contains(strings.ToLower(b.Text), lower) {
			strength = strengthExact
		} else if len(kwTokens) > 0 && containsAllTokens(grounding.Tokenize(b.Text), kwTokens) {
			strength = strengthPartial
		}
		if strength > best {
			best = strength
			evidence = b.Text
			if best == strengthExact {
				break
			}
		}
	}
	return best, evidence
}

func containsAllTokens(haystack, needles []string) bool {
	set := make(map[string]bool, len(haystack))
	for _, t := range haystack {
		set[t] = true
	}
	for _, n := range needles {
		if !set[n] {
			return false
		}
	}
	return true
}

// buildRecommendation renders a short human-readable verdict naming the
// top uncovered keywords.
func buildRecommendation(score float64, gaps []types.Gap) string {
	pct := int(math.Round(score * 100))
	topGaps := make([]string, 0, 3)
	for _, g := range gaps {
		if len(topGaps) == 3 {
			break
		}
		topGaps = append(topGaps, g.Keyword)
	}

	switch {
	case score >= 0.8:
		return "Strong fit. The resume directly covers the key requirements."
	case score >= 0.6:
		return fmt.Sprintf("Moderate fit (%d/100). Consider adding context for: %s.", pct, strings.Join(topGaps, ", "))
	default:
		return fmt.Sprintf("Low fit (%d/100). Significant gaps: %s.", pct, strings.Join(topGaps, ", "))
	}
}
