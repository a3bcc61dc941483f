package contextstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/resume-pipeline/internal/types"
)

// Section health statuses.
const (
	SectionStrong   = "strong"
	SectionModerate = "moderate"
	SectionWeak     = "weak"
	SectionMissing  = "missing"
)

// SectionHealth grades one resume section of the user's context.
type SectionHealth struct {
	Section               string   `json:"section"`
	Score                 float64  `json:"score"`
	EntryCount            int      `json:"entry_count"`
	MissingQuantification int      `json:"missing_quantification"`
	Status                string   `json:"status"`
	Recommendations       []string `json:"recommendations"`
}

// CompletenessReport summarizes how well the user's context covers the
// sections a resume draws from.
type CompletenessReport struct {
	OverallScore    float64         `json:"overall_score"`
	Sections        []SectionHealth `json:"sections"`
	TotalEntries    int             `json:"total_entries"`
	MissingSections []string        `json:"missing_sections"`
}

// sectionWeights ranks how much each section contributes to the overall
// score. Experience dominates.
var sectionWeights = []struct {
	section string
	weight  float64
}{
	{types.EntryTypeExperience, 0.35},
	{types.EntryTypeEducation, 0.15},
	{types.EntryTypeSkill, 0.15},
	{types.EntryTypeProject, 0.15},
	{types.EntryTypePublication, 0.05},
	{types.EntryTypeOpenSource, 0.05},
	{types.EntryTypeCertification, 0.05},
	{types.EntryTypeAward, 0.03},
	{types.EntryTypeExtracurricular, 0.02},
}

// Completeness reports section health over the user's current context.
func (s *Store) Completeness(ctx context.Context, userID uuid.UUID) (*CompletenessReport, error) {
	entries, err := s.repo.CurrentEntries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load current entries: %w", err)
	}
	return BuildCompletenessReport(entries), nil
}

// BuildCompletenessReport grades the given current entries section by
// section. Tombstoned entries are ignored. A section's score is the mean
// of recency*impact over its entries; the overall score is the weighted
// mean across sections.
func BuildCompletenessReport(entries []types.ContextEntry) *CompletenessReport {
	live := make([]types.ContextEntry, 0, len(entries))
	for _, e := range entries {
		if !e.Tombstoned() {
			live = append(live, e)
		}
	}

	report := &CompletenessReport{TotalEntries: len(live)}
	var weightedSum, totalWeight float64

	for _, sw := range sectionWeights {
		totalWeight += sw.weight

		var count, missingQuant int
		var scoreSum float64
		for _, e := range live {
			if e.EntryType != sw.section {
				continue
			}
			count++
			scoreSum += e.RecencyScore * e.ImpactScore
			if e.ImpactScore < 0.5 {
				missingQuant++
			}
		}

		if count == 0 {
			report.MissingSections = append(report.MissingSections, sw.section)
			report.Sections = append(report.Sections, SectionHealth{
				Section: sw.section,
				Status:  SectionMissing,
				Recommendations: []string{
					fmt.Sprintf("add at least one %s entry to strengthen your context", sw.section),
				},
			})
			continue
		}

		score := clamp01(scoreSum / float64(count))
		var recommendations []string
		if missingQuant > 0 {
			recommendations = append(recommendations, fmt.Sprintf(
				"%d %s entries lack quantified impact; add concrete numbers", missingQuant, sw.section))
		}
		if sw.section == types.EntryTypeExperience && count < 2 {
			recommendations = append(recommendations, "add more experience entries to build a complete picture")
		}

		weightedSum += score * sw.weight
		report.Sections = append(report.Sections, SectionHealth{
			Section:               sw.section,
			Score:                 score,
			EntryCount:            count,
			MissingQuantification: missingQuant,
			Status:                sectionStatus(score),
			Recommendations:       recommendations,
		})
	}

	if totalWeight > 0 {
		report.OverallScore = clamp01(weightedSum / totalWeight)
	}
	return report
}

func sectionStatus(score float64) string {
	switch {
	case score >= 0.8:
		return SectionStrong
	case score >= 0.5:
		return SectionModerate
	case score >= 0.2:
		return SectionWeak
	default:
		return SectionMissing
	}
}
