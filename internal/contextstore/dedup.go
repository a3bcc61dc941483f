package contextstore

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/resume-pipeline/internal/types"
)

// Conflict types reported on append.
const (
	ConflictContributionMismatch = "contribution_type_mismatch"
	ConflictDateOverlap          = "date_overlap"
)

// Conflict severities. Advisory conflicts are often intentional
// (simultaneous roles); warnings deserve a second look.
const (
	SeverityAdvisory = "advisory"
	SeverityWarning  = "warning"
)

// ConflictWarning flags a suspicious overlap between a newly appended
// entry and an existing one. Warnings are advisory: the append always
// goes through, the caller decides what to do with them.
type ConflictWarning struct {
	ConflictType    string    `json:"conflict_type"`
	ExistingEntryID uuid.UUID `json:"existing_entry_id"`
	Description     string    `json:"description"`
	Severity        string    `json:"severity"`
}

// detectConflicts compares a new experience entry against the user's
// current entries. Same company and role with a different contribution
// type is a warning; overlapping date ranges at different companies are
// advisory. Other entry types produce no conflicts.
func detectConflicts(existing []types.ContextEntry, next *types.ContextEntry) []ConflictWarning {
	if next.EntryType != types.EntryTypeExperience {
		return nil
	}

	company := dataString(next.Data, "company")
	role := dataString(next.Data, "role")
	start := dataString(next.Data, "date_start")
	end := dataString(next.Data, "date_end")

	var warnings []ConflictWarning
	for _, e := range existing {
		if e.EntryID == next.EntryID || e.EntryType != types.EntryTypeExperience || e.Tombstoned() {
			continue
		}
		exCompany := dataString(e.Data, "company")
		exRole := dataString(e.Data, "role")

		if company != "" && role != "" && exCompany != "" && exRole != "" &&
			strings.EqualFold(company, exCompany) && strings.EqualFold(role, exRole) &&
			e.ContributionType != next.ContributionType {
			warnings = append(warnings, ConflictWarning{
				ConflictType:    ConflictContributionMismatch,
				ExistingEntryID: e.EntryID,
				Description: fmt.Sprintf(
					"existing entry at %s (%s) has contribution_type %q, new has %q; verify this is intentional",
					company, role, e.ContributionType, next.ContributionType),
				Severity: SeverityWarning,
			})
		}

		exStart := dataString(e.Data, "date_start")
		if start != "" && exStart != "" && exCompany != "" &&
			!strings.EqualFold(company, exCompany) &&
			datesOverlap(start, end, exStart, dataString(e.Data, "date_end")) {
			warnings = append(warnings, ConflictWarning{
				ConflictType:    ConflictDateOverlap,
				ExistingEntryID: e.EntryID,
				Description: fmt.Sprintf(
					"date range overlaps with existing entry at %q; simultaneous roles may be intentional",
					exCompany),
				Severity: SeverityAdvisory,
			})
		}
	}
	return warnings
}

// datesOverlap compares ISO date strings lexically. An open end date
// means the role is current.
func datesOverlap(start1, end1, start2, end2 string) bool {
	if end1 == "" {
		end1 = "9999-12-31"
	}
	if end2 == "" {
		end2 = "9999-12-31"
	}
	return start1 <= end2 && start2 <= end1
}

func dataString(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}
