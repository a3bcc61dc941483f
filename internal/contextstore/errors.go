package contextstore

import (
	"fmt"

	"github.com/google/uuid"
)

// VersionConflictError indicates a concurrent append won the version slot
// this append tried to claim. The caller retries with the freshly
// observed max version.
type VersionConflictError struct {
	UserID           uuid.UUID
	EntryID          uuid.UUID
	AttemptedVersion int
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict on entry %s: version %d already exists", e.EntryID, e.AttemptedVersion)
}
