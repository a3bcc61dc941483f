// Package blob provides content storage for compiled snapshots and
// rendered PDF artifacts.
package blob

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = fmt.Errorf("blob not found")

// Store is the blob storage contract. Snapshot documents and rendered
// PDFs are written once and read by key; user deletion removes the
// user's whole prefix.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	DeletePrefix(ctx context.Context, prefix string) error
}

// SnapshotKey returns the storage key for a compiled context snapshot.
func SnapshotKey(userID uuid.UUID, version int) string {
	return fmt.Sprintf("contexts/%s/v%d.md", userID, version)
}

// PDFKey returns the storage key for a rendered resume artifact. Keys are
// per-resume, per-job so independent render attempts never collide.
func PDFKey(resumeID, jobID uuid.UUID) string {
	return fmt.Sprintf("resumes/%s/jobs/%s.pdf", resumeID, jobID)
}

// UserPrefix returns the key prefix that owns every snapshot blob for a
// user, used on cascade deletion.
func UserPrefix(userID uuid.UUID) string {
	return fmt.Sprintf("contexts/%s/", userID)
}
