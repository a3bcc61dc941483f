package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/jonathan/resume-pipeline/internal/blob"
	"github.com/jonathan/resume-pipeline/internal/types"
)

// ErrEmptyContext is returned when no entries remain after filtering.
// Callers must see this rather than an empty document.
var ErrEmptyContext = fmt.Errorf("no context entries remain after filtering")

// EntrySource supplies the current entries to compile. *db.DB satisfies
// it through the context store's repository methods.
type EntrySource interface {
	CurrentEntries(ctx context.Context, userID uuid.UUID) ([]types.ContextEntry, error)
}

// Recorder persists compiled snapshot rows. *db.DB satisfies it.
type Recorder interface {
	NextSnapshotVersion(ctx context.Context, userID uuid.UUID) (int, error)
	InsertSnapshot(ctx context.Context, s *types.Snapshot) (*types.Snapshot, error)
}

// Compiler compiles current context into immutable snapshots.
type Compiler struct {
	entries  EntrySource
	recorder Recorder
	blobs    blob.Store
}

// NewCompiler creates a Compiler.
func NewCompiler(entries EntrySource, recorder Recorder, blobs blob.Store) *Compiler {
	return &Compiler{entries: entries, recorder: recorder, blobs: blobs}
}

// Compile builds the snapshot for the user's current context under the
// optional persona. The next version number is allocated, the document is
// written to the blob store under contexts/{user}/v{version}.md, and only
// then is the snapshot row recorded (the unique constraint detects a
// concurrent compile, which propagates to the caller as a retriable
// conflict).
func (c *Compiler) Compile(ctx context.Context, userID uuid.UUID, persona *types.Persona) (*types.Snapshot, error) {
	entries, err := c.entries.CurrentEntries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load current entries: %w", err)
	}

	kept := make([]types.ContextEntry, 0, len(entries))
	for _, e := range entries {
		if e.Tombstoned() || persona.Suppresses(&e) {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) == 0 {
		return nil, ErrEmptyContext
	}

	doc := RenderDocument(userID.String(), kept, persona)
	sum := sha256.Sum256([]byte(doc))

	refs := make([]types.EntryRef, 0, len(kept))
	for _, e := range kept {
		refs = append(refs, types.EntryRef{EntryID: e.EntryID, Version: e.Version})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].EntryID.String() < refs[j].EntryID.String() })

	version, err := c.recorder.NextSnapshotVersion(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate snapshot version: %w", err)
	}

	snap := &types.Snapshot{
		UserID:      userID,
		Version:     version,
		BlobKey:     blob.SnapshotKey(userID, version),
		ContentHash: hex.EncodeToString(sum[:]),
		EntryRefs:   refs,
	}
	if persona != nil {
		id := persona.ID
		snap.PersonaID = &id
	}

	// The document goes to the blob store before the row is recorded so
	// a Put failure never leaves a snapshot row whose document cannot be
	// fetched. An orphaned blob from a failed insert is harmless: the
	// next successful compile claims a fresh version and key.
	if err := c.blobs.Put(ctx, snap.BlobKey, []byte(doc)); err != nil {
		return nil, fmt.Errorf("failed to store snapshot document: %w", err)
	}

	created, err := c.recorder.InsertSnapshot(ctx, snap)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Document fetches a compiled snapshot's text from the blob store.
func (c *Compiler) Document(ctx context.Context, snap *types.Snapshot) (string, error) {
	data, err := c.blobs.Get(ctx, snap.BlobKey)
	if err != nil {
		return "", fmt.Errorf("failed to load snapshot document: %w", err)
	}
	return string(data), nil
}
