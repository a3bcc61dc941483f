package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/resume-pipeline/internal/contextstore"
	"github.com/jonathan/resume-pipeline/internal/types"
)

// appendEntryResponse inlines the stored entry and carries any advisory
// conflict warnings raised against the user's existing entries.
type appendEntryResponse struct {
	*types.ContextEntry
	ConflictWarnings []contextstore.ConflictWarning `json:"conflict_warnings,omitempty"`
}

func (s *Server) handleAppendEntry(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var req types.AppendEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	entryID := uuid.Nil
	if req.EntryID != "" {
		entryID, err = uuid.Parse(req.EntryID)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "invalid entry_id")
			return
		}
	}

	entry, warnings, err := s.contextLog.AppendEntry(r.Context(), userID, entryID, &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, appendEntryResponse{ContextEntry: entry, ConflictWarnings: warnings})
}

// handleContextHealth grades section coverage of the user's current
// context so clients can point out what to add next.
func (s *Server) handleContextHealth(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.contextLog.Completeness(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, report)
}

func (s *Server) handleCurrentEntries(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := s.contextLog.Current(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleEntryHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	entryID, err := pathID(r, "entry_id")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	history, err := s.contextLog.History(r.Context(), userID, entryID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if len(history) == 0 {
		s.errorResponse(w, http.StatusNotFound, "entry not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"versions": history})
}

// handleTombstoneEntry appends a tombstone version rather than deleting
// anything: the history stays intact, the entry just stops appearing in
// current state and future snapshots.
func (s *Server) handleTombstoneEntry(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	entryID, err := pathID(r, "entry_id")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	history, err := s.contextLog.History(r.Context(), userID, entryID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if len(history) == 0 {
		s.errorResponse(w, http.StatusNotFound, "entry not found")
		return
	}
	entryType := history[len(history)-1].EntryType

	entry, err := s.contextLog.Tombstone(r.Context(), userID, entryID, entryType)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, entry)
}
