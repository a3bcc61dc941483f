package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/resume-pipeline/internal/types"
)

func (s *Server) handleCompileSnapshot(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var req types.CompileSnapshotRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.errorResponse(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	persona, ok := s.resolvePersona(w, r, userID, req.PersonaID)
	if !ok {
		return
	}

	snap, err := s.snapshots.Compile(r.Context(), userID, persona)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, snap)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	snaps, err := s.store.ListSnapshots(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"snapshots": snaps})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshotID, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := s.store.GetSnapshot(r.Context(), snapshotID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if snap == nil {
		s.errorResponse(w, http.StatusNotFound, "snapshot not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, snap)
}

// handleSnapshotDocument streams the compiled markdown document.
func (s *Server) handleSnapshotDocument(w http.ResponseWriter, r *http.Request) {
	snapshotID, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := s.store.GetSnapshot(r.Context(), snapshotID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if snap == nil {
		s.errorResponse(w, http.StatusNotFound, "snapshot not found")
		return
	}

	doc, err := s.snapshots.Document(r.Context(), snap)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

// resolvePersona loads an optional persona id and verifies ownership.
// Writes the error response itself and returns ok=false on failure.
func (s *Server) resolvePersona(w http.ResponseWriter, r *http.Request, userID uuid.UUID, personaID string) (*types.Persona, bool) {
	if personaID == "" {
		return nil, true
	}
	id, err := uuid.Parse(personaID)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid persona_id")
		return nil, false
	}
	persona, err := s.store.GetPersona(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	if persona == nil || persona.UserID != userID {
		s.errorResponse(w, http.StatusNotFound, "persona not found")
		return nil, false
	}
	return persona, true
}
