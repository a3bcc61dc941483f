package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/resume-pipeline/internal/types"
)

func (s *Server) handleCreatePersona(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var req types.PersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	persona, err := s.store.CreatePersona(r.Context(), userID, &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, persona)
}

func (s *Server) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	personas, err := s.store.ListPersonas(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"personas": personas})
}

func (s *Server) handleGetPersona(w http.ResponseWriter, r *http.Request) {
	personaID, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	persona, err := s.store.GetPersona(r.Context(), personaID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if persona == nil {
		s.errorResponse(w, http.StatusNotFound, "persona not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, persona)
}

// handleUpdatePersona replaces the persona configuration. Edits apply
// prospectively: already-compiled snapshots keep the entry set they were
// built with.
func (s *Server) handleUpdatePersona(w http.ResponseWriter, r *http.Request) {
	personaID, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var req types.PersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	persona, err := s.store.UpdatePersona(r.Context(), personaID, &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if persona == nil {
		s.errorResponse(w, http.StatusNotFound, "persona not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, persona)
}

func (s *Server) handleDeletePersona(w http.ResponseWriter, r *http.Request) {
	personaID, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.DeletePersona(r.Context(), personaID); err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}
