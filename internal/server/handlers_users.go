package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-pipeline/internal/blob"
	"github.com/jonathan/resume-pipeline/internal/types"
)

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req types.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Tier == "" {
		req.Tier = types.TierFree
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	user, err := s.store.CreateUser(r.Context(), req.ExternalID, req.Email, req.Tier)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, user)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if user == nil {
		s.errorResponse(w, http.StatusNotFound, "user not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, user)
}

// handleDeleteUser removes the user and everything it owns: rows cascade
// in the database, then the user's blobs are cleaned up by prefix.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if user == nil {
		s.errorResponse(w, http.StatusNotFound, "user not found")
		return
	}

	// Resume PDF keys are per-resume, so collect the prefixes before the
	// rows cascade away.
	resumes, err := s.store.ListResumes(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.store.DeleteUser(r.Context(), userID); err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.blobs.DeletePrefix(r.Context(), blob.UserPrefix(userID)); err != nil {
		s.writeError(w, err)
		return
	}
	for _, resume := range resumes {
		prefix := fmt.Sprintf("resumes/%s/", resume.ID)
		if err := s.blobs.DeletePrefix(r.Context(), prefix); err != nil {
			s.writeError(w, err)
			return
		}
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}
