package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/resume-pipeline/internal/blob"
	"github.com/jonathan/resume-pipeline/internal/contextstore"
	"github.com/jonathan/resume-pipeline/internal/db"
	"github.com/jonathan/resume-pipeline/internal/generation"
	"github.com/jonathan/resume-pipeline/internal/ingestion"
	"github.com/jonathan/resume-pipeline/internal/snapshot"
)

// errorResponse writes an error JSON response with a literal message.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps a domain error onto an HTTP status. Everything
// unrecognized is a 500 with the detail kept out of the response body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var conflict *contextstore.VersionConflictError
	var invalid validator.ValidationErrors

	switch {
	case errors.As(err, &conflict):
		s.jsonResponse(w, http.StatusConflict, map[string]any{
			"error":             "version_conflict",
			"entry_id":          conflict.EntryID,
			"attempted_version": conflict.AttemptedVersion,
		})
	case errors.As(err, &invalid):
		s.errorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, db.ErrDuplicateVersion):
		// A concurrent compile claimed the same snapshot version slot.
		s.errorResponse(w, http.StatusConflict, "version_conflict")
	case errors.Is(err, snapshot.ErrEmptyContext):
		s.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, generation.ErrGenerationUnavailable),
		errors.Is(err, generation.ErrMalformedOutput):
		s.errorResponse(w, http.StatusBadGateway, "generation collaborator unavailable")
	case errors.Is(err, ingestion.ErrHTTPRequestFailed),
		errors.Is(err, ingestion.ErrContentExtractionFailed):
		s.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, blob.ErrNotFound):
		s.errorResponse(w, http.StatusNotFound, "not found")
	default:
		log.Printf("[server] internal error: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "internal error")
	}
}
