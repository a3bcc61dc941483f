package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/resume-pipeline/internal/ingestion"
	"github.com/jonathan/resume-pipeline/internal/types"
)

// handleGenerateResume runs the full generation pipeline: resolve the
// JD text (inline, URL, or uploaded document), pick the snapshot, and
// hand off to the compiler. The JSON body carries jd_text or jd_url;
// a multipart body carries a jd_file upload instead.
func (s *Server) handleGenerateResume(w http.ResponseWriter, r *http.Request) {
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

	jdText, req, ok := s.resolveJD(w, r)
	if !ok {
		return
	}

	persona, ok := s.resolvePersona(w, r, userID, req.PersonaID)
	if !ok {
		return
	}

	snap, ok := s.resolveSnapshot(w, r, userID, req.SnapshotID, persona)
	if !ok {
		return
	}

	result, err := s.generator.Generate(r.Context(), user, snap, jdText, persona)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, map[string]any{
		"resume":     result.Resume,
		"bullets":    result.Bullets,
		"rejected":   result.Rejected,
		"fit_report": result.FitReport,
	})
}

// resolveJD extracts the JD text from the request body. Exactly one
// source must be present.
func (s *Server) resolveJD(w http.ResponseWriter, r *http.Request) (string, *types.GenerateResumeRequest, bool) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(12 << 20); err != nil {
			s.errorResponse(w, http.StatusBadRequest, "invalid multipart body")
			return "", nil, false
		}
		file, header, err := r.FormFile("jd_file")
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "jd_file is required in multipart requests")
			return "", nil, false
		}
		defer func() { _ = file.Close() }()

		data, err := io.ReadAll(file)
		if err != nil {
			s.writeError(w, err)
			return "", nil, false
		}
		jdText, _, err := ingestion.FromUpload(header.Filename, data)
		if err != nil {
			s.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
			return "", nil, false
		}
		req := &types.GenerateResumeRequest{
			SnapshotID: r.FormValue("snapshot_id"),
			PersonaID:  r.FormValue("persona_id"),
		}
		if err := req.Validate(); err != nil {
			s.writeError(w, err)
			return "", nil, false
		}
		return jdText, req, true
	}

	var req types.GenerateResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return "", nil, false
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, err)
		return "", nil, false
	}
	switch {
	case req.JDText != "" && req.JDURL != "":
		s.errorResponse(w, http.StatusBadRequest, "jd_text and jd_url are mutually exclusive")
		return "", nil, false
	case req.JDText != "":
		return req.JDText, &req, true
	case req.JDURL != "":
		jdText, _, err := ingestion.FromURL(r.Context(), req.JDURL, ingestion.URLOptions{UseBrowser: s.useBrowser})
		if err != nil {
			s.writeError(w, err)
			return "", nil, false
		}
		return jdText, &req, true
	default:
		s.errorResponse(w, http.StatusBadRequest, "one of jd_text or jd_url is required")
		return "", nil, false
	}
}

// resolveSnapshot loads the requested snapshot or compiles a fresh one.
func (s *Server) resolveSnapshot(w http.ResponseWriter, r *http.Request, userID uuid.UUID, snapshotID string, persona *types.Persona) (*types.Snapshot, bool) {
	if snapshotID == "" {
		snap, err := s.snapshots.Compile(r.Context(), userID, persona)
		if err != nil {
			s.writeError(w, err)
			return nil, false
		}
		return snap, true
	}

	id, err := uuid.Parse(snapshotID)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid snapshot_id")
		return nil, false
	}
	snap, err := s.store.GetSnapshot(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	if snap == nil || snap.UserID != userID {
		s.errorResponse(w, http.StatusNotFound, "snapshot not found")
		return nil, false
	}
	return snap, true
}

func (s *Server) handleListResumes(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	resumes, err := s.store.ListResumes(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"resumes": resumes})
}

func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	resumeID, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	resume, err := s.store.GetResume(r.Context(), resumeID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if resume == nil {
		s.errorResponse(w, http.StatusNotFound, "resume not found")
		return
	}

	bullets, err := s.store.GetResumeBullets(r.Context(), resumeID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"resume":  resume,
		"bullets": bullets,
	})
}

// handleEditBullet applies a user edit. Edited bullets are marked
// user-edited and skip grounding re-validation: the user overriding
// generated text is the point of the endpoint.
func (s *Server) handleEditBullet(w http.ResponseWriter, r *http.Request) {
	bulletID, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var req types.EditBulletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	bullet, err := s.store.UpdateBulletText(r.Context(), bulletID, req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if bullet == nil {
		s.errorResponse(w, http.StatusNotFound, "bullet not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, bullet)
}
