package server

import (
	"fmt"
	"net/http"

	"github.com/jonathan/resume-pipeline/internal/types"
)

// handleEnqueueRender queues an asynchronous render job for the resume.
// Rendering never happens on the request thread; the response carries
// the job to poll.
func (s *Server) handleEnqueueRender(w http.ResponseWriter, r *http.Request) {
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
	if resume.LatexSource == "" {
		s.errorResponse(w, http.StatusConflict, "resume has no LaTeX source to render")
		return
	}

	job, err := s.store.EnqueueRenderJob(r.Context(), resumeID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusAccepted, job)
}

func (s *Server) handleGetRenderJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := s.store.GetRenderJob(r.Context(), jobID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if job == nil {
		s.errorResponse(w, http.StatusNotFound, "render job not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

func (s *Server) handleListRenderJobs(w http.ResponseWriter, r *http.Request) {
	resumeID, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	jobs, err := s.store.ListRenderJobs(r.Context(), resumeID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"jobs": jobs})
}

// handleCancelRenderJob cancels a job. Queued jobs fail immediately;
// processing jobs record the cancel intent and finalize when their
// attempt reports or their lease expires.
func (s *Server) handleCancelRenderJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r, "id")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := s.store.CancelRenderJob(r.Context(), jobID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if job == nil {
		s.errorResponse(w, http.StatusNotFound, "render job not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

// handleResumePDF streams the rendered artifact.
func (s *Server) handleResumePDF(w http.ResponseWriter, r *http.Request) {
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
	if resume.Status != types.ResumeStatusRendered || resume.PDFKey == "" {
		s.errorResponse(w, http.StatusConflict, "resume has not been rendered")
		return
	}

	pdf, err := s.blobs.Get(r.Context(), resume.PDFKey)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "resume-"+resumeID.String()+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
