// Package server provides the HTTP REST API for the resume pipeline.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-pipeline/internal/blob"
	"github.com/jonathan/resume-pipeline/internal/contextstore"
	"github.com/jonathan/resume-pipeline/internal/generation"
	"github.com/jonathan/resume-pipeline/internal/server/ratelimit"
	"github.com/jonathan/resume-pipeline/internal/snapshot"
	"github.com/jonathan/resume-pipeline/internal/types"
)

// Store is the persistence surface the handlers need. *db.DB implements
// it; handler tests use an in-memory fake.
type Store interface {
	// Users
	CreateUser(ctx context.Context, externalID, email, tier string) (*types.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error

	// Snapshots
	GetSnapshot(ctx context.Context, snapshotID uuid.UUID) (*types.Snapshot, error)
	ListSnapshots(ctx context.Context, userID uuid.UUID) ([]types.Snapshot, error)

	// Personas
	CreatePersona(ctx context.Context, userID uuid.UUID, req *types.PersonaRequest) (*types.Persona, error)
	GetPersona(ctx context.Context, personaID uuid.UUID) (*types.Persona, error)
	ListPersonas(ctx context.Context, userID uuid.UUID) ([]types.Persona, error)
	UpdatePersona(ctx context.Context, personaID uuid.UUID, req *types.PersonaRequest) (*types.Persona, error)
	DeletePersona(ctx context.Context, personaID uuid.UUID) error

	// Resumes and bullets
	GetResume(ctx context.Context, resumeID uuid.UUID) (*types.Resume, error)
	ListResumes(ctx context.Context, userID uuid.UUID) ([]types.Resume, error)
	GetResumeBullets(ctx context.Context, resumeID uuid.UUID) ([]types.ResumeBullet, error)
	UpdateBulletText(ctx context.Context, bulletID uuid.UUID, text string) (*types.ResumeBullet, error)

	// Render jobs
	EnqueueRenderJob(ctx context.Context, resumeID uuid.UUID) (*types.RenderJob, error)
	GetRenderJob(ctx context.Context, jobID uuid.UUID) (*types.RenderJob, error)
	ListRenderJobs(ctx context.Context, resumeID uuid.UUID) ([]types.RenderJob, error)
	CancelRenderJob(ctx context.Context, jobID uuid.UUID) (*types.RenderJob, error)
}

// ResumeGenerator runs the generation pipeline for one resume.
// *generation.Compiler implements it.
type ResumeGenerator interface {
	Generate(ctx context.Context, user *types.User, snap *types.Snapshot, jdText string, persona *types.Persona) (*generation.Result, error)
}

// Config holds server configuration.
type Config struct {
	Port string
	// UseBrowser enables the headless-browser fallback for jd_url
	// ingestion.
	UseBrowser bool
}

// Server represents the HTTP server.
type Server struct {
	httpServer  *http.Server
	store       Store
	contextLog  *contextstore.Store
	snapshots   *snapshot.Compiler
	generator   ResumeGenerator
	blobs       blob.Store
	rateLimiter *ratelimit.Limiter
	useBrowser  bool
}

// New assembles the server from its collaborators.
func New(cfg Config, store Store, contextLog *contextstore.Store, snapshots *snapshot.Compiler, generator ResumeGenerator, blobs blob.Store) *Server {
	s := &Server{
		store:       store,
		contextLog:  contextLog,
		snapshots:   snapshots,
		generator:   generator,
		blobs:       blobs,
		rateLimiter: ratelimit.NewLimiter(ratelimit.LoadConfig()),
		useBrowser:  cfg.UseBrowser,
	}

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(s.routes()))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// routes wires the REST surface.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	// Users
	mux.HandleFunc("POST /users", s.handleCreateUser)
	mux.HandleFunc("GET /users/{id}", s.handleGetUser)
	mux.HandleFunc("DELETE /users/{id}", s.handleDeleteUser)

	// Context log
	mux.HandleFunc("POST /users/{id}/context", s.handleAppendEntry)
	mux.HandleFunc("GET /users/{id}/context", s.handleCurrentEntries)
	mux.HandleFunc("GET /users/{id}/context/health", s.handleContextHealth)
	mux.HandleFunc("GET /users/{id}/context/{entry_id}/history", s.handleEntryHistory)
	mux.HandleFunc("DELETE /users/{id}/context/{entry_id}", s.handleTombstoneEntry)

	// Snapshots
	mux.HandleFunc("POST /users/{id}/snapshots", s.handleCompileSnapshot)
	mux.HandleFunc("GET /users/{id}/snapshots", s.handleListSnapshots)
	mux.HandleFunc("GET /snapshots/{id}", s.handleGetSnapshot)
	mux.HandleFunc("GET /snapshots/{id}/document", s.handleSnapshotDocument)

	// Personas
	mux.HandleFunc("POST /users/{id}/personas", s.handleCreatePersona)
	mux.HandleFunc("GET /users/{id}/personas", s.handleListPersonas)
	mux.HandleFunc("GET /personas/{id}", s.handleGetPersona)
	mux.HandleFunc("PUT /personas/{id}", s.handleUpdatePersona)
	mux.HandleFunc("DELETE /personas/{id}", s.handleDeletePersona)

	// Resumes
	mux.HandleFunc("POST /users/{id}/resumes", s.handleGenerateResume)
	mux.HandleFunc("GET /users/{id}/resumes", s.handleListResumes)
	mux.HandleFunc("GET /resumes/{id}", s.handleGetResume)
	mux.HandleFunc("PATCH /bullets/{id}", s.handleEditBullet)

	// Rendering
	mux.HandleFunc("POST /resumes/{id}/render", s.handleEnqueueRender)
	mux.HandleFunc("GET /resumes/{id}/render-jobs", s.handleListRenderJobs)
	mux.HandleFunc("GET /resumes/{id}/pdf", s.handleResumePDF)
	mux.HandleFunc("GET /render-jobs/{id}", s.handleGetRenderJob)
	mux.HandleFunc("POST /render-jobs/{id}/cancel", s.handleCancelRenderJob)

	return mux
}

// Start begins listening for requests and blocks until shutdown.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[server] listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[server] serve error: %v", err)
		}
	}()

	<-stop
	log.Println("[server] shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	log.Println("[server] stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)
		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[server] error encoding JSON response: %v", err)
	}
}

// pathID parses the named path segment as a UUID.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// extractClientID extracts the client identifier from the request.
// For now this is the IP from RemoteAddr; a trusted-proxy deployment
// would read X-Forwarded-For instead.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}
	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
