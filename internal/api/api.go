// Package api implements the HTTP and WebSocket API for adaptsim.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sprite-ai/adaptsim/internal/review"
	"github.com/sprite-ai/adaptsim/internal/session"
)

// Server is the adaptsim HTTP API server.
type Server struct {
	addr     string
	mux      *http.ServeMux
	server   *http.Server
	sessions *session.Service
	logger   *zap.Logger
}

// New creates a new API server. A nil logger discards output.
func New(addr string, sessions *session.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{addr: addr, sessions: sessions, logger: logger}
	s.mux = http.NewServeMux()
	s.registerRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.logRequests(s.mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/domains", s.handleDomains)
	s.mux.HandleFunc("GET /api/adapters/{domain}", s.handleAdapter)
	s.mux.HandleFunc("GET /api/audit", s.handleAudit)

	s.mux.HandleFunc("POST /api/reviews", s.handleCreateReview)
	s.mux.HandleFunc("GET /api/reviews", s.handleListReviews)
	s.mux.HandleFunc("GET /api/reviews/{id}", s.handleGetReview)
	s.mux.HandleFunc("DELETE /api/reviews/{id}", s.handleDeleteReview)
	s.mux.HandleFunc("POST /api/reviews/{id}/comments", s.handleComments)
	s.mux.HandleFunc("POST /api/reviews/{id}/responses", s.handleResponse)
	s.mux.HandleFunc("POST /api/reviews/{id}/tests", s.handleTestRun)
	s.mux.HandleFunc("POST /api/reviews/{id}/submission", s.handleSubmission)
	s.mux.HandleFunc("POST /api/reviews/{id}/rereview", s.handleReReview)
	s.mux.HandleFunc("POST /api/reviews/{id}/approve", s.handleApprove)
	s.mux.HandleFunc("POST /api/reviews/{id}/merge", s.handleMerge)
	s.mux.HandleFunc("POST /api/reviews/{id}/threads/{tid}/{action}", s.handleThreadAction)

	s.mux.HandleFunc("GET /api/ws", s.handleWebSocket)
}

// ListenAndServe starts the HTTP server and shuts it down when ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("adaptsim API server listening", zap.String("addr", s.addr))
		errc <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down API server")
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Hijack hands the connection to the WebSocket upgrader.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)))
	})
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.logger.Warn("json encode error", zap.Error(err))
	}
}

type errorResponse struct {
	Error   string        `json:"error"`
	Reason  review.Reason `json:"reason,omitempty"`
	Message string        `json:"message,omitempty"`
	Version int           `json:"version,omitempty"`
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// writeFailure maps a domain error to its status code.
func (s *Server) writeFailure(w http.ResponseWriter, err error, current *session.Session) {
	if r, ok := review.AsRejection(err); ok {
		resp := errorResponse{Error: "rejected", Reason: r.Reason, Message: r.Message}
		if current != nil {
			resp.Version = current.Version
		}
		s.writeJSON(w, statusForReason(r.Reason), resp)
		return
	}
	switch {
	case errors.Is(err, session.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrConflict):
		resp := errorResponse{Error: "version conflict", Message: err.Error()}
		if current != nil {
			resp.Version = current.Version
		}
		s.writeJSON(w, http.StatusPreconditionFailed, resp)
	case errors.Is(err, session.ErrInvalidDiff):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

var statusByReason = map[review.Reason]int{
	review.ReasonUnknownThread:  http.StatusNotFound,
	review.ReasonEmptyResponse:  http.StatusUnprocessableEntity,
	review.ReasonInvalidComment: http.StatusUnprocessableEntity,
}

// statusForReason returns 409 for every rejected transition except those
// caused by a malformed or dangling request.
func statusForReason(r review.Reason) int {
	if s, ok := statusByReason[r]; ok {
		return s
	}
	return http.StatusConflict
}

// readJSON decodes a JSON request body into v.
func readJSON(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return fmt.Errorf("empty request body")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
