package api

import (
	"errors"
	"net/http"

	"github.com/sprite-ai/adaptsim/internal/review"
	"github.com/sprite-ai/adaptsim/internal/session"
)

// --- Review sessions ---

type createReviewRequest struct {
	Role  string  `json:"role"`
	Level string  `json:"level"`
	Diff  string  `json:"diff,omitempty"`
	Seed  *uint64 `json:"seed,omitempty"`
}

// versioned is embedded in every mutating request. A missing version skips
// the optimistic concurrency check.
type versioned struct {
	Version *int `json:"version,omitempty"`
}

func (v versioned) expect() int {
	if v.Version == nil {
		return -1
	}
	return *v.Version
}

type commentsRequest struct {
	versioned
	Comments []review.Comment `json:"comments"`
}

type responseRequest struct {
	versioned
	ThreadID string `json:"thread_id"`
	Response string `json:"response"`
}

type testRunRequest struct {
	versioned
	Passed bool `json:"passed"`
}

type submissionRequest struct {
	versioned
	Ref string `json:"ref"`
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	sess, err := s.sessions.Start(session.StartRequest{
		Role:  req.Role,
		Level: req.Level,
		Diff:  req.Diff,
		Seed:  req.Seed,
	})
	if err != nil {
		s.writeFailure(w, err, nil)
		return
	}
	s.writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	list := s.sessions.Store().List()
	if list == nil {
		list = []session.Session{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Store().Get(r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Store().Delete(r.PathValue("id")); err != nil {
		s.writeFailure(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request) {
	var req commentsRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	lc := s.sessions.Lifecycle()
	s.apply(w, r, req.expect(), func(st review.State) (review.State, error) {
		return lc.RecordReviewerComments(st, req.Comments)
	})
}

func (s *Server) handleResponse(w http.ResponseWriter, r *http.Request) {
	var req responseRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	lc := s.sessions.Lifecycle()
	s.apply(w, r, req.expect(), func(st review.State) (review.State, error) {
		return lc.RecordUserResponse(st, req.ThreadID, req.Response)
	})
}

func (s *Server) handleTestRun(w http.ResponseWriter, r *http.Request) {
	var req testRunRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	lc := s.sessions.Lifecycle()
	s.apply(w, r, req.expect(), func(st review.State) (review.State, error) {
		return lc.RecordTestRun(st, req.Passed)
	})
}

func (s *Server) handleSubmission(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	lc := s.sessions.Lifecycle()
	s.apply(w, r, req.expect(), func(st review.State) (review.State, error) {
		return lc.AttachSubmission(st, req.Ref)
	})
}

func (s *Server) handleReReview(w http.ResponseWriter, r *http.Request) {
	s.simple(w, r, s.sessions.Lifecycle().RequestReReview)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.simple(w, r, s.sessions.Lifecycle().Approve)
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	s.simple(w, r, s.sessions.Lifecycle().Merge)
}

func (s *Server) handleThreadAction(w http.ResponseWriter, r *http.Request) {
	tid := r.PathValue("tid")
	lc := s.sessions.Lifecycle()

	var fn func(review.State, string) (review.State, error)
	switch r.PathValue("action") {
	case "resolve":
		fn = lc.ResolveThread
	case "reopen":
		fn = lc.ReopenThread
	case "dismiss":
		fn = lc.DismissThread
	default:
		s.writeError(w, http.StatusNotFound, "unknown thread action: "+r.PathValue("action"))
		return
	}

	s.simple(w, r, func(st review.State) (review.State, error) {
		return fn(st, tid)
	})
}

// simple runs a transition whose only input is an optional version.
func (s *Server) simple(w http.ResponseWriter, r *http.Request, fn session.Transition) {
	var req versioned
	if r.Body != nil && r.Body != http.NoBody && r.ContentLength != 0 {
		if err := readJSON(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
			return
		}
	}
	s.apply(w, r, req.expect(), fn)
}

// apply runs fn against the session named in the path and writes the new
// snapshot, or the failure together with the current version.
func (s *Server) apply(w http.ResponseWriter, r *http.Request, version int, fn session.Transition) {
	sess, err := s.sessions.Store().Apply(r.PathValue("id"), version, fn)
	if err != nil {
		var cur *session.Session
		if !errors.Is(err, session.ErrNotFound) {
			cur = &sess
		}
		s.writeFailure(w, err, cur)
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}
