package session

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"

	"github.com/sprite-ai/adaptsim/internal/adapter"
	"github.com/sprite-ai/adaptsim/internal/diff"
	"github.com/sprite-ai/adaptsim/internal/model"
	"github.com/sprite-ai/adaptsim/internal/review"
)

// ErrInvalidDiff wraps a submission that could not be parsed.
var ErrInvalidDiff = errors.New("invalid diff")

// StartRequest opens a review session.
type StartRequest struct {
	Role  string
	Level string
	// Diff is the learner's submission as a unified diff. Reviewer
	// threads are anchored to its hunks when present.
	Diff string
	// Seed fixes the drafted comments. Nil uses the service seed.
	Seed *uint64
}

// Service opens review sessions: it composes the execution adapter for the
// learner, drafts the first reviewer round and stores the result.
type Service struct {
	adapters   *adapter.Service
	lifecycle  *review.Lifecycle
	store      *Store
	logger     *zap.Logger
	seed       uint64
	maxAnchors int
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithSeed makes every session drafted from the same seed. Zero, the
// default, draws a fresh seed per session.
func WithSeed(seed uint64) ServiceOption {
	return func(s *Service) { s.seed = seed }
}

// WithMaxAnchors bounds how many diff hunks the reviewers comment on.
func WithMaxAnchors(n int) ServiceOption {
	return func(s *Service) { s.maxAnchors = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// NewService wires the pieces a session needs.
func NewService(adapters *adapter.Service, lc *review.Lifecycle, store *Store, opts ...ServiceOption) *Service {
	s := &Service{
		adapters:   adapters,
		lifecycle:  lc,
		store:      store,
		logger:     zap.NewNop(),
		maxAnchors: 8,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Lifecycle returns the transition functions sessions are driven with.
func (s *Service) Lifecycle() *review.Lifecycle { return s.lifecycle }

// Store returns the session store.
func (s *Service) Store() *Store { return s.store }

// Adapters returns the adapter service.
func (s *Service) Adapters() *adapter.Service { return s.adapters }

// Start composes the learner's review config, drafts and records the first
// reviewer round and stores the session. A role without code review is
// rejected with review_disabled.
func (s *Service) Start(req StartRequest) (Session, error) {
	ex, err := s.adapters.Execution(req.Role, req.Level)
	if err != nil {
		return Session{}, fmt.Errorf("composing execution adapter: %w", err)
	}
	sel, _ := adapter.Resolve(req.Role, req.Level, "")

	var anchors []model.Anchor
	if strings.TrimSpace(req.Diff) != "" {
		sub, err := diff.Parse(req.Diff)
		if err != nil {
			return Session{}, fmt.Errorf("%w: %v", ErrInvalidDiff, err)
		}
		anchors = sub.Anchors(diff.DefaultSnippetRadius, s.maxAnchors)
	}

	seed := s.seed
	if req.Seed != nil {
		seed = *req.Seed
	}
	if seed == 0 {
		seed = rand.Uint64()
	}

	cfg := ex.PRReview
	st := s.lifecycle.Init(cfg)
	comments := review.NewDrafter(seed).Draft(cfg, anchors)
	st, err = s.lifecycle.RecordReviewerComments(st, comments)
	if err != nil {
		return Session{}, err
	}

	sess, err := s.store.Create(sel.Role, sel.Level, anchors, st)
	if err != nil {
		return Session{}, err
	}
	s.logger.Info("review session started",
		zap.String("session", sess.ID),
		zap.String("role", string(sel.Role)),
		zap.String("level", string(sel.Level)),
		zap.Uint64("seed", seed),
		zap.Int("threads", len(st.Threads)),
		zap.Int("anchors", len(anchors)),
		zap.String("status", string(st.Status)))
	return sess, nil
}
