// Package session keeps live review sessions in memory and serializes the
// transitions applied to each of them.
package session

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sprite-ai/adaptsim/internal/model"
	"github.com/sprite-ai/adaptsim/internal/review"
)

var (
	// ErrNotFound is returned for an unknown or deleted session.
	ErrNotFound = errors.New("session not found")
	// ErrConflict is returned when the caller's version is stale.
	ErrConflict = errors.New("session version conflict")
)

// Transition is one review lifecycle step.
type Transition func(review.State) (review.State, error)

// Session is a snapshot of a stored review session.
type Session struct {
	ID        string         `json:"id"`
	Role      model.Role     `json:"role"`
	Level     model.Level    `json:"level"`
	Anchors   []model.Anchor `json:"anchors,omitempty"`
	Version   int            `json:"version"`
	State     review.State   `json:"state"`
	CreatedAt time.Time      `json:"created_at"`
}

type entry struct {
	mu      sync.Mutex
	sess    Session
	deleted bool
}

// Store holds sessions by ID. It is safe for concurrent use; transitions on
// the same session run one at a time, transitions on different sessions run
// in parallel.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	logger  *zap.Logger
}

// NewStore returns an empty store. A nil logger discards output.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		entries: make(map[string]*entry),
		logger:  logger,
	}
}

// Create stores a new session at version 1. The session ID is the review ID.
func (s *Store) Create(role model.Role, level model.Level, anchors []model.Anchor, st review.State) (Session, error) {
	if st.ID == "" {
		return Session{}, fmt.Errorf("creating session: review state has no id")
	}
	sess := Session{
		ID:        st.ID,
		Role:      role,
		Level:     level,
		Anchors:   slices.Clone(anchors),
		Version:   1,
		State:     st.Clone(),
		CreatedAt: st.CreatedAt,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[sess.ID]; ok {
		return Session{}, fmt.Errorf("creating session %s: already exists", sess.ID)
	}
	s.entries[sess.ID] = &entry{sess: sess}
	s.logger.Debug("session created",
		zap.String("session", sess.ID),
		zap.String("role", string(role)),
		zap.String("level", string(level)),
		zap.String("status", string(st.Status)))
	return sess.clone(), nil
}

// Get returns a snapshot of the session.
func (s *Store) Get(id string) (Session, error) {
	e, err := s.entry(id)
	if err != nil {
		return Session{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.sess.clone(), nil
}

// List returns every session, oldest first.
func (s *Store) List() []Session {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]Session, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.deleted {
			out = append(out, e.sess.clone())
		}
		e.mu.Unlock()
	}
	slices.SortFunc(out, func(a, b Session) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out
}

// Delete removes the session. A transition already holding it finishes
// first.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	e, ok := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.mu.Lock()
	e.deleted = true
	e.mu.Unlock()
	s.logger.Debug("session deleted", zap.String("session", id))
	return nil
}

// Apply runs fn against the session's current state. expectVersion guards
// against lost updates; pass -1 to skip the check. A rejected transition
// leaves the state and version untouched and returns the rejection together
// with the unchanged snapshot.
func (s *Store) Apply(id string, expectVersion int, fn Transition) (Session, error) {
	e, err := s.entry(id)
	if err != nil {
		return Session{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if expectVersion >= 0 && expectVersion != e.sess.Version {
		return e.sess.clone(), fmt.Errorf("%w: have version %d, got %d", ErrConflict, e.sess.Version, expectVersion)
	}

	next, err := fn(e.sess.State)
	if err != nil {
		if r, ok := review.AsRejection(err); ok {
			s.logger.Info("transition rejected",
				zap.String("session", id),
				zap.String("reason", string(r.Reason)),
				zap.String("status", string(e.sess.State.Status)))
		}
		return e.sess.clone(), err
	}

	e.sess.State = next
	e.sess.Version++
	s.logger.Debug("transition applied",
		zap.String("session", id),
		zap.Int("version", e.sess.Version),
		zap.String("status", string(next.Status)))
	return e.sess.clone(), nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) entry(id string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

func (sess Session) clone() Session {
	sess.State = sess.State.Clone()
	sess.Anchors = slices.Clone(sess.Anchors)
	return sess
}
