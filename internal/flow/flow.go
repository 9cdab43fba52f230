// Package flow tracks where each user is in the pick-upload-analyse cycle.
package flow

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// State is a step in the analysis flow.
type State string

const (
	StateIdle          State = "idle"
	StateImageSelected State = "image_selected"
	StateAnalyzing     State = "analyzing"
	StateResultReady   State = "result_ready"
	StateFailed        State = "failed"
)

var (
	ErrInvalidTransition = errors.New("invalid flow transition")
	ErrBusy              = errors.New("an analysis is already in progress")
	ErrNoUsername        = errors.New("username is required")
)

// transitions lists the allowed next states for each state.
var transitions = map[State][]State{
	StateIdle:          {StateImageSelected},
	StateImageSelected: {StateImageSelected, StateAnalyzing},
	StateAnalyzing:     {StateResultReady, StateFailed},
	StateResultReady:   {StateImageSelected},
	StateFailed:        {StateImageSelected},
}

// CanTransition reports whether from -> to is allowed. Reset to idle is
// always allowed.
func CanTransition(from, to State) bool {
	if to == StateIdle {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Snapshot is a read-only copy of a session.
type Snapshot struct {
	Username   string    `json:"username"`
	State      State     `json:"state"`
	Image      string    `json:"image,omitempty"`
	AnalysisID string    `json:"analysis_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Session is one user's flow. It is safe for concurrent use.
type Session struct {
	mu   sync.Mutex
	snap Snapshot
	now  func() time.Time
}

// NewSession starts a session in the idle state.
func NewSession(username string) *Session {
	s := &Session{now: time.Now}
	s.snap = Snapshot{Username: username, State: StateIdle, UpdatedAt: s.now()}
	return s
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// State returns the current state.
func (s *Session) State() State {
	return s.Snapshot().State
}

func (s *Session) move(to State, mutate func(*Snapshot)) error {
	if !CanTransition(s.snap.State, to) {
		if s.snap.State == StateAnalyzing {
			return ErrBusy
		}
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.snap.State, to)
	}
	s.snap.State = to
	if mutate != nil {
		mutate(&s.snap)
	}
	s.snap.UpdatedAt = s.now()
	return nil
}

// SelectImage records a newly picked image and clears any previous result.
func (s *Session) SelectImage(image string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.move(StateImageSelected, func(snap *Snapshot) {
		snap.Image = image
		snap.AnalysisID = ""
		snap.Reason = ""
	})
}

// Begin starts the analysis of the selected image.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(s.snap.Username) == "" {
		return ErrNoUsername
	}
	return s.move(StateAnalyzing, nil)
}

// Start selects image and begins its analysis in one step, so a concurrent
// caller cannot swap the image between the two.
func (s *Session) Start(image string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(s.snap.Username) == "" {
		return ErrNoUsername
	}
	prev := s.snap
	if err := s.move(StateImageSelected, func(snap *Snapshot) {
		snap.Image = image
		snap.AnalysisID = ""
		snap.Reason = ""
	}); err != nil {
		return err
	}
	if err := s.move(StateAnalyzing, nil); err != nil {
		s.snap = prev
		return err
	}
	return nil
}

// Complete records the stored analysis.
func (s *Session) Complete(analysisID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.move(StateResultReady, func(snap *Snapshot) {
		snap.AnalysisID = analysisID
	})
}

// Fail records why the analysis did not produce a result.
func (s *Session) Fail(reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.move(StateFailed, func(snap *Snapshot) {
		snap.Reason = reason
	})
}

// Reset returns the session to idle.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Snapshot{Username: s.snap.Username, State: StateIdle, UpdatedAt: s.now()}
}

// Registry holds one session per username.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Session returns the user's session, creating it on first use.
func (r *Registry) Session(username string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[username]
	if !ok {
		s = NewSession(username)
		r.sessions[username] = s
	}
	return s
}

// Lookup returns the user's session if one exists.
func (r *Registry) Lookup(username string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[username]
	return s, ok
}

// Forget drops the user's session.
func (r *Registry) Forget(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, username)
}
