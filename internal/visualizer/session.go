package visualizer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/nfrund/netspy/internal/topics"
)

var (
	ErrTypeUnknown      = errors.New("type is not discovered")
	ErrActivationFailed = errors.New("visualizer activation failed")
	ErrSessionBusy      = errors.New("a topic is already being printed")
)

// State of a Session.
type State int

const (
	StateIdle State = iota
	StateActive
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session gates the visualizer so that at most one topic is printed at a
// time. It is owned by a single goroutine and is not safe for concurrent use.
type Session struct {
	vis    Visualizer
	state  State
	active string
	logger *slog.Logger
}

// NewSession creates an idle session over vis.
func NewSession(vis Visualizer, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{vis: vis, logger: logger.With("component", "session")}
}

// Activate starts printing d. The session must be idle and the type of d
// must have been discovered.
func (s *Session) Activate(d topics.Descriptor) error {
	if s.state == StateActive {
		return fmt.Errorf("%w: %s", ErrSessionBusy, s.active)
	}
	if !s.vis.TypeDiscovered(d) {
		return fmt.Errorf("%w: %s", ErrTypeUnknown, d.TypeName)
	}
	if !s.vis.Activate(d) {
		return fmt.Errorf("%w: %s", ErrActivationFailed, d.Name)
	}

	s.state = StateActive
	s.active = d.Name
	s.logger.Debug("Session activated", "topic", d.Name)
	return nil
}

// Deactivate stops printing. It does nothing when idle.
func (s *Session) Deactivate() {
	if s.state == StateIdle {
		return
	}
	s.vis.Deactivate()
	s.logger.Debug("Session deactivated", "topic", s.active)
	s.state = StateIdle
	s.active = ""
}

// State returns whether a topic is being printed.
func (s *Session) State() State {
	return s.state
}

// Active returns the topic being printed, if any.
func (s *Session) Active() (string, bool) {
	return s.active, s.state == StateActive
}
