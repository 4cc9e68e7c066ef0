package agents

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tuannvm/jira-story-agent/internal/conversation"
	"github.com/tuannvm/jira-story-agent/internal/jira"
	log "github.com/tuannvm/jira-story-agent/internal/logging"
)

var (
	// ErrEmptyMessage is returned for a blank user message; nothing is recorded
	ErrEmptyMessage = errors.New("message is empty")
	// ErrSessionClosed is returned by Submit after Close
	ErrSessionClosed = errors.New("session is closed")
)

// Session is one conversation with its own turn log and Jira credentials.
// Turns are processed one at a time; credentials may be replaced at any
// moment and take effect on the next action call.
type Session struct {
	id   string
	loop *Loop

	mu     sync.Mutex // serializes turns
	state  *conversation.State
	closed bool

	credMu sync.RWMutex
	creds  jira.Credentials
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithCredentials seeds the session's Jira credentials
func WithCredentials(creds jira.Credentials) SessionOption {
	return func(s *Session) { s.creds = creds }
}

// WithSessionID overrides the generated session ID
func WithSessionID(id string) SessionOption {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// NewSession creates an empty session run by loop
func NewSession(loop *Loop, opts ...SessionOption) *Session {
	s := &Session{
		id:    uuid.NewString(),
		loop:  loop,
		state: conversation.NewState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	log.Debugf("Created session %s", s.id)
	return s
}

// ID returns the session identifier
func (s *Session) ID() string { return s.id }

// Submit runs one user turn and reports everything that happened in it
func (s *Session) Submit(ctx context.Context, text string) (Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return Outcome{}, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Outcome{}, ErrSessionClosed
	}
	return s.loop.run(ctx, s, text)
}

// SubmitUserMessage runs one user turn and returns the reply text
func (s *Session) SubmitUserMessage(ctx context.Context, text string) (string, error) {
	outcome, err := s.Submit(ctx, text)
	if err != nil {
		return "", err
	}
	return outcome.Reply, nil
}

// ConfigureCredentials replaces the Jira credentials used by later action calls.
// Values are stored as given; they are checked when an action runs.
func (s *Session) ConfigureCredentials(endpointURL, identity, secret string) {
	s.credMu.Lock()
	defer s.credMu.Unlock()
	s.creds = jira.Credentials{
		BaseURL:  strings.TrimSpace(endpointURL),
		Username: strings.TrimSpace(identity),
		APIToken: strings.TrimSpace(secret),
	}
	log.Infof("Session %s: Jira credentials configured for %s", s.id, s.creds.BaseURL)
}

// Credentials returns the current Jira credentials
func (s *Session) Credentials() jira.Credentials {
	s.credMu.RLock()
	defer s.credMu.RUnlock()
	return s.creds
}

// History returns a copy of the conversation so far
func (s *Session) History() []conversation.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Turns()
}

// Close waits for a running turn to finish, drops the conversation and the
// credentials, and rejects later turns
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.state = conversation.NewState()

	s.credMu.Lock()
	s.creds = jira.Credentials{}
	s.credMu.Unlock()
	log.Debugf("Closed session %s", s.id)
}
