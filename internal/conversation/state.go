// Package conversation holds the append-only turn log replayed into every
// decision request.
package conversation

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/tuannvm/jira-story-agent/internal/models"
)

// Kind identifies what a turn records
type Kind string

const (
	KindUser           Kind = "user"
	KindAssistant      Kind = "assistant"
	KindToolInvocation Kind = "tool_invocation"
	KindToolResult     Kind = "tool_result"
)

// ToolCall is the decision backend's request to run an action
type ToolCall struct {
	ID        string
	Action    string
	Arguments map[string]any
}

// ToolResult is the outcome of running a ToolCall
type ToolResult struct {
	CallID   string
	Action   string
	Content  map[string]any
	Category models.ErrorCategory // empty on success
}

// Turn is one entry of the conversation. Exactly one of Text, Call or Result
// is meaningful, depending on Kind.
type Turn struct {
	Kind   Kind
	Text   string
	Call   *ToolCall
	Result *ToolResult
	// Category marks diagnostic assistant turns that ended a loop pass early.
	Category  models.ErrorCategory
	CreatedAt time.Time
}

// User creates a user turn
func User(text string) Turn {
	return Turn{Kind: KindUser, Text: text}
}

// Assistant creates a final assistant reply
func Assistant(text string) Turn {
	return Turn{Kind: KindAssistant, Text: text}
}

// Diagnostic creates an assistant reply that ended a loop pass because of category
func Diagnostic(category models.ErrorCategory, text string) Turn {
	return Turn{Kind: KindAssistant, Text: text, Category: category}
}

// Invocation creates a tool invocation turn
func Invocation(call ToolCall) Turn {
	return Turn{Kind: KindToolInvocation, Call: &call}
}

// Result creates a tool result turn
func Result(result ToolResult) Turn {
	return Turn{Kind: KindToolResult, Result: &result}
}

// Errors returned by Append
var (
	ErrUnansweredInvocation = errors.New("tool invocation must be followed by its result")
	ErrUnexpectedResult     = errors.New("tool result does not answer a pending invocation")
	ErrMalformedTurn        = errors.New("malformed turn")
)

// State is the ordered, append-only turn log of one session. It is not safe
// for concurrent use; the session serializes access.
type State struct {
	turns []Turn
	now   func() time.Time
}

// NewState creates an empty conversation
func NewState() *State {
	return &State{now: time.Now}
}

// Append adds t to the end of the log. It rejects any turn other than the
// matching result while an invocation is pending.
func (s *State) Append(t Turn) error {
	if err := checkShape(t); err != nil {
		return err
	}

	pending := s.Pending()
	switch {
	case pending != nil && t.Kind != KindToolResult:
		return fmt.Errorf("%w: %s (call %s) is pending", ErrUnansweredInvocation, pending.Action, pending.ID)
	case pending == nil && t.Kind == KindToolResult:
		return fmt.Errorf("%w: %s", ErrUnexpectedResult, t.Result.Action)
	case pending != nil && (t.Result.Action != pending.Action || t.Result.CallID != pending.ID):
		return fmt.Errorf("%w: got %s (call %s), pending %s (call %s)", ErrUnexpectedResult,
			t.Result.Action, t.Result.CallID, pending.Action, pending.ID)
	}

	s.turns = append(s.turns, freeze(t, s.now()))
	return nil
}

// Pending returns the invocation awaiting its result, if any
func (s *State) Pending() *ToolCall {
	if len(s.turns) == 0 {
		return nil
	}
	last := s.turns[len(s.turns)-1]
	if last.Kind != KindToolInvocation {
		return nil
	}
	call := *last.Call
	return &call
}

// Turns returns a copy of the log
func (s *State) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	for i, t := range s.turns {
		out[i] = freeze(t, t.CreatedAt)
	}
	return out
}

// Len returns the number of turns
func (s *State) Len() int { return len(s.turns) }

// SinceLastUser returns the turns appended after the most recent user turn
func (s *State) SinceLastUser() []Turn {
	turns := s.Turns()
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Kind == KindUser {
			return turns[i+1:]
		}
	}
	return turns
}

func checkShape(t Turn) error {
	switch t.Kind {
	case KindUser, KindAssistant:
		if t.Call != nil || t.Result != nil {
			return fmt.Errorf("%w: %s turn carries tool data", ErrMalformedTurn, t.Kind)
		}
	case KindToolInvocation:
		if t.Call == nil || t.Call.Action == "" {
			return fmt.Errorf("%w: invocation without action", ErrMalformedTurn)
		}
	case KindToolResult:
		if t.Result == nil || t.Result.Action == "" {
			return fmt.Errorf("%w: result without action", ErrMalformedTurn)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrMalformedTurn, t.Kind)
	}
	return nil
}

// freeze copies the tool payloads so no caller can mutate a stored turn
func freeze(t Turn, at time.Time) Turn {
	t.CreatedAt = at
	if t.Call != nil {
		call := *t.Call
		call.Arguments = maps.Clone(call.Arguments)
		t.Call = &call
	}
	if t.Result != nil {
		result := *t.Result
		result.Content = maps.Clone(result.Content)
		t.Result = &result
	}
	return t
}
