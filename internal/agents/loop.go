package agents

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"

	"github.com/tuannvm/jira-story-agent/internal/action"
	"github.com/tuannvm/jira-story-agent/internal/conversation"
	"github.com/tuannvm/jira-story-agent/internal/jira"
	"github.com/tuannvm/jira-story-agent/internal/llm"
	log "github.com/tuannvm/jira-story-agent/internal/logging"
	"github.com/tuannvm/jira-story-agent/internal/metrics"
	"github.com/tuannvm/jira-story-agent/internal/models"
)

// DefaultMaxInvocations caps action invocations per user turn
const DefaultMaxInvocations = 5

// Decider chooses the next step of the conversation
type Decider interface {
	Decide(ctx context.Context, turns []conversation.Turn, actions []action.Definition) (llm.Decision, error)
}

// IssueExecutor creates Jira issues from validated arguments
type IssueExecutor interface {
	Execute(ctx context.Context, creds jira.Credentials, args action.IssueArguments) action.Result
}

// Outcome summarizes one user turn
type Outcome struct {
	Reply string
	// Issues created during the turn, in order.
	Issues []models.CreatedIssue
	// Category is set when the turn ended with a diagnostic instead of an
	// answer from the decision backend.
	Category    models.ErrorCategory
	Invocations int
}

// Loop drives one user turn: it asks the decider for the next step, runs at
// most one action per step and feeds each result back until a final answer.
type Loop struct {
	decider        Decider
	executor       IssueExecutor
	actions        []action.Definition
	maxInvocations int
	metrics        *metrics.Agent
}

// LoopOption configures a Loop
type LoopOption func(*Loop)

// WithMaxInvocations caps the action invocations per user turn
func WithMaxInvocations(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.maxInvocations = n
		}
	}
}

// WithMetrics records turn and tool call counters on m
func WithMetrics(m *metrics.Agent) LoopOption {
	return func(l *Loop) { l.metrics = m }
}

// NewLoop creates a Loop offering the create-issue action
func NewLoop(decider Decider, executor IssueExecutor, opts ...LoopOption) *Loop {
	l := &Loop{
		decider:        decider,
		executor:       executor,
		actions:        []action.Definition{action.CreateIssue},
		maxInvocations: DefaultMaxInvocations,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// run processes one user message against the session's state. It returns an
// error when ctx is done before a decision, or if the conversation state
// rejects a turn, which means a bug.
func (l *Loop) run(ctx context.Context, s *Session, text string) (Outcome, error) {
	logger := log.With("session", s.id)

	if err := s.state.Append(conversation.User(text)); err != nil {
		return Outcome{}, fmt.Errorf("failed to record user turn: %w", err)
	}

	var out Outcome
	for {
		decision, err := l.decider.Decide(ctx, s.state.Turns(), l.actions)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				logger.Infof("Turn abandoned: %v", ctxErr)
				l.metrics.RecordTurn(ctx, "abandoned", out.Invocations)
				return out, ctxErr
			}
			category := categoryOf(err)
			logger.Warnf("Ending turn after decision failure (%s): %v", category, err)
			return l.finish(ctx, s, out, conversation.Diagnostic(category, category.UserMessage()))
		}

		if decision.IsFinal() {
			return l.finish(ctx, s, out, conversation.Assistant(decision.Final))
		}

		if out.Invocations >= l.maxInvocations {
			logger.Warnf("Invocation cap of %d reached, ignoring request for %s", l.maxInvocations, decision.Call.Action)
			category := models.IterationBoundExceeded
			return l.finish(ctx, s, out, conversation.Diagnostic(category, category.UserMessage()))
		}
		out.Invocations++

		call := *decision.Call
		if err := s.state.Append(conversation.Invocation(call)); err != nil {
			return out, fmt.Errorf("failed to record invocation: %w", err)
		}

		result := l.invoke(ctx, s, call)
		outcome := "ok"
		if !result.OK() {
			outcome = string(result.Category)
		}
		l.metrics.RecordToolCall(ctx, call.Action, outcome)
		logger.Infof("Action %s (call %s) finished: %s", call.Action, call.ID, outcome)

		if result.Issue != nil && !result.Duplicate {
			out.Issues = append(out.Issues, *result.Issue)
		}

		if err := s.state.Append(conversation.Result(conversation.ToolResult{
			CallID:   call.ID,
			Action:   call.Action,
			Content:  result.Content(),
			Category: result.Category,
		})); err != nil {
			return out, fmt.Errorf("failed to record result: %w", err)
		}
	}
}

// invoke validates and executes one call. It never returns an error: every
// failure becomes a result the decider gets to see.
func (l *Loop) invoke(ctx context.Context, s *Session, call conversation.ToolCall) action.Result {
	args, err := action.ValidateIssue(call.Arguments)
	if err != nil {
		var verr *action.ValidationError
		if errors.As(err, &verr) {
			return action.Invalid(call.Action, verr)
		}
		return action.Failed(call.Action, models.ValidationFailed)
	}

	if prev := completedEarlier(s.state.SinceLastUser(), call); prev != nil {
		log.Infof("Call %s repeats an issue already created this turn, not creating it again", call.ID)
		return action.Result{Action: call.Action, Issue: issueFrom(prev.Content), Duplicate: true}
	}

	return l.executor.Execute(ctx, s.Credentials(), args)
}

func (l *Loop) finish(ctx context.Context, s *Session, out Outcome, reply conversation.Turn) (Outcome, error) {
	if err := s.state.Append(reply); err != nil {
		return out, fmt.Errorf("failed to record reply: %w", err)
	}
	out.Reply = reply.Text
	out.Category = reply.Category

	outcome := "ok"
	if out.Category != "" {
		outcome = string(out.Category)
	}
	l.metrics.RecordTurn(ctx, outcome, out.Invocations)
	return out, nil
}

// completedEarlier finds a successful, non-duplicate result for an identical
// call among turns
func completedEarlier(turns []conversation.Turn, call conversation.ToolCall) *conversation.ToolResult {
	for i := 0; i+1 < len(turns); i++ {
		inv, res := turns[i], turns[i+1]
		if inv.Kind != conversation.KindToolInvocation || res.Kind != conversation.KindToolResult {
			continue
		}
		if inv.Call.Action != call.Action || res.Result.Category != "" {
			continue
		}
		if dup, _ := res.Result.Content["duplicate"].(bool); dup {
			continue
		}
		if reflect.DeepEqual(inv.Call.Arguments, call.Arguments) {
			result := *res.Result
			result.Content = maps.Clone(result.Content)
			return &result
		}
	}
	return nil
}

func issueFrom(content map[string]any) *models.CreatedIssue {
	str := func(key string) string {
		s, _ := content[key].(string)
		return s
	}
	return &models.CreatedIssue{ID: str("id"), Key: str("key"), Link: str("link")}
}

type categorized interface {
	Category() models.ErrorCategory
}

func categoryOf(err error) models.ErrorCategory {
	var c categorized
	if errors.As(err, &c) {
		return c.Category()
	}
	return models.DecisionBackendFailed
}
