package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"

	"github.com/tuannvm/jira-story-agent/internal/action"
	"github.com/tuannvm/jira-story-agent/internal/conversation"
	log "github.com/tuannvm/jira-story-agent/internal/logging"
	"github.com/tuannvm/jira-story-agent/internal/metrics"
	"github.com/tuannvm/jira-story-agent/internal/models"
)

// Decision is the next step chosen by the decision backend: either a final
// answer or a single action invocation.
type Decision struct {
	Final string
	Call  *conversation.ToolCall
}

// IsFinal reports whether the decision is a final answer
func (d Decision) IsFinal() bool { return d.Call == nil }

// ProtocolError is returned when the backend's reply cannot be acted on
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return "protocol error: " + e.Reason }

// Category always returns models.ProtocolError
func (e *ProtocolError) Category() models.ErrorCategory { return models.ProtocolError }

func protocolErrorf(format string, args ...interface{}) error {
	return &ProtocolError{Reason: fmt.Sprintf(format, args...)}
}

// BackendError is returned when the decision backend call itself fails
type BackendError struct {
	Err error
}

func (e *BackendError) Error() string { return fmt.Sprintf("decision backend failed: %v", e.Err) }

func (e *BackendError) Unwrap() error { return e.Err }

// Category always returns models.DecisionBackendFailed
func (e *BackendError) Category() models.ErrorCategory { return models.DecisionBackendFailed }

// Decider turns the conversation so far into the next Decision using a
// tool-calling language model
type Decider struct {
	model        llms.Model
	modelName    string
	systemPrompt string
	maxTokens    int
	temperature  float64
	timeout      time.Duration
	metrics      *metrics.Agent
}

// Option configures a Decider
type Option func(*Decider)

// WithSystemPrompt replaces the default system prompt
func WithSystemPrompt(prompt string) Option {
	return func(d *Decider) { d.systemPrompt = prompt }
}

// WithModelName sets the model name reported in logs and metrics
func WithModelName(name string) Option {
	return func(d *Decider) { d.modelName = name }
}

// WithMaxTokens caps the length of each reply
func WithMaxTokens(n int) Option {
	return func(d *Decider) { d.maxTokens = n }
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float64) Option {
	return func(d *Decider) { d.temperature = t }
}

// WithTimeout bounds each backend call
func WithTimeout(timeout time.Duration) Option {
	return func(d *Decider) { d.timeout = timeout }
}

// WithMetrics records decisions on m
func WithMetrics(m *metrics.Agent) Option {
	return func(d *Decider) { d.metrics = m }
}

// NewDecider creates a Decider backed by model
func NewDecider(model llms.Model, opts ...Option) *Decider {
	d := &Decider{
		model:        model,
		modelName:    "unknown",
		systemPrompt: SystemPrompt,
		maxTokens:    4000,
		temperature:  0.5,
		timeout:      60 * time.Second,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decide replays the full conversation and the available actions to the
// backend and parses its reply
func (d *Decider) Decide(ctx context.Context, turns []conversation.Turn, actions []action.Definition) (Decision, error) {
	messages, err := d.messages(turns)
	if err != nil {
		return Decision{}, err
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	log.Debugf("Requesting decision from %s with %d messages and %d tools", d.modelName, len(messages), len(actions))
	resp, err := d.model.GenerateContent(ctx, messages,
		llms.WithTools(tools(actions)),
		llms.WithMaxTokens(d.maxTokens),
		llms.WithTemperature(d.temperature),
	)
	if err != nil {
		d.metrics.RecordDecision(ctx, d.modelName, "error")
		return Decision{}, &BackendError{Err: err}
	}

	decision, err := parse(resp, actions)
	if err != nil {
		d.metrics.RecordDecision(ctx, d.modelName, "error")
		return Decision{}, err
	}

	if decision.IsFinal() {
		d.metrics.RecordDecision(ctx, d.modelName, "final")
		log.Debugf("Received final answer: %s", truncateForLogging(decision.Final))
	} else {
		d.metrics.RecordDecision(ctx, d.modelName, "invocation")
		log.Debugf("Received invocation of %s (call %s)", decision.Call.Action, decision.Call.ID)
	}
	return decision, nil
}

// messages converts the turn log into the provider-neutral message list
func (d *Decider) messages(turns []conversation.Turn) ([]llms.MessageContent, error) {
	messages := make([]llms.MessageContent, 0, len(turns)+1)
	if d.systemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, d.systemPrompt))
	}

	for _, turn := range turns {
		switch turn.Kind {
		case conversation.KindUser:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, turn.Text))
		case conversation.KindAssistant:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeAI, turn.Text))
		case conversation.KindToolInvocation:
			args, err := json.Marshal(nonNil(turn.Call.Arguments))
			if err != nil {
				return nil, fmt.Errorf("failed to marshal arguments of call %s: %w", turn.Call.ID, err)
			}
			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeAI,
				Parts: []llms.ContentPart{llms.ToolCall{
					ID:   turn.Call.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      turn.Call.Action,
						Arguments: string(args),
					},
				}},
			})
		case conversation.KindToolResult:
			content, err := json.Marshal(nonNil(turn.Result.Content))
			if err != nil {
				return nil, fmt.Errorf("failed to marshal result of call %s: %w", turn.Result.CallID, err)
			}
			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: turn.Result.CallID,
					Name:       turn.Result.Action,
					Content:    string(content),
				}},
			})
		default:
			return nil, fmt.Errorf("unknown turn kind %q", turn.Kind)
		}
	}
	return messages, nil
}

func tools(actions []action.Definition) []llms.Tool {
	out := make([]llms.Tool, 0, len(actions))
	for _, a := range actions {
		out = append(out, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        a.Name,
				Description: a.Description,
				Parameters:  a.Schema(),
			},
		})
	}
	return out
}

func parse(resp *llms.ContentResponse, actions []action.Definition) (Decision, error) {
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return Decision{}, protocolErrorf("reply contains no choices")
	}
	choice := resp.Choices[0]

	if len(choice.ToolCalls) > 0 {
		if len(choice.ToolCalls) > 1 {
			log.Warnf("Decision backend requested %d tool calls; only the first is executed", len(choice.ToolCalls))
		}
		tc := choice.ToolCalls[0]
		if tc.FunctionCall == nil {
			return Decision{}, protocolErrorf("tool call %s has no function", tc.ID)
		}
		return invocation(tc.ID, tc.FunctionCall.Name, tc.FunctionCall.Arguments, actions)
	}
	if choice.FuncCall != nil {
		return invocation("", choice.FuncCall.Name, choice.FuncCall.Arguments, actions)
	}

	if strings.TrimSpace(choice.Content) == "" {
		return Decision{}, protocolErrorf("reply is empty")
	}
	return Decision{Final: choice.Content}, nil
}

func invocation(id, name, rawArgs string, actions []action.Definition) (Decision, error) {
	if !known(name, actions) {
		return Decision{}, protocolErrorf("unknown action %q", name)
	}

	args := map[string]any{}
	if strings.TrimSpace(rawArgs) != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return Decision{}, protocolErrorf("arguments of %s are not a JSON object: %v", name, err)
		}
	}
	if args == nil {
		args = map[string]any{}
	}

	if id == "" {
		id = "call_" + uuid.NewString()
	}
	return Decision{Call: &conversation.ToolCall{ID: id, Action: name, Arguments: args}}, nil
}

func known(name string, actions []action.Definition) bool {
	for _, a := range actions {
		if a.Name == name {
			return true
		}
	}
	return false
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
