package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	log "github.com/tuannvm/jira-story-agent/internal/logging"
)

// MeterName is the instrumentation scope of all agent metrics
const MeterName = "github.com/tuannvm/jira-story-agent"

// Agent records counters for the conversational loop. Counters fall back to
// no-ops if they cannot be created, and nothing is exported unless the host
// installs a global MeterProvider.
type Agent struct {
	decisions metric.Int64Counter
	toolCalls metric.Int64Counter
	turns     metric.Int64Counter
}

// NewAgent creates the agent counters on the global meter provider
func NewAgent() *Agent {
	meter := otel.Meter(MeterName, metric.WithInstrumentationVersion("1.0.0"))

	decisions, err := meter.Int64Counter("agent.decisions",
		metric.WithDescription("Decisions returned by the decision backend"),
		metric.WithUnit("{decisions}"))
	if err != nil {
		log.Warnf("Failed to create decisions counter, metric disabled: %v", err)
		decisions = noop.Int64Counter{}
	}

	toolCalls, err := meter.Int64Counter("agent.tool.calls",
		metric.WithDescription("Action invocations by outcome"),
		metric.WithUnit("{calls}"))
	if err != nil {
		log.Warnf("Failed to create tool call counter, metric disabled: %v", err)
		toolCalls = noop.Int64Counter{}
	}

	turns, err := meter.Int64Counter("agent.turns",
		metric.WithDescription("Completed user turns by outcome"),
		metric.WithUnit("{turns}"))
	if err != nil {
		log.Warnf("Failed to create turns counter, metric disabled: %v", err)
		turns = noop.Int64Counter{}
	}

	return &Agent{decisions: decisions, toolCalls: toolCalls, turns: turns}
}

// RecordDecision counts one decision of the given kind ("final", "invocation", "error")
func (m *Agent) RecordDecision(ctx context.Context, model, kind string) {
	if m == nil {
		return
	}
	m.decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("kind", kind),
	))
}

// RecordToolCall counts one action invocation; outcome is "ok" or an error category
func (m *Agent) RecordToolCall(ctx context.Context, action, outcome string) {
	if m == nil {
		return
	}
	m.toolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", action),
		attribute.String("outcome", outcome),
	))
}

// RecordTurn counts one finished user turn; outcome is "ok" or an error category
func (m *Agent) RecordTurn(ctx context.Context, outcome string, invocations int) {
	if m == nil {
		return
	}
	m.turns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.Int("invocations", invocations),
	))
}
