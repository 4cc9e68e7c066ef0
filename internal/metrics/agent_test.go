package metrics

import (
	"context"
	"testing"
)

func TestAgentRecords(t *testing.T) {
	ctx := context.Background()

	// without a MeterProvider the global meter is a no-op
	m := NewAgent()
	m.RecordDecision(ctx, "gpt-4o", "final")
	m.RecordToolCall(ctx, "create_jira_issue", "ok")
	m.RecordTurn(ctx, "ok", 1)

	var disabled *Agent
	disabled.RecordDecision(ctx, "gpt-4o", "error")
	disabled.RecordToolCall(ctx, "create_jira_issue", "backend_rejected")
	disabled.RecordTurn(ctx, "protocol_error", 0)
}
