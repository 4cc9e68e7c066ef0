package common

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"trpc.group/trpc-go/trpc-a2a-go/client"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"

	"github.com/tuannvm/jira-story-agent/internal/config"
	log "github.com/tuannvm/jira-story-agent/internal/logging"
)

// SetupA2AClient creates and configures an A2A client with appropriate
// authentication. opts are applied after the auth option.
func SetupA2AClient(cfg *config.Config, targetURL string, opts ...client.Option) (*client.A2AClient, error) {
	var clientOpts []client.Option

	switch cfg.AuthType {
	case AuthJWT:
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("auth type %s requires a JWT secret", AuthJWT)
		}
		log.Infof("Using JWT authentication for A2A client")
		clientOpts = append(clientOpts, client.WithJWTAuth([]byte(cfg.JWTSecret), "", "", jwtLifetime))
	case AuthAPIKey:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("auth type %s requires an API key", AuthAPIKey)
		}
		log.Debugf("Using API key authentication for A2A client (API key length: %d)", len(cfg.APIKey))
		clientOpts = append(clientOpts, client.WithAPIKeyAuth(cfg.APIKey, APIKeyHeader))
	default:
		log.Warnf("No authentication configured for A2A client")
	}

	a2aClient, err := client.NewA2AClient(targetURL, append(clientOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create A2A client: %w", err)
	}
	return a2aClient, nil
}

// Reply is what the agent answered to one message
type Reply struct {
	TaskID string
	Text   string
	// Links of the issues created while answering, keyed by issue key.
	Issues map[string]string
}

// SendMessage synchronously sends text as a new task and returns the agent's reply
func SendMessage(ctx context.Context, a2aClient *client.A2AClient, text string) (*Reply, error) {
	params := protocol.SendTaskParams{
		ID: uuid.NewString(),
		Message: protocol.Message{
			Parts: []protocol.Part{protocol.NewTextPart(text)},
		},
	}

	task, err := a2aClient.SendTasks(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("SendTasks RPC failed: %w", err)
	}
	return ReplyFromTask(task)
}

// ReplyFromTask reads the reply text and issue artifacts of a finished task
func ReplyFromTask(task *protocol.Task) (*Reply, error) {
	if task == nil {
		return nil, fmt.Errorf("no task returned")
	}
	if task.Status.State != protocol.TaskState("completed") {
		return nil, fmt.Errorf("task %s ended in state %s", task.ID, task.Status.State)
	}
	if task.Status.Message == nil {
		return nil, fmt.Errorf("task %s completed without a reply", task.ID)
	}

	text, err := ExtractText(*task.Status.Message)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", task.ID, err)
	}

	reply := &Reply{TaskID: task.ID, Text: text, Issues: map[string]string{}}
	for _, artifact := range task.Artifacts {
		if artifact.Name == nil {
			continue
		}
		if link, ok := GetStringValue(artifact.Metadata, "url"); ok {
			reply.Issues[*artifact.Name] = link
		}
	}
	return reply, nil
}
