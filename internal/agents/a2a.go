package agents

import (
	"context"
	"fmt"

	"trpc.group/trpc-go/trpc-a2a-go/protocol"
	"trpc.group/trpc-go/trpc-a2a-go/server"
	"trpc.group/trpc-go/trpc-a2a-go/taskmanager"

	"github.com/tuannvm/jira-story-agent/internal/common"
	"github.com/tuannvm/jira-story-agent/internal/config"
	log "github.com/tuannvm/jira-story-agent/internal/logging"
)

// StoryAgent implements the TaskProcessor interface from trpc-a2a-go on top
// of one Session
type StoryAgent struct {
	config  *config.Config
	session *Session
}

// NewStoryAgent creates a StoryAgent serving session
func NewStoryAgent(cfg *config.Config, session *Session) *StoryAgent {
	return &StoryAgent{config: cfg, session: session}
}

// Skills advertised on the agent card
func (a *StoryAgent) Skills() []server.AgentSkill {
	return []server.AgentSkill{
		{
			ID:          "functional-documentation",
			Name:        "Functional documentation",
			Description: common.StringPtr("Writes epics and BDD stories from your guidance and files them in Jira on request"),
			Examples: []string{
				"Write an epic for self-service password reset",
				"Create the login story in Jira project DEMO as a Story",
			},
		},
	}
}

// Process implements the TaskProcessor interface from trpc-a2a-go
func (a *StoryAgent) Process(ctx context.Context, taskID string, message protocol.Message, handle taskmanager.TaskHandle) error {
	log.Infof("Received task with ID: %s", taskID)

	text, err := common.ExtractText(message)
	if err != nil {
		log.Warnf("Task %s carries no text: %v", taskID, err)
		return fmt.Errorf("failed to extract message text: %w", err)
	}

	if err := handle.UpdateStatus(protocol.TaskState("working"), nil); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	outcome, err := a.session.Submit(ctx, text)
	if err != nil {
		log.Errorf("Task %s failed: %v", taskID, err)
		return fmt.Errorf("failed to process message: %w", err)
	}

	// One artifact per created issue, linking back to Jira
	for _, issue := range outcome.Issues {
		log.Infof("Adding artifact for issue %s: %s", issue.Key, issue.Link)
		artifact := protocol.Artifact{
			Name:        common.StringPtr(issue.Key),
			Description: common.StringPtr("Jira issue"),
			Parts:       []protocol.Part{},
			Metadata: map[string]interface{}{
				"url": issue.Link,
				"id":  issue.ID,
				"key": issue.Key,
			},
		}
		if err := handle.AddArtifact(artifact); err != nil {
			return fmt.Errorf("failed to record artifact: %w", err)
		}
	}

	responseMsg := &protocol.Message{
		Parts: []protocol.Part{protocol.NewTextPart(outcome.Reply)},
	}
	if err := handle.UpdateStatus(protocol.TaskState("completed"), responseMsg); err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}

	log.Infof("Task %s completed with %d invocation(s)", taskID, outcome.Invocations)
	return nil
}

// StartServer starts the A2A server and blocks until ctx is done
func (a *StoryAgent) StartServer(ctx context.Context) error {
	srv, err := common.SetupServer(common.SetupServerOptions{
		AgentName:    a.config.AgentName,
		AgentVersion: a.config.AgentVersion,
		AgentURL:     a.config.AgentURL,
		AuthType:     a.config.AuthType,
		JWTSecret:    a.config.JWTSecret,
		APIKey:       a.config.APIKey,
		Processor:    a,
		Skills:       a.Skills(),
	})
	if err != nil {
		return err
	}
	return common.StartServer(ctx, srv, a.config.ServerHost, a.config.ServerPort)
}
