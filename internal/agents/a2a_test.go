package agents

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"
	"trpc.group/trpc-go/trpc-a2a-go/taskmanager"

	"github.com/tuannvm/jira-story-agent/internal/common"
	"github.com/tuannvm/jira-story-agent/internal/config"
)

// recordingHandle records status updates and artifacts. Methods not
// overridden here are never called by StoryAgent.
type recordingHandle struct {
	taskmanager.TaskHandle
	states    []protocol.TaskState
	final     *protocol.Message
	artifacts []protocol.Artifact
}

func (h *recordingHandle) UpdateStatus(state protocol.TaskState, msg *protocol.Message) error {
	h.states = append(h.states, state)
	if msg != nil {
		h.final = msg
	}
	return nil
}

func (h *recordingHandle) AddArtifact(artifact protocol.Artifact) error {
	h.artifacts = append(h.artifacts, artifact)
	return nil
}

func TestStoryAgentProcess(t *testing.T) {
	d := &scriptedDecider{steps: []step{invoke("call_1", loginStory()), answer("Created DEMO-1")}}
	session := newTestSession(d, &fakeJira{}, nil, WithCredentials(demoCreds))
	agent := NewStoryAgent(config.NewConfig(), session)

	handle := &recordingHandle{}
	msg := protocol.Message{Parts: []protocol.Part{protocol.NewTextPart("Create the login story in DEMO")}}
	if err := agent.Process(context.Background(), "task-1", msg, handle); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	wantStates := []protocol.TaskState{protocol.TaskState("working"), protocol.TaskState("completed")}
	if diff := cmp.Diff(wantStates, handle.states); diff != "" {
		t.Errorf("states mismatch (-want +got):\n%s", diff)
	}

	reply, err := common.ExtractText(*handle.final)
	if err != nil || reply != "Created DEMO-1" {
		t.Errorf("reply = %q, %v", reply, err)
	}

	if len(handle.artifacts) != 1 {
		t.Fatalf("expected one artifact, got %d", len(handle.artifacts))
	}
	artifact := handle.artifacts[0]
	if *artifact.Name != "DEMO-1" || artifact.Metadata["url"] != "https://example.atlassian.net/browse/DEMO-1" {
		t.Errorf("unexpected artifact: %+v", artifact)
	}
}

func TestStoryAgentRejectsMessageWithoutText(t *testing.T) {
	d := &scriptedDecider{}
	agent := NewStoryAgent(config.NewConfig(), newTestSession(d, &fakeJira{}, nil))

	handle := &recordingHandle{}
	if err := agent.Process(context.Background(), "task-1", protocol.Message{}, handle); err == nil {
		t.Fatal("expected an error")
	}
	if len(handle.states) != 0 || len(d.seen) != 0 {
		t.Error("a message without text must not start a turn")
	}
}
