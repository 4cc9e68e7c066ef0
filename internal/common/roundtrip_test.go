package common

import (
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"trpc.group/trpc-go/trpc-a2a-go/client"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"
	"trpc.group/trpc-go/trpc-a2a-go/taskmanager"

	"github.com/tuannvm/jira-story-agent/internal/config"
)

// echoProcessor answers every task with its text and one artifact
type echoProcessor struct{}

func (echoProcessor) Process(ctx context.Context, taskID string, message protocol.Message, handle taskmanager.TaskHandle) error {
	text, err := ExtractText(message)
	if err != nil {
		return err
	}
	artifact := protocol.Artifact{
		Name:     StringPtr("DEMO-1"),
		Parts:    []protocol.Part{},
		Metadata: map[string]interface{}{"url": "https://example.atlassian.net/browse/DEMO-1"},
	}
	if err := handle.AddArtifact(artifact); err != nil {
		return err
	}
	reply := &protocol.Message{Parts: []protocol.Part{protocol.NewTextPart("echo: " + text)}}
	return handle.UpdateStatus(protocol.TaskState("completed"), reply)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve a port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// startServer runs an echo agent with opts' auth settings until the test ends
func startServer(t *testing.T, opts SetupServerOptions) string {
	t.Helper()
	port := freePort(t)
	url := fmt.Sprintf("http://127.0.0.1:%d", port)

	opts.AgentName = "StoryAgent"
	opts.AgentVersion = "test"
	opts.AgentURL = url
	opts.Processor = echoProcessor{}
	srv, err := SetupServer(opts)
	if err != nil {
		t.Fatalf("SetupServer() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- StartServer(ctx, srv, "127.0.0.1", port) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("StartServer() error = %v", err)
		}
	})

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	deadline := time.Now().Add(5 * time.Second)
	for {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			conn.Close()
			return url
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not start on %s: %v", addr, err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestSendMessageWithAuth(t *testing.T) {
	tests := []struct {
		name   string
		server SetupServerOptions
		client config.Config
	}{
		{
			name:   "api key",
			server: SetupServerOptions{AuthType: AuthAPIKey, APIKey: "k3y"},
			client: config.Config{AuthType: AuthAPIKey, APIKey: "k3y"},
		},
		{
			name:   "jwt",
			server: SetupServerOptions{AuthType: AuthJWT, JWTSecret: "s3cr3t"},
			client: config.Config{AuthType: AuthJWT, JWTSecret: "s3cr3t"},
		},
		{
			name:   "no auth",
			server: SetupServerOptions{AuthType: AuthNone},
			client: config.Config{AuthType: AuthNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := startServer(t, tt.server)

			a2aClient, err := SetupA2AClient(&tt.client, url, client.WithTimeout(10*time.Second))
			if err != nil {
				t.Fatalf("SetupA2AClient() error = %v", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			reply, err := SendMessage(ctx, a2aClient, "write an epic")
			if err != nil {
				t.Fatalf("SendMessage() error = %v", err)
			}

			if reply.Text != "echo: write an epic" {
				t.Errorf("Text = %q", reply.Text)
			}
			want := map[string]string{"DEMO-1": "https://example.atlassian.net/browse/DEMO-1"}
			if diff := cmp.Diff(want, reply.Issues); diff != "" {
				t.Errorf("issues mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSendMessageRejectedWithWrongCredentials(t *testing.T) {
	tests := []struct {
		name   string
		server SetupServerOptions
		client config.Config
	}{
		{
			name:   "wrong api key",
			server: SetupServerOptions{AuthType: AuthAPIKey, APIKey: "k3y"},
			client: config.Config{AuthType: AuthAPIKey, APIKey: "other"},
		},
		{
			name:   "wrong jwt secret",
			server: SetupServerOptions{AuthType: AuthJWT, JWTSecret: "s3cr3t"},
			client: config.Config{AuthType: AuthJWT, JWTSecret: "other"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := startServer(t, tt.server)

			a2aClient, err := SetupA2AClient(&tt.client, url)
			if err != nil {
				t.Fatalf("SetupA2AClient() error = %v", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_, err = SendMessage(ctx, a2aClient, "write an epic")
			if err == nil || !strings.Contains(err.Error(), "401") {
				t.Errorf("SendMessage() error = %v, want an unauthorized failure", err)
			}
		})
	}
}

func TestSetupA2AClientRequiresSecrets(t *testing.T) {
	for _, cfg := range []config.Config{
		{AuthType: AuthJWT},
		{AuthType: AuthAPIKey},
	} {
		if _, err := SetupA2AClient(&cfg, "http://127.0.0.1:1"); err == nil {
			t.Errorf("SetupA2AClient(%s) without a secret succeeded", cfg.AuthType)
		}
	}
}
