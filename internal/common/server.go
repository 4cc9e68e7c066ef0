package common

import (
	"context"
	"fmt"
	"time"

	"trpc.group/trpc-go/trpc-a2a-go/auth"
	"trpc.group/trpc-go/trpc-a2a-go/server"
	"trpc.group/trpc-go/trpc-a2a-go/taskmanager"

	log "github.com/tuannvm/jira-story-agent/internal/logging"
)

// Supported values of SetupServerOptions.AuthType
const (
	AuthJWT    = "jwt"
	AuthAPIKey = "apikey"
	AuthNone   = "none"
)

// APIKeyHeader carries the API key for AuthAPIKey
const APIKeyHeader = "X-API-Key"

// jwtLifetime bounds tokens issued and accepted for AuthJWT
const jwtLifetime = 24 * time.Hour

// SetupServerOptions contains options for setting up an A2A server
type SetupServerOptions struct {
	AgentName    string
	AgentVersion string
	AgentURL     string
	AuthType     string
	JWTSecret    string
	APIKey       string
	Processor    taskmanager.TaskProcessor
	Skills       []server.AgentSkill
}

// SetupServer creates and configures an A2A server with common settings
func SetupServer(opts SetupServerOptions) (*server.A2AServer, error) {
	agentCard := server.AgentCard{
		Name:               opts.AgentName,
		Description:        StringPtr(fmt.Sprintf("%s writes functional documentation and files stories in Jira", opts.AgentName)),
		URL:                opts.AgentURL,
		Version:            opts.AgentVersion,
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
		Skills:             opts.Skills,
	}

	taskManager, err := taskmanager.NewMemoryTaskManager(opts.Processor)
	if err != nil {
		return nil, fmt.Errorf("failed to create task manager: %w", err)
	}

	// JSON-RPC at root so A2AClient.SendTasks posts to "/". Turns may call
	// the decision backend several times, hence the long timeouts.
	serverOpts := []server.Option{
		server.WithJSONRPCEndpoint("/"),
		server.WithReadTimeout(2 * time.Minute),
		server.WithWriteTimeout(2 * time.Minute),
	}

	authProvider, err := newAuthProvider(opts)
	if err != nil {
		return nil, err
	}
	if authProvider != nil {
		serverOpts = append(serverOpts, server.WithAuthProvider(authProvider))
	} else {
		log.Warnf("No authentication configured for %s, running unauthenticated", opts.AgentName)
	}

	srv, err := server.NewA2AServer(agentCard, taskManager, serverOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}
	return srv, nil
}

func newAuthProvider(opts SetupServerOptions) (auth.Provider, error) {
	switch opts.AuthType {
	case "", AuthNone:
		return nil, nil
	case AuthJWT:
		if opts.JWTSecret == "" {
			return nil, fmt.Errorf("auth type %s requires a JWT secret", AuthJWT)
		}
		log.Infof("Configuring JWT authentication for %s", opts.AgentName)
		return auth.NewJWTAuthProvider(
			[]byte(opts.JWTSecret),
			"", // audience (empty for any)
			"", // issuer (empty for any)
			jwtLifetime,
		), nil
	case AuthAPIKey:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("auth type %s requires an API key", AuthAPIKey)
		}
		log.Infof("Configuring API key authentication for %s (API key length: %d)", opts.AgentName, len(opts.APIKey))
		return auth.NewAPIKeyAuthProvider(map[string]string{opts.APIKey: "user"}, APIKeyHeader), nil
	default:
		return nil, fmt.Errorf("unsupported auth type: %s", opts.AuthType)
	}
}

// StartServer starts the A2A server and shuts it down once ctx is done
func StartServer(ctx context.Context, srv *server.A2AServer, host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting A2A server on %s", addr)
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Infof("Shutting down server...")
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
