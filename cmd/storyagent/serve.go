package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tuannvm/jira-story-agent/internal/agents"
	log "github.com/tuannvm/jira-story-agent/internal/logging"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve one conversation over the A2A protocol",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := newSession(cfg)
			if err != nil {
				return err
			}
			defer session.Close()

			agent := agents.NewStoryAgent(cfg, session)
			log.Infof("%s configured on %s:%d (session %s)", cfg.AgentName, cfg.ServerHost, cfg.ServerPort, session.ID())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := agent.StartServer(ctx); err != nil {
				return err
			}
			log.Infof("Server shutdown complete")
			return nil
		},
	}
}
