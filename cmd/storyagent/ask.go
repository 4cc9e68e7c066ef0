package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"trpc.group/trpc-go/trpc-a2a-go/client"

	"github.com/tuannvm/jira-story-agent/internal/common"
)

func askCmd() *cobra.Command {
	var target string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message to a running storyagent server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if target == "" {
				target = cfg.AgentURL
			}
			// HTTP timeout matches the reply deadline
			a2aClient, err := common.SetupA2AClient(cfg, target, client.WithTimeout(timeout))
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			reply, err := common.SendMessage(ctx, a2aClient, strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, reply.Text)
			keys := make([]string, 0, len(reply.Issues))
			for key := range reply.Issues {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				fmt.Fprintf(out, "  %s: %s\n", key, reply.Issues[key])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "url", "", "agent URL (defaults to AGENT_URL)")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Minute, "how long to wait for the reply")
	return cmd
}
