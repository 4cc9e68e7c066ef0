package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tuannvm/jira-story-agent/internal/agents"
	"github.com/tuannvm/jira-story-agent/internal/conversation"
	"github.com/tuannvm/jira-story-agent/internal/llm"
)

const chatHelp = `Commands:
  /config <jira-url> <email> <api-token>   set the Jira credentials for this session
  /history                                 show the conversation so far
  /quit                                    leave`

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk with the assistant in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := newSession(cfg)
			if err != nil {
				return err
			}
			defer session.Close()
			return runChat(cmd.Context(), session, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// runChat reads one message per line until EOF or /quit
func runChat(ctx context.Context, session *agents.Session, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, llm.Greeting)
	fmt.Fprintln(out, "(type /help for commands)")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := runCommand(session, line, out); quit {
				return nil
			}
			continue
		}

		outcome, err := session.Submit(ctx, line)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, agents.ErrSessionClosed) {
				return err
			}
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, outcome.Reply)
		for _, issue := range outcome.Issues {
			fmt.Fprintf(out, "  created %s: %s\n", issue.Key, issue.Link)
		}
	}
}

// runCommand handles a slash command and reports whether the chat should end
func runCommand(session *agents.Session, line string, out io.Writer) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(out, chatHelp)
	case "/config":
		if len(fields) != 4 {
			fmt.Fprintln(out, "usage: /config <jira-url> <email> <api-token>")
			return false
		}
		session.ConfigureCredentials(fields[1], fields[2], fields[3])
		if err := session.Credentials().Validate(); err != nil {
			fmt.Fprintf(out, "saved, but these credentials will not work: %v\n", err)
			return false
		}
		fmt.Fprintf(out, "Jira credentials saved for %s\n", fields[1])
	case "/history":
		renderHistory(out, session.History())
	default:
		fmt.Fprintf(out, "unknown command %s\n%s\n", fields[0], chatHelp)
	}
	return false
}

func renderHistory(out io.Writer, turns []conversation.Turn) {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.AppendHeader(table.Row{"#", "Time", "Kind", "Content", "Category"})
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 4, WidthMax: 80}})
	for i, t := range turns {
		tw.AppendRow(table.Row{i + 1, t.CreatedAt.Format("15:04:05"), t.Kind, turnContent(t), t.Category})
	}
	tw.Render()
}

func turnContent(t conversation.Turn) string {
	switch t.Kind {
	case conversation.KindToolInvocation:
		args, _ := json.Marshal(t.Call.Arguments)
		return fmt.Sprintf("%s(%s)", t.Call.Action, args)
	case conversation.KindToolResult:
		content, _ := json.Marshal(t.Result.Content)
		return string(content)
	default:
		return t.Text
	}
}
