package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	liblog "trpc.group/trpc-go/trpc-a2a-go/log"

	"github.com/tuannvm/jira-story-agent/internal/action"
	"github.com/tuannvm/jira-story-agent/internal/agents"
	"github.com/tuannvm/jira-story-agent/internal/config"
	"github.com/tuannvm/jira-story-agent/internal/jira"
	"github.com/tuannvm/jira-story-agent/internal/llm"
	log "github.com/tuannvm/jira-story-agent/internal/logging"
	"github.com/tuannvm/jira-story-agent/internal/metrics"
)

var (
	configFile string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "storyagent",
	Short: "Functional documentation assistant that files stories in Jira",
	Long: `storyagent helps you write functional documentation, from epics down to
BDD stories, and creates the resulting issues in Jira when you ask for it.

Configuration comes from the environment (or a .env file), an optional
config file and the flags below.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			if err := config.ReadFile(configFile); err != nil {
				return err
			}
		}
		cfg = config.NewConfig()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if !log.SetLevel(cfg.LogLevel) {
			log.Warnf("Unknown log level %q, keeping the default", cfg.LogLevel)
		}
		// Route the A2A library's logs through our logger
		liblog.Default = log.Logger
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Sync()
	},
}

func main() {
	addPersistentFlags()
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(askCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addPersistentFlags() {
	v := config.GetViper()
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (yaml, json, toml or env)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Int("max-tool-invocations", agents.DefaultMaxInvocations,
		fmt.Sprintf("actions allowed per message (1-%d)", config.MaxToolInvocationsLimit))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = v.BindPFlag("max_tool_invocations", flags.Lookup("max-tool-invocations"))
}

// newSession wires a Session from the configuration
func newSession(cfg *config.Config) (*agents.Session, error) {
	model, err := llm.NewModel(cfg)
	if err != nil {
		return nil, err
	}

	m := metrics.NewAgent()
	decider := llm.NewDecider(model,
		llm.WithModelName(cfg.LLMModel),
		llm.WithMaxTokens(cfg.LLMMaxTokens),
		llm.WithTemperature(cfg.LLMTemperature),
		llm.WithTimeout(time.Duration(cfg.LLMTimeout)*time.Second),
		llm.WithMetrics(m),
	)

	jiraTimeout := time.Duration(cfg.JiraTimeout) * time.Second
	executor := action.NewExecutor(jira.NewClientFactory(jiraTimeout), action.WithTimeout(jiraTimeout))

	loop := agents.NewLoop(decider, executor,
		agents.WithMaxInvocations(cfg.MaxToolInvocations),
		agents.WithMetrics(m),
	)

	var opts []agents.SessionOption
	if cfg.HasJiraCredentials() {
		opts = append(opts, agents.WithCredentials(jira.Credentials{
			BaseURL:  cfg.JiraBaseURL,
			Username: cfg.JiraUsername,
			APIToken: cfg.JiraAPIToken,
		}))
	}
	return agents.NewSession(loop, opts...), nil
}
