package llm

import (
	"fmt"
	"unicode/utf8"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/tuannvm/jira-story-agent/internal/config"
	log "github.com/tuannvm/jira-story-agent/internal/logging"
)

// NewModel creates the language model selected by the configuration
func NewModel(cfg *config.Config) (llms.Model, error) {
	var llmModel llms.Model
	var err error

	// Select LLM provider based on configuration
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(cfg.LLMAPIKey),
			openai.WithModel(cfg.LLMModel),
		}
		if cfg.LLMServiceURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.LLMServiceURL))
		}
		llmModel, err = openai.New(opts...)
	case config.ProviderAzure:
		llmModel, err = openai.New(
			openai.WithToken(cfg.LLMAPIKey),
			openai.WithModel(cfg.LLMModel),
			openai.WithBaseURL(cfg.LLMServiceURL),
			openai.WithAPIType(openai.APITypeAzure),
		)
	case config.ProviderAnthropic:
		opts := []anthropic.Option{
			anthropic.WithToken(cfg.LLMAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		}
		if cfg.LLMServiceURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.LLMServiceURL))
		}
		llmModel, err = anthropic.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	log.Infof("Using %s model %s", cfg.LLMProvider, cfg.LLMModel)
	return llmModel, nil
}

// truncateForLogging truncates a string to a reasonable length for logging,
// cutting on a rune boundary
func truncateForLogging(s string) string {
	const maxLength = 500
	if len(s) <= maxLength {
		return s
	}
	cut := maxLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "... [truncated]"
}
