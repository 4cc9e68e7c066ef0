package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	log "github.com/tuannvm/jira-story-agent/internal/logging"
)

// DefaultAgentName is the name advertised in the A2A agent card
const DefaultAgentName = "StoryAgent"

// Supported LLM providers
const (
	ProviderOpenAI    = "openai"
	ProviderAzure     = "azure"
	ProviderAnthropic = "anthropic"
)

// MaxToolInvocationsLimit is the largest accepted per-turn invocation cap
const MaxToolInvocationsLimit = 9

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerPort int
	ServerHost string

	// Agent configuration
	AgentName          string
	AgentVersion       string
	AgentURL           string
	MaxToolInvocations int

	// Jira configuration. When all three are set they seed the credentials
	// of every new session.
	JiraBaseURL  string
	JiraUsername string
	JiraAPIToken string
	JiraTimeout  int // in seconds

	// Authentication
	AuthType  string // "jwt", "apikey" or "none"
	JWTSecret string
	APIKey    string

	// LLM configuration
	LLMProvider    string // "openai", "azure", "anthropic"
	LLMModel       string
	LLMAPIKey      string
	LLMServiceURL  string
	LLMMaxTokens   int
	LLMTimeout     int // in seconds
	LLMTemperature float64

	LogLevel string
}

var (
	v          = newViper()
	dotenvOnce sync.Once
)

func newViper() *viper.Viper {
	vp := viper.New()
	vp.AutomaticEnv()
	vp.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	vp.SetDefault("server_host", "localhost")
	vp.SetDefault("server_port", 8080)
	vp.SetDefault("agent_name", DefaultAgentName)
	vp.SetDefault("agent_version", "1.0.0")
	vp.SetDefault("agent_url", "")
	vp.SetDefault("max_tool_invocations", 5)
	vp.SetDefault("jira_base_url", "")
	vp.SetDefault("jira_username", "")
	vp.SetDefault("jira_api_token", "")
	vp.SetDefault("jira_timeout", 30)
	vp.SetDefault("auth_type", "apikey")
	vp.SetDefault("jwt_secret", "")
	vp.SetDefault("api_key", "")
	vp.SetDefault("llm_provider", ProviderOpenAI)
	vp.SetDefault("llm_model", "gpt-4o")
	vp.SetDefault("llm_api_key", "")
	vp.SetDefault("llm_service_url", "")
	vp.SetDefault("llm_max_tokens", 4000)
	vp.SetDefault("llm_timeout", 60)
	vp.SetDefault("llm_temperature", 0.5)
	vp.SetDefault("log_level", "info")
	return vp
}

// GetViper returns the viper instance backing the configuration so callers
// can bind flags or override values before NewConfig is called.
func GetViper() *viper.Viper {
	return v
}

// LoadDotEnv loads variables from a .env file found in the working directory
// or up to two parent directories. Variables already set in the environment
// win. It runs at most once per process.
func LoadDotEnv() {
	dotenvOnce.Do(func() {
		for _, path := range []string{".env", "../.env", "../../.env"} {
			if err := godotenv.Load(path); err == nil {
				log.Debugf("Loaded configuration from %s file", path)
				return
			}
		}
		log.Debugf("No .env file found. Using environment variables or defaults.")
	})
}

// ReadFile merges a configuration file (any format viper understands) into
// the configuration.
func ReadFile(path string) error {
	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

// NewConfig creates a new configuration with values from environment variables,
// an optional config file and bound flags
func NewConfig() *Config {
	LoadDotEnv()
	return fromViper(v)
}

func fromViper(vp *viper.Viper) *Config {
	cfg := &Config{
		ServerPort: vp.GetInt("server_port"),
		ServerHost: vp.GetString("server_host"),

		AgentName:          vp.GetString("agent_name"),
		AgentVersion:       vp.GetString("agent_version"),
		AgentURL:           vp.GetString("agent_url"),
		MaxToolInvocations: vp.GetInt("max_tool_invocations"),

		JiraBaseURL:  vp.GetString("jira_base_url"),
		JiraUsername: vp.GetString("jira_username"),
		JiraAPIToken: vp.GetString("jira_api_token"),
		JiraTimeout:  vp.GetInt("jira_timeout"),

		AuthType:  strings.ToLower(vp.GetString("auth_type")),
		JWTSecret: vp.GetString("jwt_secret"),
		APIKey:    vp.GetString("api_key"),

		LLMProvider:    strings.ToLower(vp.GetString("llm_provider")),
		LLMModel:       vp.GetString("llm_model"),
		LLMAPIKey:      vp.GetString("llm_api_key"),
		LLMServiceURL:  vp.GetString("llm_service_url"),
		LLMMaxTokens:   vp.GetInt("llm_max_tokens"),
		LLMTimeout:     vp.GetInt("llm_timeout"),
		LLMTemperature: vp.GetFloat64("llm_temperature"),

		LogLevel: vp.GetString("log_level"),
	}
	if cfg.AgentURL == "" {
		cfg.AgentURL = fmt.Sprintf("http://%s:%d", cfg.ServerHost, cfg.ServerPort)
	}
	return cfg
}

// Validate checks the configuration for values the agent cannot run with
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderAnthropic:
	case ProviderAzure:
		if c.LLMServiceURL == "" {
			return fmt.Errorf("LLM_SERVICE_URL is required for the azure provider")
		}
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.LLMProvider)
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be between 0 and 2, got %v", c.LLMTemperature)
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive, got %d", c.LLMTimeout)
	}
	if c.LLMMaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive, got %d", c.LLMMaxTokens)
	}
	if c.JiraTimeout <= 0 {
		return fmt.Errorf("JIRA_TIMEOUT must be positive, got %d", c.JiraTimeout)
	}
	if c.MaxToolInvocations < 1 || c.MaxToolInvocations > MaxToolInvocationsLimit {
		return fmt.Errorf("MAX_TOOL_INVOCATIONS must be between 1 and %d, got %d", MaxToolInvocationsLimit, c.MaxToolInvocations)
	}
	switch c.AuthType {
	case "apikey", "jwt", "none", "":
	default:
		return fmt.Errorf("unsupported auth type: %s", c.AuthType)
	}
	return nil
}

// HasJiraCredentials reports whether Jira credentials were supplied up front
func (c *Config) HasJiraCredentials() bool {
	return c.JiraBaseURL != "" && c.JiraUsername != "" && c.JiraAPIToken != ""
}
