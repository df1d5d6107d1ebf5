// config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kestrelworks/skybridge/types"
)

const (
	defaultConfigDir  = ".config/skybridge"
	defaultConfigFile = "config.yaml"
)

// ServerConfig holds configuration for a single MCP server
type ServerConfig struct {
	Name           string            `yaml:"name"`
	Transport      string            `yaml:"transport"`
	Command        string            `yaml:"command,omitempty"`
	Arguments      []string          `yaml:"arguments,omitempty"`
	URL            string            `yaml:"url,omitempty"`
	TimeoutSeconds int               `yaml:"timeout_seconds,omitempty"`
	Env            map[string]string `yaml:"env,omitempty"`
}

// Config holds the complete configuration for the assistant
type Config struct {
	Chat struct {
		Provider     string `yaml:"provider"`
		Model        string `yaml:"model"`
		Endpoint     string `yaml:"endpoint"`
		SystemPrompt string `yaml:"system_prompt"`
	} `yaml:"chat"`

	Azure struct {
		Endpoint   string `yaml:"endpoint"`
		APIKey     string `yaml:"api_key"`
		Deployment string `yaml:"deployment"`
	} `yaml:"azure"`

	Servers []ServerConfig `yaml:"mcp_servers"`

	Policy struct {
		Database string `yaml:"database"`
	} `yaml:"policy"`

	Agent struct {
		MaxToolCalls int `yaml:"max_tool_calls"`
	} `yaml:"agent"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Server struct {
		Enable bool   `yaml:"enable"`
		Host   string `yaml:"host"`
		Port   int    `yaml:"port"`
	} `yaml:"server"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Chat.Provider = "ollama"
	cfg.Chat.Model = "qwen2.5:7b-instruct"
	cfg.Chat.Endpoint = "http://localhost:11434/api"
	cfg.Chat.SystemPrompt = `You are a helpful travel and weather assistant with access to various tools.

When answering questions:
1. Use weather_get_forecast and weather_get_alerts for anything weather related
2. Use search_travel_policy for corporate travel policy questions
3. Use get_time when the current time matters
4. Answer directly when no tool applies`

	cfg.Servers = []ServerConfig{
		{
			Name:      "weather",
			Transport: "stdio",
			Command:   "skybridge-weather",
		},
	}

	cfg.Policy.Database = "policies.db"

	cfg.Agent.MaxToolCalls = 8

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"

	cfg.Server.Enable = false
	cfg.Server.Host = "localhost"
	cfg.Server.Port = 8080

	return cfg
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, defaultConfigDir)
	return filepath.Join(configDir, defaultConfigFile), nil
}

// LoadOrCreate loads the config file if it exists, or creates a default one if it doesn't
func LoadOrCreate() (*Config, bool, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, false, err
	}

	configDir := filepath.Dir(configPath)
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, false, fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		// Save before applying env so secrets never land on disk
		if err := cfg.Save(); err != nil {
			return nil, false, fmt.Errorf("failed to save default config: %w", err)
		}
		cfg.applyEnv()
		return cfg, true, nil
	}

	cfg, err := Load(configPath)
	return cfg, false, err
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with default config so optional fields keep sane values
	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to disk
func (c *Config) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnv fills credential fields from the environment so secrets can
// stay out of the config file
func (c *Config) applyEnv() {
	if v := os.Getenv("AZURE_OPENAI_ENDPOINT"); v != "" {
		c.Azure.Endpoint = v
	}
	if v := os.Getenv("AZURE_OPENAI_API_KEY"); v != "" {
		c.Azure.APIKey = v
	}
	if v := os.Getenv("AZURE_OPENAI_DEPLOYMENT"); v != "" {
		c.Azure.Deployment = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		c.Chat.Endpoint = v
	}
}

// Validate checks that required fields are present, reporting every
// missing item at once rather than stopping at the first
func (c *Config) Validate() error {
	var missing []string

	switch c.Chat.Provider {
	case "ollama":
		if c.Chat.Model == "" {
			missing = append(missing, "chat.model")
		}
		if c.Chat.Endpoint == "" {
			missing = append(missing, "chat.endpoint")
		}
	case "azure":
		if c.Azure.Endpoint == "" {
			missing = append(missing, "azure.endpoint (or AZURE_OPENAI_ENDPOINT)")
		}
		if c.Azure.APIKey == "" {
			missing = append(missing, "azure.api_key (or AZURE_OPENAI_API_KEY)")
		}
		if c.Azure.Deployment == "" {
			missing = append(missing, "azure.deployment (or AZURE_OPENAI_DEPLOYMENT)")
		}
	default:
		return &types.ConfigError{
			Field:   "chat.provider",
			Message: fmt.Sprintf("must be %q or %q, got %q", "ollama", "azure", c.Chat.Provider),
		}
	}

	seen := make(map[string]bool)
	for i, server := range c.Servers {
		if server.Name == "" {
			missing = append(missing, fmt.Sprintf("mcp_servers[%d].name", i))
		} else if seen[server.Name] {
			return &types.ConfigError{
				Field:   fmt.Sprintf("mcp_servers[%d].name", i),
				Message: fmt.Sprintf("duplicate server name %q", server.Name),
			}
		} else {
			seen[server.Name] = true
		}

		switch server.Transport {
		case "stdio":
			if server.Command == "" {
				missing = append(missing, fmt.Sprintf("mcp_servers[%d].command", i))
			}
		case "http":
			if server.URL == "" {
				missing = append(missing, fmt.Sprintf("mcp_servers[%d].url", i))
			}
		default:
			return &types.ConfigError{
				Field:   fmt.Sprintf("mcp_servers[%d].transport", i),
				Message: fmt.Sprintf("must be %q or %q, got %q", "stdio", "http", server.Transport),
			}
		}
	}

	if c.Server.Enable {
		if c.Server.Host == "" {
			missing = append(missing, "server.host")
		}
		if c.Server.Port <= 0 {
			missing = append(missing, "server.port")
		}
	}

	if len(missing) > 0 {
		return &types.MissingConfigError{Items: missing}
	}

	return nil
}
