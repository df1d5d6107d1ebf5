package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelworks/skybridge/types"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "ollama", cfg.Chat.Provider)
	assert.Equal(t, 8, cfg.Agent.MaxToolCalls)
	require.Len(t, cfg.Servers, 1)
	assert.Equal(t, "stdio", cfg.Servers[0].Transport)
	assert.Equal(t, "weather", cfg.Servers[0].Name)
}

func TestValidateReportsEveryMissingAzureItem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chat.Provider = "azure"

	err := cfg.Validate()
	require.ErrorIs(t, err, types.ErrInvalidConfig)

	var missing *types.MissingConfigError
	require.ErrorAs(t, err, &missing)
	assert.Len(t, missing.Items, 3)
	assert.Contains(t, err.Error(), "azure.endpoint")
	assert.Contains(t, err.Error(), "azure.api_key")
	assert.Contains(t, err.Error(), "azure.deployment")
}

func TestValidateOllamaRequiresModelAndEndpoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chat.Model = ""
	cfg.Chat.Endpoint = ""

	var missing *types.MissingConfigError
	require.ErrorAs(t, cfg.Validate(), &missing)
	assert.Equal(t, []string{"chat.model", "chat.endpoint"}, missing.Items)
}

func TestValidateUnknownProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chat.Provider = "mystery"

	var confErr *types.ConfigError
	require.ErrorAs(t, cfg.Validate(), &confErr)
	assert.Equal(t, "chat.provider", confErr.Field)
}

func TestValidateServers(t *testing.T) {
	tests := []struct {
		name    string
		servers []ServerConfig
		wantErr string
	}{
		{
			name: "valid stdio and http",
			servers: []ServerConfig{
				{Name: "weather", Transport: "stdio", Command: "skybridge-weather"},
				{Name: "remote", Transport: "http", URL: "http://localhost:9000"},
			},
		},
		{
			name: "duplicate server name",
			servers: []ServerConfig{
				{Name: "weather", Transport: "stdio", Command: "a"},
				{Name: "weather", Transport: "stdio", Command: "b"},
			},
			wantErr: "duplicate server name",
		},
		{
			name:    "stdio without command",
			servers: []ServerConfig{{Name: "weather", Transport: "stdio"}},
			wantErr: "mcp_servers[0].command",
		},
		{
			name:    "http without url",
			servers: []ServerConfig{{Name: "remote", Transport: "http"}},
			wantErr: "mcp_servers[0].url",
		},
		{
			name:    "unknown transport",
			servers: []ServerConfig{{Name: "weather", Transport: "grpc", Command: "x"}},
			wantErr: "mcp_servers[0].transport",
		},
		{
			name:    "missing name",
			servers: []ServerConfig{{Transport: "stdio", Command: "x"}},
			wantErr: "mcp_servers[0].name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Servers = tt.servers

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateEnabledServerNeedsHostAndPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Enable = true
	cfg.Server.Host = ""
	cfg.Server.Port = 0

	var missing *types.MissingConfigError
	require.ErrorAs(t, cfg.Validate(), &missing)
	assert.Contains(t, missing.Items, "server.host")
	assert.Contains(t, missing.Items, "server.port")
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chat:\n  provider: azure\n"), 0644))

	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("AZURE_OPENAI_API_KEY", "secret")
	t.Setenv("AZURE_OPENAI_DEPLOYMENT", "gpt-4o")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "azure", cfg.Chat.Provider)
	assert.Equal(t, "https://example.openai.azure.com", cfg.Azure.Endpoint)
	assert.Equal(t, "secret", cfg.Azure.APIKey)
	assert.Equal(t, "gpt-4o", cfg.Azure.Deployment)
}

func TestLoadRejectsIncompleteConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chat:\n  provider: azure\n"), 0644))

	t.Setenv("AZURE_OPENAI_ENDPOINT", "")
	t.Setenv("AZURE_OPENAI_API_KEY", "")
	t.Setenv("AZURE_OPENAI_DEPLOYMENT", "")

	_, err := Load(path)
	require.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestLoadKeepsDefaultsForOmittedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "ollama", cfg.Chat.Provider)
	assert.Equal(t, 8, cfg.Agent.MaxToolCalls)
}

func TestLoadOrCreateWritesDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, created, err := LoadOrCreate()
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "ollama", cfg.Chat.Provider)

	path, err := GetConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config/skybridge/config.yaml"), path)
	assert.FileExists(t, path)

	// Second call loads the file instead of recreating it
	again, created, err := LoadOrCreate()
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, cfg.Chat.Model, again.Chat.Model)
}
