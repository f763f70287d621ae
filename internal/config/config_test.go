package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSecrets(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secrets.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestResolveAPIKey(t *testing.T) {
	t.Run("secrets file wins over environment", func(t *testing.T) {
		t.Setenv("OPENROUTER_API_KEY", "from-env")
		path := writeSecrets(t, `OPENROUTER_API_KEY = "from-file"`+"\n")

		key, err := ResolveAPIKey(path, ProviderOpenRouter)
		require.NoError(t, err)
		assert.Equal(t, "from-file", key)
	})

	t.Run("falls back to environment", func(t *testing.T) {
		t.Setenv("OPENROUTER_API_KEY", "from-env")

		key, err := ResolveAPIKey(filepath.Join(t.TempDir(), "missing.toml"), ProviderOpenRouter)
		require.NoError(t, err)
		assert.Equal(t, "from-env", key)
	})

	t.Run("blank secret falls back to environment", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gem-env")
		path := writeSecrets(t, `GEMINI_API_KEY = "  "`+"\n")

		key, err := ResolveAPIKey(path, ProviderGemini)
		require.NoError(t, err)
		assert.Equal(t, "gem-env", key)
	})

	t.Run("missing everywhere", func(t *testing.T) {
		unsetenv(t, "OPENROUTER_API_KEY")

		_, err := ResolveAPIKey("", ProviderOpenRouter)
		require.ErrorIs(t, err, ErrMissingAPIKey)
		assert.Contains(t, err.Error(), "OPENROUTER_API_KEY")
	})
}

func TestLoad(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OPENROUTER_API_KEY", "k")
	t.Setenv("CHATBOT_HISTORY_WINDOW", "6")
	unsetenv(t, "LLM_PROVIDER")
	unsetenv(t, "CHATBOT_MODEL")
	unsetenv(t, "CHATBOT_TEMPERATURE")
	unsetenv(t, "CORS_ORIGINS")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "k", cfg.APIKey)
	assert.Equal(t, ProviderOpenRouter, cfg.Provider)
	assert.Equal(t, 6, cfg.ChatHistoryWindow)
	assert.Equal(t, "minimax/minimax-m2:free", cfg.ChatModel)
	assert.InDelta(t, 0.7, cfg.ChatTemperature, 1e-6)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LLM_PROVIDER", "bogus")
	t.Setenv("OPENROUTER_API_KEY", "k")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}
