package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides_LLM(t *testing.T) {
	t.Run("API_KEY sets credential", func(t *testing.T) {
		t.Setenv("API_KEY", "generic-key")
		t.Setenv("GEMINI_API_KEY", "")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "generic-key", cfg.LLM.APIKey)
		assert.True(t, cfg.HasCredential())
	})

	t.Run("Precedence: GEMINI_API_KEY overrides API_KEY", func(t *testing.T) {
		t.Setenv("API_KEY", "generic-key")
		t.Setenv("GEMINI_API_KEY", "gemini-key")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "gemini-key", cfg.LLM.APIKey)
	})

	t.Run("Empty env keeps file value", func(t *testing.T) {
		t.Setenv("API_KEY", "")
		t.Setenv("GEMINI_API_KEY", "")

		cfg := &Config{LLM: LLMConfig{APIKey: "from-file"}}
		cfg.applyEnvOverrides()

		assert.Equal(t, "from-file", cfg.LLM.APIKey)
	})

	t.Run("KINSHIP_MODEL overrides model", func(t *testing.T) {
		t.Setenv("KINSHIP_MODEL", "gemini-2.5-pro")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "gemini-2.5-pro", cfg.LLM.Model)
	})
}

func TestEnvOverrides_DataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("KINSHIP_DATA_DIR", dir)

	cfg, err := Load(dir + "/missing.yaml")
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, dir+"/preferences.json", cfg.PreferencesPath())
}
