package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all kinship configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// DataDir holds preferences, usage, transcripts and logs.
	DataDir string `yaml:"data_dir"`

	// Assistant endpoint
	LLM LLMConfig `yaml:"llm"`

	// Surface timings and theme
	UX UXConfig `yaml:"ux"`

	// Contact/update fixtures
	Fixtures FixturesConfig `yaml:"fixtures"`

	// Conversation transcript persistence
	Store StoreConfig `yaml:"store"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// FixturesConfig points at an optional YAML fixture file.
// An empty path uses the built-in contacts and updates.
type FixturesConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"` // Reload on file change
}

// StoreConfig configures the SQLite transcript store.
type StoreConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DefaultDataDir returns ~/.kinship, or .kinship when no home is available.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".kinship"
	}
	return filepath.Join(home, ".kinship")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "kinship",
		Version: "0.3.0",
		DataDir: DefaultDataDir(),

		LLM: LLMConfig{
			Model:   DefaultModel,
			Timeout: "60s",
		},

		UX: UXConfig{
			TransitionDelay: "200ms",
			ConfirmDelay:    "800ms",
			Theme:           "auto",
		},

		Store: StoreConfig{
			Enabled: true,
		},

		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
			Format:  "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Defaults when the file does not exist
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// API_KEY is the generic name; GEMINI_API_KEY wins when both are set.
	if key := os.Getenv("API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("KINSHIP_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if dir := os.Getenv("KINSHIP_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
}

// Validate validates the configuration.
// A missing API key is not an error: the assistant degrades to fallbacks.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model must not be empty")
	}
	if err := validDuration("llm.timeout", c.LLM.Timeout); err != nil {
		return err
	}
	if err := validDuration("ux.transition_delay", c.UX.TransitionDelay); err != nil {
		return err
	}
	if err := validDuration("ux.confirm_delay", c.UX.ConfirmDelay); err != nil {
		return err
	}
	if !isValidTheme(c.UX.Theme) {
		return fmt.Errorf("invalid ux.theme: %s (valid: %v)", c.UX.Theme, ValidThemes)
	}
	if c.Fixtures.Watch && c.Fixtures.Path == "" {
		return fmt.Errorf("fixtures.watch requires fixtures.path")
	}
	return nil
}

// PreferencesPath returns the onboarding/preferences file location.
func (c *Config) PreferencesPath() string {
	return filepath.Join(c.DataDir, "preferences.json")
}

// TranscriptPath returns the SQLite transcript location.
func (c *Config) TranscriptPath() string {
	return filepath.Join(c.DataDir, "transcript.db")
}
