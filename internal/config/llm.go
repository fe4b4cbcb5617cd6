package config

import (
	"fmt"
	"time"
)

// DefaultModel is the Gemini model used for both assistant operations.
const DefaultModel = "gemini-2.5-flash"

// LLMConfig configures the generative-language endpoint.
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"` // Per-call timeout; "0s" disables it
}

// HasCredential reports whether the live endpoint can be reached.
func (c *Config) HasCredential() bool {
	return c.LLM.APIKey != ""
}

// GetLLMTimeout returns the per-call timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	return parseDurationOr(c.LLM.Timeout, 60*time.Second)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func validDuration(field, s string) error {
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	if d < 0 {
		return fmt.Errorf("invalid %s: must not be negative", field)
	}
	return nil
}
