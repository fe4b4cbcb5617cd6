package config

// LoggingConfig configures logging.
type LoggingConfig struct {
	Enabled    bool            `yaml:"enabled" json:"enabled"`                  // Master toggle - false = no log file
	Level      string          `yaml:"level" json:"level,omitempty"`            // debug, info, warn, error
	Format     string          `yaml:"format" json:"format,omitempty"`          // json, text
	Categories map[string]bool `yaml:"categories" json:"categories,omitempty"` // Per-category toggles
}

// IsCategoryEnabled returns whether logging is enabled for a category.
// Returns false if logging is off.
// Returns true if logging is on and the category is enabled (or not specified).
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if !c.Enabled {
		return false
	}
	if c.Categories == nil {
		return true
	}
	enabled, exists := c.Categories[category]
	if !exists {
		return true
	}
	return enabled
}
