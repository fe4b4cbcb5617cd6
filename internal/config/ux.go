package config

import "time"

// UXConfig holds user interface configuration.
type UXConfig struct {
	// TransitionDelay is the digest card swipe animation time before the cursor moves.
	TransitionDelay string `yaml:"transition_delay"`

	// ConfirmDelay is the pause before "Sent." appears after a suggestion chip.
	ConfirmDelay string `yaml:"confirm_delay"`

	// Theme is auto, light or dark.
	Theme string `yaml:"theme"`
}

// ValidThemes lists the accepted ux.theme values.
var ValidThemes = []string{"auto", "light", "dark"}

func isValidTheme(theme string) bool {
	if theme == "" {
		return true
	}
	for _, t := range ValidThemes {
		if t == theme {
			return true
		}
	}
	return false
}

// GetTransitionDelay returns the digest transition delay.
func (c *Config) GetTransitionDelay() time.Duration {
	return parseDurationOr(c.UX.TransitionDelay, 200*time.Millisecond)
}

// GetConfirmDelay returns the suggestion-chip confirmation delay.
func (c *Config) GetConfirmDelay() time.Duration {
	return parseDurationOr(c.UX.ConfirmDelay, 800*time.Millisecond)
}
