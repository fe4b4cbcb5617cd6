package assistant

import (
	"fmt"
	"strings"
	"time"

	"kinship/internal/social"
)

const suggestionPromptTemplate = `You are a personal social assistant.
Context: My friend %s sent/posted: "%s" via %s.
My relationship circle: %s.
My preferences: Tone: %s, Emojis: %s.
Forbidden words: %s.

Generate 3 distinct reply options I could send back.
1. Supportive/Nice
2. Question/Curious
3. Short/Casual

Return ONLY the 3 reply strings separated by a pipe character "|". Do not add numbering.`

const chatPromptTemplate = `You are "Kinship", a helpful, warm social assistant friend.

Here is the recent activity from the user's social circle:
%s

User's message: "%s"

Answer the user's question based on the activity log above.
If the user asks to draft a message, draft it clearly.
Be conversational, concise, and helpful.`

func suggestionPrompt(update social.Update, contact social.Contact, prefs social.Preferences) string {
	return fmt.Sprintf(suggestionPromptTemplate,
		contact.Name,
		update.Content,
		update.Channel,
		contact.Circle,
		prefs.Tone,
		prefs.EmojiUsage,
		strings.Join(prefs.ForbiddenWords, ", "),
	)
}

func chatPrompt(message string, updates []social.Update, contacts []social.Contact) string {
	return fmt.Sprintf(chatPromptTemplate, activityLog(updates, contacts), message)
}

// activityLog renders one line per update; unresolved contacts show as Unknown.
func activityLog(updates []social.Update, contacts []social.Contact) string {
	lines := make([]string, 0, len(updates))
	for _, u := range updates {
		name := "Unknown"
		if c, ok := social.FindContact(contacts, u.ContactID); ok {
			name = c.Name
		}
		lines = append(lines, fmt.Sprintf("- %s (%s): %s [%s]", name, u.Channel, u.Content, u.Timestamp.UTC().Format(time.RFC3339)))
	}
	return strings.Join(lines, "\n")
}

// parseSuggestions splits on "|", trims, drops empties and keeps at most three.
func parseSuggestions(text string) []string {
	out := make([]string, 0, maxSuggestions)
	for _, part := range strings.Split(text, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}
