// Package assistant is the boundary to the generative-language service.
// Its two operations, SuggestReplies and Chat, always return a usable value:
// transport failures are logged and replaced with fixed fallbacks.
package assistant

import (
	"context"
	"time"

	"kinship/internal/logging"
	"kinship/internal/social"
	"kinship/internal/usage"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

const maxSuggestions = 3

const (
	// ChatApology replaces a chat answer when the call fails.
	ChatApology = "I apologize, I'm experiencing a temporary glitch. Please try again."
	// ChatEmpty replaces a chat answer when the service returns no text.
	ChatEmpty = "I'm having trouble connecting to your social brain right now."
)

// Operation names recorded with token usage.
const (
	OpSuggest = "suggest"
	OpChat    = "chat"
)

var fallbackReplies = []string{"Sounds great!", "Wow!", "Can't wait to hear more."}

// FallbackReplies returns a fresh copy of the fixed suggestion fallback.
func FallbackReplies() []string {
	out := make([]string, len(fallbackReplies))
	copy(out, fallbackReplies)
	return out
}

// UsageRecorder receives token counts for each successful call.
type UsageRecorder interface {
	Track(ctx context.Context, model, provider string, input, output int, operation string)
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithUsage records token usage on r. Without it the tracker in the call
// context, if any, is used.
func WithUsage(r UsageRecorder) Option {
	return func(g *Gateway) { g.usage = r }
}

// WithTimeout bounds each call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.timeout = d }
}

// Gateway wraps a Generator with prompt construction and fallbacks.
// A nil Generator is valid; every call then yields its fallback.
type Gateway struct {
	gen     Generator
	timeout time.Duration
	usage   UsageRecorder
}

// NewGateway creates a gateway over gen.
func NewGateway(gen Generator, opts ...Option) *Gateway {
	g := &Gateway{gen: gen}
	for _, opt := range opts {
		opt(g)
	}
	logging.API("gateway created: live=%v timeout=%s", gen != nil, g.timeout)
	return g
}

// Available reports whether a live generator is attached.
func (g *Gateway) Available() bool {
	return g != nil && g.gen != nil
}

// SuggestReplies proposes up to three replies to update in the user's voice.
// The result is never empty.
func (g *Gateway) SuggestReplies(ctx context.Context, update social.Update, contact social.Contact, prefs social.Preferences) []string {
	if !g.Available() {
		logging.APIWarn("suggest: no generator, using fallback replies")
		return FallbackReplies()
	}

	out, err := g.generate(ctx, suggestionPrompt(update, contact, prefs), OpSuggest)
	if err != nil {
		logging.APIWarn("suggest for update %s failed: %v", update.ID, err)
		return FallbackReplies()
	}

	replies := parseSuggestions(out.Text)
	if len(replies) == 0 {
		logging.APIWarn("suggest for update %s returned no usable replies", update.ID)
		return FallbackReplies()
	}
	logging.APIDebug("suggest for update %s: %d replies", update.ID, len(replies))
	return replies
}

// Chat answers message with the given updates as context.
func (g *Gateway) Chat(ctx context.Context, message string, updates []social.Update, contacts []social.Contact) string {
	if !g.Available() {
		logging.APIWarn("chat: no generator, returning apology")
		return ChatApology
	}

	out, err := g.generate(ctx, chatPrompt(message, updates, contacts), OpChat)
	if err != nil {
		logging.APIWarn("chat failed: %v", err)
		return ChatApology
	}
	if out.Text == "" {
		logging.APIWarn("chat returned empty text")
		return ChatEmpty
	}
	return out.Text
}

func (g *Gateway) generate(ctx context.Context, prompt, op string) (Generation, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := g.gen.Generate(ctx, prompt)
	if err != nil {
		return Generation{}, err
	}
	logging.APIDebug("%s call completed in %s (in=%d out=%d)", op, time.Since(start), out.InputTokens, out.OutputTokens)

	g.recordUsage(ctx, out, op)
	return out, nil
}

func (g *Gateway) recordUsage(ctx context.Context, out Generation, op string) {
	rec := g.usage
	if rec == nil {
		if t := usage.FromContext(ctx); t != nil {
			rec = t
		}
	}
	if rec == nil {
		return
	}
	rec.Track(ctx, out.Model, ProviderGemini, out.InputTokens, out.OutputTokens, op)
}
