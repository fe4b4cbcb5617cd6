package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kinship/cmd/kinship/ui"
	"kinship/internal/social"
)

// runAsk answers one chat message over the active updates.
func runAsk(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap(cmd.Context(), bootOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	message := strings.Join(args, " ")
	logger.Debug("ask", zap.String("message", message), zap.Bool("live", rt.gateway.Available()))

	ctx := rt.callContext(cmd.Context(), "cli")
	answer := rt.gateway.Chat(ctx, message, rt.state.Updates(), rt.state.Contacts())

	md := ui.NewMarkdown(ui.ThemeFor(rt.cfg.UX.Theme), 80)
	fmt.Fprintln(cmd.OutOrStdout(), md.Render(answer))
	return nil
}

// suggestion is one update's result in the suggest command.
type suggestion struct {
	update  social.Update
	contact social.Contact
	replies []string
}

// runSuggest drafts replies for one update, or for every active update
// concurrently.
func runSuggest(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap(cmd.Context(), bootOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	updates := rt.state.Updates()
	if len(args) == 1 {
		u, ok := social.FindUpdate(updates, args[0])
		if !ok {
			return fmt.Errorf("update %q not found", args[0])
		}
		updates = []social.Update{u}
	}

	limit, _ := cmd.Flags().GetInt("concurrency")
	if limit < 1 {
		limit = 1
	}

	ctx := rt.callContext(cmd.Context(), "cli")
	prefs := rt.state.Preferences()
	contacts := rt.state.Contacts()
	results := make([]*suggestion, len(updates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, u := range updates {
		contact, ok := social.FindContact(contacts, u.ContactID)
		if !ok {
			logger.Debug("skipping update with unknown contact", zap.String("update", u.ID))
			continue
		}
		g.Go(func() error {
			replies := rt.gateway.SuggestReplies(gctx, u, contact, prefs)
			results[i] = &suggestion{update: u, contact: contact, replies: replies}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("suggest interrupted: %w", err)
	}

	styles := ui.NewStyles(ui.ThemeFor(rt.cfg.UX.Theme))
	out := cmd.OutOrStdout()
	for _, r := range results {
		if r == nil {
			continue
		}
		fmt.Fprintf(out, "%s %s\n", styles.Bold.Render(r.contact.Name), styles.Muted.Render(fmt.Sprintf("(%s · %s)", r.update.Channel, r.update.ID)))
		fmt.Fprintf(out, "  %s\n", r.update.Content)
		for i, reply := range r.replies {
			fmt.Fprintf(out, "    %d. %s\n", i+1, reply)
		}
		fmt.Fprintln(out)
	}
	if !rt.gateway.Available() {
		fmt.Fprintln(out, styles.Warning.Render("No API key configured: showing fallback replies."))
	}
	return nil
}
