package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"kinship/cmd/kinship/shell"
	"kinship/cmd/kinship/ui"
	"kinship/internal/conversation"
	"kinship/internal/fixtures"
	"kinship/internal/logging"
)

// runInteractive starts the full-screen interface.
func runInteractive(ctx context.Context) error {
	rt, err := bootstrap(ctx, bootOptions{watch: true, transcript: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.prefs.IncrementMetric("sessions_count"); err != nil {
		logging.UIDebug("sessions metric: %v", err)
	}

	var recorder conversation.Recorder
	if rt.transcript != nil {
		recorder = rt.transcript.Session(rt.sessionID)
	}
	var reloads <-chan fixtures.Set
	if rt.watcher != nil {
		reloads = rt.watcher.Reloads()
	}

	m := shell.New(shell.Deps{
		Context:         rt.callContext(ctx, "tui"),
		State:           rt.state,
		Assistant:       rt.gateway,
		Preferences:     rt.prefs,
		Recorder:        recorder,
		Reloads:         reloads,
		SessionID:       rt.sessionID,
		Theme:           ui.ThemeFor(rt.cfg.UX.Theme),
		TransitionDelay: rt.cfg.GetTransitionDelay(),
		ConfirmDelay:    rt.cfg.GetConfirmDelay(),
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !(errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil) {
		return fmt.Errorf("interactive session failed: %w", err)
	}

	if err := rt.prefs.Save(); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	logging.UI("session %s ended", rt.sessionID)
	return nil
}
