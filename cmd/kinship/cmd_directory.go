package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kinship/cmd/kinship/ui"
	"kinship/internal/social"
)

// runCircles prints the active contacts grouped by circle.
func runCircles(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap(cmd.Context(), bootOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	contacts := rt.state.Contacts()
	if len(contacts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No contacts.")
		return nil
	}

	table := ui.NewTable("Circles", "Circle", "Name", "Channels")
	for _, g := range social.GroupByCircle(contacts) {
		for i, c := range g.Contacts {
			circle := ""
			if i == 0 {
				circle = string(g.Circle)
			}
			channels := make([]string, 0, len(c.Channels))
			for _, ch := range c.Channels {
				channels = append(channels, string(ch))
			}
			table.AddRow(circle, c.Name, strings.Join(channels, ", "))
		}
	}
	fmt.Fprint(cmd.OutOrStdout(), table.View(ui.NewStyles(ui.ThemeFor(rt.cfg.UX.Theme))))
	return nil
}

// runReset clears the onboarding outcome.
func runReset(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap(cmd.Context(), bootOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.state.Reset(); err != nil {
		return err
	}
	logger.Info("onboarding reset")
	fmt.Fprintln(cmd.OutOrStdout(), "Onboarding reset. The wizard will run on next launch.")
	return nil
}
