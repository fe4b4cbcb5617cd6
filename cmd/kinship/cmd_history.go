package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"kinship/cmd/kinship/ui"
	"kinship/internal/store"
	"kinship/internal/usage"
)

// runHistory lists stored sessions, or replays one.
func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Store.Enabled {
		return fmt.Errorf("transcript store is disabled (store.enabled: false)")
	}
	ts, err := store.NewTranscriptStore(cfg.TranscriptPath())
	if err != nil {
		return err
	}
	defer ts.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	out := cmd.OutOrStdout()
	styles := ui.NewStyles(ui.ThemeFor(cfg.UX.Theme))

	if len(args) == 0 {
		sessions, err := ts.Sessions(limit)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No saved sessions found.")
			return nil
		}
		table := ui.NewTable("Sessions", "Session", "Turns", "Started", "Last")
		for _, s := range sessions {
			table.AddRow(s.SessionID, fmt.Sprint(s.Turns), s.StartedAt.Local().Format(time.DateTime), humanize.Time(s.LastAt))
		}
		fmt.Fprint(out, table.View(styles))
		fmt.Fprintln(out, "\nUse: kinship history <session-id>")
		return nil
	}

	turns, err := ts.History(args[0], limit)
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		return fmt.Errorf("session %q not found", args[0])
	}
	for _, t := range turns {
		who := "kinship"
		if t.Role == "user" {
			who = "you"
		}
		line := t.Text
		switch t.Kind {
		case "update_card":
			line = "[update " + t.UpdateID + "] " + t.Text
		case "suggestions":
			line = t.Text + " " + strings.Join(t.Suggestions, " | ")
		}
		fmt.Fprintf(out, "%s %s %s\n", styles.Muted.Render(t.CreatedAt.Local().Format(time.TimeOnly)), styles.Bold.Render(who+":"), line)
	}
	return nil
}

// runUsage prints token usage totals.
func runUsage(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tracker, err := usage.NewTracker(cfg.DataDir)
	if err != nil {
		return err
	}
	defer tracker.Close()

	stats := tracker.Stats()
	out := cmd.OutOrStdout()
	if stats.Total.Calls == 0 {
		fmt.Fprintln(out, "No assistant calls recorded yet.")
		return nil
	}

	styles := ui.NewStyles(ui.ThemeFor(cfg.UX.Theme))
	table := ui.NewTable("Usage", "Breakdown", "Calls", "Input", "Output", "Total")
	table.AddRow("total", humanize.Comma(stats.Total.Calls), humanize.Comma(stats.Total.Input), humanize.Comma(stats.Total.Output), humanize.Comma(stats.Total.Total))
	for _, section := range []struct {
		name string
		m    map[string]usage.TokenCounts
	}{
		{"model", stats.ByModel},
		{"surface", stats.BySurface},
		{"operation", stats.ByOperation},
	} {
		keys := make([]string, 0, len(section.m))
		for k := range section.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			c := section.m[k]
			table.AddRow(section.name+": "+k, humanize.Comma(c.Calls), humanize.Comma(c.Input), humanize.Comma(c.Output), humanize.Comma(c.Total))
		}
	}
	fmt.Fprint(out, table.View(styles))

	if last, ok := tracker.LastCall(); ok {
		fmt.Fprintf(out, "\nLast call: %s %s (%s)\n", last.Model, last.OperationType, humanize.Time(last.Timestamp))
	}
	return nil
}
