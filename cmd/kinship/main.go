// Package main provides the kinship CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	configPath string
	verbose    bool
	apiKey     string
	timeout    time.Duration

	// Logger for non-interactive commands
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "kinship",
	Short: "kinship - stay close to the people who matter",
	Long: `kinship collects what your friends and family have been up to and helps
you keep in touch: ask about them in chat, swipe through a daily digest and
reply with suggestions written in your own voice.

Run without arguments to start the interactive interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The interactive UI owns the terminal; it logs to file only.
		if cmd == cmd.Root() {
			return nil
		}

		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd.Context())
	},
}

var askCmd = &cobra.Command{
	Use:   "ask [message...]",
	Short: "Ask the assistant about your contacts' recent updates",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest [update-id]",
	Short: "Draft reply suggestions for one update, or for all of them",
	Long: `Prints up to three reply suggestions in your configured tone.
Without an update ID every active update is processed concurrently.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSuggest,
}

var circlesCmd = &cobra.Command{
	Use:   "circles",
	Short: "List contacts grouped by circle",
	RunE:  runCircles,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget onboarding so the wizard runs again",
	RunE:  runReset,
}

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "List stored chat sessions, or replay one",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show assistant token usage",
	RunE:  runUsage,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.kinship/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (overrides config and env)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Per-call assistant timeout (overrides config)")

	suggestCmd.Flags().Int("concurrency", 4, "Maximum concurrent requests when no update ID is given")
	historyCmd.Flags().Int("limit", 20, "Maximum sessions or turns to show")

	rootCmd.AddCommand(
		askCmd,
		suggestCmd,
		circlesCmd,
		resetCmd,
		historyCmd,
		usageCmd,
	)
}

func main() {
	// A local .env may carry GEMINI_API_KEY; real environment wins.
	_ = godotenv.Load(".env")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
