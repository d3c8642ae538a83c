package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"clipctl/pkg/completions"
	"clipctl/pkg/errors"
	"clipctl/pkg/logger"

	"github.com/spf13/cobra"
)

const (
	unknownValue = "unknown"
)

var (
	Version   string
	BuildTime string
	GitCommit string
)

var defaultTimeout = 30 * time.Second
var globalTimeout time.Duration
var outputFormat string
var dryRunFlag bool
var assumeYesFlag bool
var logLevel string
var profileFlag string

// Per-invocation overrides of the clipboard section of the config file.
var (
	modeFlag           string
	grammarFlag        string
	prefixFlag         string
	dispatchTargetFlag string
)

var rootCmd = &cobra.Command{
	Use:   "clipctl",
	Short: "Declarative clipboard copy for HTML documents",
	Long: `CLI tool that loads an HTML document, binds the elements carrying
clipboard-* attributes and performs the copies they declare. Supports
legacy plain-text and rich multi-format payloads, live reload of the
document and a local sqlite journal of copy diagnostics.
Uses the XDG config directory for configuration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if globalTimeout <= 0 {
			globalTimeout = defaultTimeout
		}
		// Set log level: explicit flag takes precedence over env var
		level := logLevel
		if !cmd.Flags().Changed("log-level") {
			if envLevel := os.Getenv("CLIPCTL_LOG_LEVEL"); envLevel != "" {
				level = envLevel
			}
		}
		logger.SetLevel(level)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		ver := Version
		if ver == "" {
			ver = "dev"
		}
		bt := BuildTime
		if bt == "" {
			bt = unknownValue
		}
		gc := GitCommit
		if gc == "" {
			gc = unknownValue
		}

		fmt.Printf("clipctl version %s\n", ver)
		fmt.Printf("Built: %s\n", bt)
		fmt.Printf("Git commit: %s\n", gc)
	},
}

func Execute() {
	// after every init so all command flags exist
	completions.RegisterCompletions(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		exitCode := errors.HandleReturn(err)
		os.Exit(int(exitCode))
	}
}

func GetContext() (context.Context, context.CancelFunc) {
	timeout := globalTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}

func init() {
	RegisterCommands(rootCmd)

	rootCmd.PersistentFlags().DurationVar(&globalTimeout, "timeout", defaultTimeout, "Timeout for one copy, including action end events (e.g., 30s, 1m)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&dryRunFlag, "dry-run", false, "Build payloads without touching the system clipboard")
	rootCmd.PersistentFlags().BoolVarP(&assumeYesFlag, "yes", "y", false, "Skip confirmation prompts")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&profileFlag, "profile", "", "Configuration profile to use (overrides active_profile)")

	rootCmd.PersistentFlags().StringVar(&modeFlag, "mode", "", "Payload mode (rich, legacy)")
	rootCmd.PersistentFlags().StringVar(&grammarFlag, "grammar", "", "Attribute grammar (multi, query)")
	rootCmd.PersistentFlags().StringVar(&prefixFlag, "prefix", "", "Attribute prefix (default clipboard)")
	rootCmd.PersistentFlags().StringVar(&dispatchTargetFlag, "dispatch-target", "", "Where the completion event is dispatched (document, trigger)")
}
