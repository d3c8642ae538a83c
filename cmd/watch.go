package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clipctl/pkg/dom"
	"clipctl/pkg/errors"
	"clipctl/pkg/logger"
	"clipctl/pkg/watch"

	"github.com/spf13/cobra"
)

var (
	watchClickSelectors []string
	watchDebounce       time.Duration
	watchClear          bool
)

var watchCmd = NewCommand(
	"watch <file.html>",
	"Keep a document loaded and rebind it whenever the file changes",
	`Load an HTML document, bind its clipboard triggers and reload the body
every time the file is saved. Triggers added by a reload are bound as they
appear; with --click the matching triggers are clicked after each reload.
Stop with Ctrl-C.`,
).WithExample(`  # Re-copy the snippet every time the page is regenerated
  clipctl watch build/page.html --click '#copy-snippet'`,
).WithSession(func(cmd *cobra.Command, s *Session, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watch.New(s.Doc, s.Path, watch.Options{
		Debounce: watchDebounce,
		OnReload: func(_ context.Context, added []*dom.Element) {
			onReload(cmd, s, len(added))
		},
	})
	if err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, errors.ErrMsgWatchFailed, err)
	}
	defer w.Close()

	triggers, _ := s.Triggers(nil)
	logger.Info().Str("path", s.Path).Int("triggers", len(triggers)).Msg("watching")
	onReload(cmd, s, -1)

	if err := w.Run(ctx); err != nil && err != context.Canceled {
		return errors.NewWithError(errors.ExitCodeFileOperation, errors.ErrMsgWatchFailed, err)
	}
	return nil
}).Build()

// onReload clicks the --click triggers; added is -1 for the initial load.
func onReload(cmd *cobra.Command, s *Session, added int) {
	if watchClear {
		ClearScreen()
	}
	out := cmd.OutOrStdout()
	if added >= 0 {
		fmt.Fprintf(out, "Reloaded %s at %s (%d top-level elements)\n\n", s.Path, FormatTimestamp(time.Now()), added)
	}
	if len(watchClickSelectors) == 0 {
		return
	}

	ctx, cancel := GetContext()
	defer cancel()
	results, err := RunCopy(ctx, s, watchClickSelectors, "")
	if errors.IsExitCode(err, errors.ExitCodeValidation) {
		logger.Info().Err(err).Msg("nothing to click after reload")
		return
	}
	if err != nil {
		logger.Warn().Err(err).Msg("copy after reload failed")
		return
	}
	printCopies(out, results)
}

func ClearScreen() {
	fmt.Print("\033[H\033[2J")
}

func init() {
	watchCmd.Flags().StringArrayVar(&watchClickSelectors, "click", nil, "Selector of triggers to click after each reload (repeatable)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "Quiet period before a change is reloaded")
	watchCmd.Flags().BoolVar(&watchClear, "clear", false, "Clear the screen before each reload")
}
