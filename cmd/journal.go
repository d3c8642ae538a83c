package cmd

import (
	"fmt"
	"io"
	"time"

	"clipctl/pkg/config"
	"clipctl/pkg/diagnostics"
	"clipctl/pkg/errors"
	"clipctl/pkg/journal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	journalLimit int
	journalKinds []string
	journalPrune time.Duration
	journalStats bool
)

// JournalOutput is one journal entry as printed by the journal command.
type JournalOutput struct {
	ID         string    `json:"id" yaml:"id"`
	Kind       string    `json:"kind" yaml:"kind"`
	Trigger    string    `json:"trigger,omitempty" yaml:"trigger,omitempty"`
	Target     string    `json:"target,omitempty" yaml:"target,omitempty"`
	Message    string    `json:"message" yaml:"message"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
	ItemCount  int       `json:"item_count" yaml:"item_count"`
	MediaTypes []string  `json:"media_types,omitempty" yaml:"media_types,omitempty"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show or prune the copy diagnostics journal",
	Long: `Show the most recent diagnostics recorded by copy and watch: completed
copies, skipped values, empty payloads, failed writes and action timeouts.
Only metadata is stored, never the copied content.`,
	Example: `  # Last 20 entries
  clipctl journal

  # Only failures, as JSON
  clipctl journal --kind write_failed --kind action_timeout --format json

  # Drop entries older than a week
  clipctl journal --prune 168h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		j, err := openJournal(cfg)
		if err != nil {
			return errors.NewWithError(errors.ExitCodeFileOperation, errors.ErrMsgJournalFailed, err)
		}
		defer j.Close()

		out := cmd.OutOrStdout()
		switch {
		case journalPrune > 0:
			return pruneJournal(out, j, journalPrune)
		case journalStats:
			return printJournalStats(out, j)
		}

		kinds := make([]diagnostics.Kind, 0, len(journalKinds))
		for _, k := range journalKinds {
			kinds = append(kinds, diagnostics.Kind(k))
		}
		entries, err := j.Recent(journalLimit, kinds...)
		if err != nil {
			return errors.NewWithError(errors.ExitCodeFileOperation, errors.ErrMsgJournalFailed, err)
		}

		results := make([]JournalOutput, 0, len(entries))
		for _, e := range entries {
			results = append(results, journalOutput(e))
		}

		output := NewOutputWriter(outputFormat)
		output.SetWriter(out)
		if output.IsStructured() {
			return output.Write(results)
		}
		printJournal(out, cfg, results)
		return nil
	},
}

func journalOutput(e journal.Entry) JournalOutput {
	return JournalOutput{
		ID:         e.ID,
		Kind:       string(e.Kind),
		Trigger:    e.Trigger,
		Target:     e.Target,
		Message:    e.Message,
		Error:      e.Error,
		ItemCount:  e.ItemCount,
		MediaTypes: e.MediaTypes,
		CreatedAt:  e.CreatedAt,
	}
}

func pruneJournal(w io.Writer, j *journal.Journal, olderThan time.Duration) error {
	if IsDryRun() {
		PrintDryRun(w, "would delete journal entries older than %s", olderThan)
		return nil
	}
	ok, err := ConfirmDestructive("delete journal entries", map[string]string{"older than": olderThan.String()})
	if err != nil {
		return err
	}
	if !ok {
		return errors.CancelledError("journal prune")
	}

	n, err := j.Prune(olderThan)
	if err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, errors.ErrMsgJournalFailed, err)
	}
	fmt.Fprintf(w, "Deleted %d journal entries.\n", n)
	return nil
}

func printJournalStats(w io.Writer, j *journal.Journal) error {
	counts, err := j.Counts()
	if err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, errors.ErrMsgJournalFailed, err)
	}

	output := NewOutputWriter(outputFormat)
	output.SetWriter(w)
	if output.IsStructured() {
		return output.Write(counts)
	}

	printHeading(w, "Journal")
	byName := make(map[string]string, len(counts))
	for k, n := range counts {
		byName[string(k)] = fmt.Sprint(n)
	}
	for _, k := range sortedKeys(byName) {
		fmt.Fprintf(w, "  %-18s %s\n", k, byName[k])
	}
	return nil
}

func printJournal(w io.Writer, cfg *config.Config, results []JournalOutput) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No journal entries.")
		if !cfg.Journal.Enabled {
			fmt.Fprintln(w, "The journal is disabled; set journal.enabled in the config file or CLIPCTL_JOURNAL=true.")
		}
		return
	}

	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	for _, r := range results {
		kind := r.Kind
		switch diagnostics.Kind(r.Kind) {
		case diagnostics.KindCopied:
			kind = green.Sprint(kind)
		case diagnostics.KindWriteFailed, diagnostics.KindActionTimeout, diagnostics.KindValueFailed:
			kind = red.Sprint(kind)
		}
		fmt.Fprintf(w, "%s  %-18s %s\n", FormatTimestamp(r.CreatedAt), kind, r.Message)
		if r.Trigger != "" {
			fmt.Fprintf(w, "    trigger: %s\n", r.Trigger)
		}
		if r.Target != "" {
			fmt.Fprintf(w, "    target: %s\n", r.Target)
		}
		if r.Error != "" {
			fmt.Fprintf(w, "    error: %s\n", r.Error)
		}
	}
}

func init() {
	journalCmd.Flags().IntVar(&journalLimit, "limit", 20, "Number of entries to show")
	journalCmd.Flags().StringArrayVar(&journalKinds, "kind", nil, "Only show entries of this kind (repeatable)")
	journalCmd.Flags().DurationVar(&journalPrune, "prune", 0, "Delete entries older than this duration")
	journalCmd.Flags().BoolVar(&journalStats, "stats", false, "Show entry counts per kind")
}
