package cmd

import (
	"fmt"
	"io"
	"strings"

	"clipctl/pkg/actions"
	"clipctl/pkg/filter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	scanFilter     string
	scanFilterMode string
	scanTag        string
	scanOwnedOnly  bool
)

// ScanOutput describes one trigger and what it would copy right now.
type ScanOutput struct {
	Trigger    string            `json:"trigger" yaml:"trigger"`
	Tag        string            `json:"tag" yaml:"tag"`
	Attributes map[string]string `json:"attributes" yaml:"attributes"`
	Targets    []string          `json:"targets" yaml:"targets"`
	Actions    []string          `json:"actions,omitempty" yaml:"actions,omitempty"`
	Owned      bool              `json:"owned" yaml:"owned"`
}

var scanCmd = NewCommand(
	"scan <file.html>",
	"List the clipboard triggers of a document",
	`List every element that declares clipboard attributes, the attributes it
declares, the targets it currently resolves to and whether a declared
action runs its copy.`,
).WithExample(`  # All triggers
  clipctl scan page.html

  # Triggers whose id, selector or targets fuzzily match "snip"
  clipctl scan page.html --filter snip

  # Buttons copied through actions, as YAML
  clipctl scan page.html --tag button --owned --format yaml`,
).WithSession(func(cmd *cobra.Command, s *Session, args []string) error {
	f, err := scanTriggerFilter()
	if err != nil {
		return err
	}

	results, err := RunScan(s, f)
	if err != nil {
		return err
	}

	output := NewOutputWriter(outputFormat)
	output.SetWriter(cmd.OutOrStdout())
	if output.IsStructured() {
		return output.Write(results)
	}
	printScan(cmd.OutOrStdout(), results)
	return nil
}).Build()

func scanTriggerFilter() (*filter.TriggerFilter, error) {
	mode, err := filter.ParseFilterMode(scanFilterMode)
	if err != nil {
		return nil, err
	}
	text, err := filter.NewStringFilter(scanFilter, mode)
	if err != nil {
		return nil, err
	}
	return &filter.TriggerFilter{Text: text, Tag: scanTag, OwnedOnly: scanOwnedOnly}, nil
}

// RunScan describes the triggers of s that f keeps.
func RunScan(s *Session, f *filter.TriggerFilter) ([]ScanOutput, error) {
	triggers, err := s.Triggers(nil)
	if err != nil {
		return nil, err
	}

	opts := s.Manager.Options()
	var results []ScanOutput
	for _, el := range triggers {
		out := ScanOutput{
			Trigger:    el.String(),
			Tag:        el.TagName(),
			Attributes: make(map[string]string),
			Owned:      s.Manager.Owned(el),
		}
		var values []string
		for _, kv := range opts.Grammar.Declared(el) {
			out.Attributes[kv[0]] = kv[1]
			values = append(values, kv[1])
		}
		if v, ok := el.GetAttribute(opts.ActionsAttribute); ok {
			out.Actions = actions.ParseNames(v)
		}
		for _, t := range s.Manager.Resolve(el) {
			out.Targets = append(out.Targets, t.String())
		}

		if f.Matches(filter.Candidate{
			ID:       out.Trigger,
			Tag:      out.Tag,
			Selector: strings.Join(values, " "),
			Targets:  out.Targets,
			Owned:    out.Owned,
		}) {
			results = append(results, out)
		}
	}
	return results, nil
}

func printScan(w io.Writer, results []ScanOutput) {
	printHeading(w, fmt.Sprintf("Triggers (%d)", len(results)))
	cyan := color.New(color.FgCyan)
	for _, r := range results {
		_, _ = cyan.Fprintf(w, "%s", r.Trigger)
		fmt.Fprintf(w, "  [%s]\n", StatusLabel(!r.Owned, "click", "action"))
		for _, name := range sortedKeys(r.Attributes) {
			fmt.Fprintf(w, "  %s=%q\n", name, r.Attributes[name])
		}
		if len(r.Actions) > 0 {
			fmt.Fprintf(w, "  actions: %s\n", strings.Join(r.Actions, ", "))
		}
		fmt.Fprintf(w, "  targets: %s\n", strings.Join(r.Targets, ", "))
		fmt.Fprintln(w)
	}
}

func init() {
	scanCmd.Flags().StringVar(&scanFilter, "filter", "", "Keep triggers whose id, selector or targets match")
	scanCmd.Flags().StringVar(&scanFilterMode, "filter-mode", "fuzzy", "How --filter matches (contains, exact, regex, fuzzy, none)")
	scanCmd.Flags().StringVar(&scanTag, "tag", "", "Keep triggers with this tag name")
	scanCmd.Flags().BoolVar(&scanOwnedOnly, "owned", false, "Keep triggers whose copy runs through an action")
}
