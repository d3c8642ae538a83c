// Package completions registers shell completions for clipctl flag values.
package completions

import (
	"strings"
	"sync"

	"clipctl/pkg/clipboard"
	"clipctl/pkg/config"
	"clipctl/pkg/filter"
	"clipctl/pkg/payload"
	"clipctl/pkg/query"

	"github.com/spf13/cobra"
)

type Completer struct {
	loadProfiles func() []string

	mu       sync.RWMutex
	profiles []string
}

func NewCompleter() *Completer {
	return &Completer{loadProfiles: configuredProfiles}
}

func configuredProfiles() []string {
	cfg, err := config.Load()
	if err != nil {
		return nil
	}
	return cfg.ListProfiles()
}

func (c *Completer) CompleteMode(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return c.describe([]string{
		string(payload.ModeRich) + "\tOne item per target with text/plain and text/html",
		string(payload.ModeLegacy) + "\tAll targets joined into one plain-text string",
	}, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteGrammar(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return c.describe([]string{
		string(query.VariantMulti) + "\tSeparate -selector, -closest, -parent, -next and -previous attributes",
		string(query.VariantQuery) + "\tOne -query attribute holding a step chain",
	}, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteDispatchTarget(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return c.describe([]string{
		string(clipboard.DispatchDocument) + "\tDispatch the completion event on the document",
		string(clipboard.DispatchTrigger) + "\tDispatch on the trigger and let it bubble",
	}, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteFilterMode(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return c.filterPrefix(filter.ModeNames(), toComplete), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteFormat(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return c.describe([]string{
		"table\tAligned columns",
		"json\tIndented JSON",
		"yaml\tYAML documents",
	}, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteLogLevel(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	levels := []string{"debug", "info", "warn", "error", "fatal", "panic"}
	return c.filterPrefix(levels, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteProfile(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	c.mu.Lock()
	if c.profiles == nil && c.loadProfiles != nil {
		c.profiles = c.loadProfiles()
	}
	profiles := c.profiles
	c.mu.Unlock()

	return c.filterPrefix(profiles, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) describe(items []string, prefix string) []string {
	results := c.filterPrefix(items, prefix)
	if results == nil {
		return []string{}
	}
	return results
}

func (c *Completer) filterPrefix(items []string, prefix string) []string {
	var result []string
	for _, item := range items {
		itemName := strings.Split(item, "\t")[0]
		if strings.HasPrefix(strings.ToLower(itemName), strings.ToLower(prefix)) {
			result = append(result, item)
		}
	}
	return result
}

// RegisterCompletions attaches completion functions to every flag of root's
// command tree that takes one of the known value sets.
func RegisterCompletions(rootCmd *cobra.Command) {
	completer := NewCompleter()
	funcs := map[string]func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective){
		"mode":            completer.CompleteMode,
		"grammar":         completer.CompleteGrammar,
		"dispatch-target": completer.CompleteDispatchTarget,
		"filter-mode":     completer.CompleteFilterMode,
		"format":          completer.CompleteFormat,
		"log-level":       completer.CompleteLogLevel,
		"profile":         completer.CompleteProfile,
	}

	var walk func(*cobra.Command)
	walk = func(cmd *cobra.Command) {
		for name, fn := range funcs {
			if cmd.LocalFlags().Lookup(name) != nil {
				cmd.RegisterFlagCompletionFunc(name, fn)
			}
		}
		for _, sub := range cmd.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)

	if useCmd, _, err := rootCmd.Find([]string{"config", "profiles", "use"}); err == nil && useCmd.Name() == "use" {
		useCmd.ValidArgsFunction = completer.CompleteProfile
	}
}
