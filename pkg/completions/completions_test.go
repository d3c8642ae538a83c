package completions

import (
	"reflect"
	"testing"

	"github.com/spf13/cobra"
)

func TestFilterPrefix(t *testing.T) {
	c := &Completer{}
	items := []string{"rich\tdesc", "legacy\tdesc", "Raw"}

	tests := []struct {
		prefix string
		want   []string
	}{
		{"", items},
		{"r", []string{"rich\tdesc", "Raw"}},
		{"LEG", []string{"legacy\tdesc"}},
		{"x", nil},
	}

	for _, tt := range tests {
		if got := c.filterPrefix(items, tt.prefix); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("filterPrefix(%q) = %v, want %v", tt.prefix, got, tt.want)
		}
	}
}

func TestCompleteValueSets(t *testing.T) {
	c := &Completer{}

	tests := []struct {
		name   string
		fn     func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective)
		prefix string
		want   int
	}{
		{"mode", c.CompleteMode, "", 2},
		{"mode prefix", c.CompleteMode, "le", 1},
		{"grammar", c.CompleteGrammar, "q", 1},
		{"dispatch target", c.CompleteDispatchTarget, "", 2},
		{"filter mode", c.CompleteFilterMode, "", 5},
		{"format", c.CompleteFormat, "j", 1},
		{"log level", c.CompleteLogLevel, "", 6},
		{"no match", c.CompleteMode, "zzz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, directive := tt.fn(nil, nil, tt.prefix)
			if len(got) != tt.want {
				t.Errorf("completions = %v, want %d entries", got, tt.want)
			}
			if directive != cobra.ShellCompDirectiveNoFileComp {
				t.Errorf("directive = %v, want NoFileComp", directive)
			}
		})
	}
}

func TestCompleteProfileLoadsOnce(t *testing.T) {
	calls := 0
	c := &Completer{loadProfiles: func() []string {
		calls++
		return []string{"docs", "dev"}
	}}

	got, _ := c.CompleteProfile(nil, nil, "do")
	if !reflect.DeepEqual(got, []string{"docs"}) {
		t.Errorf("CompleteProfile() = %v, want [docs]", got)
	}
	c.CompleteProfile(nil, nil, "")
	if calls != 1 {
		t.Errorf("loadProfiles called %d times, want 1", calls)
	}
}

func TestRegisterCompletions(t *testing.T) {
	root := &cobra.Command{Use: "clipctl"}
	root.PersistentFlags().String("log-level", "info", "")
	copyCmd := &cobra.Command{Use: "copy", Run: func(*cobra.Command, []string) {}}
	copyCmd.Flags().String("mode", "", "")
	copyCmd.Flags().String("unrelated", "", "")
	root.AddCommand(copyCmd)

	RegisterCompletions(root)

	if _, ok := copyCmd.GetFlagCompletionFunc("mode"); !ok {
		t.Error("--mode has no completion")
	}
	if _, ok := copyCmd.GetFlagCompletionFunc("unrelated"); ok {
		t.Error("--unrelated should have no completion")
	}
	if _, ok := root.GetFlagCompletionFunc("log-level"); !ok {
		t.Error("--log-level has no completion")
	}
}
