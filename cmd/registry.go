package cmd

import "github.com/spf13/cobra"

func RegisterCommands(root *cobra.Command) {
	root.AddCommand(versionCmd)
	root.AddCommand(clipboardServeCmd)

	root.AddCommand(copyCmd)
	root.AddCommand(scanCmd)
	root.AddCommand(watchCmd)
	root.AddCommand(journalCmd)
	root.AddCommand(configCmd)
}
