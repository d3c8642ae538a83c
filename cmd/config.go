package cmd

import (
	"fmt"
	"io"
	"os"

	"clipctl/pkg/config"
	"clipctl/pkg/errors"

	"github.com/spf13/cobra"
)

var (
	configProfileName string
	configInitForce   bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage clipctl configuration and profiles",
	Long:  `Manage clipctl configuration, including named profiles of clipboard settings.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration: file, environment, active profile and command line flags combined.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		output := NewOutputWriter(outputFormat)
		output.SetWriter(cmd.OutOrStdout())
		if output.IsStructured() {
			return output.Write(cfg)
		}
		printConfig(cmd.OutOrStdout(), cfg)
		return nil
	},
}

func printConfig(w io.Writer, cfg *config.Config) {
	printHeading(w, "Current Configuration:")
	fmt.Fprintf(w, "Active Profile: %s\n", func() string {
		if cfg.ActiveProfile == "" {
			return "(none)"
		}
		return cfg.ActiveProfile
	}())
	fmt.Fprintln(w)

	c := cfg.Clipboard
	fmt.Fprintf(w, "Mode: %s\n", c.Mode)
	fmt.Fprintf(w, "Grammar: %s\n", c.Grammar)
	fmt.Fprintf(w, "Attribute Prefix: %s\n", c.AttributePrefix)
	fmt.Fprintf(w, "Action Name: %s\n", c.ActionName)
	fmt.Fprintf(w, "End Event: %s\n", c.EndEvent)
	fmt.Fprintf(w, "Dispatch Target: %s\n", c.DispatchTarget)
	fmt.Fprintf(w, "Action Timeout: %s\n", c.ActionTimeout)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Journal: %s (%s)\n", StatusLabel(cfg.Journal.Enabled, "enabled", "disabled"), cfg.Journal.Path)

	if len(cfg.Profiles) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Available Profiles:")
		for _, p := range cfg.Profiles {
			active := ""
			if cfg.IsProfileActive(p.Name) {
				active = " (active)"
			}
			fmt.Fprintf(w, "  - %s%s\n", p.Name, active)
		}
	}
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return errors.NewWithError(errors.ExitCodeConfig, "failed to get config path", err)
		}
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return errors.NewWithSuggestion(errors.ExitCodeConfig,
				fmt.Sprintf("config file already exists: %s", path),
				"Use --force to overwrite it")
		}

		cfg := config.Default()
		applyFlagOverrides(&cfg.Clipboard)
		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
		return nil
	},
}

var configProfilesCmd = &cobra.Command{
	Use:     "profiles",
	Aliases: []string{"profile"},
	Short:   "Manage configuration profiles",
	Long:    `List, add, remove, and switch between clipboard settings profiles.`,
}

var configProfilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()

		profiles := cfg.ListProfiles()
		if len(profiles) == 0 {
			fmt.Fprintln(w, "No profiles configured.")
			fmt.Fprintln(w, "Use 'clipctl config profiles add --name <name>' to create one.")
			return nil
		}

		fmt.Fprintln(w, "Profiles:")
		for _, name := range profiles {
			profile, _ := cfg.GetProfile(name)
			active := ""
			if cfg.IsProfileActive(name) {
				active = " *active*"
			}
			fmt.Fprintf(w, "  %s%s\n", name, active)
			c := profile.Clipboard
			fmt.Fprintf(w, "    Mode: %s, Grammar: %s, Prefix: %s\n", orDash(c.Mode), orDash(c.Grammar), orDash(c.AttributePrefix))
		}

		return nil
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

var configProfilesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new profile",
	Long:  `Add a new profile from the clipboard flags given on the command line.`,
	Example: `  # Plain-text copies of elements using copy-* attributes
  clipctl config profiles add --name docs --mode legacy --prefix copy

  # Unified query grammar, completion event on the trigger
  clipctl config profiles add --name app --grammar query --dispatch-target trigger`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configProfileName == "" {
			return errors.ValidationError(errors.ErrMsgInvalidInput + ": profile name is required (--name)")
		}

		cfg, err := config.Load()
		if err != nil {
			cfg = &config.Config{}
		}

		profile := config.Profile{Name: configProfileName}
		applyFlagOverrides(&profile.Clipboard)

		if err := cfg.AddProfile(profile); err != nil {
			return err
		}

		if err := config.Save(cfg); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Profile '%s' added successfully.\n", configProfileName)
		fmt.Fprintf(cmd.OutOrStdout(), "Use 'clipctl config profiles use --name %s' to activate it.\n", configProfileName)

		return nil
	},
}

var configProfilesRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		if configProfileName == "" {
			return errors.ValidationError(errors.ErrMsgInvalidInput + ": profile name is required (--name)")
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		if err := cfg.RemoveProfile(configProfileName); err != nil {
			return err
		}

		if err := config.Save(cfg); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Profile '%s' removed successfully.\n", configProfileName)
		return nil
	},
}

var configProfilesUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Switch to a profile",
	Long:  `Set the active profile for subsequent commands. An empty name clears it.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := configProfileName
		if len(args) == 1 {
			name = args[0]
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		if err := cfg.SetProfile(name); err != nil {
			return errors.NewWithSuggestion(errors.ExitCodeConfig, err.Error(),
				"Run 'clipctl config profiles list' to see the configured profiles")
		}

		if err := config.Save(cfg); err != nil {
			return err
		}

		if name == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "Active profile cleared.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Switched to profile '%s'.\n", name)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")

	configProfilesAddCmd.Flags().StringVar(&configProfileName, "name", "", "Profile name (required)")
	if err := configProfilesAddCmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}

	configProfilesRemoveCmd.Flags().StringVar(&configProfileName, "name", "", "Profile name (required)")
	if err := configProfilesRemoveCmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}

	configProfilesUseCmd.Flags().StringVar(&configProfileName, "name", "", "Profile name")

	// Add commands
	configProfilesCmd.AddCommand(configProfilesListCmd)
	configProfilesCmd.AddCommand(configProfilesAddCmd)
	configProfilesCmd.AddCommand(configProfilesRemoveCmd)
	configProfilesCmd.AddCommand(configProfilesUseCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configProfilesCmd)
	configCmd.AddCommand(configPathCmd)
}
