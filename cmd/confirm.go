package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

const (
	responseYes = "yes"
	responseY   = "y"
)

// confirmInput is read by ConfirmPrompt (replaced in tests)
var confirmInput io.Reader = os.Stdin

// IsDryRun returns true if dry-run mode is enabled
func IsDryRun() bool {
	return dryRunFlag
}

// PrintDryRun prints a message indicating what would happen in dry-run mode
func PrintDryRun(w io.Writer, format string, args ...interface{}) {
	yellow := color.New(color.FgYellow, color.Bold)
	_, _ = yellow.Fprint(w, "[DRY-RUN] ")
	fmt.Fprintf(w, format+"\n", args...)
}

// ConfirmPrompt asks the user for confirmation
func ConfirmPrompt(message string) (bool, error) {
	if assumeYesFlag {
		return true, nil
	}

	yellow := color.New(color.FgYellow)
	_, _ = yellow.Printf("%s [y/N]: ", message)

	reader := bufio.NewReader(confirmInput)
	response, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == responseY || response == responseYes, nil
}

// ConfirmDestructive prompts for confirmation before a destructive action
func ConfirmDestructive(action string, details map[string]string) (bool, error) {
	red := color.New(color.FgRed, color.Bold)
	_, _ = red.Printf("Warning: You are about to %s\n\n", action)

	if len(details) > 0 {
		for key, value := range details {
			fmt.Printf("  %s: %s\n", key, value)
		}
		fmt.Println()
	}

	return ConfirmPrompt("Do you want to continue")
}
