package errors

import (
	"fmt"
	"io"
	"os"
	"strings"

	"clipctl/pkg/logger"

	"github.com/fatih/color"
)

type ExitCode int

const (
	ExitCodeSuccess       ExitCode = 0
	ExitCodeGeneral       ExitCode = 1
	ExitCodeConfig        ExitCode = 2
	ExitCodeValidation    ExitCode = 3
	ExitCodeFileOperation ExitCode = 4
	ExitCodeParse         ExitCode = 5
	ExitCodeClipboard     ExitCode = 6
	ExitCodeTimeout       ExitCode = 7
	ExitCodeCancellation  ExitCode = 8
)

// Standardized error messages for consistent user-facing errors
const (
	ErrMsgDocumentRead   = "Failed to read document"
	ErrMsgDocumentParse  = "Failed to parse document"
	ErrMsgInvalidQuery   = "Invalid selector"
	ErrMsgNoTriggers     = "No clipboard triggers found"
	ErrMsgCopyFailed     = "Copy did not complete"
	ErrMsgJournalFailed  = "Journal operation failed"
	ErrMsgWatchFailed    = "Failed to watch document"
	ErrMsgInvalidInput   = "Invalid input provided"
	ErrMsgBackendFailure = "Clipboard backend unavailable"
)

type Error struct {
	Code       ExitCode
	Message    string
	Underlying error
	Suggestion string
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Underlying)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

func New(code ExitCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func NewWithError(code ExitCode, message string, err error) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Underlying: err,
	}
}

func NewWithSuggestion(code ExitCode, message string, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	if wrapped, ok := err.(*Error); ok {
		return &Error{
			Code:       wrapped.Code,
			Message:    message + ": " + wrapped.Message,
			Underlying: wrapped.Underlying,
			Suggestion: wrapped.Suggestion,
		}
	}

	return &Error{
		Code:       ExitCodeGeneral,
		Message:    message,
		Underlying: err,
	}
}

func IsExitCode(err error, code ExitCode) bool {
	if err == nil {
		return false
	}

	if e, ok := err.(*Error); ok {
		return e.Code == code
	}

	return false
}

// HandleReturn logs err, renders it to stderr and returns the exit code the
// process should terminate with. The caller owns os.Exit.
func HandleReturn(err error) ExitCode {
	return handleTo(os.Stderr, err)
}

func handleTo(w io.Writer, err error) ExitCode {
	if err == nil {
		return ExitCodeSuccess
	}

	exitCode := ExitCodeGeneral
	message := err.Error()
	var suggestion string

	if e, ok := err.(*Error); ok {
		exitCode = e.Code
		message = e.Message
		suggestion = e.Suggestion

		if e.Underlying != nil {
			logger.Error().Err(e.Underlying).Int("code", int(e.Code)).Msg(e.Message)
			message = e.Error()
		} else {
			logger.Error().Int("code", int(e.Code)).Msg(e.Message)
		}
	} else {
		logger.Error().Msg(message)
	}

	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	fmt.Fprintln(w)
	red.Fprint(w, "Error: ")
	fmt.Fprintln(w, message)

	if suggestion != "" {
		yellow.Fprint(w, "Suggestion: ")
		for i, line := range strings.Split(suggestion, "\n") {
			switch {
			case i == 0:
				fmt.Fprintln(w, line)
			case strings.HasPrefix(line, "  -"):
				cyan.Fprintln(w, line)
			default:
				fmt.Fprintln(w, "           "+line)
			}
		}
	}

	fmt.Fprintln(w)

	return exitCode
}

func ConfigError(message string) *Error {
	return &Error{
		Code:       ExitCodeConfig,
		Message:    message,
		Suggestion: "Check ~/.config/clipctl/config.yaml or the CLIPCTL_* environment variables.",
	}
}

func ValidationError(message string) *Error {
	return &Error{
		Code:    ExitCodeValidation,
		Message: message,
	}
}

func FileError(message string, err error) *Error {
	return &Error{
		Code:       ExitCodeFileOperation,
		Message:    message,
		Underlying: err,
	}
}

func ParseError(source string, err error) *Error {
	return &Error{
		Code:       ExitCodeParse,
		Message:    fmt.Sprintf("%s %s", ErrMsgDocumentParse, source),
		Underlying: err,
	}
}

func SelectorError(selector string, err error) *Error {
	return &Error{
		Code:       ExitCodeValidation,
		Message:    fmt.Sprintf("%s '%s'", ErrMsgInvalidQuery, selector),
		Underlying: err,
		Suggestion: "Selectors follow CSS syntax, e.g. '#copy', '.snippet pre' or '[clipboard-selector]'.",
	}
}

func ClipboardError(err error) *Error {
	return &Error{
		Code:       ExitCodeClipboard,
		Message:    ErrMsgBackendFailure,
		Underlying: err,
		Suggestion: "On Linux make sure a Wayland compositor with wlr-data-control or an X11 clipboard tool (xclip/xsel) is available.\nUse --dry-run to inspect the payload without touching the system clipboard.",
	}
}

func CopyFailedError(trigger string) *Error {
	return &Error{
		Code:       ExitCodeClipboard,
		Message:    fmt.Sprintf("%s for %s", ErrMsgCopyFailed, trigger),
		Suggestion: "Run with --log-level debug to see the diagnostics for this trigger.",
	}
}

func TimeoutError(operation string) *Error {
	return &Error{
		Code:       ExitCodeTimeout,
		Message:    fmt.Sprintf("Operation timed out: %s", operation),
		Suggestion: "Try again with a longer timeout using --timeout or action_timeout in the config file.",
	}
}

func CancelledError(operation string) *Error {
	return &Error{
		Code:       ExitCodeCancellation,
		Message:    fmt.Sprintf("Operation cancelled: %s", operation),
		Suggestion: "The operation was interrupted. Nothing was copied.",
	}
}
