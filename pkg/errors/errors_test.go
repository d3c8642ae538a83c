package errors

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "basic error without underlying",
			err:      &Error{Code: ExitCodeGeneral, Message: "test error"},
			expected: "test error",
		},
		{
			name:     "error with underlying",
			err:      &Error{Code: ExitCodeConfig, Message: "config error", Underlying: errors.New("file not found")},
			expected: "config error: file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.err.Error()
			if result != tt.expected {
				t.Errorf("Error() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := NewWithError(ExitCodeParse, "parse failed", underlying)

	if err.Unwrap() != underlying {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), underlying)
	}
	if !errors.Is(err, underlying) {
		t.Error("errors.Is should see the underlying error")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ignored") != nil {
		t.Error("Wrap(nil) should return nil")
	}

	plain := Wrap(errors.New("boom"), "reading page")
	if plain.Code != ExitCodeGeneral {
		t.Errorf("Code = %d, want %d", plain.Code, ExitCodeGeneral)
	}
	if plain.Error() != "reading page: boom" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "reading page: boom")
	}

	inner := ClipboardError(errors.New("no display"))
	outer := Wrap(inner, "copy")
	if outer.Code != ExitCodeClipboard {
		t.Errorf("Code = %d, want %d", outer.Code, ExitCodeClipboard)
	}
	if outer.Suggestion != inner.Suggestion {
		t.Error("Wrap should preserve the suggestion of a wrapped *Error")
	}
	if !strings.HasPrefix(outer.Message, "copy: ") {
		t.Errorf("Message = %q, want prefix %q", outer.Message, "copy: ")
	}
}

func TestIsExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ExitCode
		want bool
	}{
		{"nil error", nil, ExitCodeGeneral, false},
		{"matching code", TimeoutError("action"), ExitCodeTimeout, true},
		{"different code", ValidationError("bad"), ExitCodeConfig, false},
		{"plain error", errors.New("x"), ExitCodeGeneral, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsExitCode(tt.err, tt.code); got != tt.want {
				t.Errorf("IsExitCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name           string
		err            *Error
		wantCode       ExitCode
		wantSuggestion bool
	}{
		{"config", ConfigError("mode not set"), ExitCodeConfig, true},
		{"validation", ValidationError("bad flag"), ExitCodeValidation, false},
		{"file", FileError("cannot open", errors.New("denied")), ExitCodeFileOperation, false},
		{"parse", ParseError("page.html", errors.New("eof")), ExitCodeParse, false},
		{"selector", SelectorError("[", errors.New("expected ]")), ExitCodeValidation, true},
		{"clipboard", ClipboardError(errors.New("denied")), ExitCodeClipboard, true},
		{"copy failed", CopyFailedError("button#copy"), ExitCodeClipboard, true},
		{"timeout", TimeoutError("clipboard action"), ExitCodeTimeout, true},
		{"cancelled", CancelledError("watch"), ExitCodeCancellation, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %d, want %d", tt.err.Code, tt.wantCode)
			}
			if (tt.err.Suggestion != "") != tt.wantSuggestion {
				t.Errorf("Suggestion = %q, want present=%v", tt.err.Suggestion, tt.wantSuggestion)
			}
		})
	}
}

func TestHandleTo(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		name         string
		err          error
		wantCode     ExitCode
		wantContains []string
	}{
		{
			name:     "nil error",
			err:      nil,
			wantCode: ExitCodeSuccess,
		},
		{
			name:         "plain error",
			err:          errors.New("something broke"),
			wantCode:     ExitCodeGeneral,
			wantContains: []string{"Error: something broke"},
		},
		{
			name:         "error with suggestion",
			err:          SelectorError("div[", errors.New("unexpected EOF")),
			wantCode:     ExitCodeValidation,
			wantContains: []string{"Invalid selector 'div['", "unexpected EOF", "Suggestion: Selectors follow CSS syntax"},
		},
		{
			name:         "multi-line suggestion",
			err:          ClipboardError(errors.New("no display")),
			wantCode:     ExitCodeClipboard,
			wantContains: []string{"Suggestion: On Linux", "           Use --dry-run"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			code := handleTo(&buf, tt.err)
			if code != tt.wantCode {
				t.Errorf("handleTo() = %d, want %d", code, tt.wantCode)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output %q does not contain %q", buf.String(), want)
				}
			}
		})
	}
}
