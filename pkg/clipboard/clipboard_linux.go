//go:build linux

package clipboard

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"clipctl/pkg/clipboard/internal/wayland"
	"clipctl/pkg/logger"
)

// ServeCommand is the hidden subcommand the re-executed binary runs.
const ServeCommand = "__clipboard-serve"

// ReadyLine is written by the clipboard server on stdout once it owns the
// selection.
const ReadyLine = "ready"

// ClaimTimeout bounds the wait for the clipboard server to own the
// selection.
var ClaimTimeout = 5 * time.Second

func (s System) write(ctx context.Context, formats Formats) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if os.Getenv("WAYLAND_DISPLAY") == "" {
		return writeSingle(formats)
	}
	return s.spawnServer(ctx, formats)
}

// spawnServer starts the clipboard server and returns once it reports that
// it owns the selection. A server that exits or stays silent is a failed
// write.
func (s System) spawnServer(ctx context.Context, formats Formats) error {
	data, err := json.Marshal(formats)
	if err != nil {
		return err
	}

	bin := s.Exec
	if bin == "" {
		bin = os.Args[0]
	}
	cmd := exec.Command(bin, ServeCommand)
	cmd.Stdin = bytes.NewReader(data)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	// Own session so the server outlives this process.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start clipboard server: %w", err)
	}

	lines := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(stdout).ReadString('\n')
		lines <- strings.TrimSpace(line)
	}()

	timer := time.NewTimer(ClaimTimeout)
	defer timer.Stop()

	select {
	case line := <-lines:
		if line == ReadyLine {
			// Reap the server whenever it exits; its stdout is drained so it
			// never blocks on a full pipe.
			go func() {
				_, _ = io.Copy(io.Discard, stdout)
				if err := cmd.Wait(); err != nil {
					logger.With("clipboard").Debug().Err(err).Msg("clipboard server exited")
				}
			}()
			return nil
		}
		return serverFailure(cmd, &stderr, nil)
	case <-timer.C:
		return serverFailure(cmd, &stderr, fmt.Errorf("clipboard server did not claim the selection within %s", ClaimTimeout))
	case <-ctx.Done():
		return serverFailure(cmd, &stderr, ctx.Err())
	}
}

// serverFailure stops the server if it is still running and builds the
// error from cause or the server's exit status and stderr.
func serverFailure(cmd *exec.Cmd, stderr *bytes.Buffer, cause error) error {
	if cause != nil {
		_ = cmd.Process.Kill()
	}
	waitErr := cmd.Wait()
	if cause == nil {
		cause = waitErr
	}
	if cause == nil {
		cause = fmt.Errorf("clipboard server exited without claiming the selection")
	}
	if msg := lastLine(stderr.String()); msg != "" {
		return fmt.Errorf("%w: %s", cause, msg)
	}
	return cause
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// ServeClipboard runs in the re-executed process. It owns the Wayland
// selection for formats, writes ReadyLine to ready once the claim is
// acknowledged and blocks until another client replaces the selection.
func ServeClipboard(formats Formats, ready io.Writer) error {
	return wayland.Serve(withTextAliases(formats), func() {
		fmt.Fprintln(ready, ReadyLine)
	})
}
