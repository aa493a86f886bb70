// Package clipboard copies finished transcripts to the Wayland clipboard.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single wl-copy invocation.
const DefaultTimeout = 3 * time.Second

var ErrEmpty = errors.New("nothing to copy")

var (
	lookPath = exec.LookPath
	command  = exec.CommandContext
)

// Copy writes text to the clipboard with wl-copy. Urdu text is passed through
// unchanged, including any bidi marks.
func Copy(ctx context.Context, text string, timeout time.Duration) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmpty
	}
	if _, err := lookPath("wl-copy"); err != nil {
		return fmt.Errorf("wl-copy not found: %w (install wl-clipboard)", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := command(ctx, "wl-copy", "--type", "text/plain;charset=utf-8")
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("wl-copy failed: %w", err)
	}
	return nil
}
