package recording

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var (
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrDeviceNotFound   = errors.New("no microphone found")
	ErrCaptureFailed    = errors.New("microphone capture failed")
)

var (
	permissionMarkers = []string{"permission denied", "access denied", "not allowed", "operation not permitted"}
	deviceMarkers     = []string{"no such", "not found", "no target", "unknown target", "can't find", "no device"}
)

// classifyFailure maps a pw-record failure onto one of the capture sentinels
// using the process error and the tail of its stderr.
func classifyFailure(stderr string, err error) error {
	detail := strings.TrimSpace(stderr)
	if detail == "" && err != nil {
		detail = err.Error()
	}

	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: pw-record not installed: %v", ErrCaptureFailed, err)
	}

	lower := strings.ToLower(stderr)
	if err != nil {
		lower += " " + strings.ToLower(err.Error())
	}

	switch {
	case containsAny(lower, permissionMarkers):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, detail)
	case containsAny(lower, deviceMarkers):
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, detail)
	default:
		return fmt.Errorf("%w: %s", ErrCaptureFailed, detail)
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// stderrTail keeps the last lines a child process wrote to stderr.
type stderrTail struct {
	lines []string
}

const maxTailLines = 10

func (t *stderrTail) add(line string) {
	t.lines = append(t.lines, line)
	if len(t.lines) > maxTailLines {
		t.lines = t.lines[len(t.lines)-maxTailLines:]
	}
}

func (t *stderrTail) String() string {
	return strings.Join(t.lines, "\n")
}
