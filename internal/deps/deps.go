// Package deps reports which external tools urduscribe relies on are present.
package deps

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// Status represents the installation status of a dependency
type Status struct {
	Name      string
	Purpose   string
	Required  bool
	Installed bool
	Path      string
	Version   string
}

// Tool describes an external program and how to ask it for its version.
type Tool struct {
	Name        string
	Purpose     string
	Required    bool
	VersionArgs []string
}

// Tools are the programs used at runtime.
var Tools = []Tool{
	{Name: "pw-record", Purpose: "microphone capture", Required: true, VersionArgs: []string{"--version"}},
	{Name: "pw-cli", Purpose: "microphone permission checks", Required: false, VersionArgs: []string{"--version"}},
	{Name: "notify-send", Purpose: "desktop notifications", Required: false, VersionArgs: []string{"--version"}},
	{Name: "wl-copy", Purpose: "transcript --copy", Required: false, VersionArgs: []string{"--version"}},
}

var lookPath = exec.LookPath

// Check looks a tool up on PATH and, when found, records the first line of
// its version output.
func Check(ctx context.Context, tool Tool) Status {
	status := Status{Name: tool.Name, Purpose: tool.Purpose, Required: tool.Required}

	path, err := lookPath(tool.Name)
	if err != nil {
		return status
	}
	status.Installed = true
	status.Path = path

	if len(tool.VersionArgs) == 0 {
		return status
	}
	vctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	output, err := exec.CommandContext(vctx, path, tool.VersionArgs...).Output()
	if err == nil {
		status.Version = firstLine(string(output))
	}
	return status
}

// CheckAll checks every entry of Tools.
func CheckAll(ctx context.Context) []Status {
	out := make([]Status, 0, len(Tools))
	for _, t := range Tools {
		out = append(out, Check(ctx, t))
	}
	return out
}

// MissingRequired returns the names of required tools that are not installed.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, s := range statuses {
		if s.Required && !s.Installed {
			missing = append(missing, s.Name)
		}
	}
	return missing
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
