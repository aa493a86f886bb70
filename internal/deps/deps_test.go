package deps

import (
	"context"
	"errors"
	"os/exec"
	"testing"
)

func TestCheck_NotInstalled(t *testing.T) {
	status := Check(context.Background(), Tool{Name: "definitely-not-a-real-tool-xyz", Required: true})

	if status.Installed {
		t.Error("expected Installed=false for missing tool")
	}
	if status.Path != "" {
		t.Error("expected empty path when not installed")
	}
	if !status.Required {
		t.Error("Required should be carried over from the tool")
	}
}

func TestCheck_Installed(t *testing.T) {
	path, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not installed")
	}

	status := Check(context.Background(), Tool{Name: "sh"})
	if !status.Installed {
		t.Error("sh in PATH but Installed=false")
	}
	if status.Path != path {
		t.Errorf("Path = %q, want %q", status.Path, path)
	}
}

func TestCheck_Version(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not installed")
	}

	status := Check(context.Background(), Tool{Name: "sh", VersionArgs: []string{"-c", "printf '  pw 1.2.3\\nextra\\n'"}})
	if status.Version != "pw 1.2.3" {
		t.Errorf("Version = %q, want first line of output", status.Version)
	}
}

func TestCheckAll_UsesLookPath(t *testing.T) {
	orig := lookPath
	defer func() { lookPath = orig }()
	lookPath = func(string) (string, error) { return "", errors.New("not found") }

	statuses := CheckAll(context.Background())
	if len(statuses) != len(Tools) {
		t.Fatalf("got %d statuses, want %d", len(statuses), len(Tools))
	}
	missing := MissingRequired(statuses)
	if len(missing) != 1 || missing[0] != "pw-record" {
		t.Errorf("MissingRequired() = %v, want [pw-record]", missing)
	}
}

func TestFirstLine(t *testing.T) {
	tests := map[string]string{
		"":                "",
		"one":             "one",
		"one\ntwo":        "one",
		"\n  padded  \nx": "padded",
	}
	for in, want := range tests {
		if got := firstLine(in); got != want {
			t.Errorf("firstLine(%q) = %q, want %q", in, got, want)
		}
	}
}
