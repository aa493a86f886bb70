package notify

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestLogNotifier(t *testing.T) {
	buf := captureLog(t)
	n := Log{}

	tests := []struct {
		name     string
		call     func()
		expected []string
	}{
		{"listening", func() { n.ListeningChanged(true) }, []string{"Urduscribe: Listening", `"listening":true`}},
		{"stopped", func() { n.ListeningChanged(false) }, []string{"Stopped Listening", `"listening":false`}},
		{"error", func() { n.Error("mic gone") }, []string{"Urduscribe Error: mic gone", `"level":"error"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.call()
			out := buf.String()
			for _, want := range tt.expected {
				if !strings.Contains(out, want) {
					t.Errorf("log output should contain %q, got: %s", want, out)
				}
			}
			if !strings.Contains(out, `"component":"notify"`) {
				t.Errorf("log output should carry component, got: %s", out)
			}
		})
	}
}

func TestNopNotifier(t *testing.T) {
	buf := captureLog(t)
	nop := Nop{}
	nop.ListeningChanged(true)
	nop.Error("ignored")
	if buf.Len() != 0 {
		t.Errorf("Nop should not log, got: %s", buf.String())
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		kind    string
		want    Notifier
	}{
		{"disabled", false, "desktop", Nop{}},
		{"desktop", true, "desktop", Desktop{}},
		{"log", true, "log", Log{}},
		{"none", true, "none", Nop{}},
		{"unknown falls back to desktop", true, "", Desktop{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.enabled, tt.kind); got != tt.want {
				t.Errorf("New(%v, %q) = %T, want %T", tt.enabled, tt.kind, got, tt.want)
			}
		})
	}
}

func TestListeningTitle(t *testing.T) {
	if got := listeningTitle(true); got != "Urduscribe: Listening" {
		t.Errorf("listeningTitle(true) = %q", got)
	}
	if got := listeningTitle(false); got != "Urduscribe: Stopped Listening" {
		t.Errorf("listeningTitle(false) = %q", got)
	}
}
