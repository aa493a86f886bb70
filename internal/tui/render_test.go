package tui

import (
	"strings"
	"testing"

	"github.com/leonardotrapani/urduscribe/internal/pipeline"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		snap    pipeline.Snapshot
		want    []string
		notWant []string
	}{
		{
			name:    "idle",
			snap:    pipeline.Snapshot{Status: pipeline.Idle},
			want:    []string{Title, Subtitle, Placeholder, StatusNotListening, LabelStart},
			notWant: []string{LabelStop, StatusListening},
		},
		{
			name:    "starting counts as listening",
			snap:    pipeline.Snapshot{Status: pipeline.Starting},
			want:    []string{StatusListening, LabelStop},
			notWant: []string{LabelStart},
		},
		{
			name:    "active with transcript",
			snap:    pipeline.Snapshot{Status: pipeline.Active, Transcript: "میرا نام"},
			want:    []string{StatusListening, LabelStop, rtlIsolate + "میرا نام" + popIsolate},
			notWant: []string{Placeholder},
		},
		{
			name:    "error replaces status",
			snap:    pipeline.Snapshot{Status: pipeline.Idle, Error: pipeline.MsgDeviceNotFound},
			want:    []string{pipeline.MsgDeviceNotFound, LabelStart},
			notWant: []string{StatusNotListening},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Render(tt.snap, 120, 30)
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("Render() missing %q:\n%s", w, out)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(out, nw) {
					t.Errorf("Render() should not contain %q:\n%s", nw, out)
				}
			}
		})
	}
}

func TestRender_ShowsNewestLines(t *testing.T) {
	lines := []string{"alpha"}
	for range 50 {
		lines = append(lines, "کچھ")
	}
	lines = append(lines, "omega")

	out := Render(pipeline.Snapshot{Transcript: strings.Join(lines, "\n")}, 80, 20)
	if !strings.Contains(out, "omega") {
		t.Error("newest line should be visible")
	}
	if strings.Contains(out, "alpha") {
		t.Error("oldest line should scroll out of view")
	}
}

func TestRender_TinyTerminal(t *testing.T) {
	out := Render(pipeline.Snapshot{Transcript: "میرا"}, 0, 0)
	if !strings.Contains(out, LabelStart) {
		t.Errorf("Render() at zero size should still draw controls:\n%s", out)
	}
}

func TestTranscriptLines(t *testing.T) {
	t.Run("empty shows placeholder", func(t *testing.T) {
		got := TranscriptLines("", 60)
		if len(got) != 1 || !strings.Contains(got[0], Placeholder) {
			t.Errorf("TranscriptLines(\"\") = %q", got)
		}
	})

	t.Run("turns become lines", func(t *testing.T) {
		got := TranscriptLines("میرا نام\nاحمد ہے\n", 40)
		if len(got) != 3 {
			t.Fatalf("got %d lines, want 3: %q", len(got), got)
		}
		for i, line := range got[:2] {
			if !strings.HasSuffix(line, popIsolate) || !strings.Contains(line, rtlIsolate) {
				t.Errorf("line %d not isolated as RTL: %q", i, line)
			}
			if !strings.HasPrefix(line, " ") {
				t.Errorf("line %d not right aligned: %q", i, line)
			}
		}
		if got[2] != "" {
			t.Errorf("completed turn should leave an empty line, got %q", got[2])
		}
	})

	t.Run("long lines wrap", func(t *testing.T) {
		got := TranscriptLines("aaa bbb ccc", 4)
		if len(got) != 3 {
			t.Fatalf("got %d lines, want 3: %q", len(got), got)
		}
		for i, word := range []string{"aaa", "bbb", "ccc"} {
			if !strings.Contains(got[i], rtlIsolate+word+popIsolate) {
				t.Errorf("line %d = %q, want %q", i, got[i], word)
			}
		}
	})
}
