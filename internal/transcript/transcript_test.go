package transcript

import (
	"strings"
	"sync"
	"testing"
)

func TestBuffer_FragmentsAndTurns(t *testing.T) {
	b := New()
	b.Reset()

	b.AppendFragment("میرا")
	b.AppendFragment(" نام")
	if got := b.String(); got != "میرا نام" {
		t.Fatalf("after fragments got %q", got)
	}

	b.MarkTurnComplete()
	if got := b.String(); got != "میرا نام\n" {
		t.Fatalf("after turn got %q", got)
	}
	if b.Turns() != 1 {
		t.Errorf("Turns() = %d, want 1", b.Turns())
	}
}

func TestBuffer_Reconstructs(t *testing.T) {
	type op struct {
		turn bool
		text string
	}
	tests := []struct {
		name string
		ops  []op
		want string
	}{
		{"empty", nil, ""},
		{"only turns", []op{{turn: true}, {turn: true}}, "\n\n"},
		{"interleaved", []op{{text: "a"}, {turn: true}, {text: "b"}, {text: "c"}, {turn: true}}, "a\nbc\n"},
		{"empty fragment ignored", []op{{text: ""}, {text: "x"}}, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New()
			b.AppendFragment("stale")
			b.Reset()
			for _, o := range tt.ops {
				if o.turn {
					b.MarkTurnComplete()
				} else {
					b.AppendFragment(o.text)
				}
			}
			if got := b.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if b.Len() != len(tt.want) {
				t.Errorf("Len() = %d, want %d", b.Len(), len(tt.want))
			}
		})
	}
}

func TestBuffer_Reset(t *testing.T) {
	b := New()
	b.AppendFragment("hello")
	b.MarkTurnComplete()
	b.Reset()
	if b.String() != "" || b.Turns() != 0 {
		t.Errorf("reset left %q / %d turns", b.String(), b.Turns())
	}
}

func TestBuffer_ConcurrentReaders(t *testing.T) {
	b := New()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			b.AppendFragment("x")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_ = b.String()
		}
	}()
	wg.Wait()
	if got := b.String(); got != strings.Repeat("x", 500) {
		t.Errorf("unexpected buffer length %d", len(got))
	}
}
