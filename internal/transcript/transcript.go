// Package transcript accumulates recognized text for one listening session.
package transcript

import (
	"strings"
	"sync"
)

// Buffer is an append-only transcript. Fragments are concatenated as they
// arrive and each completed turn adds a single newline.
type Buffer struct {
	mu    sync.RWMutex
	text  strings.Builder
	turns int
}

func New() *Buffer {
	return &Buffer{}
}

// Reset empties the buffer at the start of a session.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text.Reset()
	b.turns = 0
}

func (b *Buffer) AppendFragment(text string) {
	if text == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text.WriteString(text)
}

func (b *Buffer) MarkTurnComplete() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text.WriteByte('\n')
	b.turns++
}

func (b *Buffer) String() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text.String()
}

// Len returns the buffer length in bytes.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text.Len()
}

// Turns returns how many turn boundaries have been recorded since Reset.
func (b *Buffer) Turns() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.turns
}
