// Package session defines the streaming transcription session and its
// Gemini Live implementation.
package session

import (
	"context"
	"fmt"

	"github.com/leonardotrapani/urduscribe/internal/audio"
)

// EventKind identifies what a session reported.
type EventKind int

const (
	Fragment EventKind = iota
	TurnComplete
	Error
	Closed
)

func (k EventKind) String() string {
	switch k {
	case Fragment:
		return "fragment"
	case TurnComplete:
		return "turn_complete"
	case Error:
		return "error"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one message from the remote service, delivered in arrival order.
type Event struct {
	Kind EventKind
	Text string // Fragment only
	Err  error  // Error, and Closed when the close carried a reason
}

// Session is a live connection to the transcription service.
type Session interface {
	// Send streams one encoded chunk.
	Send(blob audio.Blob) error

	// Events is closed after the final Closed event, or when Close is called.
	Events() <-chan Event

	// Close ends the session. Safe to call more than once.
	Close() error
}

// Dialer opens sessions. Open returns once the remote handshake completed.
type Dialer interface {
	Open(ctx context.Context, cfg Config) (Session, error)
}

// Config describes the session requested from the service.
type Config struct {
	Model              string
	SystemInstruction  string
	ResponseModalities []string
}

const DefaultModel = "gemini-2.5-flash-native-audio-preview-09-2025"

// NonUrduSentinel is emitted by the service when speech is not Urdu.
const NonUrduSentinel = "[Non-Urdu language detected]"

// DefaultSystemInstruction constrains the service to Urdu script output.
const DefaultSystemInstruction = `You are a specialized AI transcriber with one single function: to transcribe spoken Urdu into the written Urdu script (Nastaliq). You must be extremely precise.
- **ONLY output text in the Urdu script.** For example, the sentence "My name is Ahmed" should be transcribed as "میرا نام احمد ہے".
- **NEVER use the Devanagari script.** If you hear Hindi, or any language that is not Urdu, you MUST output the specific text: '` + NonUrduSentinel + `'.
- Your entire output must be in the correct Urdu writing system. Do not translate. Do not explain. Just transcribe spoken Urdu into written Urdu.`

func DefaultConfig() Config {
	return Config{
		Model:              DefaultModel,
		SystemInstruction:  DefaultSystemInstruction,
		ResponseModalities: []string{"AUDIO"},
	}
}
