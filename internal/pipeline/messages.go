package pipeline

import (
	"errors"

	"github.com/leonardotrapani/urduscribe/internal/recording"
)

// User-facing status messages.
const (
	MsgPermissionBlocked = "Microphone access is blocked. Please enable it in your system settings and try again."
	MsgPermissionDenied  = "Microphone permission denied. Please allow access and try again."
	MsgDeviceNotFound    = "No microphone found. Please connect a microphone and try again."
	MsgCaptureFailed     = "Could not access microphone. Please check permissions and hardware."
	MsgServiceError      = "An error occurred with the transcription service."
	MsgSessionClosed     = "The transcription service closed the session."
)

// UserMessage converts a capture failure into the message shown to the user.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrPermissionBlocked):
		return MsgPermissionBlocked
	case errors.Is(err, recording.ErrPermissionDenied):
		return MsgPermissionDenied
	case errors.Is(err, recording.ErrDeviceNotFound):
		return MsgDeviceNotFound
	default:
		return MsgCaptureFailed
	}
}
