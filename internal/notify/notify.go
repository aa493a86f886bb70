package notify

import (
	"os/exec"

	"github.com/leonardotrapani/urduscribe/internal/logging"
)

const appName = "Urduscribe"

type Notifier interface {
	ListeningChanged(on bool)
	Error(msg string)
}

// New returns the notifier for a configured type: "desktop", "log" or "none".
// Disabled notifications resolve to Nop.
func New(enabled bool, kind string) Notifier {
	if !enabled {
		return Nop{}
	}
	switch kind {
	case "log":
		return Log{}
	case "none":
		return Nop{}
	default:
		return Desktop{}
	}
}

type Desktop struct{}

func (Desktop) ListeningChanged(on bool) {
	send("-a", appName, listeningTitle(on))
}

func (Desktop) Error(msg string) {
	send("-a", appName, "-u", "critical", appName, msg)
}

func send(args ...string) {
	cmd := exec.Command("notify-send", args...)
	if err := cmd.Run(); err != nil {
		log := logging.WithComponent("notify")
		log.Warn().Err(err).Msg("failed to send notification")
	}
}

func listeningTitle(on bool) string {
	if on {
		return appName + ": Listening"
	}
	return appName + ": Stopped Listening"
}

// Log writes notifications to the application log.
type Log struct{}

func (Log) ListeningChanged(on bool) {
	log := logging.WithComponent("notify")
	log.Info().Bool("listening", on).Msg(listeningTitle(on))
}

func (Log) Error(msg string) {
	log := logging.WithComponent("notify")
	log.Error().Msg(appName + " Error: " + msg)
}

// Nop is a Notifier that does absolutely nothing.
// Useful in unit tests or headless builds.
type Nop struct{}

func (Nop) ListeningChanged(on bool) {}
func (Nop) Error(msg string)         {}
