package recording

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/leonardotrapani/urduscribe/internal/logging"
	"github.com/rs/zerolog"
)

// PermissionState mirrors the platform's microphone authorization.
type PermissionState string

const (
	PermissionChecking PermissionState = "checking"
	PermissionPrompt   PermissionState = "prompt"
	PermissionGranted  PermissionState = "granted"
	PermissionDenied   PermissionState = "denied"
)

// PermissionTracker holds the last known microphone authorization. It is
// updated by probes of the audio server and by the outcome of capture attempts.
type PermissionTracker struct {
	mu    sync.RWMutex
	state PermissionState
	probe func(ctx context.Context) (PermissionState, error)
	log   zerolog.Logger
}

func NewPermissionTracker() *PermissionTracker {
	return &PermissionTracker{
		state: PermissionChecking,
		probe: probePipeWire,
		log:   logging.WithComponent("permission"),
	}
}

func (p *PermissionTracker) State() PermissionState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *PermissionTracker) Set(s PermissionState) {
	p.mu.Lock()
	prev := p.state
	p.state = s
	p.mu.Unlock()
	if prev != s {
		p.log.Info().Str("from", string(prev)).Str("to", string(s)).Msg("microphone permission changed")
	}
}

// Probe queries the audio server. A successful probe never downgrades a
// granted state; a failed query falls back to prompt so capture is attempted
// directly.
func (p *PermissionTracker) Probe(ctx context.Context) PermissionState {
	s, err := p.probe(ctx)
	if err != nil {
		p.log.Warn().Err(err).Msg("could not query microphone permission, proceeding with direct prompt")
		s = PermissionPrompt
	}

	if s == PermissionPrompt && p.State() == PermissionGranted {
		return PermissionGranted
	}
	p.Set(s)
	return s
}

// Watch probes immediately and then every interval until ctx is done.
func (p *PermissionTracker) Watch(ctx context.Context, interval time.Duration) {
	p.Probe(ctx)
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Probe(ctx)
		}
	}
}

func probePipeWire(ctx context.Context) (PermissionState, error) {
	if _, err := exec.LookPath("pw-cli"); err != nil {
		return PermissionPrompt, fmt.Errorf("pw-cli not found: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	out, err := exec.CommandContext(checkCtx, "pw-cli", "info", "0").CombinedOutput()
	if err != nil {
		if containsAny(strings.ToLower(string(out)), permissionMarkers) {
			return PermissionDenied, nil
		}
		return PermissionPrompt, fmt.Errorf("pw-cli info: %w", err)
	}
	return PermissionPrompt, nil
}
