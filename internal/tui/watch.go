package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/leonardotrapani/urduscribe/internal/bus"
	"github.com/leonardotrapani/urduscribe/internal/logging"
	"github.com/leonardotrapani/urduscribe/internal/pipeline"
	"github.com/leonardotrapani/urduscribe/internal/recording"
	"github.com/rs/zerolog"
)

const DefaultPollInterval = 250 * time.Millisecond

// FetchSnapshot asks a running daemon for its status and transcript.
func FetchSnapshot() (pipeline.Snapshot, error) {
	resp, err := bus.SendCommand(bus.CmdStatus)
	if err != nil {
		return pipeline.Snapshot{}, fmt.Errorf("query status: %w", err)
	}
	tag, fields, err := bus.ParseFields(resp)
	if err != nil || tag != "STATUS" {
		return pipeline.Snapshot{}, fmt.Errorf("unexpected status response %q", resp)
	}
	snap := pipeline.Snapshot{
		Status:     pipeline.Status(fields["status"]),
		Permission: recording.PermissionState(fields["permission"]),
		SessionID:  fields["session"],
		Error:      fields["error"],
	}

	resp, err = bus.SendCommand(bus.CmdTranscript)
	if err != nil {
		return pipeline.Snapshot{}, fmt.Errorf("query transcript: %w", err)
	}
	tag, fields, err = bus.ParseFields(resp)
	if err != nil || tag != "TRANSCRIPT" {
		return pipeline.Snapshot{}, fmt.Errorf("unexpected transcript response %q", resp)
	}
	snap.Transcript = fields["text"]
	return snap, nil
}

// Remote controls a daemon over the control socket and polls it for changes.
type Remote struct {
	interval time.Duration
	fetch    func() (pipeline.Snapshot, error)
	send     func(cmd byte) (string, error)
	log      zerolog.Logger

	mu   sync.Mutex
	last pipeline.Snapshot
}

func NewRemote(interval time.Duration) *Remote {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	r := &Remote{
		interval: interval,
		fetch:    FetchSnapshot,
		send:     bus.SendCommand,
		log:      logging.WithComponent("watch"),
	}
	r.poll()
	return r
}

func (r *Remote) Start(ctx context.Context) error {
	resp, err := r.send(bus.CmdStart)
	if err != nil {
		return err
	}
	tag, fields, err := bus.ParseFields(resp)
	if err != nil {
		return err
	}
	if tag == "ERR" {
		return errors.New(fields["error"])
	}
	return nil
}

func (r *Remote) Stop() {
	if _, err := r.send(bus.CmdStop); err != nil {
		r.log.Warn().Err(err).Msg("stop request failed")
	}
}

func (r *Remote) Snapshot() pipeline.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// poll refreshes the cached snapshot and reports whether it changed.
func (r *Remote) poll() bool {
	snap, err := r.fetch()
	if err != nil {
		snap = pipeline.Snapshot{Status: pipeline.Idle, Error: "Daemon not reachable: " + err.Error()}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if snap == r.last {
		return false
	}
	r.last = snap
	return true
}

// Subscribe polls the daemon until the returned cancel func is called.
func (r *Remote) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if r.poll() {
					select {
					case ch <- struct{}{}:
					default:
					}
				}
			}
		}
	}()

	return ch, cancel
}
