// Package pipeline owns the listening lifecycle: it acquires the microphone,
// opens the transcription session, pumps audio into it and folds the returned
// transcript into the buffer.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/leonardotrapani/urduscribe/internal/audio"
	"github.com/leonardotrapani/urduscribe/internal/logging"
	"github.com/leonardotrapani/urduscribe/internal/metrics"
	"github.com/leonardotrapani/urduscribe/internal/notify"
	"github.com/leonardotrapani/urduscribe/internal/recording"
	"github.com/leonardotrapani/urduscribe/internal/session"
	"github.com/leonardotrapani/urduscribe/internal/transcript"
	"github.com/rs/zerolog"
)

type Status string

const (
	Idle     Status = "idle"
	Starting Status = "starting"
	Active   Status = "active"
	Stopping Status = "stopping"
)

var ErrPermissionBlocked = errors.New("microphone access is blocked")

// Capture is the microphone side of a listening session. Stop halts the
// hardware; Close releases whatever the capture still holds.
type Capture interface {
	Start(ctx context.Context) (<-chan audio.Chunk, <-chan error, error)
	Stop() error
	Close() error
}

// Snapshot is a consistent view of the manager for presentation.
type Snapshot struct {
	Status     Status
	Error      string
	Transcript string
	Permission recording.PermissionState
	SessionID  string
}

// Listening reports whether the toggle should currently offer "stop".
func (s Snapshot) Listening() bool {
	return s.Status == Starting || s.Status == Active
}

type Options struct {
	// Factories are called once per Start so configuration changes apply to
	// the next session.
	NewDialer     func() session.Dialer
	NewCapture    func() Capture
	SessionConfig func() session.Config

	Permissions *recording.PermissionTracker
	Transcript  *transcript.Buffer
	Metrics     *metrics.Metrics
	Notifier    notify.Notifier
}

// Manager runs at most one listening session at a time.
type Manager struct {
	opts       Options
	perms      *recording.PermissionTracker
	transcript *transcript.Buffer
	metrics    *metrics.Metrics
	notifier   notify.Notifier
	log        zerolog.Logger

	mu     sync.Mutex
	status Status
	errMsg string
	run    *run

	subMu sync.Mutex
	subs  map[chan struct{}]struct{}
}

// run holds the resources acquired by one Start. It is consumed by teardown.
type run struct {
	id        string
	ctx       context.Context
	cancel    context.CancelFunc
	capture   Capture
	startDone chan struct{}
	log       zerolog.Logger
	sentBytes atomic.Int64

	// guarded by Manager.mu
	sess     session.Session
	torn     bool
	activeAt time.Time

	once sync.Once
}

func New(opts Options) *Manager {
	m := &Manager{
		opts:       opts,
		perms:      opts.Permissions,
		transcript: opts.Transcript,
		metrics:    opts.Metrics,
		notifier:   opts.Notifier,
		log:        logging.WithComponent("pipeline"),
		status:     Idle,
		subs:       make(map[chan struct{}]struct{}),
	}
	if m.perms == nil {
		m.perms = recording.NewPermissionTracker()
	}
	if m.transcript == nil {
		m.transcript = transcript.New()
	}
	if m.metrics == nil {
		m.metrics = metrics.New()
	}
	if m.notifier == nil {
		m.notifier = notify.Nop{}
	}
	if m.opts.SessionConfig == nil {
		m.opts.SessionConfig = session.DefaultConfig
	}
	return m
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Snapshot{
		Status:     m.status,
		Error:      m.errMsg,
		Transcript: m.transcript.String(),
		Permission: m.perms.State(),
	}
	if m.run != nil {
		s.SessionID = m.run.id
	}
	return s
}

// Subscribe returns a channel signalled after every state or transcript
// change. Signals coalesce; readers should take a fresh Snapshot.
func (m *Manager) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	m.subMu.Lock()
	m.subs[ch] = struct{}{}
	m.subMu.Unlock()

	return ch, func() {
		m.subMu.Lock()
		delete(m.subs, ch)
		m.subMu.Unlock()
	}
}

func (m *Manager) changed() {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for ch := range m.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Start begins a listening session and returns once it is active, or once
// it failed and was torn down. It is a no-op unless the manager is idle.
// ctx bounds the whole session, not only the start.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.status != Idle {
		status := m.status
		m.mu.Unlock()
		m.log.Debug().Str("status", string(status)).Msg("start ignored")
		return nil
	}
	if m.perms.State() == recording.PermissionDenied {
		m.errMsg = MsgPermissionBlocked
		m.mu.Unlock()
		m.log.Warn().Msg("microphone access is blocked")
		m.changed()
		go m.notifier.Error(MsgPermissionBlocked)
		return ErrPermissionBlocked
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := &run{
		id:        uuid.NewString(),
		ctx:       runCtx,
		cancel:    cancel,
		capture:   m.opts.NewCapture(),
		startDone: make(chan struct{}),
	}
	r.log = logging.WithSession("pipeline", r.id)
	defer close(r.startDone)

	m.transcript.Reset()
	m.errMsg = ""
	m.status = Starting
	m.run = r
	m.mu.Unlock()
	m.changed()

	r.log.Info().Msg("starting transcription")

	chunks, capErrs, err := r.capture.Start(r.ctx)
	if err != nil {
		return m.failStart(r, err, "capture", UserMessage(err))
	}
	m.perms.Set(recording.PermissionGranted)

	sess, err := m.opts.NewDialer().Open(r.ctx, m.opts.SessionConfig())
	if err != nil {
		return m.failStart(r, err, "session", MsgServiceError)
	}

	m.mu.Lock()
	if r.torn {
		m.mu.Unlock()
		r.log.Info().Msg("stopped before the session became active")
		m.release(r, "session", sess.Close)
		return nil
	}
	r.sess = sess
	r.activeAt = time.Now()
	m.status = Active
	m.mu.Unlock()

	// audio captured before the handshake completed is not sent
	if n := drainStale(chunks); n > 0 {
		m.metrics.ChunksDropped.WithLabelValues("not_active").Add(float64(n))
		r.log.Debug().Int("chunks", n).Msg("discarded audio captured before session opened")
	}

	m.metrics.SessionsStarted.Inc()
	m.metrics.SessionsActive.Inc()
	r.log.Info().Msg("listening")
	m.changed()
	go m.notifier.ListeningChanged(true)

	go m.loop(r, chunks, capErrs, sess.Events())
	return nil
}

func (m *Manager) failStart(r *run, err error, kind, msg string) error {
	if r.ctx.Err() != nil {
		// stop requested or owner went away while starting
		r.log.Info().Err(err).Msg("start interrupted")
		m.teardown(r, "")
		return nil
	}

	r.log.Error().Err(err).Str("kind", kind).Msg("failed to start listening")
	if errors.Is(err, recording.ErrPermissionDenied) {
		m.perms.Set(recording.PermissionDenied)
	}
	m.metrics.SessionFailures.WithLabelValues(kind).Inc()
	m.teardown(r, msg)
	return err
}

// Stop ends the current session, if any, and returns once every resource was
// released. It is a no-op while idle.
func (m *Manager) Stop() {
	m.mu.Lock()
	r := m.run
	m.mu.Unlock()

	if r == nil {
		return
	}
	m.teardown(r, "")
	<-r.startDone
}

// SendChunk forwards an encoded chunk to the live session. Outside the active
// state the chunk is dropped.
func (m *Manager) SendChunk(blob audio.Blob) bool {
	m.mu.Lock()
	var r *run
	var sess session.Session
	if m.status == Active && m.run != nil {
		r = m.run
		sess = r.sess
	}
	m.mu.Unlock()

	if sess == nil {
		m.metrics.ChunksDropped.WithLabelValues("not_active").Inc()
		return false
	}
	if err := sess.Send(blob); err != nil {
		r.log.Warn().Err(err).Msg("send failed")
		m.metrics.ChunksDropped.WithLabelValues("send_failed").Inc()
		return false
	}
	r.sentBytes.Add(int64(len(blob.Data)))
	m.metrics.ChunksSent.Inc()
	m.metrics.AudioBytes.Add(float64(len(blob.Data)))
	return true
}

// loop is the single consumer of a session's audio and events.
func (m *Manager) loop(r *run, chunks <-chan audio.Chunk, capErrs <-chan error, events <-chan session.Event) {
	for {
		select {
		case <-r.ctx.Done():
			m.teardown(r, "")
			return

		case chunk, ok := <-chunks:
			if !ok {
				chunks = nil // the reason arrives on capErrs
				continue
			}
			m.SendChunk(audio.Encode(chunk.Samples))

		case err, ok := <-capErrs:
			if !ok {
				err = errors.New("capture stopped")
			}
			r.log.Error().Err(err).Msg("capture failed")
			m.endRun(r, "capture", MsgCaptureFailed)
			return

		case ev, ok := <-events:
			if !ok {
				m.teardown(r, "")
				return
			}
			switch ev.Kind {
			case session.Fragment:
				m.transcript.AppendFragment(ev.Text)
				m.metrics.Fragments.Inc()
				m.changed()
			case session.TurnComplete:
				m.transcript.MarkTurnComplete()
				m.metrics.Turns.Inc()
				m.changed()
			case session.Error:
				r.log.Error().Err(ev.Err).Msg("session error")
				m.endRun(r, "session", MsgServiceError)
				return
			case session.Closed:
				r.log.Info().Err(ev.Err).Msg("session closed by service")
				m.endRun(r, "session_closed", MsgSessionClosed)
				return
			}
		}
	}
}

func (m *Manager) endRun(r *run, kind, msg string) {
	m.metrics.SessionFailures.WithLabelValues(kind).Inc()
	m.teardown(r, msg)
}

// teardown releases everything r acquired, exactly once. Each step is
// isolated so a failure cannot skip the others.
func (m *Manager) teardown(r *run, msg string) {
	r.once.Do(func() {
		m.mu.Lock()
		r.torn = true
		sess := r.sess
		activeAt := r.activeAt
		if m.run == r {
			m.status = Stopping
			if msg != "" {
				m.errMsg = msg
			}
		}
		m.mu.Unlock()
		m.changed()

		r.log.Info().Msg("stopping transcription")
		r.cancel()

		if sess != nil {
			m.release(r, "session", sess.Close)
		}
		m.release(r, "microphone", r.capture.Stop)
		m.release(r, "capture", r.capture.Close)

		m.mu.Lock()
		if m.run == r {
			m.run = nil
			m.status = Idle
		}
		m.mu.Unlock()

		if !activeAt.IsZero() {
			m.metrics.SessionsActive.Dec()
			m.metrics.SessionDuration.Observe(time.Since(activeAt).Seconds())
			go m.notifier.ListeningChanged(false)
		}
		if msg != "" {
			go m.notifier.Error(msg)
		}
		m.changed()
		r.log.Info().
			Dur("audio_sent", audio.PCM16Duration(int(r.sentBytes.Load()), audio.SampleRate)).
			Msg("transcription stopped")
	})
}

func (m *Manager) release(r *run, resource string, fn func() error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error().Interface("panic", p).Str("resource", resource).Msg("release panicked")
			m.metrics.ReleaseFailures.WithLabelValues(resource).Inc()
		}
	}()
	if err := fn(); err != nil {
		r.log.Error().Err(err).Str("resource", resource).Msg("release failed")
		m.metrics.ReleaseFailures.WithLabelValues(resource).Inc()
	}
}

func drainStale(chunks <-chan audio.Chunk) int {
	n := 0
	for {
		select {
		case _, ok := <-chunks:
			if !ok {
				return n
			}
			n++
		default:
			return n
		}
	}
}
