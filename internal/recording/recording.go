package recording

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leonardotrapani/urduscribe/internal/audio"
	"github.com/leonardotrapani/urduscribe/internal/logging"
	"github.com/rs/zerolog"
)

type Config struct {
	SampleRate        int
	Channels          int
	ChunkSamples      int
	Device            string
	ChannelBufferSize int
	StartTimeout      time.Duration
}

func DefaultConfig() Config {
	return Config{
		SampleRate:        audio.SampleRate,
		Channels:          1,
		ChunkSamples:      audio.ChunkSamples,
		Device:            "",
		ChannelBufferSize: 20,
		StartTimeout:      5 * time.Second,
	}
}

// Recorder captures the microphone through pw-record and delivers fixed-size
// float chunks. A Recorder serves a single listening session.
type Recorder struct {
	config    Config
	recording atomic.Bool
	log       zerolog.Logger

	mu      sync.Mutex // guards cmd, cancel and exitErr
	cmd     *exec.Cmd
	cancel  context.CancelFunc
	exitErr error

	wg sync.WaitGroup

	command        func(ctx context.Context, args []string) *exec.Cmd
	checkAvailable func(ctx context.Context) error
}

func NewRecorder(config Config) *Recorder {
	return &Recorder{
		config: config,
		log:    logging.WithComponent("recording"),
		command: func(ctx context.Context, args []string) *exec.Cmd {
			return exec.CommandContext(ctx, "pw-record", args...)
		},
		checkAvailable: CheckPipeWireAvailable,
	}
}

func (r *Recorder) IsRecording() bool {
	return r.recording.Load()
}

// Start launches capture and blocks until the microphone delivered its first
// chunk. Failures before that point are classified as ErrPermissionDenied,
// ErrDeviceNotFound or ErrCaptureFailed.
func (r *Recorder) Start(ctx context.Context) (<-chan audio.Chunk, <-chan error, error) {
	if r.recording.Load() {
		return nil, nil, fmt.Errorf("already recording")
	}

	if err := r.validateConfig(); err != nil {
		return nil, nil, err
	}

	if err := r.checkAvailable(ctx); err != nil {
		return nil, nil, fmt.Errorf("%w: PipeWire not available: %v", ErrCaptureFailed, err)
	}

	recordingCtx, cancel := context.WithCancel(ctx)

	chunkCh := make(chan audio.Chunk, r.config.ChannelBufferSize)
	errCh := make(chan error, 1)
	ready := make(chan error, 1)

	r.mu.Lock()
	r.cancel = cancel
	r.exitErr = nil
	r.mu.Unlock()

	r.recording.Store(true)
	r.wg.Add(1)
	go r.captureLoop(recordingCtx, chunkCh, errCh, ready)

	timer := time.NewTimer(r.config.StartTimeout)
	defer timer.Stop()

	select {
	case err := <-ready:
		if err != nil {
			r.abortStart()
			return nil, nil, err
		}
		r.log.Info().
			Int("rate", r.config.SampleRate).
			Int("chunk_samples", r.config.ChunkSamples).
			Str("device", r.config.Device).
			Msg("microphone acquired")
		return chunkCh, errCh, nil
	case <-timer.C:
		r.abortStart()
		return nil, nil, fmt.Errorf("%w: no audio within %v", ErrCaptureFailed, r.config.StartTimeout)
	case <-ctx.Done():
		r.abortStart()
		return nil, nil, ctx.Err()
	}
}

func (r *Recorder) abortStart() {
	_ = r.Stop()
	r.wg.Wait()
}

// Stop stops the hardware capture. It does not wait for the capture loop.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

// Close waits for the capture loop to exit and the process to be reaped.
// It reports a process that ended on its own with a failure.
func (r *Recorder) Close() error {
	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exitErr
}

func (r *Recorder) captureLoop(ctx context.Context, chunkCh chan<- audio.Chunk, errCh chan<- error, ready chan<- error) {
	started := false

	defer func() {
		close(chunkCh)
		close(errCh)

		r.mu.Lock()
		cmd := r.cmd
		r.cmd = nil
		cancel := r.cancel
		r.cancel = nil
		r.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		// Ensure any child process is reaped.
		if cmd != nil {
			_ = cmd.Wait()
		}

		r.recording.Store(false)
		r.wg.Done()
	}()

	fail := func(err error) {
		if !started {
			ready <- err
			return
		}
		r.mu.Lock()
		r.exitErr = err
		r.mu.Unlock()
		r.emitErr(errCh, err)
	}

	cmd := r.command(ctx, r.buildPwRecordArgs())

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		fail(fmt.Errorf("%w: create stdout pipe: %v", ErrCaptureFailed, err))
		return
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		fail(fmt.Errorf("%w: create stderr pipe: %v", ErrCaptureFailed, err))
		return
	}

	if err := cmd.Start(); err != nil {
		fail(classifyFailure("", err))
		return
	}

	r.mu.Lock()
	r.cmd = cmd
	r.mu.Unlock()

	var tail stderrTail
	stderrDone := make(chan struct{})
	go func() {
		defer close(stderrDone)
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			line := scanner.Text()
			r.log.Debug().Str("line", line).Msg("pw-record stderr")
			tail.add(line)
		}
	}()

	channels := r.config.Channels
	buffer := make([]byte, r.config.ChunkSamples*channels*4)
	var droppedCount int
	lastDropLog := time.Now()

	for {
		if _, readErr := io.ReadFull(stdout, buffer); readErr != nil {
			if ctx.Err() != nil {
				if !started {
					ready <- ctx.Err()
				}
				return
			}

			<-stderrDone
			r.mu.Lock()
			cmd := r.cmd
			r.cmd = nil
			r.mu.Unlock()

			waitErr := readErr
			if cmd != nil {
				if err := cmd.Wait(); err != nil {
					waitErr = err
				}
			}

			failure := classifyFailure(tail.String(), waitErr)
			if started {
				failure = fmt.Errorf("capture ended: %w", failure)
			}
			fail(failure)
			return
		}

		samples := audio.DecodeFloat32LE(buffer)
		if channels > 1 {
			samples = downmix(samples, channels)
		}
		chunk := audio.Chunk{Samples: samples, Timestamp: time.Now()}

		if !started {
			started = true
			ready <- nil
		}

		select {
		case chunkCh <- chunk:
		case <-ctx.Done():
			return
		default:
			droppedCount++
			if time.Since(lastDropLog) > time.Second {
				r.log.Warn().Int("dropped", droppedCount).Msg("dropped chunks due to backpressure")
				lastDropLog = time.Now()
				droppedCount = 0
			}
		}
	}
}

func (r *Recorder) emitErr(errCh chan<- error, err error) {
	select {
	case errCh <- err:
	default:
		// Best-effort; avoid blocking
	}
	r.log.Error().Err(err).Msg("recording error")
}

func (r *Recorder) buildPwRecordArgs() []string {
	args := []string{
		"--format", "f32",
		"--rate", strconv.Itoa(r.config.SampleRate),
		"--channels", strconv.Itoa(r.config.Channels),
	}
	if r.config.Device != "" {
		args = append(args, "--target", r.config.Device)
	}
	return append(args, "-") // stdout
}

// downmix averages interleaved frames into a mono signal.
func downmix(samples []float32, channels int) []float32 {
	out := make([]float32, len(samples)/channels)
	for i := range out {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += samples[i*channels+c]
		}
		out[i] = sum / float32(channels)
	}
	return out
}

func CheckPipeWireAvailable(ctx context.Context) error {
	if _, err := exec.LookPath("pw-record"); err != nil {
		return fmt.Errorf("pw-record not found: %w (install pipewire-tools)", err)
	}
	// Use a short timeout to avoid hangs on misconfigured systems.
	if ctx == nil {
		ctx = context.Background()
	}
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	cmd := exec.CommandContext(checkCtx, "pw-cli", "info", "0")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("PipeWire not running or accessible: %w", err)
	}
	return nil
}

func (r *Recorder) validateConfig() error {
	if r.config.SampleRate <= 0 {
		return fmt.Errorf("invalid SampleRate: %d", r.config.SampleRate)
	}
	if r.config.Channels <= 0 {
		return fmt.Errorf("invalid Channels: %d", r.config.Channels)
	}
	if r.config.ChunkSamples <= 0 {
		return fmt.Errorf("invalid ChunkSamples: %d", r.config.ChunkSamples)
	}
	if r.config.ChannelBufferSize <= 0 {
		return fmt.Errorf("invalid ChannelBufferSize: %d", r.config.ChannelBufferSize)
	}
	if r.config.StartTimeout <= 0 {
		return fmt.Errorf("invalid StartTimeout: %v", r.config.StartTimeout)
	}
	return nil
}
