package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/leonardotrapani/urduscribe/internal/audio"
	"github.com/leonardotrapani/urduscribe/internal/config"
	"github.com/leonardotrapani/urduscribe/internal/session"
)

// TestConfig returns a valid configuration for testing
func TestConfig() *config.Config {
	c := config.DefaultConfig()
	c.Session.APIKey = "test-api-key"
	c.Notifications.Type = "none"
	return c
}

// CreateTempConfigFile creates a temporary config file for testing
func CreateTempConfigFile(t *testing.T, configContent string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}
	return configPath
}

// TestContext returns a context with timeout for testing
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// WaitForCondition waits for a condition to be true or times out
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("Condition not met within %v", timeout)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// MockChunk creates a chunk of n samples at a constant level.
func MockChunk(n int, level float32) audio.Chunk {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = level
	}
	return audio.Chunk{Samples: samples, Timestamp: time.Now()}
}

// MockSession implements session.Session. Tests push server events with Emit.
type MockSession struct {
	SendError  error
	CloseError error

	events chan session.Event

	mu     sync.Mutex
	sent   []audio.Blob
	closes int
}

func NewMockSession() *MockSession {
	return &MockSession{events: make(chan session.Event, 32)}
}

func (m *MockSession) Emit(ev session.Event) {
	m.events <- ev
}

func (m *MockSession) Events() <-chan session.Event {
	return m.events
}

func (m *MockSession) Send(blob audio.Blob) error {
	if m.SendError != nil {
		return m.SendError
	}
	m.mu.Lock()
	m.sent = append(m.sent, blob)
	m.mu.Unlock()
	return nil
}

func (m *MockSession) Close() error {
	m.mu.Lock()
	m.closes++
	m.mu.Unlock()
	return m.CloseError
}

func (m *MockSession) Sent() []audio.Blob {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]audio.Blob, len(m.sent))
	copy(result, m.sent)
	return result
}

func (m *MockSession) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

// MockDialer implements session.Dialer and hands out Session.
type MockDialer struct {
	Session   *MockSession
	OpenError error
	// Block makes Open wait for its context to end.
	Block bool

	mu      sync.Mutex
	opens   int
	configs []session.Config
}

func NewMockDialer(s *MockSession) *MockDialer {
	return &MockDialer{Session: s}
}

func (m *MockDialer) Open(ctx context.Context, cfg session.Config) (session.Session, error) {
	m.mu.Lock()
	m.opens++
	m.configs = append(m.configs, cfg)
	m.mu.Unlock()

	if m.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.OpenError != nil {
		return nil, m.OpenError
	}
	return m.Session, nil
}

func (m *MockDialer) Opens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens
}

func (m *MockDialer) Configs() []session.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]session.Config(nil), m.configs...)
}

// MockCapture stands in for the microphone. Tests feed it with Chunks and
// Errors after Start.
type MockCapture struct {
	StartError error
	CloseError error
	ClosePanic any
	// Pending chunks are queued before Start returns.
	Pending []audio.Chunk

	Chunks chan audio.Chunk
	Errors chan error

	mu     sync.Mutex
	starts int
	stops  int
	closes int
}

func NewMockCapture() *MockCapture {
	return &MockCapture{
		Chunks: make(chan audio.Chunk, 32),
		Errors: make(chan error, 1),
	}
}

func (m *MockCapture) Start(ctx context.Context) (<-chan audio.Chunk, <-chan error, error) {
	m.mu.Lock()
	m.starts++
	m.mu.Unlock()

	if m.StartError != nil {
		return nil, nil, m.StartError
	}
	for _, c := range m.Pending {
		m.Chunks <- c
	}
	return m.Chunks, m.Errors, nil
}

func (m *MockCapture) Stop() error {
	m.mu.Lock()
	m.stops++
	m.mu.Unlock()
	return nil
}

func (m *MockCapture) Close() error {
	m.mu.Lock()
	m.closes++
	m.mu.Unlock()
	if m.ClosePanic != nil {
		panic(m.ClosePanic)
	}
	return m.CloseError
}

func (m *MockCapture) Counts() (starts, stops, closes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts, m.stops, m.closes
}
