package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/leonardotrapani/urduscribe/internal/audio"
	"github.com/leonardotrapani/urduscribe/internal/logging"
	"github.com/rs/zerolog"
)

const DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

var (
	ErrMissingAPIKey = errors.New("gemini API key required")
	ErrClosed        = errors.New("session closed")
)

// GeminiDialer opens Gemini Live sessions over a websocket.
type GeminiDialer struct {
	endpoint         string
	apiKey           string
	handshakeTimeout time.Duration
	log              zerolog.Logger
}

func NewGeminiDialer(endpoint, apiKey string, handshakeTimeout time.Duration) *GeminiDialer {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if handshakeTimeout <= 0 {
		handshakeTimeout = 10 * time.Second
	}
	return &GeminiDialer{
		endpoint:         endpoint,
		apiKey:           apiKey,
		handshakeTimeout: handshakeTimeout,
		log:              logging.WithComponent("session"),
	}
}

// Gemini Live client messages (outgoing)
type geminiClientMessage struct {
	Setup         *geminiSetup         `json:"setup,omitempty"`
	RealtimeInput *geminiRealtimeInput `json:"realtimeInput,omitempty"`
}

type geminiSetup struct {
	Model                   string                 `json:"model"`
	GenerationConfig        geminiGenerationConfig `json:"generationConfig"`
	SystemInstruction       *geminiContent         `json:"systemInstruction,omitempty"`
	InputAudioTranscription *struct{}              `json:"inputAudioTranscription,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiRealtimeInput struct {
	Audio *geminiBlob `json:"audio,omitempty"`
}

type geminiBlob struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"` // base64 on the wire
}

// Gemini Live server messages (incoming)
type geminiServerMessage struct {
	SetupComplete *struct{}            `json:"setupComplete,omitempty"`
	ServerContent *geminiServerContent `json:"serverContent,omitempty"`
	GoAway        *geminiGoAway        `json:"goAway,omitempty"`
}

type geminiServerContent struct {
	InputTranscription *geminiTranscription `json:"inputTranscription,omitempty"`
	TurnComplete       bool                 `json:"turnComplete,omitempty"`
	Interrupted        bool                 `json:"interrupted,omitempty"`
}

type geminiTranscription struct {
	Text string `json:"text"`
}

type geminiGoAway struct {
	TimeLeft string `json:"timeLeft"`
}

func newSetup(cfg Config) *geminiSetup {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}

	setup := &geminiSetup{
		Model:                   model,
		GenerationConfig:        geminiGenerationConfig{ResponseModalities: cfg.ResponseModalities},
		InputAudioTranscription: &struct{}{},
	}
	if cfg.SystemInstruction != "" {
		setup.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: cfg.SystemInstruction}}}
	}
	return setup
}

func (d *GeminiDialer) buildURL() (string, error) {
	u, err := url.Parse(d.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", d.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Open connects, sends the setup message and waits for setupComplete.
func (d *GeminiDialer) Open(ctx context.Context, cfg Config) (Session, error) {
	if d.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	wsURL, err := d.buildURL()
	if err != nil {
		return nil, err
	}

	hsCtx, cancel := context.WithTimeout(ctx, d.handshakeTimeout)
	defer cancel()

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.handshakeTimeout,
	}

	d.log.Info().Str("endpoint", d.endpoint).Str("model", cfg.Model).Msg("connecting")
	conn, resp, err := dialer.DialContext(hsCtx, wsURL, nil)
	if err != nil {
		if resp != nil {
			d.log.Error().Int("status", resp.StatusCode).Msg("dial failed")
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	if err := conn.WriteJSON(geminiClientMessage{Setup: newSetup(cfg)}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send setup: %w", err)
	}

	if err := awaitSetupComplete(hsCtx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	s := newGeminiSession(conn, d.log)
	go s.readLoop()

	d.log.Info().Msg("session opened")
	return s, nil
}

func awaitSetupComplete(ctx context.Context, conn *websocket.Conn) error {
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			stop()
			if ctx.Err() != nil {
				return fmt.Errorf("await setup: %w", ctx.Err())
			}
			return fmt.Errorf("await setup: %w", err)
		}

		var msg geminiServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.SetupComplete != nil {
			break
		}
	}

	if !stop() {
		return fmt.Errorf("await setup: %w", ctx.Err())
	}
	return conn.SetReadDeadline(time.Time{})
}

type geminiSession struct {
	conn    *websocket.Conn
	events  chan Event
	writeMu sync.Mutex

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}

	log zerolog.Logger
}

func newGeminiSession(conn *websocket.Conn, log zerolog.Logger) *geminiSession {
	ctx, cancel := context.WithCancel(context.Background())
	return &geminiSession{
		conn:   conn,
		events: make(chan Event, 64),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		log:    log,
	}
}

func (s *geminiSession) Events() <-chan Event {
	return s.events
}

func (s *geminiSession) Send(blob audio.Blob) error {
	if s.ctx.Err() != nil {
		return ErrClosed
	}

	msg := geminiClientMessage{
		RealtimeInput: &geminiRealtimeInput{
			Audio: &geminiBlob{MIMEType: blob.MIMEType, Data: blob.Data},
		},
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}

func (s *geminiSession) readLoop() {
	defer close(s.done)
	defer close(s.events)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.ctx.Err() != nil {
				return // closed locally
			}
			var ce *websocket.CloseError
			if errors.As(err, &ce) && (ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway) {
				s.log.Info().Int("code", ce.Code).Str("reason", ce.Text).Msg("session closed by service")
				s.emit(Event{Kind: Closed})
				return
			}
			s.log.Error().Err(err).Msg("session failed")
			s.emit(Event{Kind: Error, Err: fmt.Errorf("gemini: %w", err)})
			s.emit(Event{Kind: Closed, Err: err})
			return
		}

		var msg geminiServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Warn().Err(err).Msg("parse error")
			continue
		}
		s.handle(msg)
	}
}

func (s *geminiSession) handle(msg geminiServerMessage) {
	if msg.GoAway != nil {
		s.log.Warn().Str("time_left", msg.GoAway.TimeLeft).Msg("service is going away")
	}

	content := msg.ServerContent
	if content == nil {
		return
	}
	if content.InputTranscription != nil && content.InputTranscription.Text != "" {
		s.emit(Event{Kind: Fragment, Text: content.InputTranscription.Text})
	}
	if content.TurnComplete {
		s.emit(Event{Kind: TurnComplete})
	}
}

func (s *geminiSession) emit(ev Event) {
	select {
	case s.events <- ev:
	case <-s.ctx.Done():
	}
}

func (s *geminiSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()
		// best effort close frame; WriteControl is safe alongside Send
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = s.conn.Close()
		<-s.done
		s.log.Info().Msg("session closed")
	})
	return err
}
