package config

import (
	"fmt"
	"net"
	"net/url"

	"github.com/leonardotrapani/urduscribe/internal/audio"
	"github.com/rs/zerolog"
)

func (c *Config) Validate() error {
	if c.General.LogLevel != "" {
		if _, err := zerolog.ParseLevel(c.General.LogLevel); err != nil {
			return fmt.Errorf("invalid general.log_level: %s", c.General.LogLevel)
		}
	}
	switch c.General.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("invalid general.log_format: %s (must be console or json)", c.General.LogFormat)
	}

	if c.Recording.SampleRate != audio.SampleRate {
		return fmt.Errorf("invalid recording.sample_rate: %d (the service expects %d)", c.Recording.SampleRate, audio.SampleRate)
	}
	if c.Recording.Channels <= 0 {
		return fmt.Errorf("invalid recording.channels: %d", c.Recording.Channels)
	}
	if c.Recording.ChunkSamples <= 0 {
		return fmt.Errorf("invalid recording.chunk_samples: %d", c.Recording.ChunkSamples)
	}
	if c.Recording.ChannelBufferSize <= 0 {
		return fmt.Errorf("invalid recording.channel_buffer_size: %d", c.Recording.ChannelBufferSize)
	}
	if c.Recording.StartTimeout <= 0 {
		return fmt.Errorf("invalid recording.start_timeout: %v", c.Recording.StartTimeout)
	}

	if c.Session.Provider != "gemini" {
		return fmt.Errorf("invalid session.provider: %q (only gemini is supported)", c.Session.Provider)
	}
	if c.Session.Model == "" {
		return fmt.Errorf("invalid session.model: empty")
	}
	u, err := url.Parse(c.Session.Endpoint)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return fmt.Errorf("invalid session.endpoint: %q (must be a ws:// or wss:// URL)", c.Session.Endpoint)
	}
	if c.Session.HandshakeTimeout <= 0 {
		return fmt.Errorf("invalid session.handshake_timeout: %v", c.Session.HandshakeTimeout)
	}
	if c.ResolveAPIKey() == "" {
		return fmt.Errorf("API key required: not found in config (session.api_key) or environment variable (GEMINI_API_KEY, API_KEY)")
	}

	switch c.Notifications.Type {
	case "", "desktop", "log", "none":
	default:
		return fmt.Errorf("invalid notifications.type: %s (must be desktop, log or none)", c.Notifications.Type)
	}

	if c.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(c.Metrics.Address); err != nil {
			return fmt.Errorf("invalid metrics.address: %q: %v", c.Metrics.Address, err)
		}
	}

	return nil
}
