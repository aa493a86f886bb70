package config

import (
	"time"

	"github.com/leonardotrapani/urduscribe/internal/audio"
	"github.com/leonardotrapani/urduscribe/internal/session"
)

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
		Recording: RecordingConfig{
			SampleRate:        audio.SampleRate,
			Channels:          1,
			ChunkSamples:      audio.ChunkSamples,
			Device:            "",
			ChannelBufferSize: 20,
			StartTimeout:      5 * time.Second,
		},
		Session: SessionConfig{
			Provider:         "gemini",
			Model:            session.DefaultModel,
			Endpoint:         session.DefaultEndpoint,
			HandshakeTimeout: 10 * time.Second,
		},
		Notifications: NotificationsConfig{
			Enabled: true,
			Type:    "desktop",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: "127.0.0.1:9464",
		},
	}
}
