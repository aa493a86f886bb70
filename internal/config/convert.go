package config

import (
	"os"

	"github.com/leonardotrapani/urduscribe/internal/logging"
	"github.com/leonardotrapani/urduscribe/internal/recording"
	"github.com/leonardotrapani/urduscribe/internal/session"
)

// APIKeyEnvVars are consulted, in order, when session.api_key is empty.
var APIKeyEnvVars = []string{"GEMINI_API_KEY", "API_KEY"}

func (c *Config) ToRecordingConfig() recording.Config {
	return recording.Config{
		SampleRate:        c.Recording.SampleRate,
		Channels:          c.Recording.Channels,
		ChunkSamples:      c.Recording.ChunkSamples,
		Device:            c.Recording.Device,
		ChannelBufferSize: c.Recording.ChannelBufferSize,
		StartTimeout:      c.Recording.StartTimeout,
	}
}

func (c *Config) ToSessionConfig() session.Config {
	config := session.DefaultConfig()
	if c.Session.Model != "" {
		config.Model = c.Session.Model
	}
	if c.Session.SystemInstruction != "" {
		config.SystemInstruction = c.Session.SystemInstruction
	}
	return config
}

// ToLoggingConfig fills unset fields from logging.DefaultConfig.
func (c *Config) ToLoggingConfig() logging.Config {
	lc := logging.DefaultConfig()
	if c.General.LogLevel != "" {
		lc.Level = c.General.LogLevel
	}
	if c.General.LogFormat != "" {
		lc.Format = c.General.LogFormat
	}
	lc.File = c.General.LogFile
	return lc
}

// NewDialer builds a dialer for the configured service.
func (c *Config) NewDialer() session.Dialer {
	return session.NewGeminiDialer(c.Session.Endpoint, c.ResolveAPIKey(), c.Session.HandshakeTimeout)
}

// ResolveAPIKey returns session.api_key, then the first non-empty variable
// from APIKeyEnvVars.
func (c *Config) ResolveAPIKey() string {
	if c.Session.APIKey != "" {
		return c.Session.APIKey
	}
	for _, name := range APIKeyEnvVars {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}
