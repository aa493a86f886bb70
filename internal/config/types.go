package config

import "time"

type Config struct {
	General       GeneralConfig       `toml:"general"`
	Recording     RecordingConfig     `toml:"recording"`
	Session       SessionConfig       `toml:"session"`
	Notifications NotificationsConfig `toml:"notifications"`
	Metrics       MetricsConfig       `toml:"metrics"`
}

// GeneralConfig holds global settings that apply across the application
type GeneralConfig struct {
	LogLevel  string `toml:"log_level"`  // "debug", "info", "warn", "error"
	LogFormat string `toml:"log_format"` // "console", "json"
	LogFile   string `toml:"log_file"`   // empty logs to stderr
}

type RecordingConfig struct {
	SampleRate        int           `toml:"sample_rate"`
	Channels          int           `toml:"channels"`
	ChunkSamples      int           `toml:"chunk_samples"`
	Device            string        `toml:"device"`
	ChannelBufferSize int           `toml:"channel_buffer_size"`
	StartTimeout      time.Duration `toml:"start_timeout"`
}

// SessionConfig configures the streaming transcription service.
type SessionConfig struct {
	Provider          string        `toml:"provider"` // only "gemini"
	Model             string        `toml:"model"`
	Endpoint          string        `toml:"endpoint"`
	APIKey            string        `toml:"api_key"`
	SystemInstruction string        `toml:"system_instruction"`
	HandshakeTimeout  time.Duration `toml:"handshake_timeout"`
}

type NotificationsConfig struct {
	Enabled bool   `toml:"enabled"`
	Type    string `toml:"type"` // "desktop", "log", "none"
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
}
