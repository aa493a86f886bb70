package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/BurntSushi/toml"
	"github.com/leonardotrapani/urduscribe/internal/logging"
)

func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	appDir := filepath.Join(configDir, "urduscribe")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(appDir, "config.toml"), nil
}

// Load reads the config file, falling back to defaults when it does not
// exist. Keys missing from the file keep their default values.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(configPath)
}

func LoadFile(configPath string) (*Config, error) {
	log := logging.WithComponent("config")
	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Info().Str("path", configPath).Msg("no config file, using defaults")
		return config, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat config file %s: %w", configPath, err)
	}

	log.Debug().Str("path", configPath).Msg("loading configuration")
	meta, err := toml.DecodeFile(configPath, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		log.Warn().Interface("keys", undecoded).Msg("unknown configuration keys ignored")
	}

	return config, nil
}

// Save writes config to the default location.
func Save(config *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(configPath, config)
}

func SaveFile(configPath string, config *Config) error {
	file, err := os.OpenFile(configPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := configTemplate.Execute(file, config); err != nil {
		return fmt.Errorf("failed to write config content: %w", err)
	}
	return nil
}

var configTemplate = template.Must(template.New("config").Funcs(template.FuncMap{
	"q": tomlString,
}).Parse(`# Urduscribe Configuration
# Changes are applied to the next listening session without a daemon restart.

[general]
  log_level = {{q .General.LogLevel}}          # "debug", "info", "warn", "error"
  log_format = {{q .General.LogFormat}}        # "console" or "json"
  log_file = {{q .General.LogFile}}            # empty logs to stderr

# Microphone capture (PipeWire)
[recording]
  sample_rate = {{.Recording.SampleRate}}            # must match what the service expects (16000)
  channels = {{.Recording.Channels}}                 # captured channels, downmixed to mono
  chunk_samples = {{.Recording.ChunkSamples}}        # samples per chunk sent to the service
  device = {{q .Recording.Device}}                   # PipeWire target (empty = default microphone)
  channel_buffer_size = {{.Recording.ChannelBufferSize}}  # chunks buffered before dropping
  start_timeout = {{q .Recording.StartTimeout}}      # how long to wait for the microphone

# Streaming transcription service
[session]
  provider = {{q .Session.Provider}}
  model = {{q .Session.Model}}
  endpoint = {{q .Session.Endpoint}}
  api_key = {{q .Session.APIKey}}                    # or GEMINI_API_KEY / API_KEY
  system_instruction = {{q .Session.SystemInstruction}}  # empty uses the built-in Urdu instruction
  handshake_timeout = {{q .Session.HandshakeTimeout}}

[notifications]
  enabled = {{.Notifications.Enabled}}
  type = {{q .Notifications.Type}}                   # "desktop", "log", "none"

# Prometheus metrics on /metrics (serve only)
[metrics]
  enabled = {{.Metrics.Enabled}}
  address = {{q .Metrics.Address}}
`))

// tomlString renders v as a TOML basic string. Invalid UTF-8 is replaced
// since TOML documents must be valid UTF-8.
func tomlString(v any) string {
	var buf bytes.Buffer
	value := strings.ToValidUTF8(fmt.Sprint(v), "\uFFFD")
	if err := toml.NewEncoder(&buf).Encode(map[string]string{"v": value}); err != nil {
		return `""`
	}
	return strings.TrimSuffix(strings.TrimPrefix(buf.String(), "v = "), "\n")
}
