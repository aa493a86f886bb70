package tui

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/leonardotrapani/urduscribe/internal/config"
	"github.com/muesli/termenv"
)

// ConfigureResult holds the configuration result from the TUI
type ConfigureResult struct {
	Config    *config.Config
	Cancelled bool
}

// Run edits a copy of existing with a form and returns it.
func Run(existing *config.Config) (*ConfigureResult, error) {
	if existing == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := *existing
	clearScreen()

	form := newConfigureForm(&cfg)
	if err := form.Run(); err != nil {
		if err == huh.ErrUserAborted {
			return &ConfigureResult{Cancelled: true}, nil
		}
		return &ConfigureResult{Cancelled: true}, err
	}

	cfg.Session.APIKey = strings.TrimSpace(cfg.Session.APIKey)
	cfg.Session.Model = strings.TrimSpace(cfg.Session.Model)
	cfg.Recording.Device = strings.TrimSpace(cfg.Recording.Device)
	return &ConfigureResult{Config: &cfg}, nil
}

func newConfigureForm(cfg *config.Config) *huh.Form {
	apiKeyDesc := "Leave empty to use GEMINI_API_KEY or API_KEY from the environment"
	if cfg.Session.APIKey == "" && cfg.ResolveAPIKey() != "" {
		apiKeyDesc = "Currently taken from the environment. " + apiKeyDesc
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(Title).
				Description(Subtitle),
			huh.NewInput().
				Title("Gemini API key").
				Description(apiKeyDesc).
				EchoMode(huh.EchoModePassword).
				Value(&cfg.Session.APIKey),
			huh.NewInput().
				Title("Model").
				Description("Live model used for transcription").
				Value(&cfg.Session.Model).
				Validate(notEmpty("model")),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Microphone").
				Description("PipeWire target name (empty = default microphone)").
				Value(&cfg.Recording.Device),
			huh.NewConfirm().
				Title("Enable notifications?").
				Description("Show notifications when listening starts, stops or fails").
				Value(&cfg.Notifications.Enabled),
			huh.NewSelect[string]().
				Title("Notification Type").
				Options(
					huh.NewOption("Desktop notifications (notify-send)", "desktop"),
					huh.NewOption("Log only", "log"),
					huh.NewOption("None (silent)", "none"),
				).
				Value(&cfg.Notifications.Type),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&cfg.General.LogLevel),
			huh.NewConfirm().
				Title("Serve Prometheus metrics?").
				Value(&cfg.Metrics.Enabled),
			huh.NewInput().
				Title("Metrics address").
				Value(&cfg.Metrics.Address).
				Validate(validAddress),
		),
	).WithTheme(getTheme())
}

func notEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validAddress(s string) error {
	if _, _, err := net.SplitHostPort(s); err != nil {
		return fmt.Errorf("use host:port, e.g. 127.0.0.1:9464")
	}
	return nil
}

// clearScreen clears the terminal screen
func clearScreen() {
	output := termenv.NewOutput(os.Stdout)
	output.ClearScreen()
}

func getTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Focused.Base = lipgloss.NewStyle().BorderForeground(ColorPrimary)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(ColorSecondary)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(ColorText)
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(ColorError)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Blurred.Description = lipgloss.NewStyle().Foreground(ColorSubtle)

	return t
}
