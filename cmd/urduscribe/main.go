package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/leonardotrapani/urduscribe/internal/bus"
	"github.com/leonardotrapani/urduscribe/internal/clipboard"
	"github.com/leonardotrapani/urduscribe/internal/config"
	"github.com/leonardotrapani/urduscribe/internal/daemon"
	"github.com/leonardotrapani/urduscribe/internal/deps"
	"github.com/leonardotrapani/urduscribe/internal/logging"
	"github.com/leonardotrapani/urduscribe/internal/metrics"
	"github.com/leonardotrapani/urduscribe/internal/recording"
	"github.com/leonardotrapani/urduscribe/internal/tui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	envFile   string
	logCloser io.Closer
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "urduscribe",
	Short: "Live Urdu speech-to-text in the terminal",
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with GEMINI_API_KEY or API_KEY")

	rootCmd.AddCommand(
		serveCmd(),
		listenCmd(),
		watchCmd(),
		sendCmd("toggle", "Toggle listening on/off", bus.CmdToggle),
		sendCmd("start", "Start listening", bus.CmdStart),
		sendCmd("stop", "Stop listening", bus.CmdStop),
		sendCmd("status", "Get current listening status", bus.CmdStatus),
		transcriptCmd(),
		sendCmd("version", "Get protocol version", bus.CmdVersion),
		sendCmd("quit", "Stop the daemon", bus.CmdQuit),
		configureCmd(),
		doctorCmd(),
	)
}

// setup loads credentials and configures logging. logFile overrides the
// configured destination when the configuration leaves it empty.
func setup(logFile string) (*config.Manager, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cm, err := config.NewManager()
	if err != nil {
		lc := logging.DefaultConfig()
		lc.File = logFile
		if closer, lerr := logging.Init(lc); lerr == nil {
			logCloser = closer
			log.Error().Err(err).Msg("failed to load config")
		}
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	lc := cm.GetConfig().ToLoggingConfig()
	if lc.File == "" {
		lc.File = logFile
	}
	closer, err := logging.Init(lc)
	if err != nil {
		return nil, err
	}
	logCloser = closer
	return cm, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cm, err := setup("")
			if err != nil {
				return err
			}
			return daemon.New(cm).Run()
		},
	}
}

func listenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Transcribe in this terminal without a daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			// the live view owns the terminal, so logs go to a file
			logFile, err := defaultLogFile("listen.log")
			if err != nil {
				return err
			}
			cm, err := setup(logFile)
			if err != nil {
				return err
			}
			if err := cm.GetConfig().Validate(); err != nil {
				return fmt.Errorf("invalid configuration (run urduscribe configure): %w", err)
			}

			ctx, cancel := signalContext()
			defer cancel()

			if err := cm.StartWatching(ctx); err != nil {
				log.Warn().Err(err).Msg("config hot reload unavailable")
			}
			defer cm.Stop()

			perms := recording.NewPermissionTracker()
			go perms.Watch(ctx, daemon.DefaultPermissionInterval)

			m := daemon.NewManager(cm, perms, metrics.New())
			return tui.RunLive(ctx, m, true)
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the daemon's live transcript",
		RunE: func(cmd *cobra.Command, args []string) error {
			logFile, err := defaultLogFile("watch.log")
			if err != nil {
				return err
			}
			if _, err := setup(logFile); err != nil {
				return err
			}
			if _, err := bus.SendCommand(bus.CmdVersion); err != nil {
				return fmt.Errorf("daemon not reachable (run urduscribe serve): %w", err)
			}

			ctx, cancel := signalContext()
			defer cancel()
			return tui.RunLive(ctx, tui.NewRemote(tui.DefaultPollInterval), false)
		},
	}
}

func sendCmd(use, short string, c byte) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(c)
			if err != nil {
				return fmt.Errorf("failed to %s: %w", use, err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func transcriptCmd() *cobra.Command {
	var copyOut bool
	cmd := &cobra.Command{
		Use:   "transcript",
		Short: "Print the current transcript",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdTranscript)
			if err != nil {
				return fmt.Errorf("failed to get transcript: %w", err)
			}
			_, fields, err := bus.ParseFields(resp)
			if err != nil {
				return fmt.Errorf("unexpected response %q: %w", resp, err)
			}
			fmt.Println(fields["text"])
			if copyOut {
				if err := clipboard.Copy(cmd.Context(), fields["text"], clipboard.DefaultTimeout); err != nil {
					return fmt.Errorf("failed to copy transcript: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&copyOut, "copy", "c", false, "also copy the transcript to the clipboard")
	return cmd
}

func configureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure()
		},
	}
}

func runConfigure() error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	result, err := tui.Run(cfg)
	if err != nil {
		return fmt.Errorf("configuration form error: %w", err)
	}
	if result.Cancelled {
		fmt.Println("Configuration cancelled.")
		return nil
	}

	if err := result.Config.Validate(); err != nil {
		fmt.Printf("Configuration validation failed: %v\n", err)
		return err
	}

	if err := config.Save(result.Config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	configPath, _ := config.GetConfigPath()
	fmt.Println()
	fmt.Println("Configuration saved successfully!")
	fmt.Printf("Config file location: %s\n", configPath)
	fmt.Println()
	fmt.Println("Next Steps:")
	fmt.Println("1. Transcribe right here: urduscribe listen")
	fmt.Println("2. Or run the daemon (urduscribe serve) and bind urduscribe toggle to a key")
	return nil
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that required system tools are installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := deps.CheckAll(cmd.Context())
			printDeps(cmd.OutOrStdout(), statuses)
			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("missing required tools: %v", missing)
			}
			return nil
		},
	}
}

func printDeps(w io.Writer, statuses []deps.Status) {
	for _, s := range statuses {
		mark := "ok"
		if !s.Installed {
			mark = "missing"
			if !s.Required {
				mark = "missing (optional)"
			}
		}
		fmt.Fprintf(w, "%-12s %-20s %s\n", s.Name, mark, s.Purpose)
		if s.Version != "" {
			fmt.Fprintf(w, "%-12s %s\n", "", s.Version)
		}
	}
}

func defaultLogFile(name string) (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "urduscribe", name), nil
}
