package daemon

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leonardotrapani/urduscribe/internal/bus"
	"github.com/leonardotrapani/urduscribe/internal/config"
	"github.com/leonardotrapani/urduscribe/internal/logging"
	"github.com/leonardotrapani/urduscribe/internal/metrics"
	"github.com/leonardotrapani/urduscribe/internal/notify"
	"github.com/leonardotrapani/urduscribe/internal/pipeline"
	"github.com/leonardotrapani/urduscribe/internal/recording"
	"github.com/leonardotrapani/urduscribe/internal/session"
	"github.com/rs/zerolog"
)

// DefaultPermissionInterval is how often the microphone permission is
// re-probed while the daemon runs.
const DefaultPermissionInterval = 30 * time.Second

type Daemon struct {
	cm      *config.Manager
	manager *pipeline.Manager
	perms   *recording.PermissionTracker
	metrics *metrics.Metrics
	log     zerolog.Logger

	// negative disables probing
	permInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

func New(cm *config.Manager) *Daemon {
	perms := recording.NewPermissionTracker()
	met := metrics.New()
	return newDaemon(cm, NewManager(cm, perms, met), perms, met)
}

func newDaemon(cm *config.Manager, m *pipeline.Manager, perms *recording.PermissionTracker, met *metrics.Metrics) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		cm:           cm,
		manager:      m,
		perms:        perms,
		metrics:      met,
		log:          logging.WithComponent("daemon"),
		permInterval: DefaultPermissionInterval,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// NewManager wires a pipeline manager to the live configuration. Every
// listening session picks up the configuration current at its start.
func NewManager(cm *config.Manager, perms *recording.PermissionTracker, met *metrics.Metrics) *pipeline.Manager {
	return pipeline.New(pipeline.Options{
		NewDialer: func() session.Dialer {
			return cm.GetConfig().NewDialer()
		},
		NewCapture: func() pipeline.Capture {
			return recording.NewRecorder(cm.GetConfig().ToRecordingConfig())
		},
		SessionConfig: func() session.Config {
			return cm.GetConfig().ToSessionConfig()
		},
		Permissions: perms,
		Metrics:     met,
		Notifier:    configNotifier{cm},
	})
}

// configNotifier resolves the notifier from the current configuration on
// every call.
type configNotifier struct{ cm *config.Manager }

func (n configNotifier) current() notify.Notifier {
	c := n.cm.GetConfig()
	return notify.New(c.Notifications.Enabled, c.Notifications.Type)
}

func (n configNotifier) ListeningChanged(on bool) { n.current().ListeningChanged(on) }
func (n configNotifier) Error(msg string)         { n.current().Error(msg) }

func (d *Daemon) Run() error {
	if err := bus.CheckExistingDaemon(); err != nil {
		return err
	}

	ln, err := bus.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := bus.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer bus.RemovePidFile()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			d.log.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
			d.cancel()
		case <-d.ctx.Done():
		}
	}()

	// Close the listener when context is done
	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	d.cm.OnReload(applyLogLevel)
	if err := d.cm.StartWatching(d.ctx); err != nil {
		d.log.Warn().Err(err).Msg("config hot reload unavailable")
	}
	defer d.cm.Stop()

	if d.permInterval >= 0 {
		go d.perms.Watch(d.ctx, d.permInterval)
	}

	if cfg := d.cm.GetConfig(); cfg.Metrics.Enabled {
		go func() {
			d.log.Info().Str("addr", cfg.Metrics.Address).Msg("serving metrics")
			if err := d.metrics.Serve(d.ctx, cfg.Metrics.Address); err != nil {
				d.log.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	// release the microphone and session on the way out
	defer d.manager.Stop()

	d.log.Info().Msg("daemon started, listening on socket")

	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				d.log.Info().Msg("shutdown requested")
				return nil
			}
			d.log.Error().Err(err).Msg("accept error")
			return fmt.Errorf("accept failed: %w", err)
		}
		go d.handle(c)
	}
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		d.log.Warn().Err(err).Msg("client read error")
		fmt.Fprintf(c, "ERR read_error: %v\n", err)
		return
	}
	if len(line) == 0 || line[0] == '\n' {
		fmt.Fprint(c, "ERR empty\n")
		return
	}
	cmd := line[0]

	switch cmd {
	case bus.CmdToggle:
		if d.manager.Snapshot().Listening() {
			d.stop(c)
		} else {
			d.start(c)
		}
	case bus.CmdStart:
		d.start(c)
	case bus.CmdStop:
		d.stop(c)
	case bus.CmdStatus:
		s := d.manager.Snapshot()
		fmt.Fprint(c, bus.FormatFields("STATUS",
			"status", string(s.Status),
			"permission", string(s.Permission),
			"session", s.SessionID,
			"error", s.Error,
		))
	case bus.CmdTranscript:
		fmt.Fprint(c, bus.FormatFields("TRANSCRIPT", "text", d.manager.Snapshot().Transcript))
	case bus.CmdVersion:
		fmt.Fprintf(c, "STATUS proto=%s\n", bus.ProtoVer)
	case bus.CmdQuit:
		fmt.Fprint(c, "OK quitting\n")
		d.cancel()
	default:
		d.log.Warn().Str("cmd", string(cmd)).Msg("unknown command")
		fmt.Fprintf(c, "ERR unknown=%q\n", cmd)
	}
}

func (d *Daemon) start(c net.Conn) {
	if err := d.manager.Start(d.ctx); err != nil {
		fmt.Fprint(c, bus.FormatFields("ERR", "error", pipelineError(d.manager, err)))
		return
	}
	fmt.Fprint(c, bus.FormatFields("OK", "status", string(d.manager.Status())))
}

func (d *Daemon) stop(c net.Conn) {
	d.manager.Stop()
	fmt.Fprint(c, bus.FormatFields("OK", "status", string(d.manager.Status())))
}

// pipelineError prefers the message already shown in the snapshot.
func pipelineError(m *pipeline.Manager, err error) string {
	if msg := m.Snapshot().Error; msg != "" {
		return msg
	}
	return pipeline.UserMessage(err)
}

func applyLogLevel(c *config.Config) {
	if level, err := zerolog.ParseLevel(c.General.LogLevel); err == nil && c.General.LogLevel != "" {
		zerolog.SetGlobalLevel(level)
	}
}
