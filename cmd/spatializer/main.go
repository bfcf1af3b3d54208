// Command spatializer runs the spatializer panel: a circle of sound objects
// whose bearings are sent to an OSC mixer, drawn as a terminal UI or run
// headless.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/oscmix/spatializer/internal/broadcast"
	"github.com/oscmix/spatializer/internal/config"
	"github.com/oscmix/spatializer/internal/dispatcher"
	"github.com/oscmix/spatializer/internal/geo"
	"github.com/oscmix/spatializer/internal/handlers"
	"github.com/oscmix/spatializer/internal/influx"
	"github.com/oscmix/spatializer/internal/logging"
	"github.com/oscmix/spatializer/internal/mixer"
	"github.com/oscmix/spatializer/internal/monitor"
	"github.com/oscmix/spatializer/internal/netinfo"
	intOtel "github.com/oscmix/spatializer/internal/otel"
	"github.com/oscmix/spatializer/internal/panel"
	"github.com/oscmix/spatializer/internal/registry"
	"github.com/oscmix/spatializer/internal/selection"
	"github.com/oscmix/spatializer/internal/session"
	"github.com/oscmix/spatializer/internal/snap"
	"github.com/oscmix/spatializer/internal/storage"
	osctransport "github.com/oscmix/spatializer/internal/transport/osc"
	"github.com/oscmix/spatializer/pkg/protocol"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	AppName string = "spatializer"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds everything that needs closing on exit, in start-up order.
type app struct {
	sessionStart time.Time

	logFile     *os.File
	metricFile  *os.File
	slogManager *logging.SlogManager
	logger      *slog.Logger
	dbLog       zerolog.Logger

	otel    *intOtel.Provider
	influx  *influx.Manager
	store   storage.Backend
	session *session.Session
	events  *dispatcher.Dispatcher
	inbound *osctransport.Server
	monitor *monitor.Service
}

func run(args []string) error {
	flags := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	configDir := flags.String("config", ".", "directory containing "+config.ConfigFileName)
	headless := flags.Bool("headless", false, "run without the terminal panel")
	flags.String("log-level", "info", "debug, info, warn or error")
	version := flags.Bool("version", false, "print the version and exit")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if *version {
		fmt.Printf("%s %s (built %s)\n", AppName, CurrentVersion, BuildDate)
		return nil
	}

	cfgErr := config.Load(*configDir)
	if err := viper.BindPFlag("logLevel", flags.Lookup("log-level")); err != nil {
		return fmt.Errorf("binding log-level flag: %w", err)
	}

	a := &app{sessionStart: time.Now()}
	defer a.close()

	if err := a.setupLogging(); err != nil {
		return err
	}
	if cfgErr != nil {
		a.logger.Warn("Config file not loaded, using defaults", "dir", *configDir, "error", cfgErr)
	}
	a.logger.Info("Starting", "app", AppName, "version", CurrentVersion, "buildDate", BuildDate)

	if err := a.setupOTel(); err != nil {
		return err
	}

	sink, target, err := a.setupSinks()
	if err != nil {
		return err
	}

	store, err := openStorage(config.GetStorageConfig(), a.dbLog, a.logger)
	if err != nil {
		// Layout commands report ErrNoStore; the panel itself still works.
		a.logger.Error("Layout storage unavailable", "error", err)
	} else {
		a.store = store
	}

	panelCfg := config.GetPanelConfig()
	reg := newRegistry(panelCfg, a.logger)
	catalog := newCatalog(config.GetSnapConfig())
	ctrl := selection.New(reg, catalog, selection.Config{
		Radius: panelCfg.Radius,
		Labels: panelCfg.Labels,
	})
	bc, err := broadcast.New(sink, broadcast.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("creating broadcaster: %w", err)
	}
	a.session = session.New(reg, ctrl, bc, session.Config{SettleDelay: panelCfg.SettleDelay}, a.logger)

	events, err := dispatcher.New(logging.NewDispatcherLogger(a.dbLog))
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}
	a.events = events

	mixerCfg := config.GetMixerConfig()
	master := mixer.NewFader(protocol.AddressMasterFader, sink, mixerCfg.Master)
	reverb := mixer.NewFader(protocol.AddressReverbFader, sink, mixerCfg.Reverb)
	master.Resend()
	reverb.Resend()
	solo := mixer.NewSolo(mixerCfg.Channels, sink)
	meters := mixer.NewMeters(mixerCfg.Channels)

	handlers.NewService(handlers.Dependencies{
		Session: a.session,
		Store:   a.store,
		Solo:    solo,
		Faders:  map[string]*mixer.Fader{"master": master, "reverb": reverb},
		Logger:  a.logger,
	}).RegisterHandlers(events)

	if err := a.listen(config.GetOSCConfig().Listen, meters); err != nil {
		a.logger.Warn("Inbound OSC disabled", "error", err)
	}

	localIP := netinfo.LocalIPv4()
	a.logger.Info("Network", "localIP", localIP, "target", target)

	a.session.Start()

	if mc := config.GetMonitorConfig(); mc.StatusFile != "" {
		a.monitor = monitor.NewService(monitor.Dependencies{
			State:      a.session,
			Meters:     meters,
			Solo:       solo,
			Faders:     map[string]monitor.Decibels{"master": master, "reverb": reverb},
			StatusPath: mc.StatusFile,
			Interval:   mc.Interval,
			Logger:     a.logger,
			LocalIP:    localIP,
			Target:     target,
		})
		if err := a.monitor.Start(); err != nil {
			a.logger.Warn("Status monitor disabled", "error", err)
			a.monitor = nil
		}
	}

	if *headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		a.logger.Info("Running headless")
		<-ctx.Done()
		a.logger.Info("Shutdown signal received")
		return nil
	}

	model := panel.New(a.session, events, panel.Config{
		Radius:  panelCfg.Radius,
		Labels:  panelCfg.Labels,
		Zones:   catalog.Zones(),
		LocalIP: localIP,
		Target:  target,
		Meters:  meters,
		Solo:    solo,
		Master:  master,
		Reverb:  reverb,
	})
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run(); err != nil {
		return fmt.Errorf("running panel: %w", err)
	}
	return nil
}

// setupLogging opens the session log file and configures both loggers:
// slog for the application and zerolog for the database and dispatcher.
func (a *app) setupLogging() error {
	logsDir := viper.GetString("logsDir")
	f, err := logging.OpenLogFile(logsDir, AppName, a.sessionStart)
	if err != nil {
		return err
	}
	a.logFile = f

	a.slogManager = logging.NewSlogManager()
	opts := logging.Options{
		File:  f,
		Level: viper.GetString("logLevel"),
		// session is assigned later; records logged before that carry no context
		Context: func() []slog.Attr {
			if a.session == nil {
				return nil
			}
			return a.session.LogAttrs()
		},
	}

	var graylogErr error
	if gl := config.GetGraylogConfig(); gl.Enabled {
		opts.Remote, graylogErr = a.slogManager.DialGraylog(gl.Address)
	}
	a.slogManager.Setup(opts)
	a.logger = a.slogManager.Logger()
	slog.SetDefault(a.logger)
	if graylogErr != nil {
		a.logger.Warn("Graylog disabled", "error", graylogErr)
	}

	level, err := zerolog.ParseLevel(strings.ToLower(viper.GetString("logLevel")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	a.dbLog = zerolog.New(f).Level(level).With().Timestamp().Logger()
	return nil
}

func (a *app) setupOTel() error {
	cfg := config.GetOTelConfig()
	otelCfg := intOtel.Config{
		Enabled:        cfg.Enabled,
		ServiceName:    cfg.ServiceName,
		ExportInterval: cfg.ExportInterval,
	}
	if cfg.Enabled {
		path := filepath.Join(viper.GetString("logsDir"),
			fmt.Sprintf("%s.metrics.%s.jsonl", AppName, a.sessionStart.Format("20060102_150405")))
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open metrics file %s: %w", path, err)
		}
		a.metricFile = f
		otelCfg.MetricWriter = f
	}

	p, err := intOtel.New(otelCfg)
	if err != nil {
		return fmt.Errorf("setting up otel: %w", err)
	}
	a.otel = p
	a.logger.Info("OTel configured", "enabled", p.Enabled())
	return nil
}

// setupSinks builds the outbound message path: OSC to the mixer, mirrored
// into InfluxDB when enabled. With no OSC target, messages are only logged.
func (a *app) setupSinks() (protocol.Sink, string, error) {
	var sinks []protocol.Sink
	target := netinfo.NotAvailable

	oscCfg := config.GetOSCConfig()
	if oscCfg.Enabled {
		s, err := osctransport.NewSink(oscCfg.Host, oscCfg.Port, a.logger)
		if err != nil {
			return nil, "", fmt.Errorf("creating osc sink: %w", err)
		}
		sinks = append(sinks, s)
		target = s.Target()
	} else {
		sinks = append(sinks, protocol.LogSink{Logger: a.logger})
	}

	if influxCfg := config.GetInfluxConfig(); influxCfg.Enabled {
		backup := filepath.Join(viper.GetString("logsDir"),
			fmt.Sprintf("%s.influx.%s.gz", AppName, a.sessionStart.Format("20060102_150405")))
		m := influx.NewManager(a.dbLog, influxCfg, backup)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err := m.Connect(ctx)
		cancel()
		if err != nil {
			a.logger.Warn("Influx mirror disabled", "error", err)
			_ = m.Close()
		} else {
			a.influx = m
			sinks = append(sinks, influx.NewSink(m))
		}
	}

	return protocol.NewMultiSink(sinks...), target, nil
}

// listen serves inbound meter levels and remote commands on addr. An empty
// addr disables both.
func (a *app) listen(addr string, meters *mixer.Meters) error {
	if addr == "" {
		return nil
	}
	srv := osctransport.NewServer(a.logger)
	if err := meters.Bind(srv); err != nil {
		return err
	}
	if err := handlers.BindOSC(srv, a.events, a.logger); err != nil {
		return err
	}
	if err := srv.Listen(addr); err != nil {
		return err
	}
	a.inbound = srv
	return nil
}

// close releases everything in reverse start-up order.
func (a *app) close() {
	log := a.logger
	if log == nil {
		log = slog.Default()
	}
	closeWith := func(name string, c io.Closer) {
		if err := c.Close(); err != nil {
			log.Warn("Close failed", "component", name, "error", err)
		}
	}

	if a.monitor != nil {
		a.monitor.Stop()
	}
	if a.session != nil {
		a.session.Close()
	}
	if a.inbound != nil {
		closeWith("osc server", a.inbound)
	}
	if a.events != nil {
		a.events.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Warn("Close failed", "component", "storage", "error", err)
		}
	}
	if a.influx != nil {
		closeWith("influx", a.influx)
	}
	if a.otel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.otel.Flush(ctx); err != nil {
			log.Warn("Metric flush failed", "error", err)
		}
		if err := a.otel.Shutdown(ctx); err != nil {
			log.Warn("Metric shutdown failed", "error", err)
		}
		cancel()
	}
	if a.metricFile != nil {
		closeWith("metrics file", a.metricFile)
	}

	log.Info("Stopped")
	if a.slogManager != nil {
		closeWith("graylog", a.slogManager)
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// newRegistry places the objects at the configured bearings, or spreads
// them evenly around the circle.
func newRegistry(cfg config.PanelConfig, logger *slog.Logger) *registry.Registry {
	if len(cfg.InitialBearings) == 0 {
		return registry.Spread(cfg.Objects, cfg.Radius)
	}
	if len(cfg.InitialBearings) != cfg.Objects {
		logger.Warn("initialBearings overrides panel.objects",
			"objects", cfg.Objects, "bearings", len(cfg.InitialBearings))
	}
	positions := make([]geo.Position, len(cfg.InitialBearings))
	for i, b := range cfg.InitialBearings {
		positions[i] = geo.FromBearing(b, cfg.Radius)
	}
	return registry.New(positions...)
}

func newCatalog(cfg config.SnapConfig) *snap.Catalog {
	if len(cfg.Zones) > 0 {
		return snap.NewCatalog(cfg.Zones)
	}
	return snap.NewCatalog(snap.Evenly(cfg.Count, cfg.Offset))
}
