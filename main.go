package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/videocore/cmd"
	"github.com/smazurov/videocore/internal/api"
	"github.com/smazurov/videocore/internal/config"
	"github.com/smazurov/videocore/internal/events"
	"github.com/smazurov/videocore/internal/logging"
	"github.com/smazurov/videocore/internal/metrics"
	"github.com/smazurov/videocore/internal/metrics/collectors"
	"github.com/smazurov/videocore/internal/sim"
	"github.com/smazurov/videocore/internal/version"
	"github.com/smazurov/videocore/internal/video"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Device settings
	SimProfile  string `help:"Simulated hardware profile (TOML); built-in profile when empty" toml:"device.sim_profile" env:"DEVICE_SIM_PROFILE"`
	FramePeriod string `help:"Override the simulated frame period (e.g. 33ms)" toml:"device.frame_period" env:"DEVICE_FRAME_PERIOD"`

	// Metrics settings
	MetricsEnabled  bool   `help:"Expose Prometheus metrics on /metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`
	MetricsInterval string `help:"Device status polling interval" default:"5s" toml:"metrics.interval" env:"METRICS_INTERVAL"`

	// Logging settings
	LoggingLevel      string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat     string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingVideo      string `help:"Capture device logging level" default:"info" toml:"logging.video" env:"LOGGING_VIDEO"`
	LoggingFramebuf   string `help:"Buffer queue logging level" default:"info" toml:"logging.framebuf" env:"LOGGING_FRAMEBUF"`
	LoggingCapability string `help:"Format negotiation logging level" default:"info" toml:"logging.capability" env:"LOGGING_CAPABILITY"`
	LoggingSim        string `help:"Simulated hardware logging level" default:"info" toml:"logging.sim" env:"LOGGING_SIM"`
	LoggingAPI        string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingEvents     string `help:"Event bus logging level" default:"info" toml:"logging.events" env:"LOGGING_EVENTS"`
	LoggingMetrics    string `help:"Metrics logging level" default:"info" toml:"logging.metrics" env:"LOGGING_METRICS"`
	LoggingConfig     string `help:"Config reload logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
}

func (o *Options) loggingConfig() logging.Config {
	return logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"video":      o.LoggingVideo,
			"framebuf":   o.LoggingFramebuf,
			"capability": o.LoggingCapability,
			"sim":        o.LoggingSim,
			"api":        o.LoggingAPI,
			"events":     o.LoggingEvents,
			"metrics":    o.LoggingMetrics,
			"config":     o.LoggingConfig,
		},
	}
}

// parseDuration returns fallback for an empty or malformed value.
func parseDuration(logger *slog.Logger, name, value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		logger.Warn("Invalid duration, using default", "option", name, "value", value, "default", fallback)
		return fallback
	}
	return d
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(opts.loggingConfig())
		logger := logging.GetLogger("main")
		logger.Info("Starting videocore", "version", version.Get().String())

		eventBus := events.New()
		events.ForwardLogs(eventBus)

		observers := video.MultiObserver{events.NewDeviceObserver(eventBus)}
		if opts.MetricsEnabled {
			observers = append(observers, metrics.NewObserver())
		}

		profile, err := sim.LoadProfile(opts.SimProfile)
		if err != nil {
			logger.Error("Failed to load hardware profile", "path", opts.SimProfile, "error", err)
			os.Exit(1)
		}
		hw, err := sim.NewHardware(profile, &video.Options{
			Logger:   logging.GetLogger("video"),
			Observer: observers,
		})
		if err != nil {
			logger.Error("Failed to initialize capture device", "error", err)
			os.Exit(1)
		}
		if period := parseDuration(logger, "device.frame_period", opts.FramePeriod, 0); period > 0 {
			hw.Engine.SetFramePeriod(period)
		}

		apiOpts := &api.Options{
			AuthUsername: opts.AuthUsername,
			AuthPassword: opts.AuthPassword,
			Device:       hw.Device,
			EventBus:     eventBus,
		}

		var collector *collectors.DeviceCollector
		if opts.MetricsEnabled {
			apiOpts.MetricsHandler = metrics.Handler()
			collector = collectors.NewDeviceCollector(hw.Device,
				parseDuration(logger, "metrics.interval", opts.MetricsInterval, 5*time.Second))
		}

		server := api.NewServer(apiOpts)

		// Log levels follow the config file without a restart.
		watcher := config.NewConfigWatcher(opts.Config, config.LoadLoggingConfig, logging.GetLogger("config"))
		watcher.OnReload(func(cfg logging.Config) {
			logging.Initialize(cfg)
			logger.Info("Logging configuration reloaded", "level", cfg.Level)
		})

		hooks.OnStart(func() {
			if collector != nil {
				collector.Start(context.Background())
			}
			if _, statErr := os.Stat(opts.Config); statErr == nil {
				if startErr := watcher.Start(); startErr != nil {
					logger.Warn("Config watcher disabled", "path", opts.Config, "error", startErr)
				}
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if stopErr := server.Stop(ctx); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}
			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping config watcher", "error", stopErr)
			}
			if collector != nil {
				collector.Stop()
			}
		})
	})

	cli.Root().Version = version.Get().String()
	cli.Root().AddCommand(cmd.CreateFormatsCmd())
	cli.Root().AddCommand(cmd.CreateCaptureCmd())

	cli.Run()
}
