package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/capturenode/cmd"
	"github.com/smazurov/capturenode/internal/api"
	"github.com/smazurov/capturenode/internal/config"
	"github.com/smazurov/capturenode/internal/devices"
	"github.com/smazurov/capturenode/internal/events"
	"github.com/smazurov/capturenode/internal/logging"
	"github.com/smazurov/capturenode/internal/metrics/exporters"
	"github.com/smazurov/capturenode/internal/updater"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Device monitoring settings
	DevicesRefreshInterval string `help:"Periodic re-enumeration interval" default:"30s" toml:"devices.refresh_interval" env:"DEVICES_REFRESH_INTERVAL"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Metrics settings
	MetricsEnabled bool `help:"Expose Prometheus metrics on /metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`

	// Self-update settings
	UpdateEnabled    bool   `help:"Enable self-update endpoints" default:"true" toml:"update.enabled" env:"UPDATE_ENABLED"`
	UpdateRepo       string `help:"GitHub repository for release lookups" default:"smazurov/capturenode" toml:"update.repo" env:"UPDATE_REPO"`
	UpdatePrerelease bool   `help:"Consider prereleases when checking for updates" default:"false" toml:"update.prerelease" env:"UPDATE_PRERELEASE"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingDevices string `help:"Devices logging level" default:"info" toml:"logging.modules.devices" env:"LOGGING_DEVICES"`
	LoggingMonitor string `help:"Monitor logging level" default:"info" toml:"logging.modules.monitor" env:"LOGGING_MONITOR"`
	LoggingAPI     string `help:"API logging level" default:"info" toml:"logging.modules.api" env:"LOGGING_API"`
	LoggingHTTP    string `help:"HTTP request logging level" default:"info" toml:"logging.modules.http" env:"LOGGING_HTTP"`
	LoggingUpdater string `help:"Updater logging level" default:"info" toml:"logging.modules.updater" env:"LOGGING_UPDATER"`
}

func main() {
	// Create Huma CLI. The variable is captured by the callback so config
	// loading can see which flags were set explicitly.
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"devices": opts.LoggingDevices,
				"monitor": opts.LoggingMonitor,
				"api":     opts.LoggingAPI,
				"http":    opts.LoggingHTTP,
				"updater": opts.LoggingUpdater,
			},
		})

		logger := logging.GetLogger("main")

		// Create event bus for in-process event handling
		eventBus := events.New()

		// Forward new log entries to SSE subscribers
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		refreshInterval, parseErr := time.ParseDuration(opts.DevicesRefreshInterval)
		if parseErr != nil || refreshInterval <= 0 {
			refreshInterval = devices.DefaultRefreshInterval
		}

		// The monitor publishes device changes through the event bus; the
		// API server reads its snapshot and triggers forced refreshes.
		enum := devices.NewEnumerator()
		publisher := api.NewEventPublisher(eventBus)
		monitor := devices.NewMonitor(enum, publisher, refreshInterval)

		var updateService updater.Service
		if opts.UpdateEnabled {
			svc, svcErr := updater.NewService(&updater.Options{
				Repository: opts.UpdateRepo,
				Prerelease: opts.UpdatePrerelease,
			})
			if svcErr != nil {
				logger.Warn("Failed to create update service", "error", svcErr)
			} else {
				updateService = svc
			}
		}

		apiOpts := &api.Options{
			AuthUsername:  opts.AuthUsername,
			AuthPassword:  opts.AuthPassword,
			Enumerator:    enum,
			Monitor:       monitor,
			EventBus:      eventBus,
			UpdateService: updateService,
		}
		if opts.MetricsEnabled {
			apiOpts.PrometheusHandler = exporters.HTTPHandler()
		}

		server := api.NewServer(apiOpts)

		// Pick up logging level changes from the config file without a
		// restart. Only file-sourced levels change; the ring buffer and
		// output format stay as they are.
		logWatcher := config.NewConfigWatcher(
			opts.Config,
			func(path string) (logging.Config, error) {
				return config.LoadLoggingConfig(path), nil
			},
			logger,
		)
		logWatcher.OnReload(func(cfg logging.Config) {
			logger.Info("Reloading logging levels", "level", cfg.Level)
			logging.UpdateLevels(cfg)
		})

		hooks.OnStart(func() {
			// A failed initial pass is not fatal; the periodic and hotplug
			// watchers keep retrying.
			if startErr := monitor.Start(context.Background()); startErr != nil {
				logger.Warn("Initial device enumeration failed", "error", startErr)
			}

			if watchErr := logWatcher.Start(); watchErr != nil {
				logger.Warn("Failed to start config watcher, hot-reload disabled", "error", watchErr)
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			_ = logWatcher.Stop()
			monitor.Stop()

			// A restart requested through the update API exits nonzero so
			// the service manager brings the process back up with the new
			// binary.
			if updateService != nil && updateService.IsRestartPending() {
				os.Exit(1)
			}
		})
	})

	// Add one-shot device commands
	cli.Root().AddCommand(cmd.CreateListCmd())
	cli.Root().AddCommand(cmd.CreateWatchCmd())

	// Run the CLI
	cli.Run()
}
