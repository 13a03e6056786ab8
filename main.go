package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fs-bullard/sl-wb-pi-api/cmd"
	"github.com/fs-bullard/sl-wb-pi-api/internal/api"
	"github.com/fs-bullard/sl-wb-pi-api/internal/camera"
	"github.com/fs-bullard/sl-wb-pi-api/internal/capture"
	"github.com/fs-bullard/sl-wb-pi-api/internal/config"
	"github.com/fs-bullard/sl-wb-pi-api/internal/devices"
	"github.com/fs-bullard/sl-wb-pi-api/internal/events"
	"github.com/fs-bullard/sl-wb-pi-api/internal/led"
	"github.com/fs-bullard/sl-wb-pi-api/internal/logging"
	"github.com/fs-bullard/sl-wb-pi-api/internal/xdt"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":5000" toml:"server.port" env:"SERVER_PORT"`

	// Camera settings
	Driver       string `help:"Sensor driver (sim)" default:"sim" toml:"camera.driver" env:"CAMERA_DRIVER"`
	SettingsFile string `help:"Camera settings file" default:"camera_settings.toml" toml:"camera.settings_file" env:"CAMERA_SETTINGS_FILE"`

	// Metrics settings
	MetricsEnabled bool `help:"Enable Prometheus metrics endpoint" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Features settings
	FeaturesLEDControl bool `help:"Enable LED control" default:"false" toml:"features.led_control_enabled" env:"FEATURES_LED_CONTROL"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingCapture string `help:"Capture logging level" default:"info" toml:"logging.capture" env:"LOGGING_CAPTURE"`
	LoggingCamera  string `help:"Camera logging level" default:"info" toml:"logging.camera" env:"LOGGING_CAMERA"`
	LoggingDevices string `help:"Devices logging level" default:"info" toml:"logging.devices" env:"LOGGING_DEVICES"`
	LoggingAPI     string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, nil); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"capture": opts.LoggingCapture,
				"camera":  opts.LoggingCamera,
				"devices": opts.LoggingDevices,
				"api":     opts.LoggingAPI,
			},
		})
		logger := logging.GetLogger("main")

		eventBus := events.New()

		var driver xdt.Driver
		switch opts.Driver {
		case "sim":
			driver = xdt.NewSim()
		default:
			logger.Error("Unknown sensor driver", "driver", opts.Driver)
			os.Exit(1)
		}

		session, err := capture.Open(driver, logging.GetLogger("capture"))
		if err != nil {
			logger.Error("Failed to open capture device", "error", err)
			os.Exit(1)
		}

		settingsStore := camera.NewSettingsStore(opts.SettingsFile, logging.GetLogger("camera"))
		if err := settingsStore.Load(); err != nil {
			logger.Warn("Failed to load camera settings, using defaults", "error", err)
		}

		cameraController := camera.NewController(
			session, settingsStore, eventBus, logging.GetLogger("camera"))

		// Reload settings when the file changes on disk, so edits made over
		// SSH take effect without a restart.
		settingsWatcher := config.NewConfigWatcher(
			settingsStore.Path(),
			camera.LoadSettings,
			logging.GetLogger("camera"),
		)
		settingsWatcher.OnReload(func(settings camera.Settings) {
			if applyErr := settingsStore.Apply(settings); applyErr != nil {
				logger.Warn("Ignoring invalid settings from file", "error", applyErr)
				return
			}
			eventBus.Publish(events.SettingsUpdatedEvent{
				ExposureMs: settings.ExposureMs,
				Source:     "file",
			})
		})

		deviceMonitor := devices.NewMonitor(driver, eventBus, logging.GetLogger("devices"))

		var ledManager *led.Manager
		var ledController led.Controller
		if opts.FeaturesLEDControl {
			logger.Info("LED control enabled, initializing")
			ledController = led.New(logger)
			ledManager = led.NewManager(ledController, eventBus, logging.GetLogger("main"))
		}

		apiOpts := &api.Options{
			AuthUsername: opts.AuthUsername,
			AuthPassword: opts.AuthPassword,
			Camera:       cameraController,
			DeviceSerial: session.Device().Serial,
		}
		if ledManager != nil {
			apiOpts.LEDController = ledController
			apiOpts.BusyFunc = ledManager.Busy
		}
		if opts.MetricsEnabled {
			apiOpts.PrometheusHandler = promhttp.Handler()
		}

		server := api.NewServer(apiOpts)

		hooks.OnStart(func() {
			if watchErr := settingsWatcher.Start(); watchErr != nil {
				logger.Warn("Failed to start settings watcher", "error", watchErr)
			}
			deviceMonitor.Start(context.Background())
			if ledManager != nil {
				ledManager.Start()
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

			if ledManager != nil {
				ledManager.Stop()
			}
			deviceMonitor.Stop()
			if stopErr := settingsWatcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping settings watcher", "error", stopErr)
			}
			if closeErr := session.Close(); closeErr != nil {
				logger.Warn("Error closing capture device", "error", closeErr)
			}
		})
	})

	cli.Root().AddCommand(cmd.CreateCaptureCmd())
	cli.Root().AddCommand(cmd.CreateDevicesCmd())

	cli.Run()
}
