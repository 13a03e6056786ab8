// Package logging provides structured logging with per-module log level configuration.
//
// The logging system uses Go's slog package with automatic output routing:
//   - systemd journal when available (SYSLOG_IDENTIFIER=slcam)
//   - stdout when a terminal, pipe, or file is connected
//   - an in-memory ring buffer serving the /api/logs endpoint
//
// Initialize once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"capture": "debug",
//			"api":     "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("capture")
//	logger.Info("device opened", "model", model)
//
// Module-specific levels override the global level for that module only.
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	capture = "debug"
//	api = "warn"
//
// When running under systemd:
//
//	journalctl -t slcam -f
//	journalctl -t slcam MODULE=capture
package logging
