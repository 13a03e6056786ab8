// Package cmd holds the auxiliary CLI commands next to the default server
// command.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fs-bullard/sl-wb-pi-api/internal/camera"
	"github.com/fs-bullard/sl-wb-pi-api/internal/capture"
	"github.com/fs-bullard/sl-wb-pi-api/internal/events"
	"github.com/fs-bullard/sl-wb-pi-api/internal/logging"
	"github.com/fs-bullard/sl-wb-pi-api/internal/xdt"
)

// openDriver resolves a driver name to an implementation. The simulator is
// the only in-tree driver; the vendor USB binding plugs in here.
func openDriver(name string) (xdt.Driver, error) {
	switch name {
	case "sim":
		return xdt.NewSim(), nil
	default:
		return nil, fmt.Errorf("unknown driver %q (supported: sim)", name)
	}
}

// CreateCaptureCmd creates the one-shot capture command.
func CreateCaptureCmd() *cobra.Command {
	var exposureMs int
	var output string
	var driverName string
	var settingsFile string
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture a single frame to a TIFF file",
		Long: `Opens the sensor, performs one triggered exposure and writes the ` +
			`frame to disk as a 16-bit grayscale TIFF. Exposure 0 uses the saved default.`,
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			loggingConfig := logging.Config{
				Level:  "info",
				Format: "text",
			}
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)
			logger := logging.GetLogger("capture")

			driver, err := openDriver(driverName)
			if err != nil {
				logger.Error("Failed to select driver", "error", err)
				os.Exit(1)
			}

			session, err := capture.Open(driver, logger)
			if err != nil {
				logger.Error("Failed to open capture device", "error", err)
				os.Exit(1)
			}
			defer session.Close()

			store := camera.NewSettingsStore(settingsFile, logger)
			if err := store.Load(); err != nil {
				logger.Warn("Failed to load settings, using defaults", "error", err)
			}

			controller := camera.NewController(session, store, events.New(), logger)
			data, meta, err := controller.Capture(exposureMs, "tif")
			if err != nil {
				logger.Error("Capture failed", "error", err)
				os.Exit(1)
			}

			if err := os.WriteFile(output, data, 0o644); err != nil {
				logger.Error("Failed to write output file", "path", output, "error", err)
				os.Exit(1)
			}

			logger.Info("Frame written",
				"path", output,
				"exposure_ms", meta.ExposureMs,
				"resolution", meta.Resolution,
				"size_bytes", meta.SizeBytes)
		},
	}

	cmd.Flags().IntVarP(&exposureMs, "exposure", "e", 0, "Exposure time in milliseconds (0 uses the saved default)")
	cmd.Flags().StringVarP(&output, "output", "o", "frame.tif", "Output file path")
	cmd.Flags().StringVar(&driverName, "driver", "sim", "Sensor driver to use")
	cmd.Flags().StringVar(&settingsFile, "settings", "camera_settings.toml", "Camera settings file")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Log in JSON format")

	return cmd
}
