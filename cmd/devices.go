package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fs-bullard/sl-wb-pi-api/internal/logging"
)

// CreateDevicesCmd creates the sensor enumeration command.
func CreateDevicesCmd() *cobra.Command {
	var driverName string

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List attached camera sensors",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			logging.Initialize(logging.Config{Level: "warn", Format: "text"})
			logger := logging.GetLogger("devices")

			driver, err := openDriver(driverName)
			if err != nil {
				logger.Error("Failed to select driver", "error", err)
				os.Exit(1)
			}
			if err := driver.Initialize(); err != nil {
				logger.Error("Driver initialization failed", "error", err)
				os.Exit(1)
			}
			defer func() {
				if err := driver.Shutdown(); err != nil {
					logger.Warn("Driver shutdown failed", "error", err)
				}
			}()

			devices, err := driver.Devices()
			if err != nil {
				logger.Error("Device enumeration failed", "error", err)
				os.Exit(1)
			}
			if len(devices) == 0 {
				fmt.Println("No sensors attached")
				return
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tMODEL\tSERIAL")
			for _, dev := range devices {
				fmt.Fprintf(w, "%s\t%s\t%s\n", dev.ID, dev.Model, dev.Serial)
			}
			w.Flush()
		},
	}

	cmd.Flags().StringVar(&driverName, "driver", "sim", "Sensor driver to use")

	return cmd
}
