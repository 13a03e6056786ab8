package led

import (
	"os"
	"strings"

	"github.com/fs-bullard/sl-wb-pi-api/internal/logging"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// New creates an LED controller based on board detection. Boards without
// known status LEDs get a no-op controller.
func New(logger logging.Logger) Controller {
	boardModel := detectBoard()

	if logger != nil {
		logger.Info("Detecting board for LED control", "board_model", boardModel)
	}

	switch {
	case strings.Contains(boardModel, "Raspberry Pi"):
		if logger != nil {
			logger.Info("Detected Raspberry Pi, using sysfs LED controller")
		}
		return newSysfs(map[string]string{
			"act": "ACT",
			"pwr": "PWR",
		})

	case strings.Contains(boardModel, "Orange Pi"):
		if logger != nil {
			logger.Info("Detected Orange Pi, using sysfs LED controller")
		}
		return newSysfs(map[string]string{
			"act": "green_led",
			"pwr": "blue_led",
		})

	default:
		if logger != nil {
			logger.Info("No LED support detected, using no-op controller", "board_model", boardModel)
		}
		return newNoop(logging.GetLogger("led"))
	}
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	return strings.TrimRight(string(data), "\x00")
}
