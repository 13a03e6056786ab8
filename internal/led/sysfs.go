package led

import (
	"fmt"
	"os"
	"path/filepath"
)

const sysfsLEDPath = "/sys/class/leds"

// sysfs drives LEDs through the Linux /sys/class/leds interface.
type sysfs struct {
	leds map[string]string // LED type -> sysfs device name
}

func newSysfs(leds map[string]string) *sysfs {
	return &sysfs{leds: leds}
}

// Set writes the trigger and brightness files for the mapped LED.
func (s *sysfs) Set(ledType string, enabled bool, pattern string) error {
	sysfsName, ok := s.leds[ledType]
	if !ok {
		return fmt.Errorf("LED type %q not supported on this board", ledType)
	}

	ledPath := filepath.Join(sysfsLEDPath, sysfsName)
	if _, err := os.Stat(ledPath); os.IsNotExist(err) {
		return fmt.Errorf("LED %q not found at %s", ledType, ledPath)
	}

	if pattern != "" {
		trigger := triggerFor(pattern)
		triggerPath := filepath.Join(ledPath, "trigger")
		if err := os.WriteFile(triggerPath, []byte(trigger), 0o644); err != nil {
			return fmt.Errorf("failed to set LED trigger: %w", err)
		}
		// Brightness writes only take effect with the trigger released.
		if trigger != "none" {
			return nil
		}
	}

	brightness := "0"
	if enabled {
		brightness = "1"
	}
	brightnessPath := filepath.Join(ledPath, "brightness")
	if err := os.WriteFile(brightnessPath, []byte(brightness), 0o644); err != nil {
		return fmt.Errorf("failed to set LED brightness: %w", err)
	}
	return nil
}

// triggerFor maps the public pattern names onto kernel trigger names.
// Unknown patterns pass through as raw trigger names.
func triggerFor(pattern string) string {
	switch pattern {
	case "solid":
		return "none"
	case "blink":
		return "timer"
	case "heartbeat":
		return "heartbeat"
	default:
		return pattern
	}
}

func (s *sysfs) Available() []string {
	types := make([]string, 0, len(s.leds))
	for ledType := range s.leds {
		types = append(types, ledType)
	}
	return types
}

func (s *sysfs) Patterns() []string {
	return []string{"solid", "blink", "heartbeat"}
}
