package led

// Controller abstracts board status LED control. Implementations handle
// board-specific LED naming and trigger capabilities.
type Controller interface {
	// Set controls an LED's state and optional pattern.
	//   ledType: board-specific LED identifier (e.g., "act", "pwr")
	//   enabled: whether the LED should be on or off
	//   pattern: optional trigger pattern ("solid", "blink", "heartbeat");
	//            empty string means no pattern change
	Set(ledType string, enabled bool, pattern string) error

	// Available returns the LED types this controller can drive.
	Available() []string

	// Patterns returns the patterns this controller supports.
	Patterns() []string
}
