package camera

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Settings are the persisted camera defaults.
type Settings struct {
	ExposureMs int `toml:"exposure_time" json:"exposure_time"`
}

// DefaultSettings returns the out-of-box camera settings.
func DefaultSettings() Settings {
	return Settings{ExposureMs: DefaultExposureMs}
}

// Validate checks settings against the sensor's limits.
func (s Settings) Validate() error {
	if s.ExposureMs < ExposureMinMs || s.ExposureMs > ExposureMaxMs {
		return fmt.Errorf("%w: %dms not in [%d, %d]",
			ErrInvalidExposure, s.ExposureMs, ExposureMinMs, ExposureMaxMs)
	}
	return nil
}

// SettingsStore persists Settings to a TOML file. Writes go through a
// temporary file and rename so a crash mid-write never corrupts the file.
type SettingsStore struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	current Settings
}

// NewSettingsStore creates a settings store backed by the given path.
func NewSettingsStore(path string, logger *slog.Logger) *SettingsStore {
	if path == "" {
		path = "camera_settings.toml"
	}
	return &SettingsStore{
		path:    path,
		logger:  logger,
		current: DefaultSettings(),
	}
}

// Path returns the backing file path, for wiring a file watcher.
func (s *SettingsStore) Path() string {
	return s.path
}

// Load reads settings from disk. A missing file is not an error: defaults
// are written out so the file exists for later edits.
func (s *SettingsStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		s.logger.Info("settings file missing, writing defaults", "path", s.path)
		return s.saveLocked(DefaultSettings())
	}

	settings, err := LoadSettings(s.path)
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		s.logger.Warn("settings file invalid, keeping previous values",
			"path", s.path, "error", err)
		return err
	}
	s.current = settings
	return nil
}

// Get returns the current settings.
func (s *SettingsStore) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Update validates, persists and applies new settings.
func (s *SettingsStore) Update(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(settings)
}

// Apply replaces the in-memory settings without writing them back, used
// when a file-watcher reload is the source of the change.
func (s *SettingsStore) Apply(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = settings
	return nil
}

func (s *SettingsStore) saveLocked(settings Settings) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		if removeErr := os.Remove(tmp); removeErr != nil {
			s.logger.Warn("failed to clean up temp settings file", "error", removeErr)
		}
		return fmt.Errorf("failed to replace settings file: %w", err)
	}

	s.current = settings
	s.logger.Info("settings saved", "path", s.path, "exposure_ms", settings.ExposureMs)
	return nil
}

// LoadSettings reads and parses a settings file. Free function so it can
// serve as a config.Watcher loader.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	settings := DefaultSettings()
	if err := toml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	return settings, nil
}
