// Package config loads and persists user settings. Loading never fails —
// a missing or corrupt file yields defaults — and every save replaces the
// file atomically so a crash can't leave a half-written config behind.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"dictaria/lang"
)

// MaxFavorites caps the favorites set.
const MaxFavorites = 5

var ErrTooManyFavorites = errors.New("favorites limit reached")

// Settings is the persisted settings record. Flat, no versioning.
type Settings struct {
	ActiveLanguage string         `yaml:"active_language"`
	Favorites      []string       `yaml:"favorites"`
	Theme          string         `yaml:"theme"`
	Pinned         bool           `yaml:"pinned"`
	Collapsed      bool           `yaml:"collapsed"`
	AutoPaste      bool           `yaml:"auto_paste"`
	Hotkey         HotkeySettings `yaml:"hotkey"`
	Engine         EngineSettings `yaml:"engine"`
}

// HotkeySettings selects the global-hotkey delivery mechanism.
type HotkeySettings struct {
	Backend    string `yaml:"backend"` // "auto", "native", or "file"
	SignalFile string `yaml:"signal_file"`
}

// EngineSettings selects and configures the transcription engine.
type EngineSettings struct {
	Name           string `yaml:"name"` // "whisper-server" or "openai"
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	Format         string `yaml:"format"` // upload format: "wav" or "flac"
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Default returns the settings used when no config file exists.
func Default() *Settings {
	return &Settings{
		ActiveLanguage: lang.Default().Code,
		Theme:          "dark",
		AutoPaste:      false,
		Hotkey: HotkeySettings{
			Backend:    "auto",
			SignalFile: filepath.Join(os.TempDir(), "dictaria_signal.txt"),
		},
		Engine: EngineSettings{
			Name:           "whisper-server",
			Format:         "wav",
			TimeoutSeconds: 60,
		},
	}
}

// DefaultPath returns the config file location.
func DefaultPath() string {
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "dictaria.yaml"
		}
		xdgConfig = filepath.Join(home, ".config")
	}
	return filepath.Join(xdgConfig, "dictaria", "config.yaml")
}

// Load reads settings from path. Any error — missing file, bad YAML,
// invalid values — falls back to defaults so startup can't be blocked by
// a broken config.
func Load(path string) *Settings {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return Default()
	}
	s.normalize()
	return s
}

func (s *Settings) normalize() {
	if !lang.Valid(s.ActiveLanguage) {
		s.ActiveLanguage = lang.Default().Code
	}
	valid := s.Favorites[:0]
	for _, code := range s.Favorites {
		if lang.Valid(code) && !slices.Contains(valid, code) {
			valid = append(valid, code)
		}
	}
	if len(valid) > MaxFavorites {
		valid = valid[:MaxFavorites]
	}
	s.Favorites = valid
	if s.Theme != "dark" && s.Theme != "light" {
		s.Theme = "dark"
	}
	if s.Hotkey.Backend == "" {
		s.Hotkey.Backend = "auto"
	}
	if s.Engine.Name == "" {
		s.Engine.Name = "whisper-server"
	}
	if s.Engine.Format == "" {
		s.Engine.Format = "wav"
	}
	if s.Engine.TimeoutSeconds <= 0 {
		s.Engine.TimeoutSeconds = 60
	}
}

// Save writes settings to path atomically: marshal to a temp file in the
// same directory, then rename over the target.
func Save(path string, s *Settings) error {
	if len(s.Favorites) > MaxFavorites {
		return fmt.Errorf("%w: %d > %d", ErrTooManyFavorites, len(s.Favorites), MaxFavorites)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "config-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

// AddFavorite adds a language code to the favorites set.
func (s *Settings) AddFavorite(code string) error {
	if !lang.Valid(code) {
		return fmt.Errorf("unknown language %q", code)
	}
	if slices.Contains(s.Favorites, code) {
		return nil
	}
	if len(s.Favorites) >= MaxFavorites {
		return ErrTooManyFavorites
	}
	s.Favorites = append(s.Favorites, code)
	return nil
}

// RemoveFavorite drops a language code from the favorites set.
func (s *Settings) RemoveFavorite(code string) {
	s.Favorites = slices.DeleteFunc(s.Favorites, func(c string) bool { return c == code })
}

func (s *Settings) IsFavorite(code string) bool {
	return slices.Contains(s.Favorites, code)
}
