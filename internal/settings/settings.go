package settings

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Defaults. The keyword defaults are the exact phrases the Japanese Zoom
// build shows in its meeting menu; users on other locales edit them via
// the configuration menu.
const (
	DefaultIconSize        = 100
	DefaultCheckIntervalMS = 200
	DefaultMutedKeyword    = "オーディオのミュート解除"
	DefaultUnmutedKeyword  = "オーディオのミュート"
)

// IconSizePresets are the icon sizes selectable from the overlay menu, in px.
var IconSizePresets = []int{50, 100, 150, 200, 250, 300, 350, 400, 450, 500}

// IntervalPresets are the selectable poll intervals, in milliseconds.
var IntervalPresets = []int{10, 30, 50, 100, 200, 300, 500, 1000}

// Settings is the persisted user configuration. WindowX/WindowY are
// pointers so that "never positioned" (use the default corner
// placement) is distinguishable from a saved origin of 0.
type Settings struct {
	WindowX         *float64 `json:"window_x,omitempty"`
	WindowY         *float64 `json:"window_y,omitempty"`
	IconSize        int      `json:"icon_size"`
	MutedKeyword    string   `json:"muted_keyword"`
	UnmutedKeyword  string   `json:"unmuted_keyword"`
	CheckIntervalMS int      `json:"check_interval"`
	ListenAddr      string   `json:"listen_addr,omitempty"` // status WebSocket, empty = disabled
}

// Default returns a Settings populated with all defaults.
func Default() Settings {
	return Settings{
		IconSize:        DefaultIconSize,
		MutedKeyword:    DefaultMutedKeyword,
		UnmutedKeyword:  DefaultUnmutedKeyword,
		CheckIntervalMS: DefaultCheckIntervalMS,
	}
}

// Path returns the config file location under the user's Application
// Support directory.
func Path() string {
	return filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "MuteWatch", "config.json")
}

// Load reads the config file. A missing or unreadable file is not an
// error: it is logged and defaults apply. Unknown fields are ignored,
// missing fields keep their defaults.
func Load() Settings {
	s := Default()

	data, err := os.ReadFile(Path())
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Failed to read config %s: %v (using defaults)", Path(), err)
		}
		return s
	}

	if err := json.Unmarshal(data, &s); err != nil {
		log.Printf("Failed to parse config %s: %v (using defaults)", Path(), err)
		return Default()
	}

	s.Normalize()
	return s
}

// Save writes the config file with indentation, creating the directory
// if needed. Last write wins.
func Save(s Settings) error {
	dir := filepath.Dir(Path())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(Path(), data, 0644)
}

// Normalize snaps out-of-range numeric fields back to their defaults and
// refuses empty keywords. Settings loaded from disk are never fatal.
func (s *Settings) Normalize() {
	if !containsInt(IconSizePresets, s.IconSize) {
		s.IconSize = DefaultIconSize
	}
	if !containsInt(IntervalPresets, s.CheckIntervalMS) {
		s.CheckIntervalMS = DefaultCheckIntervalMS
	}
	if s.MutedKeyword == "" {
		s.MutedKeyword = DefaultMutedKeyword
	}
	if s.UnmutedKeyword == "" {
		s.UnmutedKeyword = DefaultUnmutedKeyword
	}
}

func containsInt(set []int, v int) bool {
	for _, x := range set {
		if x == v {
			return true
		}
	}
	return false
}
