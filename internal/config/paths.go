// Package config handles configuration loading, saving, and path management.
package config

import (
	"os"
	"path/filepath"
)

const (
	// AppDirName is the name of the per-user mirage directory under the
	// XDG config and data bases.
	AppDirName = "mirage"

	// ScreenshotsDirName is the name of the screenshots directory.
	ScreenshotsDirName = "screenshots"
)

// File names
const (
	DevicesFileName  = "paired_devices.json"
	SettingsFileName = "settings.yaml"
	DaemonFileName   = "daemon.yaml"
)

// ConfigDir returns the mirage configuration directory
// ($XDG_CONFIG_HOME/mirage, falling back to ~/.config/mirage).
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppDirName), nil
}

// DataDir returns the mirage data directory
// ($XDG_DATA_HOME/mirage, falling back to ~/.local/share/mirage).
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, AppDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", AppDirName), nil
}

// DevicesFile returns the path to the paired-devices registry file.
func DevicesFile() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DevicesFileName), nil
}

// SettingsFile returns the path to the settings.yaml file.
func SettingsFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SettingsFileName), nil
}

// DaemonFile returns the path to the daemon.yaml file.
func DaemonFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DaemonFileName), nil
}

// ScreenshotsDir returns the path to the screenshots directory.
func ScreenshotsDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ScreenshotsDirName), nil
}

// EnsureDataDir creates the mirage data directory if it doesn't exist.
func EnsureDataDir() error {
	dir, err := DataDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// EnsureConfigDir creates the mirage config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// EnsureScreenshotsDir creates the screenshots directory if it doesn't exist.
func EnsureScreenshotsDir() error {
	dir, err := ScreenshotsDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}
