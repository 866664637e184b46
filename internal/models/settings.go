package models

// AppConfig holds general application behavior settings.
type AppConfig struct {
	AutoConnect       bool   `yaml:"auto_connect"`
	MonitorInterval   int    `yaml:"monitor_interval"` // seconds between connection polls
	ShowNotifications bool   `yaml:"show_notifications"`
	CloseToTray       bool   `yaml:"close_to_tray"`
	StartMinimized    bool   `yaml:"start_minimized"`
	Theme             string `yaml:"theme"` // "system" | "light" | "dark"
}

// ADBConfig holds adb invocation settings.
type ADBConfig struct {
	Path              string `yaml:"path"`               // empty = lookup in PATH
	ConnectionTimeout int    `yaml:"connection_timeout"` // seconds per adb invocation
	MaxRetryAttempts  int    `yaml:"max_retry_attempts"` // connect retries during pairing
}

// ScrcpyConfig holds the mirroring command configuration. Every field is
// passed through to the scrcpy command line.
type ScrcpyConfig struct {
	Path             string `yaml:"path"`         // empty = lookup in PATH
	WindowTitle      string `yaml:"window_title"` // empty = device name
	AlwaysOnTop      bool   `yaml:"always_on_top"`
	Fullscreen       bool   `yaml:"fullscreen"`
	WindowBorderless bool   `yaml:"window_borderless"`
	MaxSize          int    `yaml:"max_size"` // 0 = native
	Rotation         int    `yaml:"rotation"` // 0-3
	StayAwake        bool   `yaml:"stay_awake"`
	EnableAudio      bool   `yaml:"enable_audio"`
	VideoCodec       string `yaml:"video_codec"`
	VideoBitrate     int    `yaml:"video_bitrate"` // Mbps
	MaxFPS           int    `yaml:"max_fps"`       // 0 = unlimited
	ShowTouches      bool   `yaml:"show_touches"`
	TurnScreenOff    bool   `yaml:"turn_screen_off"`
	Record           bool   `yaml:"record"`
	RecordFormat     string `yaml:"record_format"`
	RecordPath       string `yaml:"record_path"`
	OTG              bool   `yaml:"otg"`
}

// Settings represents global application settings.
// This corresponds to ~/.config/mirage/settings.yaml.
type Settings struct {
	Version int          `yaml:"version"`
	App     AppConfig    `yaml:"app"`
	ADB     ADBConfig    `yaml:"adb"`
	Scrcpy  ScrcpyConfig `yaml:"scrcpy"`
}

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version: 1,
		App: AppConfig{
			AutoConnect:       true,
			MonitorInterval:   5,
			ShowNotifications: true,
			CloseToTray:       true,
			StartMinimized:    false,
			Theme:             "system",
		},
		ADB: ADBConfig{
			Path:              "", // Empty means lookup in PATH
			ConnectionTimeout: 10,
			MaxRetryAttempts:  5,
		},
		Scrcpy: ScrcpyConfig{
			Path:         "",
			AlwaysOnTop:  true,
			StayAwake:    true,
			EnableAudio:  false,
			VideoCodec:   "h264",
			VideoBitrate: 8,
			RecordFormat: "mp4",
			RecordPath:   "~/Videos/Mirage",
		},
	}
}
