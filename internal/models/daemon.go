package models

import "time"

// DaemonInfo represents the running daemon's identity.
// This corresponds to ~/.config/mirage/daemon.yaml.
type DaemonInfo struct {
	Version   int       `yaml:"version"`
	PID       int       `yaml:"pid"`
	Socket    string    `yaml:"socket"` // command socket path
	StartedAt time.Time `yaml:"started_at"`
}

// NewDaemonInfo creates a new daemon info with current values.
func NewDaemonInfo(pid int, socket string) *DaemonInfo {
	return &DaemonInfo{
		Version:   1,
		PID:       pid,
		Socket:    socket,
		StartedAt: time.Now().UTC(),
	}
}
