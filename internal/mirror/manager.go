// Package mirror runs scrcpy screen-mirroring sessions, one per device,
// and tracks their lifecycles.
package mirror

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/IshuSinghSE/mirage/internal/models"
)

// execCommand is swapped out in tests.
var execCommand = exec.Command

const stopTimeout = 5 * time.Second

type session struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func (s *session) alive() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

type stopSub struct {
	id string
	fn func(serial string)
}

// Manager owns all running mirror sessions, keyed by device serial.
type Manager struct {
	mu       sync.Mutex
	cfg      models.ScrcpyConfig
	sessions map[string]*session
	stopSubs []stopSub // notified in registration order
}

// NewManager creates a session manager.
func NewManager(cfg models.ScrcpyConfig) *Manager {
	return &Manager{
		cfg:      cfg,
		sessions: make(map[string]*session),
	}
}

// OnStop registers a callback invoked from a watcher goroutine whenever
// a session ends for any reason, and returns its token.
func (m *Manager) OnStop(fn func(serial string)) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	m.stopSubs = append(m.stopSubs, stopSub{id: id, fn: fn})
	return id
}

// RemoveOnStop removes a stop callback by token.
func (m *Manager) RemoveOnStop(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.stopSubs {
		if sub.id == id {
			m.stopSubs = append(m.stopSubs[:i], m.stopSubs[i+1:]...)
			return
		}
	}
}

// SetConfig replaces the scrcpy options used for sessions started from
// now on. Running sessions are unaffected.
func (m *Manager) SetConfig(cfg models.ScrcpyConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
}

// Start launches a mirror session for the device. If a session for the
// same serial is already running, Start reports that instead of spawning
// a second window. The returned bool is true when a session is running
// after the call, whether new or pre-existing.
func (m *Manager) Start(device models.Device) (bool, error) {
	serial := device.Serial()

	m.mu.Lock()
	if existing, ok := m.sessions[serial]; ok {
		if existing.alive() {
			m.mu.Unlock()
			log.Printf("[mirror] session already running for %s", serial)
			return true, nil
		}
		delete(m.sessions, serial)
	}
	cfg := m.cfg
	m.mu.Unlock()

	args := buildArgs(cfg, device, serial)
	cmd := execCommand(resolvePath(cfg), args...)

	if err := cmd.Start(); err != nil {
		return false, fmt.Errorf("failed to start scrcpy for %s: %w", serial, err)
	}

	sess := &session{cmd: cmd, done: make(chan struct{})}

	m.mu.Lock()
	if other, ok := m.sessions[serial]; ok && other.alive() {
		// Lost the race to a concurrent Start; keep the winner.
		m.mu.Unlock()
		_ = cmd.Process.Kill()
		go cmd.Wait()
		return true, nil
	}
	m.sessions[serial] = sess
	m.mu.Unlock()

	log.Printf("[mirror] started session for %s (pid %d)", serial, cmd.Process.Pid)
	go m.watch(serial, sess)
	return true, nil
}

// watch reaps the process and clears the slot when it exits. The slot is
// only cleared if it still holds this session, so a restart under the
// same serial is never clobbered.
func (m *Manager) watch(serial string, sess *session) {
	err := sess.cmd.Wait()
	close(sess.done)

	m.mu.Lock()
	current := m.sessions[serial] == sess
	if current {
		delete(m.sessions, serial)
	}
	subs := make([]stopSub, len(m.stopSubs))
	copy(subs, m.stopSubs)
	m.mu.Unlock()

	if err != nil {
		log.Printf("[mirror] session for %s ended: %v", serial, err)
	} else {
		log.Printf("[mirror] session for %s ended", serial)
	}
	if current {
		for _, sub := range subs {
			sub.fn(serial)
		}
	}
}

// Stop terminates the session for a serial and reports whether a live
// session was actually stopped. The process gets SIGTERM and five
// seconds to exit before SIGKILL. Stopping an absent serial is a no-op.
func (m *Manager) Stop(serial string) (bool, error) {
	m.mu.Lock()
	sess, ok := m.sessions[serial]
	if ok {
		delete(m.sessions, serial)
	}
	m.mu.Unlock()

	if !ok || !sess.alive() {
		return false, nil
	}

	if err := sess.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return false, fmt.Errorf("failed to signal scrcpy for %s: %w", serial, err)
	}

	select {
	case <-sess.done:
	case <-time.After(stopTimeout):
		log.Printf("[mirror] session for %s ignored SIGTERM, killing", serial)
		_ = sess.cmd.Process.Kill()
		<-sess.done
	}
	return true, nil
}

// StopAll terminates every running session. Used at shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	serials := make([]string, 0, len(m.sessions))
	for serial := range m.sessions {
		serials = append(serials, serial)
	}
	m.mu.Unlock()

	for _, serial := range serials {
		if _, err := m.Stop(serial); err != nil {
			log.Printf("[mirror] stop %s: %v", serial, err)
		}
	}
}

// IsMirroring reports whether a live session exists for the serial.
func (m *Manager) IsMirroring(serial string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[serial]
	return ok && sess.alive()
}

// ActiveSerials returns the serials with live sessions.
func (m *Manager) ActiveSerials() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for serial, sess := range m.sessions {
		if sess.alive() {
			out = append(out, serial)
		}
	}
	return out
}

// recordFile builds a timestamped recording path under the configured
// directory, expanding a leading ~.
func recordFile(cfg models.ScrcpyConfig, device models.Device) string {
	format := cfg.RecordFormat
	if format == "" {
		format = "mp4"
	}
	dir := cfg.RecordPath
	if strings.HasPrefix(dir, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
		}
	}
	name := device.Name
	if name == "" {
		name = device.Address
	}
	name = strings.ReplaceAll(name, " ", "_")
	file := fmt.Sprintf("%s_%s.%s", name, time.Now().Format("20060102_150405"), format)
	if dir == "" {
		return file
	}
	_ = os.MkdirAll(dir, 0o755)
	return filepath.Join(dir, file)
}

func resolvePath(cfg models.ScrcpyConfig) string {
	if cfg.Path != "" {
		return cfg.Path
	}
	if path, err := exec.LookPath("scrcpy"); err == nil {
		return path
	}
	return "scrcpy"
}

// buildArgs translates the scrcpy settings into command-line flags.
func buildArgs(cfg models.ScrcpyConfig, device models.Device, serial string) []string {
	args := []string{"--serial", serial}

	title := cfg.WindowTitle
	if title == "" && device.Name != "" {
		title = device.Name
	}
	if title != "" {
		args = append(args, "--window-title", title)
	}
	if cfg.AlwaysOnTop {
		args = append(args, "--always-on-top")
	}
	if cfg.Fullscreen {
		args = append(args, "--fullscreen")
	}
	if cfg.WindowBorderless {
		args = append(args, "--window-borderless")
	}
	if cfg.MaxSize > 0 {
		args = append(args, "--max-size", fmt.Sprintf("%d", cfg.MaxSize))
	}
	if cfg.Rotation > 0 {
		args = append(args, "--rotation", fmt.Sprintf("%d", cfg.Rotation))
	}
	if cfg.StayAwake {
		args = append(args, "--stay-awake")
	}
	if !cfg.EnableAudio {
		args = append(args, "--no-audio")
	}
	if cfg.VideoCodec != "" {
		args = append(args, "--video-codec", cfg.VideoCodec)
	}
	if cfg.VideoBitrate > 0 {
		args = append(args, "--video-bit-rate", fmt.Sprintf("%dM", cfg.VideoBitrate))
	}
	if cfg.MaxFPS > 0 {
		args = append(args, "--max-fps", fmt.Sprintf("%d", cfg.MaxFPS))
	}
	if cfg.ShowTouches {
		args = append(args, "--show-touches")
	}
	if cfg.TurnScreenOff {
		args = append(args, "--turn-screen-off")
	}
	if cfg.Record {
		args = append(args, "--record", recordFile(cfg, device))
	}
	if cfg.OTG {
		args = append(args, "--otg")
	}
	return args
}
