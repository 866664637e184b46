package mirror

import (
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/IshuSinghSE/mirage/internal/models"
)

// fakeProcess substitutes a shell sleep for scrcpy so session lifecycle
// can be exercised without the real binary.
func fakeProcess(duration string) func(string, ...string) *exec.Cmd {
	return func(name string, args ...string) *exec.Cmd {
		return exec.Command("sleep", duration)
	}
}

func testDevice() models.Device {
	return models.Device{
		Address:     "192.168.1.50",
		ConnectPort: 40123,
		Name:        "Pixel 7",
	}
}

func TestStartIsIdempotentPerSerial(t *testing.T) {
	orig := execCommand
	execCommand = fakeProcess("10")
	defer func() { execCommand = orig }()

	m := NewManager(models.ScrcpyConfig{})
	defer m.StopAll()

	dev := testDevice()
	if _, err := m.Start(dev); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := m.Start(dev); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	if got := len(m.ActiveSerials()); got != 1 {
		t.Errorf("active sessions = %d, want 1", got)
	}
}

func TestConcurrentStartsYieldOneSession(t *testing.T) {
	orig := execCommand
	execCommand = fakeProcess("10")
	defer func() { execCommand = orig }()

	m := NewManager(models.ScrcpyConfig{})
	defer m.StopAll()

	dev := testDevice()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Start(dev); err != nil {
				t.Errorf("Start() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := len(m.ActiveSerials()); got != 1 {
		t.Errorf("active sessions = %d, want 1", got)
	}
}

func TestStopAbsentSerialIsNoOp(t *testing.T) {
	m := NewManager(models.ScrcpyConfig{})
	stopped, err := m.Stop("192.168.1.99:5555")
	if err != nil {
		t.Errorf("Stop() of absent serial = %v, want nil", err)
	}
	if stopped {
		t.Error("Stop() of absent serial reported a stopped session")
	}
}

func TestOnStopFiresWhenProcessExits(t *testing.T) {
	orig := execCommand
	execCommand = fakeProcess("0.05")
	defer func() { execCommand = orig }()

	stopped := make(chan string, 1)
	m := NewManager(models.ScrcpyConfig{})
	m.OnStop(func(serial string) {
		stopped <- serial
	})

	dev := testDevice()
	if _, err := m.Start(dev); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case serial := <-stopped:
		if serial != dev.Serial() {
			t.Errorf("onStop serial = %q, want %q", serial, dev.Serial())
		}
	case <-time.After(3 * time.Second):
		t.Fatal("onStop not called after process exit")
	}
	if m.IsMirroring(dev.Serial()) {
		t.Error("exited session still reported as mirroring")
	}
}

func TestStopTerminatesSession(t *testing.T) {
	orig := execCommand
	execCommand = fakeProcess("30")
	defer func() { execCommand = orig }()

	m := NewManager(models.ScrcpyConfig{})

	dev := testDevice()
	if _, err := m.Start(dev); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	stopped, err := m.Stop(dev.Serial())
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !stopped {
		t.Error("Stop() of a live session reported nothing to stop")
	}
	if m.IsMirroring(dev.Serial()) {
		t.Error("stopped session still reported as mirroring")
	}
}

func TestRestartAfterExitStartsFresh(t *testing.T) {
	orig := execCommand
	execCommand = fakeProcess("0.05")
	defer func() { execCommand = orig }()

	m := NewManager(models.ScrcpyConfig{})
	defer m.StopAll()

	dev := testDevice()
	if _, err := m.Start(dev); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for m.IsMirroring(dev.Serial()) {
		if time.Now().After(deadline) {
			t.Fatal("session never exited")
		}
		time.Sleep(10 * time.Millisecond)
	}

	execCommand = fakeProcess("10")
	if _, err := m.Start(dev); err != nil {
		t.Fatalf("restart error = %v", err)
	}
	if !m.IsMirroring(dev.Serial()) {
		t.Error("restarted session not reported as mirroring")
	}
}

func TestBuildArgs(t *testing.T) {
	dev := testDevice()

	tests := []struct {
		name     string
		cfg      models.ScrcpyConfig
		want     []string
		wantNone []string
	}{
		{
			name: "defaults use device name as title and mute audio",
			cfg:  models.ScrcpyConfig{},
			want: []string{"--serial", dev.Serial(), "--window-title", "Pixel 7", "--no-audio"},
		},
		{
			name: "video options",
			cfg: models.ScrcpyConfig{
				VideoCodec:   "h265",
				VideoBitrate: 4,
				MaxFPS:       60,
				MaxSize:      1280,
				EnableAudio:  true,
			},
			want:     []string{"--video-codec", "h265", "--video-bit-rate", "4M", "--max-fps", "60", "--max-size", "1280"},
			wantNone: []string{"--no-audio"},
		},
		{
			name: "window and input options",
			cfg: models.ScrcpyConfig{
				WindowTitle:      "Mirror",
				AlwaysOnTop:      true,
				Fullscreen:       true,
				WindowBorderless: true,
				StayAwake:        true,
				ShowTouches:      true,
				TurnScreenOff:    true,
			},
			want: []string{
				"--window-title", "Mirror", "--always-on-top", "--fullscreen",
				"--window-borderless", "--stay-awake", "--show-touches", "--turn-screen-off",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Join(buildArgs(tt.cfg, dev, dev.Serial()), " ")
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("args %q missing %q", got, want)
				}
			}
			for _, none := range tt.wantNone {
				if strings.Contains(got, none) {
					t.Errorf("args %q should not contain %q", got, none)
				}
			}
		})
	}
}
