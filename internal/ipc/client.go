package ipc

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/IshuSinghSE/mirage/internal/models"
)

const (
	dialTimeout   = time.Second
	statusRetries = 5
	statusDelay   = 500 * time.Millisecond
)

// SendCommand delivers one command over a transient connection. It fails
// fast when nothing is listening, which callers use to detect an absent
// daemon.
func SendCommand(path string, cmd Command) error {
	conn, err := net.DialTimeout("unix", path, dialTimeout)
	if err != nil {
		return fmt.Errorf("failed to reach %s: %w", path, err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(cmd.String())); err != nil {
		return fmt.Errorf("failed to send %q: %w", cmd.Name, err)
	}
	return nil
}

// SendStatus pushes a status snapshot to the tray socket, one JSON
// document per connection. The tray may be slow to come up or absent
// entirely, so delivery is retried a few times and then abandoned; the
// next state change will carry fresher data anyway.
func SendStatus(path string, snapshot models.StatusSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode status: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < statusRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(statusDelay)
		}
		lastErr = sendOnce(path, payload)
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("status not delivered after %d attempts: %w", statusRetries, lastErr)
}

func sendOnce(path string, payload []byte) error {
	conn, err := net.DialTimeout("unix", path, dialTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Write(payload)
	return err
}
