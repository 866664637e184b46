// Package adb wraps the adb binary for wireless device management.
package adb

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/IshuSinghSE/mirage/internal/models"
)

// Runner executes one adb invocation and returns its combined output.
// Production uses the adb binary; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

type execRunner struct {
	path string
}

func (r execRunner) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.path, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// Client issues adb commands with a per-invocation timeout.
type Client struct {
	runner  Runner
	timeout time.Duration
}

// NewClient creates a client for the configured adb binary.
func NewClient(cfg models.ADBConfig) *Client {
	timeout := time.Duration(cfg.ConnectionTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		runner:  execRunner{path: resolveADBPath(cfg.Path)},
		timeout: timeout,
	}
}

// NewClientWithRunner creates a client backed by a custom runner.
func NewClientWithRunner(r Runner, timeout time.Duration) *Client {
	return &Client{runner: r, timeout: timeout}
}

// resolveADBPath finds the adb binary.
// Check order: configured path → exec.LookPath → bare "adb".
func resolveADBPath(configured string) string {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
	}
	if path, err := exec.LookPath("adb"); err == nil {
		return path
	}
	return "adb"
}

// run executes adb with the client's timeout applied.
func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.runner.Run(ctx, args...)
}

// Pair runs `adb pair address:port code` against a pairing endpoint.
func (c *Client) Pair(ctx context.Context, address string, port int, code string) (string, error) {
	out, err := c.run(ctx, "pair", fmt.Sprintf("%s:%d", address, port), code)
	if err != nil {
		return out, fmt.Errorf("adb pair %s:%d: %w", address, port, err)
	}
	return out, nil
}

// Connect runs `adb connect serial`. The returned bool reflects adb's
// output, not its exit code: adb exits 0 even on "unable to connect".
func (c *Client) Connect(ctx context.Context, serial string) (bool, string) {
	out, _ := c.run(ctx, "connect", serial)
	return ConnectOK(out), out
}

// ConnectOK reports whether adb connect output indicates an established
// connection.
func ConnectOK(output string) bool {
	out := strings.ToLower(output)
	if strings.Contains(out, "unable") {
		return false
	}
	return strings.Contains(out, "connected")
}

// Disconnect runs `adb disconnect serial`. Best-effort.
func (c *Client) Disconnect(ctx context.Context, serial string) error {
	if _, err := c.run(ctx, "disconnect", serial); err != nil {
		return fmt.Errorf("adb disconnect %s: %w", serial, err)
	}
	return nil
}

// Serials lists the serials of currently connected devices
// (lines of `adb devices` in the "device" state).
func (c *Client) Serials(ctx context.Context) ([]string, error) {
	out, err := c.run(ctx, "devices")
	if err != nil {
		return nil, fmt.Errorf("adb devices: %w", err)
	}

	var serials []string
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "\tdevice") {
			continue
		}
		serial := strings.SplitN(line, "\t", 2)[0]
		if serial != "" {
			serials = append(serials, serial)
		}
	}
	return serials, nil
}

// Getprop reads one system property from the device. Best-effort:
// returns "" on any failure.
func (c *Client) Getprop(ctx context.Context, serial, prop string) string {
	out, err := c.run(ctx, "-s", serial, "shell", "getprop", prop)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

// Shell runs an arbitrary shell command on the device.
func (c *Client) Shell(ctx context.Context, serial string, args ...string) (string, error) {
	full := append([]string{"-s", serial, "shell"}, args...)
	return c.run(ctx, full...)
}

// AddressOf strips the port from an address:port serial.
func AddressOf(serial string) string {
	if i := strings.LastIndex(serial, ":"); i >= 0 {
		return serial[:i]
	}
	return serial
}

const codeLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateCode returns a random pairing code of n letters.
func GenerateCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = codeLetters[rand.Intn(len(codeLetters))]
	}
	return string(b)
}
