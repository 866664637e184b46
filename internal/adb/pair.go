package adb

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/IshuSinghSE/mirage/internal/models"
)

// Saver persists a paired device record. Satisfied by registry.Store.
type Saver interface {
	Upsert(models.Device) error
}

// PairOptions describes one pairing attempt against a discovered device.
type PairOptions struct {
	Address     string
	PairPort    int
	ConnectPort int
	Password    string

	// OnStatus receives user-visible progress text. Optional.
	OnStatus func(string)

	// Retries and RetryDelay bound the connect phase. Zero values take
	// the defaults (5 attempts, 1s apart).
	Retries    int
	RetryDelay time.Duration
}

// PairDevice drives the two-phase pair→connect handshake, then enriches
// and saves the device record. Returns false, without touching the
// registry, if the connect phase never succeeds within the retry budget.
//
// A pair-phase failure is reported but does not abort: the device may
// already be paired from an earlier session.
func (c *Client) PairDevice(ctx context.Context, opts PairOptions, store Saver) bool {
	status := func(format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		log.Printf("[adb] %s", msg)
		if opts.OnStatus != nil {
			opts.OnStatus(msg)
		}
	}

	retries := opts.Retries
	if retries <= 0 {
		retries = 5
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}

	// Step 1: pair
	status("Pairing with %s:%d...", opts.Address, opts.PairPort)
	if out, err := c.Pair(ctx, opts.Address, opts.PairPort, opts.Password); err != nil {
		status("⚠ Pairing failed: %s", strings.TrimSpace(out))
	} else {
		status("✓ Paired successfully")
	}

	// Step 2: connect (attempt even if pairing failed)
	serial := fmt.Sprintf("%s:%d", opts.Address, opts.ConnectPort)
	status("Connecting to %s...", serial)

	connected := false
	for attempt := 0; attempt < retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				status("✗ Could not connect to %s", serial)
				return false
			case <-time.After(delay):
			}
		}
		if ok, _ := c.Connect(ctx, serial); ok {
			connected = true
			status("✓ Connected successfully")
			break
		}
	}
	if !connected {
		status("✗ Could not connect to %s", serial)
		return false
	}

	// Step 3: fetch device details (each property best-effort)
	status("Fetching device information...")
	device := c.DeviceInfo(ctx, opts.Address, opts.ConnectPort)
	device.PairPort = opts.PairPort
	device.Password = opts.Password

	// Step 4: save
	if err := store.Upsert(device); err != nil {
		status("⚠ Could not save device: %v", err)
		return true
	}
	status("✓ Device saved: %s", device.Name)
	return true
}
