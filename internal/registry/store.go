// Package registry is the persisted device registry: the single source of
// truth for paired devices, with change notification.
package registry

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/IshuSinghSE/mirage/internal/config"
	"github.com/IshuSinghSE/mirage/internal/models"
)

// Transport is the live-connection side the registry consults on removal:
// an unpaired device that is still connected gets a best-effort disconnect.
// Satisfied by adb.Client. May be nil.
type Transport interface {
	Serials(ctx context.Context) ([]string, error)
	Disconnect(ctx context.Context, serial string) error
}

type subscriber struct {
	id string
	fn func()
}

// Store holds the in-memory device list backed by paired_devices.json.
// The file is the durable copy; the list is a cache reloaded on demand.
type Store struct {
	mu        sync.Mutex
	path      string
	devices   []models.Device
	subs      []subscriber // notified in registration order
	transport Transport
	lastSave  time.Time // suppresses watcher reloads of our own writes
}

// Open loads the registry from the given file. A missing file yields an
// empty registry, not an error.
func Open(path string, transport Transport) (*Store, error) {
	s := &Store{path: path, transport: transport}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenDefault loads the registry from the per-user data directory.
func OpenDefault(transport Transport) (*Store, error) {
	path, err := config.DevicesFile()
	if err != nil {
		return nil, err
	}
	return Open(path, transport)
}

func (s *Store) load() error {
	if !config.FileExists(s.path) {
		s.devices = nil
		return nil
	}
	var devices []models.Device
	if err := config.LoadJSON(s.path, &devices); err != nil {
		return fmt.Errorf("failed to load device registry: %w", err)
	}
	s.devices = devices
	return nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Devices returns a snapshot copy of the registry. Callers must not
// assume it tracks later changes.
func (s *Store) Devices() []models.Device {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Device, len(s.devices))
	copy(out, s.devices)
	return out
}

// Get returns the record for an address, if present.
func (s *Store) Get(address string) (models.Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.devices {
		if d.Address == address {
			return d, true
		}
	}
	return models.Device{}, false
}

// Upsert merges the record into the registry by address, creating it if
// absent, persists synchronously, and notifies subscribers. A persistence
// failure is logged; the in-memory state stays authoritative until the
// next successful write.
func (s *Store) Upsert(device models.Device) error {
	if device.Address == "" {
		return fmt.Errorf("device record has no address")
	}

	s.mu.Lock()
	found := false
	for i := range s.devices {
		if s.devices[i].Address == device.Address {
			s.devices[i].Merge(device)
			found = true
			break
		}
	}
	if !found {
		s.devices = append(s.devices, device)
	}
	s.saveLocked()
	s.mu.Unlock()

	s.notify()
	return nil
}

// Remove best-effort disconnects the live connection, then deletes the
// record for an address, persists, and notifies. Removing an unknown
// address is a no-op.
func (s *Store) Remove(address string) error {
	s.mu.Lock()
	var target *models.Device
	for _, d := range s.devices {
		if d.Address == address {
			dd := d
			target = &dd
			break
		}
	}
	transport := s.transport
	s.mu.Unlock()

	if target == nil {
		return nil
	}

	// Disconnect before deleting, and only when a live listing still
	// shows the serial.
	if transport != nil && target.ConnectPort > 0 {
		serial := target.Serial()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if serials, err := transport.Serials(ctx); err == nil {
			for _, live := range serials {
				if live == serial {
					if err := transport.Disconnect(ctx, serial); err != nil {
						log.Printf("[registry] disconnect %s failed: %v", serial, err)
					}
					break
				}
			}
		}
	}

	s.mu.Lock()
	kept := s.devices[:0]
	removed := false
	for _, d := range s.devices {
		if d.Address == address {
			removed = true
			continue
		}
		kept = append(kept, d)
	}
	if !removed {
		s.mu.Unlock()
		return nil
	}
	s.devices = kept
	s.saveLocked()
	s.mu.Unlock()

	s.notify()
	return nil
}

// Reload re-reads the backing file, for when another process has written
// it. Subscribers are notified if the read succeeds.
func (s *Store) Reload() error {
	s.mu.Lock()
	if err := s.load(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// Subscribe registers a change handler and returns its token. Handlers
// run synchronously, in registration order, on the mutating goroutine.
func (s *Store) Subscribe(fn func()) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return id
}

// Unsubscribe removes a change handler by token.
func (s *Store) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// saveLocked writes the whole registry file. Must be called with s.mu held.
func (s *Store) saveLocked() {
	s.lastSave = time.Now()
	if err := config.SaveJSON(s.path, s.devices); err != nil {
		log.Printf("[registry] save failed (keeping in-memory state): %v", err)
	}
}

// savedRecently reports whether the file was written by this store within
// the given window. Used by the watcher to skip self-inflicted events.
func (s *Store) savedRecently(window time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastSave) < window
}

// notify delivers the change to all subscribers in registration order.
// A panicking subscriber is logged and skipped, never propagated.
func (s *Store) notify() {
	s.mu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[registry] subscriber panicked: %v", r)
				}
			}()
			sub.fn()
		}()
	}
}
