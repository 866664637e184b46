// Package monitor tracks which registered devices are currently connected,
// by polling the adb server, and auto-connects devices that reappear on
// the network.
package monitor

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/IshuSinghSE/mirage/internal/models"
	"github.com/IshuSinghSE/mirage/internal/registry"
)

// EventKind classifies a connectivity change.
type EventKind string

const (
	EventConnected EventKind = "connected"
	EventLost      EventKind = "lost"
)

// Event is a connectivity change for a single device.
type Event struct {
	Kind    EventKind
	Address string
	Port    int
}

// Transport runs the adb operations the monitor needs. Satisfied by
// adb.Client.
type Transport interface {
	Serials(ctx context.Context) ([]string, error)
	Connect(ctx context.Context, serial string) (bool, string)
}

// Monitor polls the adb server and maintains the connected-address set.
// Lost devices are reported as events; present devices just refresh the
// set, so a restart never replays connections that were already up.
type Monitor struct {
	mu          sync.Mutex
	transport   Transport
	store       *registry.Store
	connected   map[string]bool // address -> connected
	ports       map[string]int  // address -> last seen connect port
	autoConnect bool
	interval    time.Duration
	running     bool
	cancel      context.CancelFunc
	events      chan Event
}

// New creates a monitor. interval <= 0 falls back to 5 seconds.
func New(transport Transport, store *registry.Store, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Monitor{
		transport:   transport,
		store:       store,
		connected:   make(map[string]bool),
		ports:       make(map[string]int),
		autoConnect: true,
		interval:    interval,
		events:      make(chan Event, 16),
	}
}

// Events returns the connectivity event stream. The channel is buffered;
// events are dropped rather than blocking the poll loop if nobody reads.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// SetAutoConnect enables or disables automatic reconnection of discovered
// registry devices.
func (m *Monitor) SetAutoConnect(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoConnect = enabled
}

// Start launches the poll loop. Starting an already-running monitor is a
// no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.mu.Unlock()

	go m.loop(ctx)
}

// Stop halts the poll loop. The connected set is preserved so a later
// Start resumes without spurious lost events.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	cancel()
}

func (m *Monitor) loop(ctx context.Context) {
	// Poll immediately so state is fresh right after startup.
	m.Poll(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Poll(ctx)
		}
	}
}

// Poll runs one reconciliation pass: the connected set is replaced with
// what the adb server reports, and devices that vanished since the last
// pass are emitted as lost events.
func (m *Monitor) Poll(ctx context.Context) {
	serials, err := m.transport.Serials(ctx)
	if err != nil {
		log.Printf("[monitor] device poll failed: %v", err)
		return
	}

	current := make(map[string]bool, len(serials))
	currentPorts := make(map[string]int, len(serials))
	for _, serial := range serials {
		address, port := models.SplitSerial(serial)
		if address == "" {
			continue
		}
		current[address] = true
		currentPorts[address] = port
	}

	var lost []Event
	m.mu.Lock()
	for address := range m.connected {
		if !current[address] {
			lost = append(lost, Event{Kind: EventLost, Address: address, Port: m.ports[address]})
		}
	}
	m.connected = current
	m.ports = currentPorts
	m.mu.Unlock()

	for _, ev := range lost {
		log.Printf("[monitor] device lost: %s", ev.Address)
		m.emit(ev)
	}
}

// IsConnected reports whether the address was connected at the last poll.
func (m *Monitor) IsConnected(address string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected[address]
}

// ConnectedAddresses returns a snapshot of the connected set.
func (m *Monitor) ConnectedAddresses() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]bool, len(m.connected))
	for address := range m.connected {
		out[address] = true
	}
	return out
}

// HandleDiscovered reacts to a device announcing its connect service on
// the network. Registered devices that are not currently connected get a
// single connect attempt; unknown addresses are ignored. When the
// announced port differs from the stored one, the registry record is
// updated so later attempts use the fresh port.
func (m *Monitor) HandleDiscovered(ctx context.Context, address string, connectPort int) {
	m.mu.Lock()
	auto := m.autoConnect
	already := m.connected[address]
	m.mu.Unlock()

	if !auto || already {
		return
	}
	device, ok := m.store.Get(address)
	if !ok {
		return
	}

	port := connectPort
	if port <= 0 {
		port = device.ConnectPort
	}
	if port <= 0 {
		return
	}

	serial := models.Serial(address, port)
	log.Printf("[monitor] auto-connecting %s", serial)
	ok, output := m.transport.Connect(ctx, serial)
	if !ok {
		log.Printf("[monitor] auto-connect %s failed: %s", serial, output)
		return
	}

	m.mu.Lock()
	m.connected[address] = true
	m.ports[address] = port
	m.mu.Unlock()

	if device.ConnectPort != port {
		if err := m.store.Upsert(models.Device{Address: address, ConnectPort: port, LastSeen: models.Now()}); err != nil {
			log.Printf("[monitor] failed to record new port for %s: %v", address, err)
		}
	} else {
		if err := m.store.Upsert(models.Device{Address: address, LastSeen: models.Now()}); err != nil {
			log.Printf("[monitor] failed to refresh %s: %v", address, err)
		}
	}

	m.emit(Event{Kind: EventConnected, Address: address, Port: port})
}

func (m *Monitor) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
		// Nobody is draining; dropping beats stalling the poll loop.
	}
}
