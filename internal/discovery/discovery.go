// Package discovery browses the two adb wireless-debugging mDNS services
// and correlates pairing/connect advertisements by network address.
package discovery

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/brutella/dnssd"
)

// Well-known adb wireless-debugging service types.
const (
	PairingService = "_adb-tls-pairing._tcp.local."
	ConnectService = "_adb-tls-connect._tcp.local."
)

// startGrace is how long Start waits for an immediate browse error
// (multicast socket open failures report within this window).
const startGrace = 250 * time.Millisecond

// Config carries the discovery callbacks. OnFound fires exactly once per
// address after both the pairing and connect ports have been resolved,
// carrying the pairing password in scope at that moment. OnLost fires when
// an address's connect advertisement is withdrawn.
type Config struct {
	OnFound func(address string, pairPort, connectPort int, password string)
	OnLost  func(address string)
}

// portPair accumulates whichever of the two ports has been seen so far
// for an address that is not yet fully resolved.
type portPair struct {
	pairPort    int
	connectPort int
}

// Discoverer correlates service advertisements into device callbacks.
type Discoverer struct {
	mu       sync.Mutex
	cfg      Config
	cache    map[string]*portPair
	resolved map[string]bool // addresses already reported, reset on loss
	password string
}

// New creates a discoverer with the given callbacks.
func New(cfg Config) *Discoverer {
	return &Discoverer{
		cfg:      cfg,
		cache:    make(map[string]*portPair),
		resolved: make(map[string]bool),
	}
}

// SetPassword scopes the pairing password delivered with OnFound.
func (d *Discoverer) SetPassword(password string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.password = password
}

// Browser is a handle on a running browse session.
type Browser struct {
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// Stop cancels both service browsers and releases the multicast socket.
// Idempotent.
func (b *Browser) Stop() {
	b.stopOnce.Do(b.cancel)
}

// Start begins browsing both service types. An immediate failure to open
// the multicast socket is returned as a start error; the caller decides
// whether to retry. Later browse errors are logged.
func (d *Discoverer) Start() (*Browser, error) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 2)

	for _, service := range []string{PairingService, ConnectService} {
		service := service
		add := func(e dnssd.BrowseEntry) {
			if addr := ipv4Of(e); addr != "" {
				d.observe(service, addr, e.Port)
			}
		}
		rmv := func(e dnssd.BrowseEntry) {
			if addr := ipv4Of(e); addr != "" {
				d.withdraw(service, addr)
			}
		}
		go func() {
			if err := dnssd.LookupType(ctx, service, add, rmv); err != nil && ctx.Err() == nil {
				log.Printf("[discovery] browse %s failed: %v", service, err)
				errCh <- err
			}
		}()
	}

	select {
	case err := <-errCh:
		cancel()
		return nil, fmt.Errorf("mdns browse: %w", err)
	case <-time.After(startGrace):
	}
	return &Browser{cancel: cancel}, nil
}

// observe records one advertisement and fires OnFound once an address has
// both ports. The cache entry is deleted on fire so duplicate add events
// for the same resolution cannot re-trigger the callback.
func (d *Discoverer) observe(service, address string, port int) {
	d.mu.Lock()

	if d.resolved[address] {
		d.mu.Unlock()
		return
	}

	entry, ok := d.cache[address]
	if !ok {
		entry = &portPair{}
		d.cache[address] = entry
	}
	switch service {
	case PairingService:
		entry.pairPort = port
	case ConnectService:
		entry.connectPort = port
	}

	if entry.pairPort == 0 || entry.connectPort == 0 {
		d.mu.Unlock()
		return
	}

	pairPort, connectPort := entry.pairPort, entry.connectPort
	delete(d.cache, address)
	d.resolved[address] = true
	password := d.password
	onFound := d.cfg.OnFound
	d.mu.Unlock()

	log.Printf("[discovery] resolved %s (pair=%d connect=%d)", address, pairPort, connectPort)
	if onFound != nil {
		onFound(address, pairPort, connectPort, password)
	}
}

// withdraw handles service removal. Only a connect-service withdrawal
// counts as the device leaving; it purges the address's cache entry and
// re-arms OnFound for the next resolution.
func (d *Discoverer) withdraw(service, address string) {
	if service != ConnectService {
		return
	}

	d.mu.Lock()
	delete(d.cache, address)
	delete(d.resolved, address)
	onLost := d.cfg.OnLost
	d.mu.Unlock()

	log.Printf("[discovery] lost %s", address)
	if onLost != nil {
		onLost(address)
	}
}

// ipv4Of extracts the first IPv4 address from a browse entry.
func ipv4Of(e dnssd.BrowseEntry) string {
	for _, ip := range e.IPs {
		if v4 := ip.To4(); v4 != nil {
			return v4.String()
		}
	}
	return ""
}
