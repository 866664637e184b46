// Package daemon runs the connectivity engine: discovery, pairing,
// connection monitoring, mirroring, and the command socket, glued
// together and kept in sync with the tray.
package daemon

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/IshuSinghSE/mirage/internal/adb"
	"github.com/IshuSinghSE/mirage/internal/discovery"
	"github.com/IshuSinghSE/mirage/internal/ipc"
	"github.com/IshuSinghSE/mirage/internal/mirror"
	"github.com/IshuSinghSE/mirage/internal/models"
	"github.com/IshuSinghSE/mirage/internal/monitor"
	"github.com/IshuSinghSE/mirage/internal/registry"
)

const pairingCodeLen = 8

// Presenter is whatever can bring a user-facing surface to the front in
// response to the show command. May be nil when the daemon runs headless.
type Presenter interface {
	ShowWindow()
}

// Engine owns the daemon's moving parts and dispatches tray commands.
type Engine struct {
	settings  *models.Settings
	store     *registry.Store
	adbc      *adb.Client
	mon       *monitor.Monitor
	mirrors   *mirror.Manager
	disc      *discovery.Discoverer
	browser   *discovery.Browser
	cmdSrv    *ipc.Server
	watcher   *registry.Watcher
	presenter Presenter

	mu      sync.Mutex
	pairing bool // a pairing code is armed and waiting for a device

	quit     chan struct{}
	quitOnce sync.Once
}

// New assembles an engine from loaded settings and an open registry.
func New(settings *models.Settings, store *registry.Store, adbc *adb.Client, presenter Presenter) *Engine {
	e := &Engine{
		settings:  settings,
		store:     store,
		adbc:      adbc,
		presenter: presenter,
		quit:      make(chan struct{}),
	}

	e.mon = monitor.New(adbc, store, time.Duration(settings.App.MonitorInterval)*time.Second)
	e.mon.SetAutoConnect(settings.App.AutoConnect)

	e.mirrors = mirror.NewManager(settings.Scrcpy)
	e.mirrors.OnStop(func(serial string) {
		e.pushStatus()
	})

	e.disc = discovery.New(discovery.Config{
		OnFound: e.deviceFound,
		OnLost: func(address string) {
			log.Printf("[engine] %s left the network", address)
		},
	})

	return e
}

// Run starts every subsystem and blocks until Quit. Cleanup is complete
// on return: sockets unlinked, sessions stopped, loops halted.
func (e *Engine) Run() error {
	srv, err := ipc.ListenCommands(ipc.AppSocket, e.dispatch)
	if err != nil {
		return err
	}
	e.cmdSrv = srv

	watcher, err := registry.Watch(e.store)
	if err != nil {
		log.Printf("[engine] registry watcher unavailable: %v", err)
	} else {
		e.watcher = watcher
	}

	browser, err := e.disc.Start()
	if err != nil {
		log.Printf("[engine] discovery unavailable: %v", err)
	} else {
		e.browser = browser
	}

	subID := e.store.Subscribe(e.pushStatus)
	defer e.store.Unsubscribe(subID)

	e.mon.Start()
	go e.consumeEvents()

	log.Printf("[engine] running, command socket %s", ipc.AppSocket)
	e.pushStatus()

	<-e.quit

	log.Println("[engine] shutting down")
	e.mirrors.StopAll()
	e.mon.Stop()
	if e.browser != nil {
		e.browser.Stop()
	}
	if e.watcher != nil {
		e.watcher.Stop()
	}
	e.cmdSrv.Close()
	return nil
}

// Quit unblocks Run. Safe to call more than once.
func (e *Engine) Quit() {
	e.quitOnce.Do(func() { close(e.quit) })
}

// consumeEvents turns monitor events into status pushes, and captures a
// fresh thumbnail when a device comes up.
func (e *Engine) consumeEvents() {
	for {
		select {
		case <-e.quit:
			return
		case ev := <-e.mon.Events():
			if ev.Kind == monitor.EventConnected {
				go e.captureThumbnail(ev.Address, ev.Port)
			}
			e.pushStatus()
		}
	}
}

func (e *Engine) captureThumbnail(address string, port int) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	path, err := e.adbc.Screenshot(ctx, address, port)
	if err != nil {
		log.Printf("[engine] thumbnail for %s skipped: %v", address, err)
		return
	}
	if err := e.store.Upsert(models.Device{Address: address, Thumbnail: path}); err != nil {
		log.Printf("[engine] failed to record thumbnail for %s: %v", address, err)
	}
}

// deviceFound routes a fully resolved advertisement: to the pairing flow
// while a code is armed, to auto-connect otherwise.
func (e *Engine) deviceFound(address string, pairPort, connectPort int, password string) {
	e.mu.Lock()
	pairing := e.pairing && password != ""
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if pairing {
		e.runPairing(ctx, address, pairPort, connectPort, password)
		return
	}
	e.mon.HandleDiscovered(ctx, address, connectPort)
}

func (e *Engine) runPairing(ctx context.Context, address string, pairPort, connectPort int, password string) {
	log.Printf("[engine] pairing with %s", address)
	ok := e.adbc.PairDevice(ctx, adb.PairOptions{
		Address:     address,
		PairPort:    pairPort,
		ConnectPort: connectPort,
		Password:    password,
		Retries:     e.settings.ADB.MaxRetryAttempts,
	}, e.store)

	if !ok {
		log.Printf("[engine] pairing with %s failed", address)
		return
	}

	e.mu.Lock()
	e.pairing = false
	e.mu.Unlock()
	e.disc.SetPassword("")

	e.mon.Poll(ctx)
	e.pushStatus()
}

// StartPairing arms a fresh pairing code and returns it for display.
// The next device advertising both services will be paired with it.
func (e *Engine) StartPairing() string {
	code := adb.GenerateCode(pairingCodeLen)

	e.mu.Lock()
	e.pairing = true
	e.mu.Unlock()
	e.disc.SetPassword(code)

	log.Println("[engine] pairing mode armed")
	return code
}

// dispatch handles one command from the socket. Unknown commands are
// logged and dropped.
func (e *Engine) dispatch(cmd ipc.Command) {
	switch cmd.Name {
	case ipc.CmdShow:
		if e.presenter != nil {
			e.presenter.ShowWindow()
		} else {
			log.Println("[engine] no window to show")
		}
	case ipc.CmdPairNew:
		code := e.StartPairing()
		log.Printf("[engine] pairing code: %s", code)
	case ipc.CmdQuit:
		e.Quit()
	case ipc.CmdStatus:
		e.pushStatus()
	case ipc.CmdConnect:
		e.connectDevice(cmd.Arg)
	case ipc.CmdDisconnect:
		e.disconnectDevice(cmd.Arg)
	case ipc.CmdMirror:
		e.toggleMirror(cmd.Arg)
	case ipc.CmdUnpair:
		e.unpairDevice(cmd.Arg)
	default:
		log.Printf("[engine] ignoring unknown command %q", cmd.Name)
	}
}

func (e *Engine) connectDevice(address string) {
	device, ok := e.store.Get(address)
	if !ok || device.ConnectPort == 0 {
		log.Printf("[engine] connect: no usable record for %q", address)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	connected, output := e.adbc.Connect(ctx, device.Serial())
	if !connected {
		log.Printf("[engine] connect %s failed: %s", device.Serial(), output)
		return
	}
	if err := e.store.Upsert(models.Device{Address: address, LastSeen: models.Now()}); err != nil {
		log.Printf("[engine] failed to refresh %s: %v", address, err)
	}
	e.mon.Poll(ctx)
	e.pushStatus()
}

func (e *Engine) disconnectDevice(address string) {
	device, ok := e.store.Get(address)
	if !ok {
		log.Printf("[engine] disconnect: unknown device %q", address)
		return
	}

	serial := device.Serial()
	if _, err := e.mirrors.Stop(serial); err != nil {
		log.Printf("[engine] stop mirror before disconnect: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.adbc.Disconnect(ctx, serial); err != nil {
		log.Printf("[engine] disconnect %s: %v", serial, err)
	}
	e.mon.Poll(ctx)
	e.pushStatus()
}

// toggleMirror starts a mirror session for the address, or stops the
// running one.
func (e *Engine) toggleMirror(address string) {
	device, ok := e.store.Get(address)
	if !ok {
		log.Printf("[engine] mirror: unknown device %q", address)
		return
	}

	serial := device.Serial()
	stopped, err := e.mirrors.Stop(serial)
	if err != nil {
		log.Printf("[engine] stop mirror %s: %v", serial, err)
	}
	if !stopped && err == nil {
		if _, err := e.mirrors.Start(device); err != nil {
			log.Printf("[engine] start mirror %s: %v", serial, err)
		}
	}
	e.pushStatus()
}

func (e *Engine) unpairDevice(address string) {
	if device, ok := e.store.Get(address); ok {
		if _, err := e.mirrors.Stop(device.Serial()); err != nil {
			log.Printf("[engine] stop mirror before unpair: %v", err)
		}
	}
	if err := e.store.Remove(address); err != nil {
		log.Printf("[engine] unpair %s: %v", address, err)
	}
}

// Snapshot builds the current status view: every registered device with
// its live connectivity and mirroring flags.
func (e *Engine) Snapshot() models.StatusSnapshot {
	connected := e.mon.ConnectedAddresses()

	var snapshot models.StatusSnapshot
	for _, d := range e.store.Devices() {
		snapshot.Devices = append(snapshot.Devices, models.DeviceStatus{
			Name:           d.Name,
			Address:        d.Address,
			Connected:      connected[d.Address],
			Mirroring:      e.mirrors.IsMirroring(d.Serial()),
			Model:          d.Model,
			Manufacturer:   d.Manufacturer,
			AndroidVersion: d.AndroidVersion,
		})
	}
	return snapshot
}

// pushStatus sends the current snapshot to the tray. Delivery is
// asynchronous and best-effort; the tray may not be running.
func (e *Engine) pushStatus() {
	snapshot := e.Snapshot()
	go func() {
		// The tray is optional; an undeliverable snapshot is simply
		// superseded by the next one.
		_ = ipc.SendStatus(ipc.TraySocket, snapshot)
	}()
}
