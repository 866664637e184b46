package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/IshuSinghSE/mirage/internal/models"
)

const maxDeviceSlots = 10

var (
	commander  Commander
	onStart    func()
	onExit     func()
	statusItem *systray.MenuItem

	// Pre-allocated device menu slots
	deviceSlots      [maxDeviceSlots]*systray.MenuItem
	deviceConnect    [maxDeviceSlots]*systray.MenuItem
	deviceDisconnect [maxDeviceSlots]*systray.MenuItem
	deviceMirror     [maxDeviceSlots]*systray.MenuItem
	deviceUnpair     [maxDeviceSlots]*systray.MenuItem
	noDevicesItem    *systray.MenuItem
	showItem         *systray.MenuItem
	pairItem         *systray.MenuItem
	quitItem         *systray.MenuItem

	// Maps slot index → device address for device actions
	slotMu        sync.RWMutex
	slotAddresses [maxDeviceSlots]string
)

// Run starts the system tray. This blocks the calling goroutine (must be
// main). onStartFn is called when the tray is ready (start the status
// listener there). onExitFn is called when the tray exits.
func Run(c Commander, onStartFn, onExitFn func()) {
	commander = c
	onStart = onStartFn
	onExit = onExitFn
	systray.Run(onReady, onQuit)
}

// Quit signals the tray to exit.
func Quit() {
	systray.Quit()
}

func onReady() {
	systray.SetTemplateIcon(iconData, iconData)
	systray.SetTooltip(formatTooltip(0, 0))

	// Header
	header := systray.AddMenuItem("Mirage", "")
	header.Disable()

	statusItem = systray.AddMenuItem("No devices connected", "")
	statusItem.Disable()

	systray.AddSeparator()

	// Pre-allocate device slots (hidden by default)
	for i := 0; i < maxDeviceSlots; i++ {
		deviceSlots[i] = systray.AddMenuItem("", "")
		deviceConnect[i] = deviceSlots[i].AddSubMenuItem("Connect", "")
		deviceDisconnect[i] = deviceSlots[i].AddSubMenuItem("Disconnect", "")
		deviceMirror[i] = deviceSlots[i].AddSubMenuItem("Mirror", "")
		deviceUnpair[i] = deviceSlots[i].AddSubMenuItem("Unpair", "")
		deviceSlots[i].Hide()
		go handleSlotClicks(i)
	}

	// "No paired devices" placeholder
	noDevicesItem = systray.AddMenuItem("No paired devices", "")
	noDevicesItem.Disable()

	systray.AddSeparator()

	// Actions
	showItem = systray.AddMenuItem("Show Window", "Open the device manager")
	pairItem = systray.AddMenuItem("Pair New Device", "Pair a device on this network")
	quitItem = systray.AddMenuItem("Quit", "Shut down Mirage")

	if onStart != nil {
		onStart()
	}

	go handleClicks()
}

func onQuit() {
	if onExit != nil {
		onExit()
	}
}

func handleClicks() {
	for {
		select {
		case <-showItem.ClickedCh:
			if commander != nil {
				commander.ShowWindow()
			}
		case <-pairItem.ClickedCh:
			if commander != nil {
				commander.PairNew()
			}
		case <-quitItem.ClickedCh:
			if commander != nil {
				commander.RequestShutdown()
			}
			systray.Quit()
		}
	}
}

// handleSlotClicks dispatches the submenu actions of one device slot.
func handleSlotClicks(slot int) {
	for {
		select {
		case <-deviceConnect[slot].ClickedCh:
			withSlotAddress(slot, commander.Connect)
		case <-deviceDisconnect[slot].ClickedCh:
			withSlotAddress(slot, commander.Disconnect)
		case <-deviceMirror[slot].ClickedCh:
			withSlotAddress(slot, commander.Mirror)
		case <-deviceUnpair[slot].ClickedCh:
			withSlotAddress(slot, commander.Unpair)
		}
	}
}

func withSlotAddress(slot int, action func(string)) {
	slotMu.RLock()
	address := slotAddresses[slot]
	slotMu.RUnlock()

	if address == "" || commander == nil {
		return
	}
	go action(address)
}

// UpdateDevices refreshes the device menu items and tooltip from a
// status snapshot.
func UpdateDevices(snapshot models.StatusSnapshot) {
	devices := snapshot.Devices

	// Update slot → address mapping
	slotMu.Lock()
	for i := 0; i < maxDeviceSlots; i++ {
		slotAddresses[i] = ""
	}
	for i, device := range devices {
		if i >= maxDeviceSlots {
			break
		}
		slotAddresses[i] = device.Address
	}
	slotMu.Unlock()

	// Hide all slots first
	for i := 0; i < maxDeviceSlots; i++ {
		deviceSlots[i].Hide()
	}

	connected := 0
	if len(devices) == 0 {
		noDevicesItem.Show()
	} else {
		noDevicesItem.Hide()
		for i, device := range devices {
			if device.Connected {
				connected++
			}
			if i >= maxDeviceSlots {
				continue
			}
			deviceSlots[i].SetTitle(formatDeviceTitle(device))
			deviceSlots[i].Show()
			updateSlotActions(i, device)
		}
	}

	if statusItem != nil {
		if connected == 0 {
			statusItem.SetTitle("No devices connected")
		} else {
			statusItem.SetTitle(fmt.Sprintf("%d device(s) connected", connected))
		}
	}
	systray.SetTooltip(formatTooltip(len(devices), connected))
}

// updateSlotActions enables only the actions that make sense for the
// device's current state.
func updateSlotActions(slot int, device models.DeviceStatus) {
	if device.Connected {
		deviceConnect[slot].Hide()
		deviceDisconnect[slot].Show()
		deviceMirror[slot].Show()
		if device.Mirroring {
			deviceMirror[slot].SetTitle("Stop Mirroring")
		} else {
			deviceMirror[slot].SetTitle("Mirror")
		}
	} else {
		deviceConnect[slot].Show()
		deviceDisconnect[slot].Hide()
		deviceMirror[slot].Hide()
	}
	deviceUnpair[slot].Show()
}

func formatTooltip(total, connected int) string {
	return fmt.Sprintf("Mirage: %d paired, %d connected", total, connected)
}

func formatDeviceTitle(device models.DeviceStatus) string {
	name := device.Name
	if name == "" {
		name = device.Address
	}
	marker := "○"
	if device.Connected {
		marker = "●"
	}
	if device.Mirroring {
		return fmt.Sprintf("%s %s (mirroring)", marker, name)
	}
	return fmt.Sprintf("%s %s", marker, name)
}
