// Package tray implements the system tray icon and menu for the device
// manager.
package tray

// Commander delivers user actions from the tray menu to the daemon.
type Commander interface {
	ShowWindow()
	PairNew()
	Connect(address string)
	Disconnect(address string)
	Mirror(address string)
	Unpair(address string)
	RequestShutdown()
}
