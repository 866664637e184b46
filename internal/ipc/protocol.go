// Package ipc carries the two unix-socket channels between the daemon
// and its helpers: a command socket the daemon listens on, and a status
// socket the tray listens on.
package ipc

import "strings"

const (
	// AppSocket is where the daemon accepts commands.
	AppSocket = "/tmp/mirage_app.sock"
	// TraySocket is where the tray accepts status snapshots.
	TraySocket = "/tmp/mirage_tray.sock"
)

// Command names understood by the daemon. Device-scoped commands carry
// the device address as the argument.
const (
	CmdShow       = "show"
	CmdPairNew    = "pair_new"
	CmdQuit       = "quit"
	CmdStatus     = "status"
	CmdConnect    = "connect"
	CmdDisconnect = "disconnect"
	CmdMirror     = "mirror"
	CmdUnpair     = "unpair"
)

// Command is one parsed wire command. The wire form is "name" or
// "name:arg" followed by nothing else on the connection.
type Command struct {
	Name string
	Arg  string
}

// ParseCommand parses the wire form. Unknown names are returned as-is;
// the dispatcher decides what to ignore.
func ParseCommand(raw string) Command {
	raw = strings.TrimSpace(raw)
	if name, arg, found := strings.Cut(raw, ":"); found {
		return Command{Name: name, Arg: arg}
	}
	return Command{Name: raw}
}

// String returns the wire form of the command.
func (c Command) String() string {
	if c.Arg != "" {
		return c.Name + ":" + c.Arg
	}
	return c.Name
}
