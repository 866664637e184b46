// Package main is the entry point for the mirage-tray helper. It shows
// the system tray menu, fed by status snapshots from the daemon, and
// relays menu actions back over the command socket.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/IshuSinghSE/mirage/internal/ipc"
	"github.com/IshuSinghSE/mirage/internal/tray"
)

func main() {
	log.SetPrefix("[mirage-tray] ")
	log.SetFlags(log.Ldate | log.Ltime)

	var statusSrv *ipc.StatusServer

	onStart := func() {
		var err error
		statusSrv, err = ipc.ListenStatus(ipc.TraySocket, tray.UpdateDevices)
		if err != nil {
			log.Fatalf("Failed to listen for status updates: %v", err)
		}
		log.Printf("Listening for status on %s", ipc.TraySocket)

		// Ask the daemon for the initial snapshot.
		if err := ipc.SendCommand(ipc.AppSocket, ipc.Command{Name: ipc.CmdStatus}); err != nil {
			log.Printf("Daemon not reachable yet: %v", err)
		}

		// Handle OS signals — quit tray on SIGINT/SIGTERM
		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			log.Printf("Received signal %v, shutting down...", sig)
			tray.Quit()
		}()
	}

	onExit := func() {
		if statusSrv != nil {
			statusSrv.Close()
		}
		log.Println("Tray stopped")
	}

	// This blocks the main goroutine until tray exits.
	tray.Run(socketCommander{}, onStart, onExit)
}

// socketCommander forwards every tray action as a one-shot command to
// the daemon socket.
type socketCommander struct{}

func send(cmd ipc.Command) {
	if err := ipc.SendCommand(ipc.AppSocket, cmd); err != nil {
		log.Printf("Command %q not delivered: %v", cmd.Name, err)
	}
}

func (socketCommander) ShowWindow() { send(ipc.Command{Name: ipc.CmdShow}) }
func (socketCommander) PairNew()    { send(ipc.Command{Name: ipc.CmdPairNew}) }

func (socketCommander) Connect(address string) {
	send(ipc.Command{Name: ipc.CmdConnect, Arg: address})
}

func (socketCommander) Disconnect(address string) {
	send(ipc.Command{Name: ipc.CmdDisconnect, Arg: address})
}

func (socketCommander) Mirror(address string) {
	send(ipc.Command{Name: ipc.CmdMirror, Arg: address})
}

func (socketCommander) Unpair(address string) {
	send(ipc.Command{Name: ipc.CmdUnpair, Arg: address})
}

func (socketCommander) RequestShutdown() {
	send(ipc.Command{Name: ipc.CmdQuit})
}
