// Package main is the entry point for the miraged daemon.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/IshuSinghSE/mirage/internal/adb"
	"github.com/IshuSinghSE/mirage/internal/config"
	"github.com/IshuSinghSE/mirage/internal/daemon"
	"github.com/IshuSinghSE/mirage/internal/ipc"
	"github.com/IshuSinghSE/mirage/internal/models"
	"github.com/IshuSinghSE/mirage/internal/registry"
)

func main() {
	log.SetPrefix("[miraged] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := config.EnsureConfigDir(); err != nil {
		log.Fatalf("Failed to create config directory: %v", err)
	}
	if err := config.EnsureDataDir(); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// Check if daemon is already running
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}
	if running {
		log.Fatalf("Daemon already running (PID %d)", info.PID)
	}

	settings, err := config.LoadSettings()
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	client := adb.NewClient(settings.ADB)
	store, err := registry.OpenDefault(client)
	if err != nil {
		log.Fatalf("Failed to open device registry: %v", err)
	}

	engine := daemon.New(settings, store, client, nil)

	daemonInfo := models.NewDaemonInfo(os.Getpid(), ipc.AppSocket)
	if err := config.SaveDaemonInfo(daemonInfo); err != nil {
		log.Fatalf("Failed to write daemon info: %v", err)
	}

	log.Printf("Daemon started (PID %d)", os.Getpid())

	errCh := make(chan error, 1)
	go func() {
		errCh <- engine.Run()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down...", sig)
		engine.Quit()
		<-errCh
	case err := <-errCh:
		if err != nil {
			log.Printf("Engine error: %v", err)
		}
	}

	if err := config.RemoveDaemonInfo(); err != nil {
		log.Printf("Failed to remove daemon info: %v", err)
	}

	fmt.Println("Daemon stopped")
}
