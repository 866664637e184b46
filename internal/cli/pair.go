package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/IshuSinghSE/mirage/internal/adb"
	"github.com/IshuSinghSE/mirage/internal/config"
	"github.com/IshuSinghSE/mirage/internal/discovery"
	"github.com/IshuSinghSE/mirage/internal/models"
	"github.com/IshuSinghSE/mirage/internal/registry"
)

var (
	pairAddress     string
	pairPairPort    int
	pairConnectPort int
	pairCode        string
	pairTimeout     time.Duration
)

var pairCmd = &cobra.Command{
	Use:   "pair [ip:port]",
	Short: "Pair a new device over Wi-Fi",
	Long: `Pair a device using wireless debugging.

On the device, open Developer options > Wireless debugging >
"Pair device with pairing code", then run this command and enter
the code shown on screen. The device is found automatically; pass
the pairing endpoint shown on the device (ip:port) to skip
discovering it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPair,
}

func init() {
	pairCmd.Flags().StringVar(&pairAddress, "address", "", "Device IP address (skips discovery)")
	pairCmd.Flags().IntVar(&pairPairPort, "pair-port", 0, "Pairing port (with --address)")
	pairCmd.Flags().IntVar(&pairConnectPort, "connect-port", 0, "Connect port (with --address)")
	pairCmd.Flags().StringVar(&pairCode, "code", "", "Pairing code (prompted when omitted)")
	pairCmd.Flags().DurationVar(&pairTimeout, "timeout", 2*time.Minute, "How long to wait for the device to appear")
}

func runPair(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}
	client := adb.NewClient(settings.ADB)
	store, err := registry.OpenDefault(client)
	if err != nil {
		return err
	}

	code := pairCode
	if code == "" {
		code, err = promptCode()
		if err != nil {
			return err
		}
	}
	if code == "" {
		return fmt.Errorf("a pairing code is required")
	}

	address, pairPort, connectPort := pairAddress, pairPairPort, pairConnectPort
	if len(args) == 1 {
		// Pairing endpoint as shown on the device's pairing dialog.
		a, p := models.SplitSerial(args[0])
		if p == 0 {
			return fmt.Errorf("expected ip:port, got %q", args[0])
		}
		address, pairPort = a, p
	}
	if address == "" || pairPort == 0 || connectPort == 0 {
		fmt.Println(styleHint.Render("Waiting for the device to appear on this network..."))
		dAddr, dPair, dConn, err := discoverOne(address, pairTimeout)
		if err != nil {
			return err
		}
		if address == "" {
			address = dAddr
		}
		if pairPort == 0 {
			pairPort = dPair
		}
		if connectPort == 0 {
			connectPort = dConn
		}
		fmt.Printf("%s %s\n", styleSuccess.Render("Found device at"), address)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pairTimeout)
	defer cancel()

	ok := client.PairDevice(ctx, adb.PairOptions{
		Address:     address,
		PairPort:    pairPort,
		ConnectPort: connectPort,
		Password:    code,
		OnStatus:    func(msg string) { fmt.Println("  " + msg) },
		Retries:     settings.ADB.MaxRetryAttempts,
	}, store)
	if !ok {
		return fmt.Errorf("pairing with %s failed", address)
	}

	fmt.Println(styleSuccess.Render("Device paired."))
	return nil
}

// promptCode reads the pairing code without echoing it.
func promptCode() (string, error) {
	fmt.Print("Enter the pairing code shown on the device: ")
	code, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read pairing code: %w", err)
	}
	return strings.TrimSpace(string(code)), nil
}

// discoverOne blocks until one device has advertised both services, or
// the timeout elapses. A non-empty wantAddress restricts the wait to
// that device.
func discoverOne(wantAddress string, timeout time.Duration) (address string, pairPort, connectPort int, err error) {
	type found struct {
		address     string
		pairPort    int
		connectPort int
	}
	foundCh := make(chan found, 1)

	disc := discovery.New(discovery.Config{
		OnFound: func(address string, pairPort, connectPort int, _ string) {
			if wantAddress != "" && address != wantAddress {
				return
			}
			select {
			case foundCh <- found{address, pairPort, connectPort}:
			default:
			}
		},
	})

	browser, err := disc.Start()
	if err != nil {
		return "", 0, 0, fmt.Errorf("discovery failed: %w", err)
	}
	defer browser.Stop()

	select {
	case f := <-foundCh:
		return f.address, f.pairPort, f.connectPort, nil
	case <-time.After(timeout):
		return "", 0, 0, fmt.Errorf("no device appeared within %s", timeout)
	}
}
