package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IshuSinghSE/mirage/internal/ipc"
	"github.com/IshuSinghSE/mirage/internal/registry"
)

var connectCmd = &cobra.Command{
	Use:   "connect <address>",
	Short: "Connect a paired device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendDeviceCommand(ipc.CmdConnect, args[0], "Connect requested.")
	},
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect <address>",
	Short: "Disconnect a device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendDeviceCommand(ipc.CmdDisconnect, args[0], "Disconnect requested.")
	},
}

var mirrorCmd = &cobra.Command{
	Use:   "mirror <address>",
	Short: "Start or stop mirroring a device's screen",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendDeviceCommand(ipc.CmdMirror, args[0], "Mirror toggled.")
	},
}

var unpairCmd = &cobra.Command{
	Use:   "unpair <address>",
	Short: "Forget a paired device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendDeviceCommand(ipc.CmdUnpair, args[0], "Device unpaired.")
	},
}

// sendDeviceCommand routes a device action through the daemon so its
// view of connections and sessions stays authoritative.
func sendDeviceCommand(name, address, confirmation string) error {
	store, err := registry.OpenDefault(nil)
	if err != nil {
		return err
	}
	if _, ok := store.Get(address); !ok {
		fmt.Println(styleError.Render("Unknown device: " + address))
		fmt.Println(styleHint.Render("List paired devices with: mirage devices"))
		return fmt.Errorf("device %s is not paired", address)
	}

	if err := EnsureDaemon(); err != nil {
		return err
	}
	if err := ipc.SendCommand(ipc.AppSocket, ipc.Command{Name: name, Arg: address}); err != nil {
		return err
	}
	fmt.Println(styleSuccess.Render(confirmation))
	return nil
}
