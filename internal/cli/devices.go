package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshuSinghSE/mirage/internal/adb"
	"github.com/IshuSinghSE/mirage/internal/config"
	"github.com/IshuSinghSE/mirage/internal/models"
	"github.com/IshuSinghSE/mirage/internal/registry"
)

var devicesShowSpecs bool

var devicesCmd = &cobra.Command{
	Use:     "devices",
	Aliases: []string{"ls"},
	Short:   "List paired devices",
	RunE:    runDevices,
}

func init() {
	devicesCmd.Flags().BoolVar(&devicesShowSpecs, "specs", false, "Fetch hardware specs from connected devices")
}

func runDevices(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}
	store, err := registry.OpenDefault(nil)
	if err != nil {
		return err
	}

	devices := store.Devices()
	if len(devices) == 0 {
		fmt.Println("No paired devices.")
		fmt.Println(styleHint.Render("Pair one with: mirage pair"))
		return nil
	}

	client := adb.NewClient(settings.ADB)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	connected := map[string]bool{}
	if serials, err := client.Serials(ctx); err == nil {
		for _, serial := range serials {
			connected[adb.AddressOf(serial)] = true
		}
	}

	fmt.Println(styleBrand.Render("Paired devices"))
	for _, d := range devices {
		printDevice(ctx, client, d, connected[d.Address])
	}
	return nil
}

func printDevice(ctx context.Context, client *adb.Client, d models.Device, online bool) {
	badge := badgeOffline.Render("offline")
	if online {
		badge = badgeOnline.Render("online")
	}

	name := d.Name
	if name == "" {
		name = d.Address
	}
	fmt.Printf("\n  %s  %s\n", styleValue.Render(name), badge)
	fmt.Printf("    %s %s\n", styleLabel.Render("Address:"), d.Serial())
	if d.Model != "" {
		fmt.Printf("    %s %s %s\n", styleLabel.Render("Model:  "), d.Manufacturer, d.Model)
	}
	if d.AndroidVersion != "" {
		fmt.Printf("    %s Android %s\n", styleLabel.Render("OS:     "), d.AndroidVersion)
	}
	if d.LastSeen != "" {
		fmt.Printf("    %s %s\n", styleLabel.Render("Seen:   "), d.LastSeen)
	}

	if devicesShowSpecs && online {
		specs := client.FetchSpecs(ctx, d.Address, d.ConnectPort)
		if specs.RAM != "" {
			fmt.Printf("    %s %s\n", styleLabel.Render("RAM:    "), specs.RAM)
		}
		if specs.Storage != "" {
			fmt.Printf("    %s %s\n", styleLabel.Render("Storage:"), specs.Storage)
		}
		if specs.Battery != "" {
			fmt.Printf("    %s %s\n", styleLabel.Render("Battery:"), specs.Battery)
		}
	}
}
