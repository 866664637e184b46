package adb

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/IshuSinghSE/mirage/internal/config"
	"github.com/IshuSinghSE/mirage/internal/models"
)

// DeviceInfo queries identity properties for a connected device. Every
// property is best-effort and defaults to empty; the record always carries
// the address, connect port and a fresh last-seen stamp.
func (c *Client) DeviceInfo(ctx context.Context, address string, connectPort int) models.Device {
	serial := fmt.Sprintf("%s:%d", address, connectPort)

	marketName := c.Getprop(ctx, serial, "ro.product.marketname")
	model := c.Getprop(ctx, serial, "ro.product.device")
	manufacturer := c.Getprop(ctx, serial, "ro.product.manufacturer")
	androidVersion := c.Getprop(ctx, serial, "ro.build.version.release")

	name := marketName
	if name == "" {
		name = model
	}
	if name == "" {
		name = "Unknown"
	}

	return models.Device{
		Address:        address,
		ConnectPort:    connectPort,
		Name:           name,
		Model:          model,
		Manufacturer:   manufacturer,
		AndroidVersion: androidVersion,
		LastSeen:       models.Now(),
	}
}

// Specs holds coarse hardware stats for display.
type Specs struct {
	RAM     string
	Storage string
	Battery string
}

var (
	memTotalRe = regexp.MustCompile(`MemTotal:\s+(\d+) kB`)
	batteryRe  = regexp.MustCompile(`level: (\d+)`)
)

// FetchSpecs reads RAM, storage and battery level from the device.
// Each field is independently best-effort.
func (c *Client) FetchSpecs(ctx context.Context, address string, connectPort int) Specs {
	serial := fmt.Sprintf("%s:%d", address, connectPort)
	var specs Specs

	if out, err := c.Shell(ctx, serial, "cat", "/proc/meminfo"); err == nil {
		if m := memTotalRe.FindStringSubmatch(out); m != nil {
			kb, _ := strconv.Atoi(m[1])
			specs.RAM = fmt.Sprintf("%.0f GB", float64(kb)/1000/1000)
		}
	}

	if out, err := c.Shell(ctx, serial, "df", "/data"); err == nil {
		lines := strings.Split(out, "\n")
		if len(lines) > 1 {
			fields := strings.Fields(lines[1])
			if len(fields) > 1 {
				kb, _ := strconv.Atoi(fields[1])
				specs.Storage = fmt.Sprintf("%.0f GB", float64(kb)/1000/1000)
			}
		}
	}

	if out, err := c.Shell(ctx, serial, "dumpsys", "battery"); err == nil {
		if m := batteryRe.FindStringSubmatch(out); m != nil {
			specs.Battery = m[1] + "%"
		}
	}

	return specs
}

const remoteScreenshotPath = "/sdcard/mirage_screen.png"

// Screenshot captures the device screen and returns the local image path.
// If the device is locked or the screen is off, the previous capture is
// returned instead; capture failures also fall back to the stale image.
func (c *Client) Screenshot(ctx context.Context, address string, connectPort int) (string, error) {
	serial := fmt.Sprintf("%s:%d", address, connectPort)

	if err := config.EnsureScreenshotsDir(); err != nil {
		return "", err
	}
	dir, err := config.ScreenshotsDir()
	if err != nil {
		return "", err
	}
	localPath := filepath.Join(dir, fmt.Sprintf("mirage_%s_screen.png", strings.ReplaceAll(address, ".", "_")))

	stale := func(reason string) (string, error) {
		if _, err := os.Stat(localPath); err == nil {
			return localPath, nil
		}
		return "", fmt.Errorf("no screenshot available: %s", reason)
	}

	// Skip capture while the device is locked or asleep
	winDump, err := c.Shell(ctx, serial, "dumpsys", "window")
	if err != nil {
		return stale(err.Error())
	}
	if strings.Contains(winDump, "mDreamingLockscreen=true") ||
		strings.Contains(winDump, "mScreenOn=false") ||
		strings.Contains(winDump, "mInteractive=false") ||
		strings.Contains(winDump, "mShowingLockscreen=true") {
		return stale("device locked or screen off")
	}

	if _, err := c.Shell(ctx, serial, "screencap", "-p", remoteScreenshotPath); err != nil {
		log.Printf("[adb] screencap failed for %s: %v", serial, err)
		return stale(err.Error())
	}

	if _, err := c.run(ctx, "-s", serial, "pull", remoteScreenshotPath, localPath); err != nil {
		log.Printf("[adb] screenshot pull failed for %s: %v", serial, err)
		return stale(err.Error())
	}
	return localPath, nil
}
