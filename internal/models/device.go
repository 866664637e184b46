package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the timestamp format used in the paired-devices file.
// It matches the historical format (local time, no zone suffix).
const TimeLayout = "2006-01-02T15:04:05"

// Device represents one paired phone in the registry.
// This corresponds to one entry of paired_devices.json.
type Device struct {
	Address        string `json:"address"`
	PairPort       int    `json:"pair_port,omitempty"`
	ConnectPort    int    `json:"connect_port,omitempty"`
	Password       string `json:"password,omitempty"`
	Name           string `json:"name,omitempty"`
	Model          string `json:"model,omitempty"`
	Manufacturer   string `json:"manufacturer,omitempty"`
	AndroidVersion string `json:"android_version,omitempty"`
	LastSeen       string `json:"last_seen,omitempty"`
	Thumbnail      string `json:"thumbnail,omitempty"`
}

// Serial returns the adb serial for the device's connect endpoint.
func (d Device) Serial() string {
	return fmt.Sprintf("%s:%d", d.Address, d.ConnectPort)
}

// Merge applies the non-zero fields of update onto d. The address is the
// identity and never changes; zero-valued update fields keep the stored value.
func (d *Device) Merge(update Device) {
	if update.PairPort > 0 {
		d.PairPort = update.PairPort
	}
	if update.ConnectPort > 0 {
		d.ConnectPort = update.ConnectPort
	}
	if update.Password != "" {
		d.Password = update.Password
	}
	if update.Name != "" {
		d.Name = update.Name
	}
	if update.Model != "" {
		d.Model = update.Model
	}
	if update.Manufacturer != "" {
		d.Manufacturer = update.Manufacturer
	}
	if update.AndroidVersion != "" {
		d.AndroidVersion = update.AndroidVersion
	}
	if update.LastSeen != "" {
		d.LastSeen = update.LastSeen
	}
	if update.Thumbnail != "" {
		d.Thumbnail = update.Thumbnail
	}
}

// Now returns the current time formatted for the LastSeen field.
func Now() string {
	return time.Now().Format(TimeLayout)
}

// Serial builds an adb serial from an address and port.
func Serial(address string, port int) string {
	return fmt.Sprintf("%s:%d", address, port)
}

// SplitSerial splits an adb serial of the form "address:port". A serial
// without a port, such as a USB serial, yields the whole string as the
// address and a zero port.
func SplitSerial(serial string) (address string, port int) {
	i := strings.LastIndex(serial, ":")
	if i < 0 {
		return serial, 0
	}
	p, err := strconv.Atoi(serial[i+1:])
	if err != nil {
		return serial, 0
	}
	return serial[:i], p
}
