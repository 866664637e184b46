package models

// DeviceStatus is one device's entry in a tray status snapshot.
type DeviceStatus struct {
	Name           string `json:"name"`
	Address        string `json:"address"`
	Connected      bool   `json:"connected"`
	Mirroring      bool   `json:"mirroring"`
	Model          string `json:"model,omitempty"`
	Manufacturer   string `json:"manufacturer,omitempty"`
	AndroidVersion string `json:"android_version,omitempty"`
}

// StatusSnapshot is the JSON document pushed to the tray over the status
// socket, one document per connection.
type StatusSnapshot struct {
	Devices []DeviceStatus `json:"devices"`
}
