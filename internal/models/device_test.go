package models

import "testing"

func TestMergeKeepsStoredFieldsForZeroUpdates(t *testing.T) {
	d := Device{
		Address:     "192.168.1.50",
		PairPort:    37511,
		ConnectPort: 40123,
		Name:        "Pixel 7",
		Password:    "abc123",
	}

	d.Merge(Device{Address: "192.168.1.50", ConnectPort: 41999})

	if d.ConnectPort != 41999 {
		t.Errorf("ConnectPort = %d, want 41999", d.ConnectPort)
	}
	if d.PairPort != 37511 {
		t.Errorf("PairPort = %d, want preserved 37511", d.PairPort)
	}
	if d.Name != "Pixel 7" || d.Password != "abc123" {
		t.Errorf("identity fields not preserved: %+v", d)
	}
}

func TestSplitSerial(t *testing.T) {
	tests := []struct {
		serial      string
		wantAddress string
		wantPort    int
	}{
		{"192.168.1.50:40123", "192.168.1.50", 40123},
		{"10.0.0.7:5555", "10.0.0.7", 5555},
		{"emulator-5554", "emulator-5554", 0},
		{"R58M123ABC", "R58M123ABC", 0},
	}

	for _, tt := range tests {
		address, port := SplitSerial(tt.serial)
		if address != tt.wantAddress || port != tt.wantPort {
			t.Errorf("SplitSerial(%q) = (%q, %d), want (%q, %d)",
				tt.serial, address, port, tt.wantAddress, tt.wantPort)
		}
	}
}

func TestSerialRoundTrip(t *testing.T) {
	d := Device{Address: "192.168.1.50", ConnectPort: 40123}
	if got := d.Serial(); got != "192.168.1.50:40123" {
		t.Errorf("Serial() = %q", got)
	}
	address, port := SplitSerial(d.Serial())
	if address != d.Address || port != d.ConnectPort {
		t.Errorf("SplitSerial(Serial()) = (%q, %d)", address, port)
	}
}
