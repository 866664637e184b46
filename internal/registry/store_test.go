package registry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/IshuSinghSE/mirage/internal/models"
)

type fakeTransport struct {
	serials       []string
	disconnected  []string
	serialsCalled int
	onSerials     func()
}

func (f *fakeTransport) Serials(ctx context.Context) ([]string, error) {
	f.serialsCalled++
	if f.onSerials != nil {
		f.onSerials()
	}
	return f.serials, nil
}

func (f *fakeTransport) Disconnect(ctx context.Context, serial string) error {
	f.disconnected = append(f.disconnected, serial)
	return nil
}

func tempStore(t *testing.T, transport Transport) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paired_devices.json")
	s, err := Open(path, transport)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s
}

func TestUpsertCreatesAndMerges(t *testing.T) {
	s := tempStore(t, nil)

	err := s.Upsert(models.Device{
		Address:     "192.168.1.50",
		ConnectPort: 5555,
		Name:        "Pixel 7",
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if got := len(s.Devices()); got != 1 {
		t.Fatalf("device count = %d, want 1", got)
	}

	// Merge keeps existing fields that the update leaves zero.
	err = s.Upsert(models.Device{
		Address:     "192.168.1.50",
		ConnectPort: 40123,
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	d, ok := s.Get("192.168.1.50")
	if !ok {
		t.Fatal("Get() did not find device after upsert")
	}
	if d.ConnectPort != 40123 {
		t.Errorf("ConnectPort = %d, want 40123", d.ConnectPort)
	}
	if d.Name != "Pixel 7" {
		t.Errorf("Name = %q, want preserved %q", d.Name, "Pixel 7")
	}
	if got := len(s.Devices()); got != 1 {
		t.Errorf("device count after merge = %d, want 1", got)
	}
}

func TestUpsertNotifiesPerCall(t *testing.T) {
	s := tempStore(t, nil)

	calls := 0
	s.Subscribe(func() { calls++ })

	dev := models.Device{Address: "10.0.0.9", ConnectPort: 5555}
	for i := 0; i < 3; i++ {
		if err := s.Upsert(dev); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}
	if calls != 3 {
		t.Errorf("subscriber calls = %d, want 3", calls)
	}
	if got := len(s.Devices()); got != 1 {
		t.Errorf("device count = %d, want 1", got)
	}
}

func TestUpsertRejectsEmptyAddress(t *testing.T) {
	s := tempStore(t, nil)
	if err := s.Upsert(models.Device{Name: "nameless"}); err == nil {
		t.Error("Upsert() with empty address should fail")
	}
}

func TestRemoveDisconnectsWhenConnected(t *testing.T) {
	ft := &fakeTransport{serials: []string{"192.168.1.50:40123"}}
	s := tempStore(t, ft)

	if err := s.Upsert(models.Device{Address: "192.168.1.50", ConnectPort: 40123}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := s.Remove("192.168.1.50"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if len(ft.disconnected) != 1 || ft.disconnected[0] != "192.168.1.50:40123" {
		t.Errorf("disconnected = %v, want [192.168.1.50:40123]", ft.disconnected)
	}
	if _, ok := s.Get("192.168.1.50"); ok {
		t.Error("device still present after Remove()")
	}
}

func TestRemoveDisconnectsBeforeDeleting(t *testing.T) {
	ft := &fakeTransport{serials: []string{"192.168.1.50:40123"}}
	s := tempStore(t, ft)

	if err := s.Upsert(models.Device{Address: "192.168.1.50", ConnectPort: 40123}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	// The record must still be in the registry while the live listing is
	// consulted and the disconnect issued.
	ft.onSerials = func() {
		if _, ok := s.Get("192.168.1.50"); !ok {
			t.Error("record already deleted when live listing was consulted")
		}
	}

	if err := s.Remove("192.168.1.50"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if len(ft.disconnected) != 1 {
		t.Errorf("disconnected = %v, want one entry", ft.disconnected)
	}
	if _, ok := s.Get("192.168.1.50"); ok {
		t.Error("device still present after Remove()")
	}
}

func TestRemoveSkipsDisconnectWhenNotConnected(t *testing.T) {
	ft := &fakeTransport{serials: []string{"10.0.0.1:5555"}}
	s := tempStore(t, ft)

	if err := s.Upsert(models.Device{Address: "192.168.1.50", ConnectPort: 40123}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := s.Remove("192.168.1.50"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if len(ft.disconnected) != 0 {
		t.Errorf("disconnected = %v, want none", ft.disconnected)
	}
}

func TestRemoveUnknownAddressIsNoOp(t *testing.T) {
	ft := &fakeTransport{}
	s := tempStore(t, ft)

	calls := 0
	s.Subscribe(func() { calls++ })

	if err := s.Remove("192.168.99.99"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if calls != 0 {
		t.Errorf("subscriber calls = %d, want 0 for unknown address", calls)
	}
	if ft.serialsCalled != 0 {
		t.Error("Serials() should not be consulted for unknown address")
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paired_devices.json")

	s1, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	dev := models.Device{
		Address:        "192.168.1.50",
		PairPort:       37511,
		ConnectPort:    40123,
		Name:           "Pixel 7",
		Manufacturer:   "Google",
		AndroidVersion: "14",
	}
	if err := s1.Upsert(dev); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	s2, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	got, ok := s2.Get("192.168.1.50")
	if !ok {
		t.Fatal("device missing after reopen")
	}
	if got.Name != dev.Name || got.ConnectPort != dev.ConnectPort || got.PairPort != dev.PairPort {
		t.Errorf("reloaded device = %+v, want %+v", got, dev)
	}
}

func TestSubscriberOrderAndPanicIsolation(t *testing.T) {
	s := tempStore(t, nil)

	var order []string
	s.Subscribe(func() { order = append(order, "first") })
	s.Subscribe(func() { panic("boom") })
	s.Subscribe(func() { order = append(order, "third") })

	if err := s.Upsert(models.Device{Address: "10.0.0.2"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "third" {
		t.Errorf("delivery order = %v, want [first third]", order)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	s := tempStore(t, nil)

	calls := 0
	id := s.Subscribe(func() { calls++ })

	if err := s.Upsert(models.Device{Address: "10.0.0.3"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	s.Unsubscribe(id)
	if err := s.Upsert(models.Device{Address: "10.0.0.3", Name: "x"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("subscriber calls = %d, want 1", calls)
	}
}

func TestReloadPicksUpExternalWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paired_devices.json")

	s1, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	s2, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := s1.Upsert(models.Device{Address: "192.168.1.60", Name: "Tab S9"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	notified := 0
	s2.Subscribe(func() { notified++ })
	if err := s2.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if _, ok := s2.Get("192.168.1.60"); !ok {
		t.Error("reload did not pick up externally written device")
	}
	if notified != 1 {
		t.Errorf("subscriber calls after reload = %d, want 1", notified)
	}
}
