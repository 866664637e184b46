package adb

import (
	"context"
	"testing"
	"time"

	"github.com/IshuSinghSE/mirage/internal/models"
)

type fakeSaver struct {
	saved []models.Device
}

func (f *fakeSaver) Upsert(d models.Device) error {
	f.saved = append(f.saved, d)
	return nil
}

func TestPairDeviceSuccess(t *testing.T) {
	fake := newFakeRunner()
	fake.responses["pair 10.0.0.7:40000"] = "Successfully paired to 10.0.0.7:40000"
	fake.responses["connect 10.0.0.7:5555"] = "connected to 10.0.0.7:5555"
	fake.responses["-s 10.0.0.7:5555 shell getprop ro.product.marketname"] = "Pixel 7\n"
	fake.responses["-s 10.0.0.7:5555 shell getprop ro.product.device"] = "panther\n"
	fake.responses["-s 10.0.0.7:5555 shell getprop ro.product.manufacturer"] = "Google\n"
	fake.responses["-s 10.0.0.7:5555 shell getprop ro.build.version.release"] = "14\n"

	client := NewClientWithRunner(fake, time.Second)
	saver := &fakeSaver{}
	var statuses []string

	ok := client.PairDevice(context.Background(), PairOptions{
		Address:     "10.0.0.7",
		PairPort:    40000,
		ConnectPort: 5555,
		Password:    "abcde",
		OnStatus:    func(s string) { statuses = append(statuses, s) },
	}, saver)

	if !ok {
		t.Fatal("PairDevice returned false")
	}
	if len(saver.saved) != 1 {
		t.Fatalf("saved %d devices, want 1", len(saver.saved))
	}

	d := saver.saved[0]
	if d.Address != "10.0.0.7" || d.ConnectPort != 5555 || d.PairPort != 40000 {
		t.Errorf("unexpected record: %+v", d)
	}
	if d.Name != "Pixel 7" {
		t.Errorf("name = %q, want Pixel 7", d.Name)
	}
	if d.Password != "abcde" {
		t.Errorf("password = %q, want abcde", d.Password)
	}
	if d.LastSeen == "" {
		t.Error("last_seen not set")
	}
	if len(statuses) == 0 {
		t.Error("no status callbacks delivered")
	}
}

func TestPairDevicePairFailureStillConnects(t *testing.T) {
	// Pairing may already be established from a previous session; a pair
	// failure must not abort the connect phase.
	fake := newFakeRunner()
	fake.responses["pair 10.0.0.7:40000"] = "failed: protocol fault"
	fake.errs["pair 10.0.0.7:40000"] = context.DeadlineExceeded
	fake.responses["connect 10.0.0.7:5555"] = "already connected to 10.0.0.7:5555"

	client := NewClientWithRunner(fake, time.Second)
	saver := &fakeSaver{}

	ok := client.PairDevice(context.Background(), PairOptions{
		Address:     "10.0.0.7",
		PairPort:    40000,
		ConnectPort: 5555,
		Password:    "abcde",
	}, saver)

	if !ok {
		t.Fatal("PairDevice returned false despite successful connect")
	}
	if len(saver.saved) != 1 {
		t.Fatalf("saved %d devices, want 1", len(saver.saved))
	}
}

func TestPairDeviceConnectExhaustsRetries(t *testing.T) {
	fake := newFakeRunner()
	fake.responses["pair 10.0.0.7:40000"] = "Successfully paired"
	fake.responses["connect 10.0.0.7:5555"] = "unable to connect to 10.0.0.7:5555"

	client := NewClientWithRunner(fake, time.Second)
	saver := &fakeSaver{}

	ok := client.PairDevice(context.Background(), PairOptions{
		Address:     "10.0.0.7",
		PairPort:    40000,
		ConnectPort: 5555,
		Password:    "abcde",
		Retries:     3,
		RetryDelay:  time.Millisecond,
	}, saver)

	if ok {
		t.Fatal("PairDevice returned true without a successful connect")
	}
	if len(saver.saved) != 0 {
		t.Errorf("registry mutated on failed pairing: %+v", saver.saved)
	}
	if got := fake.countCalls("connect 10.0.0.7:5555"); got != 3 {
		t.Errorf("connect attempted %d times, want 3", got)
	}
}

func TestPairDeviceDelaysBetweenAttemptsOnly(t *testing.T) {
	fake := newFakeRunner()
	fake.responses["pair 10.0.0.7:40000"] = "Successfully paired"
	fake.responses["connect 10.0.0.7:5555"] = "unable to connect to 10.0.0.7:5555"

	client := NewClientWithRunner(fake, time.Second)

	delay := 150 * time.Millisecond
	start := time.Now()
	ok := client.PairDevice(context.Background(), PairOptions{
		Address:     "10.0.0.7",
		PairPort:    40000,
		ConnectPort: 5555,
		Password:    "abcde",
		Retries:     3,
		RetryDelay:  delay,
	}, &fakeSaver{})
	elapsed := time.Since(start)

	if ok {
		t.Fatal("PairDevice returned true without a successful connect")
	}
	// Three attempts take two inter-attempt delays; there is no sleep
	// after the last failure.
	if elapsed >= 3*delay {
		t.Errorf("exhausted retries in %v, want under %v (two delays, not three)", elapsed, 3*delay)
	}
}
