package discovery

import (
	"sync"
	"testing"
)

type found struct {
	address     string
	pairPort    int
	connectPort int
	password    string
}

func collector() (*Discoverer, *[]found, *[]string) {
	var mu sync.Mutex
	founds := &[]found{}
	losts := &[]string{}
	d := New(Config{
		OnFound: func(addr string, pairPort, connectPort int, password string) {
			mu.Lock()
			defer mu.Unlock()
			*founds = append(*founds, found{addr, pairPort, connectPort, password})
		},
		OnLost: func(addr string) {
			mu.Lock()
			defer mu.Unlock()
			*losts = append(*losts, addr)
		},
	})
	return d, founds, losts
}

func TestFoundFiresOnceBothPortsKnown(t *testing.T) {
	d, founds, _ := collector()
	d.SetPassword("abcde")

	d.observe(PairingService, "10.0.0.7", 40000)
	if len(*founds) != 0 {
		t.Fatal("OnFound fired with only the pairing port known")
	}

	d.observe(ConnectService, "10.0.0.7", 5555)
	if len(*founds) != 1 {
		t.Fatalf("OnFound fired %d times, want 1", len(*founds))
	}

	got := (*founds)[0]
	if got.address != "10.0.0.7" || got.pairPort != 40000 || got.connectPort != 5555 {
		t.Errorf("unexpected callback: %+v", got)
	}
	if got.password != "abcde" {
		t.Errorf("password = %q, want abcde", got.password)
	}
}

func TestFoundAtMostOncePerResolution(t *testing.T) {
	d, founds, _ := collector()

	// Repeated add events for the same address must not re-fire until
	// a connect-service withdrawal resets the cache.
	for i := 0; i < 3; i++ {
		d.observe(PairingService, "10.0.0.7", 40000)
	}
	for i := 0; i < 3; i++ {
		d.observe(ConnectService, "10.0.0.7", 5555)
	}
	if len(*founds) != 1 {
		t.Fatalf("OnFound fired %d times, want 1", len(*founds))
	}

	d.withdraw(ConnectService, "10.0.0.7")

	d.observe(PairingService, "10.0.0.7", 40001)
	d.observe(ConnectService, "10.0.0.7", 5556)
	if len(*founds) != 2 {
		t.Fatalf("OnFound fired %d times after reset, want 2", len(*founds))
	}
	if (*founds)[1].pairPort != 40001 || (*founds)[1].connectPort != 5556 {
		t.Errorf("second resolution carried stale ports: %+v", (*founds)[1])
	}
}

func TestWithdrawConnectEmitsLostAndPurges(t *testing.T) {
	d, founds, losts := collector()

	d.observe(PairingService, "10.0.0.7", 40000)
	d.withdraw(ConnectService, "10.0.0.7")

	if len(*losts) != 1 || (*losts)[0] != "10.0.0.7" {
		t.Fatalf("losts = %v, want [10.0.0.7]", *losts)
	}

	// The partial cache entry was purged: a lone connect add must not
	// resolve against the stale pairing port.
	d.observe(ConnectService, "10.0.0.7", 5555)
	if len(*founds) != 0 {
		t.Fatalf("OnFound fired from a purged cache entry: %+v", *founds)
	}
}

func TestWithdrawPairingIgnored(t *testing.T) {
	d, _, losts := collector()

	d.observe(PairingService, "10.0.0.7", 40000)
	d.withdraw(PairingService, "10.0.0.7")

	if len(*losts) != 0 {
		t.Fatalf("pairing-service withdrawal emitted lost: %v", *losts)
	}
}

func TestIndependentAddresses(t *testing.T) {
	d, founds, _ := collector()

	d.observe(PairingService, "10.0.0.7", 40000)
	d.observe(PairingService, "10.0.0.8", 41000)
	d.observe(ConnectService, "10.0.0.8", 5556)

	if len(*founds) != 1 {
		t.Fatalf("OnFound fired %d times, want 1", len(*founds))
	}
	if (*founds)[0].address != "10.0.0.8" {
		t.Errorf("resolved %q, want 10.0.0.8", (*founds)[0].address)
	}
}
