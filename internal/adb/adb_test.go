package adb

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

// fakeRunner scripts adb output by matching the leading argument tokens.
type fakeRunner struct {
	calls     [][]string
	responses map[string]string // key: space-joined args prefix
	errs      map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		responses: make(map[string]string),
		errs:      make(map[string]error),
	}
}

func (f *fakeRunner) Run(_ context.Context, args ...string) (string, error) {
	f.calls = append(f.calls, args)
	joined := strings.Join(args, " ")
	for prefix, out := range f.responses {
		if strings.HasPrefix(joined, prefix) {
			return out, f.errs[prefix]
		}
	}
	return "", f.errs[joined]
}

func (f *fakeRunner) countCalls(prefix string) int {
	n := 0
	for _, call := range f.calls {
		if strings.HasPrefix(strings.Join(call, " "), prefix) {
			n++
		}
	}
	return n
}

func TestConnectOK(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected bool
	}{
		{
			name:     "connected",
			output:   "connected to 192.168.1.5:5555",
			expected: true,
		},
		{
			name:     "already connected",
			output:   "already connected to 192.168.1.5:5555",
			expected: true,
		},
		{
			name:     "unable to connect",
			output:   "unable to connect to 192.168.1.5:5555: Connection refused",
			expected: false,
		},
		{
			name:     "failed to connect",
			output:   "failed to authenticate to 192.168.1.5:5555",
			expected: false,
		},
		{
			name:     "mixed case",
			output:   "Connected to 192.168.1.5:5555",
			expected: true,
		},
		{
			name:     "empty output",
			output:   "",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConnectOK(tt.output); got != tt.expected {
				t.Errorf("ConnectOK(%q) = %v, want %v", tt.output, got, tt.expected)
			}
		})
	}
}

func TestSerials(t *testing.T) {
	fake := newFakeRunner()
	fake.responses["devices"] = "List of devices attached\n" +
		"192.168.1.5:5555\tdevice\n" +
		"192.168.1.9:40123\toffline\n" +
		"emulator-5554\tdevice\n\n"

	client := NewClientWithRunner(fake, time.Second)
	serials, err := client.Serials(context.Background())
	if err != nil {
		t.Fatalf("Serials failed: %v", err)
	}

	want := []string{"192.168.1.5:5555", "emulator-5554"}
	if len(serials) != len(want) {
		t.Fatalf("got %d serials, want %d: %v", len(serials), len(want), serials)
	}
	for i := range want {
		if serials[i] != want[i] {
			t.Errorf("serial[%d] = %q, want %q", i, serials[i], want[i])
		}
	}
}

func TestAddressOf(t *testing.T) {
	if got := AddressOf("192.168.1.5:5555"); got != "192.168.1.5" {
		t.Errorf("AddressOf = %q, want 192.168.1.5", got)
	}
	if got := AddressOf("emulator-5554"); got != "emulator-5554" {
		t.Errorf("AddressOf = %q, want emulator-5554", got)
	}
}

func TestGetpropBestEffort(t *testing.T) {
	fake := newFakeRunner()
	fake.responses["-s 10.0.0.7:5555 shell getprop ro.product.device"] = "panther\n"
	fake.errs["-s 10.0.0.7:5555 shell getprop ro.product.marketname"] = fmt.Errorf("device offline")
	fake.responses["-s 10.0.0.7:5555 shell getprop ro.product.marketname"] = ""

	client := NewClientWithRunner(fake, time.Second)
	if got := client.Getprop(context.Background(), "10.0.0.7:5555", "ro.product.device"); got != "panther" {
		t.Errorf("Getprop = %q, want panther", got)
	}
	if got := client.Getprop(context.Background(), "10.0.0.7:5555", "ro.product.marketname"); got != "" {
		t.Errorf("Getprop on error = %q, want empty", got)
	}
}

func TestGenerateCode(t *testing.T) {
	code := GenerateCode(5)
	if len(code) != 5 {
		t.Fatalf("code length = %d, want 5", len(code))
	}
	for _, r := range code {
		if !strings.ContainsRune(codeLetters, r) {
			t.Errorf("unexpected rune %q in code", r)
		}
	}
}
