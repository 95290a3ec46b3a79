package evm

import (
	"strings"
	"testing"
)

func TestCreateNonce(t *testing.T) {
	a, err := CreateNonce()
	if err != nil {
		t.Fatalf("CreateNonce() error = %v", err)
	}
	b, err := CreateNonce()
	if err != nil {
		t.Fatalf("CreateNonce() error = %v", err)
	}
	if a.Cmp(b) == 0 {
		t.Error("CreateNonce() returned the same nonce twice")
	}
	if a.BitLen() > 256 {
		t.Errorf("CreateNonce() = %d bits, want at most 256", a.BitLen())
	}
}

func TestIsValidAddress(t *testing.T) {
	tests := []struct {
		address string
		want    bool
	}{
		{address: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", want: true},
		{address: "5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", want: true},
		{address: "0X5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED", want: true},
		{address: "0x1234", want: false},
		{address: "0xZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZ", want: false},
		{address: "", want: false},
	}
	for _, tt := range tests {
		if got := IsValidAddress(tt.address); got != tt.want {
			t.Errorf("IsValidAddress(%q) = %v, want %v", tt.address, got, tt.want)
		}
	}
}

func TestHexToBytes32(t *testing.T) {
	got, err := HexToBytes32("0x" + strings.Repeat("00", 31) + "01")
	if err != nil {
		t.Fatalf("HexToBytes32() error = %v", err)
	}
	if got[31] != 1 || got[0] != 0 {
		t.Errorf("HexToBytes32() = %x", got)
	}
	if _, err := HexToBytes32("0x" + strings.Repeat("00", 33)); err == nil {
		t.Error("HexToBytes32() error = nil for 33 bytes")
	}
	if _, err := HexToBytes32("0x01"); err == nil {
		t.Error("HexToBytes32() error = nil for a short value")
	}
	if _, err := HexToBytes("0xGG"); err == nil {
		t.Error("HexToBytes() error = nil for invalid hex")
	}
}
