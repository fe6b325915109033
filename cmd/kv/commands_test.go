package kv

import (
	"testing"
)

func TestParseUint16(t *testing.T) {
	tests := []struct {
		in   string
		want uint16
		ok   bool
	}{
		{"1", 1, true},
		{"65535", 65535, true},
		{"0", 0, false},
		{"65536", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, err := parseUint16("key", tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("parseUint16(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestGetKey(t *testing.T) {
	perfKeySpread = 10
	for i := 0; i < 100; i++ {
		if k := getKey(i); k < 1 || k > 10 {
			t.Fatalf("getKey(%d) = %d out of range", i, k)
		}
	}
}
