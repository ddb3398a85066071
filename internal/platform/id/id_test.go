package id

import "testing"

func TestNewIDLengthAndCase(t *testing.T) {
	value, err := NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if len(value) != 26 {
		t.Fatalf("expected 26 characters, got %d (%q)", len(value), value)
	}
	for _, r := range value {
		if r >= 'A' && r <= 'Z' {
			t.Fatalf("expected lowercase id, got %q", value)
		}
	}
}

func TestNewIDUniqueness(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		value, err := NewID()
		if err != nil {
			t.Fatalf("new id: %v", err)
		}
		if seen[value] {
			t.Fatalf("duplicate id generated: %q", value)
		}
		seen[value] = true
	}
}
