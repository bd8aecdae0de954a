package publicid

import (
	"strings"
	"testing"
)

func TestNew_FormatAndAlphabet(t *testing.T) {
	t.Parallel()

	id, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(id) != len(Prefix)+RandomLength {
		t.Fatalf("expected id length %d, got %d (%q)", len(Prefix)+RandomLength, len(id), id)
	}
	if !strings.HasPrefix(id, Prefix) {
		t.Fatalf("expected prefix %q, got %q", Prefix, id)
	}
	for i := len(Prefix); i < len(id); i++ {
		if strings.IndexByte(alphabet, id[i]) == -1 {
			t.Fatalf("id contains invalid character %q", id[i])
		}
	}
}

func TestNew_UniqueWithinSmallBatch(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})

	for i := 0; i < 200; i++ {
		id, err := New()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, exists := seen[id]; exists {
			t.Fatalf("duplicate id generated in small batch: %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{in: "CDGA1B2C3D", want: true},
		{in: "CDG1234567", want: true},
		{in: "cdgA1B2C3D", want: false},
		{in: "CDGa1b2c3d", want: false},
		{in: "CDGA1B2C3", want: false},
		{in: "XYZA1B2C3D", want: false},
		{in: "", want: false},
	}

	for _, tt := range tests {
		if got := Valid(tt.in); got != tt.want {
			t.Fatalf("Valid(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
