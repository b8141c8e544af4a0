package phone

import "testing"

func TestStripCountryCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"15551234567", "5551234567"},
		{"5551234567", "5551234567"},
		{"+1 (555) 123-4567", "5551234567"},
		{"555123", "555123"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StripCountryCode(tt.in); got != tt.want {
			t.Fatalf("StripCountryCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDigits(t *testing.T) {
	if got := Digits("+1 (555) 123-4567"); got != "15551234567" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeE164(t *testing.T) {
	if got := NormalizeE164("(555) 123-4567"); got != "+15551234567" {
		t.Fatalf("got %q", got)
	}
	// Unparseable input passes through trimmed.
	if got := NormalizeE164(" not-a-number "); got != "not-a-number" {
		t.Fatalf("got %q", got)
	}
}
