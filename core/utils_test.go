package core

import (
	"strings"
	"testing"
)

func TestCleanString(t *testing.T) {
	tests := []struct {
		name  string
		s     string
		lower bool
		want  string
	}{
		{name: "empty", s: "", want: ""},
		{name: "spaces only", s: "   ", want: ""},
		{name: "trims", s: "  Shule  ", want: "Shule"},
		{name: "lowers", s: "  AdMin@Test.CD ", lower: true, want: "admin@test.cd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanString(tt.s, tt.lower); got != tt.want {
				t.Errorf("CleanString() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateOTP(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		otp := GenerateOTP(6)
		if len(otp) != 6 {
			t.Fatalf("GenerateOTP() length = %d; want 6", len(otp))
		}
		for _, c := range otp {
			if c < '0' || c > '9' {
				t.Fatalf("GenerateOTP() = %q; contains non-digit", otp)
			}
		}
		seen[otp] = true
	}
	if len(seen) < 2 {
		t.Error("GenerateOTP() returned the same code 50 times")
	}
}

func TestRandomPassword(t *testing.T) {
	for i := 0; i < 20; i++ {
		pwd := RandomPassword(12)
		if len(pwd) != 12 {
			t.Fatalf("RandomPassword() length = %d; want 12", len(pwd))
		}
		if !strings.ContainsAny(pwd, upperLetters) ||
			!strings.ContainsAny(pwd, lowerLetters) ||
			!strings.ContainsAny(pwd, digits) ||
			!strings.ContainsAny(pwd, specialChars) {
			t.Fatalf("RandomPassword() = %q; missing a required character class", pwd)
		}
	}
	if pwd := RandomPassword(2); len(pwd) != 8 {
		t.Errorf("RandomPassword(2) length = %d; want minimum 8", len(pwd))
	}
}

func TestNewCustomID(t *testing.T) {
	id := NewCustomID("TCH")
	if !strings.HasPrefix(id, "TCH-") {
		t.Errorf("NewCustomID() = %q; want TCH- prefix", id)
	}
	if len(id) != len("TCH-")+8 {
		t.Errorf("NewCustomID() = %q; want 8-char suffix", id)
	}
	if id == NewCustomID("TCH") {
		t.Error("NewCustomID() returned the same ID twice")
	}
}
