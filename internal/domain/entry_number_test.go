package domain

import (
	"testing"
	"time"
)

func TestFormatEntryNumber(t *testing.T) {
	at := time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		prefix string
		seq    int64
		want   string
	}{
		{"INV", 7, "INV-202401-0007"},
		{"EXP", 1, "EXP-202401-0001"},
		{"PAY", 9999, "PAY-202401-9999"},
		{"JE", 12345, "JE-202401-12345"},
	}

	for _, tt := range tests {
		if got := FormatEntryNumber(tt.prefix, at, tt.seq); got != tt.want {
			t.Errorf("FormatEntryNumber(%q, %d) = %q, want %q", tt.prefix, tt.seq, got, tt.want)
		}
	}
}

func TestEntryNumberSequence(t *testing.T) {
	period := "INV-202401"

	tests := []struct {
		number string
		want   int64
		ok     bool
	}{
		{"INV-202401-0007", 7, true},
		{"INV-202401-12345", 12345, true},
		{"INV-202402-0001", 0, false},
		{"EXP-202401-0001", 0, false},
		{"INV-202401-", 0, false},
		{"INV-202401-abc", 0, false},
		{"INV-2024010001", 0, false},
	}

	for _, tt := range tests {
		got, ok := EntryNumberSequence(period, tt.number)
		if got != tt.want || ok != tt.ok {
			t.Errorf("EntryNumberSequence(%q) = (%d, %v), want (%d, %v)", tt.number, got, ok, tt.want, tt.ok)
		}
	}
}

func TestValidateEntryPrefix(t *testing.T) {
	valid := []string{"INV", "EXP", "PAY", "JE", "ADJ2"}
	for _, p := range valid {
		if err := ValidateEntryPrefix(p); err != nil {
			t.Errorf("expected %q to be valid, got %v", p, err)
		}
	}

	invalid := []string{"", "inv", "IN-V", "INV%", "ABCDEFGHIJK"}
	for _, p := range invalid {
		if err := ValidateEntryPrefix(p); err == nil {
			t.Errorf("expected %q to be rejected", p)
		}
	}
}
