package sale

import (
	"testing"
	"time"
)

func TestSaleNumberPrefix(t *testing.T) {
	day := time.Date(2026, 8, 31, 15, 4, 5, 0, time.UTC)
	if got := SaleNumberPrefix(day); got != "V-20260831" {
		t.Errorf("expected V-20260831, got %s", got)
	}
}

func TestNextSaleNumber(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		last   string
		want   string
	}{
		{"first of the day", "V-20260831", "", "V-20260831-0001"},
		{"increments last", "V-20260831", "V-20260831-0041", "V-20260831-0042"},
		{"pads to four digits", "V-20260831", "V-20260831-0009", "V-20260831-0010"},
		{"grows past four digits", "V-20260831", "V-20260831-9999", "V-20260831-10000"},
		{"malformed suffix counts as zero", "V-20260831", "V-20260831-XXXX", "V-20260831-0001"},
		{"legacy placeholder counts as zero", "V-20260831", "TEMP", "V-20260831-0001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextSaleNumber(tt.prefix, tt.last); got != tt.want {
				t.Errorf("NextSaleNumber(%q, %q) = %q, want %q", tt.prefix, tt.last, got, tt.want)
			}
		})
	}
}
