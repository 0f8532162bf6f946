package currency

import "testing"

func TestFormat(t *testing.T) {
	tests := []struct {
		amount float64
		code   string
		want   string
	}{
		{450, "USD", "USD 450.00"},
		{1234.5, "usd", "USD 1,234.50"},
		{1250000, "IDR", "IDR 1.250.000"},
		{98000, "JPY", "JPY 98,000"},
		{-60, "EUR", "-EUR 60.00"},
		{12, "", "USD 12.00"},
	}

	for _, tt := range tests {
		if got := Format(tt.amount, tt.code); got != tt.want {
			t.Errorf("Format(%v, %q) = %q, want %q", tt.amount, tt.code, got, tt.want)
		}
	}
}

func TestFormatIDRRoundsHalfAway(t *testing.T) {
	if got := FormatIDR(999.5); got != "IDR 1.000" {
		t.Errorf("FormatIDR(999.5) = %q, want IDR 1.000", got)
	}
	if got := FormatIDR(-1500); got != "-IDR 1.500" {
		t.Errorf("FormatIDR(-1500) = %q", got)
	}
}
