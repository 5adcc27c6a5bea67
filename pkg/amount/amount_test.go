package amount

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		value string
		want  Milliunits
	}{
		{"1,234.56", 1234560},
		{"1,234", 1234000},
		{"0.99", 990},
		{"100", 100000},
		{"12,345,678.901", 12345678901},
		{"0", 0},
		{"-40.28", -40280},
		{"-0.01", -10},
		{"-1,234.5", -1234500},
		{"1.9999", 1999}, // truncated, not rounded
		{"-1.9999", -1999},
		{"0.1", 100},
		{"7.", 7000},
		{"-0", 0},
		{"-0.999", -999},
		{".5", 500},
		{"-.5", -500},
		{"999999999999999.999", 999999999999999999},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := Parse(tt.value)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.value, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, expected %d", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseSeparatorPlacement(t *testing.T) {
	// Thousands separators carry no value: any comma placement between
	// digits parses the same as the bare number.
	variants := []string{"1234567.89", "1,234,567.89", "1234,567.89", "12,34,567.89"}

	want, err := Parse(variants[0])
	if err != nil {
		t.Fatalf("Parse(%q) returned error: %v", variants[0], err)
	}
	for _, v := range variants[1:] {
		got, err := Parse(v)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", v, err)
		}
		if got != want {
			t.Errorf("Parse(%q) = %d, expected %d", v, got, want)
		}
	}
}

func TestParseFormatErrors(t *testing.T) {
	values := []string{
		"",
		"-",
		".",
		"-.",
		",",
		"-,",
		"abc",
		"12a",
		"12 34",
		"1.2.3",
		"--5",
		"5-",
		"1-2",
		"1.-2",
		"+5",
		"€40",
	}

	for _, v := range values {
		t.Run(v, func(t *testing.T) {
			got, err := Parse(v)
			if !errors.Is(err, ErrFormat) {
				t.Errorf("Parse(%q) = (%d, %v), expected ErrFormat", v, got, err)
			}
		})
	}
}

func TestParseRangeErrors(t *testing.T) {
	values := []string{
		"9223372036854775808",     // beyond int64
		"-9223372036854775808.99", // magnitude beyond int64
		"9223372036854775",        // fits int64 but overflows after scaling
		"99,999,999,999,999,999",
	}

	for _, v := range values {
		t.Run(v, func(t *testing.T) {
			got, err := Parse(v)
			if !errors.Is(err, ErrRange) {
				t.Errorf("Parse(%q) = (%d, %v), expected ErrRange", v, got, err)
			}
		})
	}
}

func TestString(t *testing.T) {
	if got := Milliunits(-40280).String(); got != "-40280" {
		t.Errorf("String() = %q, expected %q", got, "-40280")
	}
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		m        Milliunits
		currency string
		want     string
	}{
		{1234560, "EUR", "€1.234,56"},
		{-40280, "EUR", "-€40,28"},
		{990, "EUR", "€0,99"},
		{1234000, "JPY", "¥1,234"},
		{1000, "ZZZ", "1000 ZZZ"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.m.Display(tt.currency); got != tt.want {
				t.Errorf("Milliunits(%d).Display(%q) = %q, expected %q", tt.m, tt.currency, got, tt.want)
			}
		})
	}
}
