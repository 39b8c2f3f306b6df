package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseFlexibleDate(t *testing.T) {
	cases := []string{
		"20240401",
		"2024-04-01",
		"01/04/2024",
		"01-04-2024",
		"01 Apr 2024",
	}
	for _, value := range cases {
		parsed, ok := ParseFlexibleDate(value)
		if !ok {
			t.Errorf("ParseFlexibleDate(%q) failed", value)
			continue
		}
		if FormatTallyDate(parsed) != "20240401" {
			t.Errorf("ParseFlexibleDate(%q) = %v", value, parsed)
		}
	}
	if _, ok := ParseFlexibleDate("yesterday"); ok {
		t.Error("nonsense date accepted")
	}
	if _, ok := ParseFlexibleDate(""); ok {
		t.Error("empty date accepted")
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(decimal.RequireFromString("59.9994")); !got.Equal(decimal.RequireFromString("60")) {
		t.Errorf("Round2 = %s", got)
	}
	if got := Round2(decimal.RequireFromString("2.505")); !got.Equal(decimal.RequireFromString("2.51")) {
		t.Errorf("Round2 = %s", got)
	}
}

func TestNormalizeLedgerName(t *testing.T) {
	if NormalizeLedgerName("  Bank Account ") != "bank account" {
		t.Error("normalization should lowercase and trim")
	}
}
