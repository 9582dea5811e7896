package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"12.34", "12.34", true},
		{"12,34", "12.34", true},
		{"-45.10", "45.1", true},
		{"+3", "3", true},
		{" 2.50 ", "2.5", true},
		{"0", "0", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
		{"-", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestPercentage(t *testing.T) {
	d := decimal.RequireFromString
	cases := []struct {
		part, total, want string
	}{
		{"50", "100", "50"},
		{"1", "3", "33.33"},
		{"2", "3", "66.67"},
		{"1", "8", "12.5"},  // 0.125 kept at four digits
		{"1", "16", "6.25"}, // 0.0625
		{"1", "32", "3.13"}, // 0.03125 -> 0.0313
		{"5", "0", "0"},
	}
	for _, tc := range cases {
		got := Percentage(d(tc.part), d(tc.total))
		if !got.Equal(d(tc.want)) {
			t.Fatalf("%s/%s expected %s, got %s", tc.part, tc.total, tc.want, got)
		}
	}
}

func TestMonthKey(t *testing.T) {
	rome := time.FixedZone("CET", 3600)
	ts := time.Date(2025, 3, 1, 0, 30, 0, 0, rome)
	if got := MonthKey(ts); got != "2025-02" {
		t.Fatalf("expected UTC month 2025-02, got %s", got)
	}
}
