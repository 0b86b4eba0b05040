package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormatTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      time.Time
		want    string
		wantErr bool
	}{
		{"utc", time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC), "2024-01-02T03:04:05.006Z", false},
		{"offset converted", time.Date(2024, 1, 1, 22, 0, 0, 0, time.FixedZone("GMT-5", -5*3600)), "2024-01-02T03:00:00.000Z", false},
		{"millis truncated", time.Date(2024, 1, 2, 3, 4, 5, 999_999_999, time.UTC), "2024-01-02T03:04:05.999Z", false},
		{"zero", time.Time{}, "", true},
		{"year too large", time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC), "", true},
		{"negative year", time.Date(-1, 1, 1, 0, 0, 0, 0, time.UTC), "", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := FormatTimestamp(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"0":       "0.00",
		"5":       "5.00",
		"120.5":   "120.50",
		"10.005":  "10.00",
		"10.015":  "10.02",
		"-3.1":    "-3.10",
		"1234.56": "1234.56",
	}
	for in, want := range tests {
		if got := FormatAmount(decimal.RequireFromString(in)); got != want {
			t.Errorf("FormatAmount(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestNotesOrDefault(t *testing.T) {
	t.Parallel()

	if got := NotesOrDefault(""); got != MissingNotes {
		t.Errorf("expected %q, got %q", MissingNotes, got)
	}
	if got := NotesOrDefault("ok"); got != "ok" {
		t.Errorf("expected notes unchanged, got %q", got)
	}
}

func TestCheckText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		ok   bool
	}{
		{"plain", "Centro - Norte", true},
		{"markup characters", `<a href="x">&</a>`, true},
		{"accents", "Peñalolén", true},
		{"tab newline carriage return", "a\tb\nc\r", true},
		{"astral plane", "bus \U0001F68C", true},
		{"empty", "", true},
		{"nul", "a\x00b", false},
		{"escape", "\x1b[0m", false},
		{"invalid utf-8", "\xff", false},
		{"surrogate half encoded", "\xed\xa0\x80", false},
		{"noncharacter", "\uFFFF", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := CheckText(tt.in); (err == nil) != tt.ok {
				t.Errorf("CheckText(%q) = %v, want ok=%v", tt.in, err, tt.ok)
			}
		})
	}
}
