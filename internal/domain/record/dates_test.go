package record

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"10/01/2024", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		{"10-01-2024", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		{"2024-01-10", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		{"2024/01/10", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		{"3/2/2024", time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)},
		{"10 de enero de 2024", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		{"15 marzo 2023", time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"  2024-01-10  ", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if err != nil {
			t.Errorf("ParseDate(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "mañana", "99/99/9999", "fecha pendiente"} {
		if _, err := ParseDate(in); err == nil {
			t.Errorf("ParseDate(%q): expected error", in)
		}
	}
}

func TestDaysApart(t *testing.T) {
	a := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)
	if got := DaysApart(a, b); got != 2 {
		t.Errorf("DaysApart = %d, want 2", got)
	}
	if got := DaysApart(b, a); got != 2 {
		t.Errorf("DaysApart must be symmetric, got %d", got)
	}
	if got := DaysApart(a, a); got != 0 {
		t.Errorf("DaysApart same day = %d, want 0", got)
	}
}
