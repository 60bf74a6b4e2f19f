package util

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	tests := []struct {
		name  string
		value string
		loc   *time.Location
		want  time.Time
		err   bool
	}{
		{name: "empty", value: "  ", want: time.Time{}},
		{name: "rfc3339", value: "2025-04-02T08:30:00-04:00", want: time.Date(2025, 4, 2, 12, 30, 0, 0, time.UTC)},
		{name: "calendar utc", value: "2025-04-02", want: time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)},
		{name: "calendar local", value: "2025-04-02", loc: ny, want: time.Date(2025, 4, 2, 4, 0, 0, 0, time.UTC)},
		{name: "garbage", value: "next tuesday", err: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseDate(tt.value, tt.loc)
			if tt.err {
				if err == nil {
					t.Fatalf("expected error for %q", tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q): %v", tt.value, err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("ParseDate(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseOptionalDate(t *testing.T) {
	t.Parallel()

	got, err := ParseOptionalDate("", nil)
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil; got %v, %v", got, err)
	}
	got, err = ParseOptionalDate("2025-12-31", nil)
	if err != nil || got == nil || got.Day() != 31 {
		t.Fatalf("unexpected %v, %v", got, err)
	}
}

func TestParseDayEnd(t *testing.T) {
	t.Parallel()

	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	got, err := ParseDayEnd("2025-06-03", nil)
	if err != nil {
		t.Fatalf("ParseDayEnd: %v", err)
	}
	if want := time.Date(2025, 6, 3, 23, 59, 59, 999999000, time.UTC); !got.Equal(want) {
		t.Fatalf("calendar end = %v, want %v", got, want)
	}

	got, err = ParseDayEnd("2025-06-03", ny)
	if err != nil {
		t.Fatalf("ParseDayEnd local: %v", err)
	}
	if want := time.Date(2025, 6, 4, 3, 59, 59, 999999000, time.UTC); !got.Equal(want) {
		t.Fatalf("local calendar end = %v, want %v", got, want)
	}

	got, err = ParseDayEnd("2025-06-03T09:00:00Z", nil)
	if err != nil || !got.Equal(time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("timestamp end = %v, %v", got, err)
	}

	opt, err := ParseOptionalDayEnd("", nil)
	if err != nil || opt != nil {
		t.Fatalf("expected nil, nil; got %v, %v", opt, err)
	}
}
