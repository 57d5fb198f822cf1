package weather

import (
	"errors"
	"testing"
	"time"
)

func TestWeekdayName(t *testing.T) {
	want := []string{"So", "Mo", "Di", "Mi", "Do", "Fr", "Sa"}
	for dow, name := range want {
		got, err := WeekdayName(dow)
		if err != nil {
			t.Fatalf("WeekdayName(%d): unexpected error: %v", dow, err)
		}
		if got != name {
			t.Errorf("WeekdayName(%d) = %q, want %q", dow, got, name)
		}
	}
}

func TestWeekdayNameOutOfRange(t *testing.T) {
	for _, dow := range []int{-1, 7, 14} {
		if _, err := WeekdayName(dow); !errors.Is(err, ErrContractViolation) {
			t.Errorf("WeekdayName(%d): expected ErrContractViolation, got %v", dow, err)
		}
	}
}

func TestNewDayKey(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)

	tests := []struct {
		name string
		ts   time.Time
		loc  *time.Location
		want string
	}{
		{"utc midday", time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC), time.UTC, "Mo, 04.03.2024"},
		{"sunday", time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC), time.UTC, "So, 10.03.2024"},
		// 23:30 UTC on Saturday is already Sunday at UTC+1.
		{"crosses midnight in zone", time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC), berlin, "So, 10.03.2024"},
		{"same instant in utc", time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC), time.UTC, "Sa, 09.03.2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := NewDayKey(tt.ts.Unix(), tt.loc)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if key.String() != tt.want {
				t.Errorf("got %q, want %q", key.String(), tt.want)
			}
		})
	}
}

func TestNewDayKeyRejectsBadInput(t *testing.T) {
	if _, err := NewDayKey(0, nil); !errors.Is(err, ErrContractViolation) {
		t.Errorf("nil location: expected ErrContractViolation, got %v", err)
	}
	farFuture := int64(1) << 40
	if _, err := NewDayKey(farFuture, time.UTC); !errors.Is(err, ErrContractViolation) {
		t.Errorf("year beyond 9999: expected ErrContractViolation, got %v", err)
	}
}
