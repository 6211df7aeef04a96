package trigger

import (
	"testing"
	"time"
	_ "time/tzdata"

	"cronpulse/pkg/cronexpr"
)

func utc(y int, mo time.Month, d, h, mi, s int) time.Time {
	return time.Date(y, mo, d, h, mi, s, 0, time.UTC)
}

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("LoadLocation(%q): %v", name, err)
	}
	return loc
}

func TestCronScheduleFollowsZone(t *testing.T) {
	t.Parallel()
	ny := mustLoad(t, "America/New_York")
	cs := newCronSchedule(cronexpr.MustParse("30 2 * * *"), ny, 48*time.Hour)

	tests := []struct {
		in   time.Time
		want time.Time
	}{
		// 02:30 does not exist on 2024-03-10; it fires at the jump to 03:00 EDT.
		{time.Date(2024, 3, 10, 0, 0, 0, 0, ny), utc(2024, 3, 10, 7, 0, 0)},
		{utc(2024, 3, 10, 6, 59, 59).Add(500 * time.Millisecond), utc(2024, 3, 10, 7, 0, 0)},
		// Strictly after the argument.
		{utc(2024, 3, 10, 7, 0, 0), utc(2024, 3, 11, 6, 30, 0)},
	}
	for _, tt := range tests {
		if got := cs.Next(tt.in); !got.Equal(tt.want) {
			t.Fatalf("Next(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
	if got := cs.due(); !got.Equal(utc(2024, 3, 10, 7, 0, 0)) {
		t.Fatalf("due() = %s, want the previous answer", got)
	}
}

func TestCronScheduleHorizon(t *testing.T) {
	t.Parallel()
	cs := newCronSchedule(cronexpr.MustParse("0 0 30 2 *"), time.UTC, 8760*time.Hour)
	if got := cs.Next(utc(2024, 1, 1, 0, 0, 0)); !got.IsZero() {
		t.Fatalf("Next = %s, want zero", got)
	}

	cs = newCronSchedule(cronexpr.MustParse("0 0 1 1 *"), time.UTC, 24*time.Hour)
	if got := cs.Next(utc(2024, 6, 1, 0, 0, 0)); !got.IsZero() {
		t.Fatalf("Next beyond horizon = %s, want zero", got)
	}
}

func TestOccurrences(t *testing.T) {
	t.Parallel()
	s := cronexpr.MustParse("0 0 L * *")
	got := Occurrences(s, time.UTC, utc(2024, 1, 1, 0, 0, 0), utc(2025, 1, 1, 0, 0, 0), 3)
	want := []time.Time{utc(2024, 1, 31, 0, 0, 0), utc(2024, 2, 29, 0, 0, 0), utc(2024, 3, 31, 0, 0, 0)}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("occurrence %d = %s, want %s", i, got[i], want[i])
		}
	}

	all := Occurrences(cronexpr.MustParse("0 */6 * * *"), time.UTC, utc(2024, 1, 1, 0, 0, 0), utc(2024, 1, 1, 23, 59, 59), 0)
	if len(all) != 4 {
		t.Fatalf("unbounded count = %d, want 4", len(all))
	}
}
