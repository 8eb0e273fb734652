package scheduler

import (
	"testing"
	"time"
)

func buenosAires(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestNextDaily(t *testing.T) {
	loc := buenosAires(t)

	now := time.Date(2026, 8, 31, 6, 0, 0, 0, loc)
	got := NextDaily(now, 9, 30, loc)
	want := time.Date(2026, 8, 31, 9, 30, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("NextDaily before the slot = %v, want %v", got, want)
	}

	now = time.Date(2026, 8, 31, 9, 30, 0, 0, loc)
	got = NextDaily(now, 9, 30, loc)
	want = time.Date(2026, 9, 1, 9, 30, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("NextDaily at the slot = %v, want next day %v", got, want)
	}

	now = time.Date(2026, 8, 31, 14, 0, 0, 0, loc)
	got = NextDaily(now, 9, 30, loc)
	if !got.Equal(want) {
		t.Errorf("NextDaily after the slot = %v, want %v", got, want)
	}
}

func TestNextWeekly(t *testing.T) {
	loc := buenosAires(t)

	// 2026-08-31 is a Monday.
	now := time.Date(2026, 8, 31, 7, 0, 0, 0, loc)
	got := NextWeekly(now, time.Monday, 9, 0, loc)
	want := time.Date(2026, 8, 31, 9, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("NextWeekly same morning = %v, want %v", got, want)
	}

	now = time.Date(2026, 8, 31, 10, 0, 0, 0, loc)
	got = NextWeekly(now, time.Monday, 9, 0, loc)
	want = time.Date(2026, 9, 7, 9, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("NextWeekly after the slot = %v, want next Monday %v", got, want)
	}

	got = NextWeekly(now, time.Wednesday, 9, 0, loc)
	want = time.Date(2026, 9, 2, 9, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("NextWeekly other weekday = %v, want %v", got, want)
	}
}

func TestNextInterval(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	if got := NextInterval(now, 30*time.Minute); !got.Equal(now.Add(30 * time.Minute)) {
		t.Errorf("NextInterval = %v", got)
	}
	if got := NextInterval(now, time.Second); !got.Equal(now.Add(time.Minute)) {
		t.Errorf("NextInterval did not clamp short interval: %v", got)
	}
}
