package planner

import (
	"testing"
	"time"
)

var fullDay = Window{StartMinute: 0, EndMinute: 23*60 + 59}

func TestPlanEvenThirdsAcrossFullDay(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC) // Monday
	times := Plan(now, 3, 3, []time.Weekday{time.Tuesday}, fullDay)

	if len(times) != 3 {
		t.Fatalf("expected 3 timestamps, got %d", len(times))
	}

	day := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)
	want := []time.Time{
		day,
		day.Add(719*time.Minute + 30*time.Second),
		day.Add(1439 * time.Minute),
	}
	for i := range want {
		if !times[i].Equal(want[i]) {
			t.Fatalf("slot %d = %v, want %v", i, times[i], want[i])
		}
	}
}

func TestPlanSingleItemLandsOnWindowStart(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	window := Window{StartMinute: 9 * 60, EndMinute: 17 * 60}
	times := Plan(now, 1, 1, []time.Weekday{time.Tuesday}, window)

	want := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)
	if len(times) != 1 || !times[0].Equal(want) {
		t.Fatalf("got %v, want [%v]", times, want)
	}
}

func TestPlanFirstChunkUsesTodayWhenEnabled(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC) // Monday
	window := Window{StartMinute: 10 * 60, EndMinute: 12 * 60}
	times := Plan(now, 1, 1, []time.Weekday{time.Monday}, window)

	want := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	if len(times) != 1 || !times[0].Equal(want) {
		t.Fatalf("first slot = %v, want same-day %v", times, want)
	}
}

func TestPlanLaterChunksStillAdvancePastToday(t *testing.T) {
	t.Parallel()

	// Two chunks, only Monday enabled: first lands today, second a week out.
	now := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC) // Monday
	window := Window{StartMinute: 10 * 60, EndMinute: 12 * 60}
	times := Plan(now, 2, 1, []time.Weekday{time.Monday}, window)

	if len(times) != 2 {
		t.Fatalf("expected 2 timestamps, got %d", len(times))
	}
	if times[0].Day() != 2 || times[1].Day() != 9 {
		t.Fatalf("expected March 2 and March 9, got %v", times)
	}
}

func TestPlanTuesdayRollsToWednesday(t *testing.T) {
	t.Parallel()

	// per_day=2, weekdays={Mon,Wed}, now=Tuesday.
	now := time.Date(2026, time.March, 3, 8, 0, 0, 0, time.UTC) // Tuesday
	window := Window{StartMinute: 10 * 60, EndMinute: 12 * 60}
	times := Plan(now, 2, 2, []time.Weekday{time.Monday, time.Wednesday}, window)

	wednesday := time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)
	if len(times) != 2 {
		t.Fatalf("expected 2 timestamps, got %d", len(times))
	}
	if !times[0].Equal(wednesday.Add(10 * time.Hour)) {
		t.Fatalf("first slot %v, want window start on Wednesday", times[0])
	}
	if !times[1].Equal(wednesday.Add(12 * time.Hour)) {
		t.Fatalf("second slot %v, want window end on Wednesday", times[1])
	}
}

func TestPlanChunksAdvanceAcrossEnabledDays(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC) // Sunday
	window := Window{StartMinute: 8 * 60, EndMinute: 8 * 60}
	times := Plan(now, 4, 2, []time.Weekday{time.Monday, time.Wednesday}, window)

	if len(times) != 4 {
		t.Fatalf("expected 4 timestamps, got %d", len(times))
	}
	if times[0].Weekday() != time.Monday || times[2].Weekday() != time.Wednesday {
		t.Fatalf("chunks landed on %v and %v", times[0].Weekday(), times[2].Weekday())
	}
}

func TestPlanNoEnabledWeekdayDegradesToNextDay(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 3, 8, 0, 0, 0, time.UTC)
	times := Plan(now, 2, 1, nil, Window{StartMinute: 60, EndMinute: 120})

	if len(times) != 2 {
		t.Fatalf("expected 2 timestamps, got %d", len(times))
	}
	if times[0].Day() != 4 || times[1].Day() != 5 {
		t.Fatalf("expected consecutive days, got %v", times)
	}
}

func TestPlanDeterminism(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	weekdays := []time.Weekday{time.Monday, time.Thursday}

	first := Plan(now, 7, 3, weekdays, fullDay)
	second := Plan(now, 7, 3, weekdays, fullDay)

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Fatalf("slot %d differs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestNextSlotQuotaReached(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	if _, ok := NextSlot(now, 3, 3, fullDay); ok {
		t.Fatal("quota reached must report no slot")
	}
}

func TestNextSlotStaggersThroughWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 2, 13, 0, 0, 0, time.UTC)
	window := Window{StartMinute: 0, EndMinute: 23*60 + 59}

	slot, ok := NextSlot(now, 1, 3, window)
	if !ok {
		t.Fatal("expected a slot")
	}
	want := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC).Add(719*time.Minute + 30*time.Second)
	if !slot.Equal(want) {
		t.Fatalf("slot = %v, want %v", slot, want)
	}
	if !now.After(slot) {
		t.Fatalf("13:00 should be past the second slot %v", slot)
	}
}
