package planner

import "time"

// Window is a daily publish window expressed in minutes from midnight.
type Window struct {
	StartMinute int
	EndMinute   int
}

// Minutes returns the window span, never negative.
func (w Window) Minutes() int {
	if w.EndMinute <= w.StartMinute {
		return 0
	}
	return w.EndMinute - w.StartMinute
}

// Plan assigns a target timestamp to each of n items. Items are chunked into
// groups of perDay in input order; the first chunk lands on now's own date
// when its weekday is enabled, otherwise on the next enabled weekday scanning
// forward day-by-day, and every later chunk advances at least one day before
// scanning. Timestamps inside a chunk are spaced evenly across the window.
//
// With no enabled weekday at all the scan degrades to a plain next-day
// increment per chunk. The function is pure: identical inputs at the same now
// yield identical output.
func Plan(now time.Time, n, perDay int, weekdays []time.Weekday, window Window) []time.Time {
	if n <= 0 {
		return nil
	}
	if perDay <= 0 {
		perDay = 1
	}

	enabled := map[time.Weekday]bool{}
	for _, day := range weekdays {
		enabled[day] = true
	}

	date := midnight(now)
	times := make([]time.Time, 0, n)
	for offset := 0; offset < n; offset += perDay {
		if offset == 0 {
			date = firstDate(date, enabled)
		} else {
			date = nextDate(date, enabled)
		}

		count := perDay
		if offset+count > n {
			count = n - offset
		}
		for i := 0; i < count; i++ {
			times = append(times, slotTime(date, window, i, count))
		}
	}

	return times
}

// NextSlot computes the next publish slot for today given how many items are
// already queued. The second return is false once the daily quota is reached.
func NextSlot(now time.Time, queuedToday, perDay int, window Window) (time.Time, bool) {
	if perDay <= 0 {
		perDay = 1
	}
	if queuedToday >= perDay {
		return time.Time{}, false
	}
	return slotTime(midnight(now), window, queuedToday, perDay), true
}

// slotTime spreads count slots evenly across the window on the given date;
// a single slot lands on the window start.
func slotTime(date time.Time, window Window, index, count int) time.Time {
	start := time.Duration(window.StartMinute) * time.Minute
	if count <= 1 {
		return date.Add(start)
	}
	interval := time.Duration(window.Minutes()) * time.Minute / time.Duration(count-1)
	return date.Add(start + time.Duration(index)*interval)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// firstDate keeps the starting date itself when its weekday is enabled,
// scanning forward only as far as needed. The empty-set degradation still
// moves to the next day, matching nextDate.
func firstDate(date time.Time, enabled map[time.Weekday]bool) time.Time {
	if len(enabled) == 0 {
		return date.AddDate(0, 0, 1)
	}
	for i := 0; i < 7 && !enabled[date.Weekday()]; i++ {
		date = date.AddDate(0, 0, 1)
	}
	return date
}

// nextDate advances at least one calendar day, then keeps scanning until an
// enabled weekday is hit. An empty weekday set stops the scan immediately, so
// the date degrades to the plain next day.
func nextDate(date time.Time, enabled map[time.Weekday]bool) time.Time {
	date = date.AddDate(0, 0, 1)
	if len(enabled) == 0 {
		return date
	}
	for i := 0; i < 7 && !enabled[date.Weekday()]; i++ {
		date = date.AddDate(0, 0, 1)
	}
	return date
}
