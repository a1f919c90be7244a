package contract

import "time"

// firstFireBuffer is the clamp applied when the computed fire instant
// already lies in the past: the schedule fires shortly after creation
// instead of immediately.
const firstFireBuffer = 30 * time.Second

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// dateOnDay returns midnight UTC of the given day in year/month,
// clamping the day to the month length (payday 31 in February lands on
// the 28th or 29th).
func dateOnDay(year int, month time.Month, day int) time.Time {
	// normalize month overflow first
	norm := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	if last := daysInMonth(norm.Year(), norm.Month()); day > last {
		day = last
	}
	return time.Date(norm.Year(), norm.Month(), day, 0, 0, 0, 0, time.UTC)
}

// nextPayDate computes the first pay date for a contract created (or
// repriced) at ref: always the payday of the *next* calendar month,
// never the current one, so there is always lead time to act.
func nextPayDate(ref time.Time, payday int) time.Time {
	return dateOnDay(ref.Year(), ref.Month()+1, payday)
}

// advancePayDate moves a pay date forward by cycleMonths, re-anchoring
// on the payday so clamped months (payday 31 in February) do not drift
// later cycles off the contract day.
func advancePayDate(payDate time.Time, cycleMonths int, payday int) time.Time {
	return dateOnDay(payDate.Year(), payDate.Month()+time.Month(cycleMonths), payday)
}

// nextOccurrence returns the first payday occurrence strictly after
// ref. Used when a paused schedule resumes with an elapsed fire
// instant.
func nextOccurrence(ref time.Time, payday int) time.Time {
	candidate := dateOnDay(ref.Year(), ref.Month(), payday)
	if candidate.After(ref) {
		return candidate
	}
	return dateOnDay(ref.Year(), ref.Month()+1, payday)
}

// fireInstant derives the generation instant from a pay date: leadDays
// before the pay date, clamped to shortly after now when that lands in
// the past.
func fireInstant(payDate time.Time, leadDays int, now time.Time) time.Time {
	fire := payDate.AddDate(0, 0, -leadDays)
	if !fire.After(now) {
		return now.Add(firstFireBuffer)
	}
	return fire
}
