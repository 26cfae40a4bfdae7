package domain

import (
	"fmt"
	"time"

	ledgerErrors "github.com/rgodlewski/LedgerLoop/internal/ledger/errors"
)

// NextOccurrence computes the occurrence date following anchor for the given
// interval. It is pure and deterministic: re-running a sweep over the same
// template yields the same dates.
//
// Month and year steps clamp to the last valid day of the target month, so
// Jan 31 + monthly lands on Feb 28 (or 29), and Feb 29 + yearly lands on
// Feb 28 in a non-leap year.
func NextOccurrence(anchor time.Time, interval Interval) (time.Time, error) {
	switch interval {
	case IntervalDaily:
		return anchor.AddDate(0, 0, 1), nil
	case IntervalWeekly:
		return anchor.AddDate(0, 0, 7), nil
	case IntervalMonthly:
		return addMonthClamped(anchor), nil
	case IntervalYearly:
		return addYearClamped(anchor), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ledgerErrors.ErrInvalidInterval, interval)
	}
}

func addMonthClamped(t time.Time) time.Time {
	year, month, day := t.Date()
	targetYear, targetMonth := year, month+1
	if targetMonth > time.December {
		targetYear, targetMonth = year+1, time.January
	}
	if last := daysIn(targetYear, targetMonth); day > last {
		day = last
	}
	return time.Date(targetYear, targetMonth, day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func addYearClamped(t time.Time) time.Time {
	year, month, day := t.Date()
	if last := daysIn(year+1, month); day > last {
		day = last
	}
	return time.Date(year+1, month, day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// daysIn relies on time.Date normalizing day zero of the following month to
// the last day of month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
