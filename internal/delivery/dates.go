package delivery

import (
	"iter"
	"time"
)

// SameDayCutoff is the local hour from which same-day delivery is no longer offered.
const SameDayCutoff = 15

const (
	LabelSameDay       = "Same-day delivery available (8am-3pm window)"
	LabelSameDayClosed = "Same-day delivery unavailable, call for next-day"
	LabelNextDay       = "Next-day delivery available (morning or afternoon window)"
	LabelStandard      = "Standard delivery available (morning or afternoon window)"
)

type DateOption struct {
	Date              time.Time `json:"date"`
	IsBusinessDay     bool      `json:"is_business_day"`
	AvailabilityLabel string    `json:"availability_label"`
}

func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// Dates yields the next count business days starting at start's calendar day.
// The sequence can be ranged over any number of times.
func Dates(start time.Time, count int) iter.Seq[time.Time] {
	day := midnight(start)
	return func(yield func(time.Time) bool) {
		found := 0
		for d := day; found < count; d = d.AddDate(0, 0, 1) {
			if !IsBusinessDay(d) {
				continue
			}
			found++
			if !yield(d) {
				return
			}
		}
	}
}

func Generate(start time.Time, count int) []time.Time {
	dates := make([]time.Time, 0, max(count, 0))
	for d := range Dates(start, count) {
		dates = append(dates, d)
	}
	return dates
}

// Availability labels date relative to now. Both are compared in now's location.
func Availability(date, now time.Time) string {
	day := midnight(date.In(now.Location()))
	today := midnight(now)

	switch {
	case day.Equal(today):
		if now.Hour() < SameDayCutoff {
			return LabelSameDay
		}
		return LabelSameDayClosed
	case day.Equal(today.AddDate(0, 0, 1)):
		return LabelNextDay
	default:
		return LabelStandard
	}
}

// Options builds the date picker entries for the next count business days.
func Options(now time.Time, count int) []DateOption {
	opts := make([]DateOption, 0, max(count, 0))
	for d := range Dates(now, count) {
		opts = append(opts, DateOption{
			Date:              d,
			IsBusinessDay:     IsBusinessDay(d),
			AvailabilityLabel: Availability(d, now),
		})
	}
	return opts
}

// SameDay reports whether a and b fall on the same calendar day in a's location.
func SameDay(a, b time.Time) bool {
	return midnight(a).Equal(midnight(b.In(a.Location())))
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
