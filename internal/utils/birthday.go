package utils

import "time"

// BirthdayWindow enumerates the month-day labels (MM-DD) of `days`
// consecutive calendar dates starting at `start` inclusive.  Building the
// window from concrete dates means a span like Dec 28 → Jan 3 wraps the year
// boundary naturally; the year itself never enters the comparison.
func BirthdayWindow(start time.Time, days int) []string {
	labels := make([]string, 0, days)
	for i := 0; i < days; i++ {
		labels = append(labels, start.AddDate(0, 0, i).Format("01-02"))
	}
	return labels
}
