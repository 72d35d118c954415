package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBirthdayWindow(t *testing.T) {
	start := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

	labels := BirthdayWindow(start, 7)
	require.Len(t, labels, 7)
	assert.Equal(t, "03-10", labels[0]) // today inclusive
	assert.Equal(t, "03-16", labels[6])
	assert.NotContains(t, labels, "03-17")
}

func TestBirthdayWindowYearWrap(t *testing.T) {
	// Dec 28 + 7 days spans the year boundary: Dec 28..31 then Jan 1..3.
	start := time.Date(2024, time.December, 28, 0, 0, 0, 0, time.UTC)

	labels := BirthdayWindow(start, 7)
	require.Len(t, labels, 7)
	assert.Contains(t, labels, "12-31")
	assert.Contains(t, labels, "01-01")
	assert.Equal(t, "01-03", labels[6])
	assert.NotContains(t, labels, "01-04")
}

func TestBirthdayWindowEdge(t *testing.T) {
	// A birthday exactly window-1 days ahead sits on the far edge and is
	// included; once the window start has moved past the date it drops out.
	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	birthday := start.AddDate(0, 0, 6).Format("01-02")

	assert.Contains(t, BirthdayWindow(start, 7), birthday)
	assert.NotContains(t, BirthdayWindow(start, 6), birthday)
	assert.NotContains(t, BirthdayWindow(start.AddDate(0, 0, 7), 7), birthday)
}
