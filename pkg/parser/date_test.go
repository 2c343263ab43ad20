package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDate(t *testing.T) {
	loc := ReferenceLocation()
	now := time.Date(2024, time.June, 15, 10, 30, 0, 0, loc)
	at := func(year int, month time.Month, day int) time.Time {
		return time.Date(year, month, day, 10, 30, 0, 0, loc)
	}

	tests := []struct {
		name string
		text string
		want time.Time
	}{
		{"today", "today 200 lunch", now},
		{"yesterday", "coffee yesterday 90", at(2024, time.June, 14)},
		{"today wins over yesterday", "yesterday or today", now},
		{"day slash month", "25/12", at(2024, time.December, 25)},
		{"day dash month", "1-3 groceries", at(2024, time.March, 1)},
		{"four digit year", "25-12-2023 gift", at(2023, time.December, 25)},
		{"two digit year", "1/1/25 party", at(2025, time.January, 1)},
		{"three digit year is ignored", "25/12/202", at(2024, time.December, 25)},
		{"leap day", "29/2", at(2024, time.February, 29)},
		{"day and month name", "5 aug movie", at(2024, time.August, 5)},
		{"month name without space", "12JAN", at(2024, time.January, 12)},
		{"invalid slash date falls through", "31/2 and 5 aug", at(2024, time.August, 5)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveDate(tc.text, now, loc)
			require.NotNil(t, got)
			assert.True(t, tc.want.Equal(*got), "got %v, want %v", *got, tc.want)
			assert.Equal(t, loc, got.Location())
		})
	}
}

func TestResolveDate_Absent(t *testing.T) {
	loc := ReferenceLocation()
	now := time.Date(2024, time.June, 15, 10, 30, 0, 0, loc)

	tests := []struct {
		name string
		text string
	}{
		{"no date", "999 pizza"},
		{"thirty first of february", "31/2"},
		{"thirty first of april", "31/4"},
		{"month thirteen", "13/13"},
		{"invalid month name date", "31 feb"},
		{"full month name", "5 august"},
		{"today inside a word", "todays special"},
		{"three digit day", "123/4"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Nil(t, ResolveDate(tc.text, now, loc))
		})
	}
}

func TestResolveDate_ConvertsNowToReferenceZone(t *testing.T) {
	loc := ReferenceLocation()
	// 20:00 UTC on 31 Dec is already 1 Jan in India.
	now := time.Date(2023, time.December, 31, 20, 0, 0, 0, time.UTC)

	got := ResolveDate("5/1", now, loc)
	require.NotNil(t, got)
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, time.January, got.Month())
	assert.Equal(t, 5, got.Day())
}

func TestResolveDate_NilLocationUsesReference(t *testing.T) {
	now := time.Date(2024, time.June, 15, 10, 30, 0, 0, time.UTC)

	got := ResolveDate("today", now, nil)
	require.NotNil(t, got)
	assert.Equal(t, ReferenceTimezone, got.Location().String())
	assert.True(t, now.Equal(*got))
}
