package parser

import (
	"time"
	_ "time/tzdata" // the reference zone must resolve on hosts without a zoneinfo database
)

// ReferenceTimezone is the zone every date is resolved in.
const ReferenceTimezone = "Asia/Kolkata"

var monthAbbreviations = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

// ReferenceLocation returns the reference timezone, falling back to a fixed
// +05:30 offset if the zone database cannot be read.
func ReferenceLocation() *time.Location {
	loc, err := time.LoadLocation(ReferenceTimezone)
	if err != nil {
		return time.FixedZone(ReferenceTimezone, 5*60*60+30*60)
	}
	return loc
}

// ResolveDate finds a date expression in text and resolves it against now in loc.
// Rules are tried in order: "today", "yesterday", D/M[/Y] or D-M[-Y], then "D mon".
// A resolved date keeps the clock time of now. Returns nil when nothing resolves.
func ResolveDate(text string, now time.Time, loc *time.Location) *time.Time {
	if loc == nil {
		loc = ReferenceLocation()
	}
	now = now.In(loc)
	lower := lowerASCII(text)

	if indexWord(lower, "today", 0) >= 0 {
		return &now
	}
	if indexWord(lower, "yesterday", 0) >= 0 {
		t := now.AddDate(0, 0, -1)
		return &t
	}

	if day, month, year, ok := findDayMonthYear(text); ok {
		if year < 0 {
			year = now.Year()
		}
		if t, ok := calendarDate(year, month, day, now); ok {
			return &t
		}
	}

	if day, month, ok := findDayMonthName(lower); ok {
		if t, ok := calendarDate(now.Year(), month, day, now); ok {
			return &t
		}
	}

	return nil
}

// calendarDate builds the date at now's clock time, rejecting impossible dates.
func calendarDate(year, month, day int, now time.Time) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), now.Location())
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// findDayMonthYear locates the first D/M, D-M, D/M/Y or D-M-Y expression.
// year is -1 when the expression has none; two-digit years are in the 2000s.
func findDayMonthYear(text string) (day, month, year int, ok bool) {
	for i := 0; i < len(text); i++ {
		if !isDigit(text[i]) || !boundaryBefore(text, i) {
			continue
		}

		dayEnd := digitRun(text, i)
		if dayEnd-i > 2 || dayEnd >= len(text) || (text[dayEnd] != '/' && text[dayEnd] != '-') {
			i = dayEnd
			continue
		}

		monthStart := dayEnd + 1
		monthEnd := digitRun(text, monthStart)
		if n := monthEnd - monthStart; n < 1 || n > 2 {
			i = dayEnd
			continue
		}

		year = -1
		end := monthEnd
		if monthEnd < len(text) && (text[monthEnd] == '/' || text[monthEnd] == '-') {
			yearEnd := digitRun(text, monthEnd+1)
			if n := yearEnd - (monthEnd + 1); (n == 2 || n == 4) && boundaryAfter(text, yearEnd) {
				year = atoiSmall(text[monthEnd+1 : yearEnd])
				if n == 2 {
					year += 2000
				}
				end = yearEnd
			}
		}

		if !boundaryAfter(text, end) {
			i = dayEnd
			continue
		}

		return atoiSmall(text[i:dayEnd]), atoiSmall(text[monthStart:monthEnd]), year, true
	}
	return 0, 0, 0, false
}

// findDayMonthName locates the first "D mon" expression, e.g. "5 aug" or "12jan".
func findDayMonthName(lower string) (day, month int, ok bool) {
	for i := 0; i < len(lower); i++ {
		if !isDigit(lower[i]) || !boundaryBefore(lower, i) {
			continue
		}

		dayEnd := digitRun(lower, i)
		if dayEnd-i > 2 {
			i = dayEnd
			continue
		}

		k := skipSpaces(lower, dayEnd)
		if k+3 > len(lower) || !boundaryAfter(lower, k+3) {
			continue
		}
		for idx, abbr := range monthAbbreviations {
			if lower[k:k+3] == abbr {
				return atoiSmall(lower[i:dayEnd]), idx + 1, true
			}
		}
	}
	return 0, 0, false
}
