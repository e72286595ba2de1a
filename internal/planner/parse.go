package planner

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// PageRangeSeparator splits the start and end page of a range.
const PageRangeSeparator = "~"

// ParseMonthDay parses "M/D" (leading zeros optional) in the given year.
// Dates that do not exist in that year, like 2/30, are rejected.
func ParseMonthDay(text string, year int) (time.Time, error) {
	text = strings.TrimSpace(text)
	parts := strings.Split(text, "/")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrParse, text)
	}

	month, err := parseDatePart(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrParse, text)
	}
	day, err := parseDatePart(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrParse, text)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalises overflow (13/1 becomes next January), so a
	// round trip tells invalid dates apart.
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: date %q does not exist", ErrParse, text)
	}
	return t, nil
}

func parseDatePart(s string) (int, error) {
	if len(s) == 0 || len(s) > 2 {
		return 0, fmt.Errorf("bad length %d", len(s))
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit %q", r)
		}
	}
	return strconv.Atoi(s)
}

// ParsePageRange parses "start~end". Spaces anywhere in the text are
// ignored.
func ParsePageRange(text string) (start, end int, err error) {
	compact := strings.ReplaceAll(text, " ", "")
	parts := strings.Split(compact, PageRangeSeparator)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: got %q", ErrFormat, text)
	}

	start, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: start page %q", ErrParse, parts[0])
	}
	end, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: end page %q", ErrParse, parts[1])
	}
	return start, end, nil
}

// FormatPageRange is the inverse of ParsePageRange.
func FormatPageRange(start, end int) string {
	return strconv.Itoa(start) + PageRangeSeparator + strconv.Itoa(end)
}

// TotalPages counts the pages of start~end, both ends included. A span too
// large for an int is a parse error, since no real book has those pages.
func TotalPages(start, end int) (int, error) {
	if end < start {
		return 0, fmt.Errorf("%w: %d~%d", ErrRange, start, end)
	}
	span := end - start
	if span < 0 || span == math.MaxInt {
		return 0, fmt.Errorf("%w: page range %d~%d is too large", ErrParse, start, end)
	}
	return span + 1, nil
}

// DailyAmount is the ceiling of totalPages / studyDays. Both must be
// positive.
func DailyAmount(totalPages, studyDays int) int {
	amount := totalPages / studyDays
	if totalPages%studyDays != 0 {
		amount++
	}
	return amount
}
