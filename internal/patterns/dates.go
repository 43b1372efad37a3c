package patterns

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// All date helpers normalize to DD/MM/YYYY, the format the rest of the
// pipeline parses and exports.

var monthNumbers = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4, "april": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "sept": 9, "september": 9,
	"oct": 10, "october": 10,
	"nov": 11, "november": 11,
	"dec": 12, "december": 12,
}

func daysIn(month, year int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
			return 29
		}
		return 28
	}
	return 0
}

func validDMY(day, month, year int) bool {
	return month >= 1 && month <= 12 && day >= 1 && day <= daysIn(month, year) &&
		year >= 1900 && year <= 2100
}

func formatDMY(day, month, year int) string {
	return fmt.Sprintf("%02d/%02d/%04d", day, month, year)
}

// expandYear widens a 2-digit year with the 1950 pivot: "85" is 1985,
// "12" is 2012.
func expandYear(y int) int {
	if y >= 100 {
		return y
	}
	if y > 50 {
		return 1900 + y
	}
	return 2000 + y
}

var dateSep = regexp.MustCompile(`[/\.\-]`)

func splitNumericDate(s string) (a, b, c int, ok bool) {
	parts := dateSep.Split(strings.TrimSuffix(strings.TrimSpace(s), "."), -1)
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0, 0, 0, false
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], true
}

// DMYFromNumeric normalizes a day-first numeric date with any of the
// /, . or - separators and an optional trailing period. Two-digit
// years are expanded.
func DMYFromNumeric(s string) (string, bool) {
	d, m, y, ok := splitNumericDate(s)
	if !ok {
		return "", false
	}
	y = expandYear(y)
	if !validDMY(d, m, y) {
		return "", false
	}
	return formatDMY(d, m, y), true
}

// DMYFromNumericLoose is DMYFromNumeric with a month-first fallback:
// when the value is impossible read day-first ("03/25/1990") but valid
// the other way around, the two are swapped.
func DMYFromNumericLoose(s string) (string, bool) {
	if out, ok := DMYFromNumeric(s); ok {
		return out, true
	}
	d, m, y, ok := splitNumericDate(s)
	if !ok {
		return "", false
	}
	y = expandYear(y)
	if validDMY(m, d, y) {
		return formatDMY(m, d, y), true
	}
	return "", false
}

// DMYFromYearFirst normalizes "YYYY.MM.DD" and "YYYY-MM-DD" dates.
func DMYFromYearFirst(s string) (string, bool) {
	y, m, d, ok := splitNumericDate(s)
	if !ok || !validDMY(d, m, y) {
		return "", false
	}
	return formatDMY(d, m, y), true
}

var ordinalSuffix = regexp.MustCompile(`(\d+)(?:st|nd|rd|th)`)

// DMYFromTextual normalizes written-out dates in either order:
// "15th March 1990", "15 March 1990" or "March 15, 1990".
func DMYFromTextual(s string) (string, bool) {
	clean := ordinalSuffix.ReplaceAllString(strings.TrimSpace(s), "$1")
	clean = strings.ReplaceAll(clean, ",", " ")
	fields := strings.Fields(clean)
	if len(fields) != 3 {
		return "", false
	}

	// Day-first or month-first.
	var dayStr, monthStr, yearStr string
	if _, err := strconv.Atoi(fields[0]); err == nil {
		dayStr, monthStr, yearStr = fields[0], fields[1], fields[2]
	} else {
		monthStr, dayStr, yearStr = fields[0], fields[1], fields[2]
	}

	month, ok := monthNumbers[strings.ToLower(monthStr)]
	if !ok {
		return "", false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return "", false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return "", false
	}
	if !validDMY(day, month, year) {
		return "", false
	}
	return formatDMY(day, month, year), true
}

var compactDate = regexp.MustCompile(`^(\d{1,2})([a-zA-Z]{3})(\d{4})$`)

// DMYFromCompact normalizes "15Mar1990" style dates.
func DMYFromCompact(s string) (string, bool) {
	m := compactDate.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}
	month, ok := monthNumbers[strings.ToLower(m[2])]
	if !ok {
		return "", false
	}
	day, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[3])
	if !validDMY(day, month, year) {
		return "", false
	}
	return formatDMY(day, month, year), true
}

// DMYFromParts normalizes separate day, month and year captures.
func DMYFromParts(dayStr, monthStr, yearStr string) (string, bool) {
	day, err := strconv.Atoi(strings.TrimSpace(dayStr))
	if err != nil {
		return "", false
	}
	month, err := strconv.Atoi(strings.TrimSpace(monthStr))
	if err != nil {
		return "", false
	}
	year, err := strconv.Atoi(strings.TrimSpace(yearStr))
	if err != nil {
		return "", false
	}
	if !validDMY(day, month, year) {
		return "", false
	}
	return formatDMY(day, month, year), true
}
