// Package extract turns the rendered markup of a course-detail page into
// course and lesson records.
package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"coursexport/pkg/utils"
)

var (
	// "2 hours 15 minutes", "1 hour", "45 minutes"; both groups optional, at least one must match.
	hoursMinutesPattern = regexp.MustCompile(`(?:(\d+)\s*hours?)?\s*(?:(\d+)\s*minutes?)?`)
	minPattern          = regexp.MustCompile(`(\d+)\s*mins?\b`)
	bareIntPattern      = regexp.MustCompile(`\d+`)
	segmentPattern      = regexp.MustCompile(`^\d+$`)
	isoDatePattern      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	longDatePattern     = regexp.MustCompile(`(?i)^([a-z]+)\s+(\d{1,2}),?\s+(\d{4})$`)
)

var months = map[string]string{
	"january":   "01",
	"february":  "02",
	"march":     "03",
	"april":     "04",
	"may":       "05",
	"june":      "06",
	"july":      "07",
	"august":    "08",
	"september": "09",
	"october":   "10",
	"november":  "11",
	"december":  "12",
}

var strs = utils.NewStringHelper()

// CleanText strips zero-width code points, collapses whitespace runs and trims.
func CleanText(value string) string {
	return strs.NormalizeWhitespace(strs.StripZeroWidth(value))
}

// ParseDurationText converts a human duration into whole minutes.
// The result is a decimal string, or "" when no number is present.
//
// A bare integer anywhere in the text is the last resort, so "Published 2021"
// parses as 2021 minutes.
func ParseDurationText(value string) string {
	text := strings.ToLower(CleanText(value))
	if text == "" {
		return ""
	}

	for _, m := range hoursMinutesPattern.FindAllStringSubmatch(text, -1) {
		if m[1] == "" && m[2] == "" {
			continue
		}

		hours, okH := atoiOrZero(m[1])
		minutes, okM := atoiOrZero(m[2])

		if !okH || !okM {
			continue
		}

		// Out-of-range values are not durations.
		if hours > (math.MaxInt-minutes)/60 {
			return ""
		}

		return strconv.Itoa(hours*60 + minutes)
	}

	if m := minPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return strconv.Itoa(n)
		}
	}

	if m := bareIntPattern.FindString(text); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return strconv.Itoa(n)
		}
	}

	return ""
}

func atoiOrZero(s string) (int, bool) {
	if s == "" {
		return 0, true
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}

	return n, true
}

// TimeToSeconds converts "ss", "mm:ss" or "hh:mm:ss" into seconds.
// The boolean is false when the value is not a valid timestamp.
func TimeToSeconds(value string) (int, bool) {
	parts := strings.Split(CleanText(value), ":")
	if len(parts) == 0 || len(parts) > 3 {
		return 0, false
	}

	total := 0

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if !segmentPattern.MatchString(part) {
			return 0, false
		}

		n, err := strconv.Atoi(part)
		if err != nil || total > (math.MaxInt-n)/60 {
			return 0, false
		}

		total = total*60 + n
	}

	return total, true
}

// TimeRangeToDurationMinutes converts "start-end" into the rounded number of minutes
// between the two timestamps. Malformed ranges and ranges ending before they start
// yield "".
func TimeRangeToDurationMinutes(value string) string {
	text := CleanText(value)

	start, end, found := strings.Cut(text, "-")
	if !found {
		return ""
	}

	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)

	if start == "" || end == "" {
		return ""
	}

	startSec, ok := TimeToSeconds(start)
	if !ok {
		return ""
	}

	endSec, ok := TimeToSeconds(end)
	if !ok || endSec < startSec {
		return ""
	}

	minutes := math.Round(float64(endSec-startSec) / 60)

	return strconv.Itoa(int(minutes))
}

// NormalizePublishedDate returns the date as YYYY-MM-DD. ISO dates pass through,
// "Month D, YYYY" with a full English month name is converted, anything else is "".
func NormalizePublishedDate(value string) string {
	text := CleanText(value)

	if isoDatePattern.MatchString(text) {
		return text
	}

	m := longDatePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}

	month, ok := months[strings.ToLower(m[1])]
	if !ok {
		return ""
	}

	day := m[2]
	if len(day) == 1 {
		day = "0" + day
	}

	return m[3] + "-" + month + "-" + day
}
