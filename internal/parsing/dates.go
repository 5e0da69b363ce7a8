package parsing

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format of Candidate.Date.
const DateLayout = "2006-01-02"

// relativePhrases are checked in order; the first one present is reported.
var relativePhrases = []string{"today", "yesterday", "vandaag", "gisteren", "this morning", "vanmorgen"}

var monthNames = map[string]time.Month{}

var weekdayNames = map[string]time.Weekday{
	"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday, "sunday": time.Sunday,
	"maandag": time.Monday, "dinsdag": time.Tuesday, "woensdag": time.Wednesday,
	"donderdag": time.Thursday, "vrijdag": time.Friday, "zaterdag": time.Saturday, "zondag": time.Sunday,
}

func init() {
	dutch := []string{"januari", "februari", "maart", "april", "mei", "juni", "juli", "augustus", "september", "oktober", "november", "december"}
	dutchShort := map[string]time.Month{"mrt": time.March, "okt": time.October}
	for m := time.January; m <= time.December; m++ {
		en := strings.ToLower(m.String())
		monthNames[en] = m
		monthNames[en[:3]] = m
		monthNames[dutch[m-1]] = m
	}
	monthNames["sept"] = time.September
	for k, v := range dutchShort {
		monthNames[k] = v
	}
}

// DetectRelativeDate returns the first relative date phrase in text.
func DetectRelativeDate(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, p := range relativePhrases {
		if strings.Contains(lower, p) {
			return p, true
		}
	}
	return "", false
}

// RelativeDateWarning is attached to a candidate whose date was left empty.
func RelativeDateWarning(phrase string) string {
	return fmt.Sprintf("Original showed '%s' - please verify date", phrase)
}

// lookupMonth resolves an English or Dutch month name or abbreviation.
func lookupMonth(name string) (time.Month, bool) {
	m, ok := monthNames[strings.ToLower(strings.TrimSuffix(name, "."))]
	return m, ok
}

func isWeekday(name string) bool {
	_, ok := weekdayNames[strings.ToLower(name)]
	return ok
}

// buildDate assembles a calendar date, rejecting impossible ones such as
// 31 February.
func buildDate(day string, month time.Month, year string) (time.Time, bool) {
	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Time{}, false
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	if len(year) == 2 {
		y += 2000
	}
	if month < time.January || month > time.December || y < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, month, d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}

// parseDayMonthName parses "29 May 2025" or "29 mei 2025".
func parseDayMonthName(fields []string) (time.Time, bool) {
	if len(fields) != 3 {
		return time.Time{}, false
	}
	m, ok := lookupMonth(fields[1])
	if !ok {
		return time.Time{}, false
	}
	return buildDate(fields[0], m, fields[2])
}

// parseWeekdayDate parses a whole line such as "Thursday 29 May 2025".
func parseWeekdayDate(line string) (time.Time, bool) {
	fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
	if len(fields) != 4 || !isWeekday(fields[0]) {
		return time.Time{}, false
	}
	t, ok := parseDayMonthName(fields[1:])
	if !ok {
		return time.Time{}, false
	}
	return t, true
}

func formatDate(t time.Time) string {
	return t.Format(DateLayout)
}
