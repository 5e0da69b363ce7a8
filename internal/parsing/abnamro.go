package parsing

import (
	"log/slog"
	"regexp"
	"strings"
	"time"
)

const (
	minPlausibleAmount = 0.01
	maxPlausibleAmount = 100000
)

var (
	// Tried in order; the first pattern yielding a plausible amount wins.
	abnGlyphAmounts = []*regexp.Regexp{
		regexp.MustCompile(`€\s*-?(` + amountToken + `)`),
		regexp.MustCompile(`-?(` + amountToken + `)\s*€`),
		regexp.MustCompile(`€\s*-?(\d+[,.]?\d*)`),
	}
	abnContextAmount = regexp.MustCompile(`-?(` + amountToken + `)`)

	abnExecution    = regexp.MustCompile(`(?i)Execution\s*\n\s*([^\n]+)`)
	abnWeekdayDate  = regexp.MustCompile(`(?i)(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\s+(\d{1,2})\s+([a-z]+)\s+(\d{4})`)
	abnEnglishDate  = regexp.MustCompile(`(?i)(\d{1,2})\s+(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{4})`)
	abnDutchDate    = regexp.MustCompile(`(?i)(\d{1,2})\s+(januari|februari|maart|april|mei|juni|juli|augustus|september|oktober|november|december)\s+(\d{4})`)
	abnTime         = regexp.MustCompile(`^\d{2}:\d{2}`)
	abnLetter       = regexp.MustCompile(`[a-zA-Z]`)
	abnNumericOnly  = regexp.MustCompile(`^[\d\s€,.+-]+$`)
	abnListLine     = regexp.MustCompile(`^(.+?)\s+-\s*(\d+,\d{2})$`)
	abnContextWords = []string{"balance", "charged", "your total"}

	abnJunk = []string{
		"abn amro", "payment terminal", "execution", "from account", "balance after payment",
		"description", "google pay", "tikkie payment request", "share this transaction",
		"actions", "your total", "charged by merchant",
	}
)

// AbnAmroSingleParser reads an ABN AMRO transaction-detail screen.
type AbnAmroSingleParser struct {
	categorizer *Categorizer
	clock       TimeSource
}

func (p *AbnAmroSingleParser) Parse(text string) []Candidate {
	raw := NewRawText(text)

	amount, ok := abnAmount(raw)
	date, hasDate := abnDate(raw.Full)
	description := abnDescription(raw.Lines, amount, date, hasDate)

	if !ok || description == "" {
		slog.Warn("ABN AMRO single: no amount or description found")
		return nil
	}

	dateStr := formatDate(p.clock.Now())
	if hasDate {
		dateStr = formatDate(date)
	}

	cleaned := CleanDescription(description)
	return []Candidate{{
		Amount:      amount,
		Currency:    DefaultCurrency,
		Date:        dateStr,
		Description: cleaned,
		Category:    p.categorizer.Categorize(cleaned),
		Source:      SourceAbnAmroSingle,
	}}
}

func plausible(v float64) bool {
	return v >= minPlausibleAmount && v <= maxPlausibleAmount
}

func abnAmount(raw RawText) (float64, bool) {
	for _, pattern := range abnGlyphAmounts {
		for _, m := range pattern.FindAllStringSubmatch(raw.Full, -1) {
			if v, ok := ParseAmount(m[1]); ok && plausible(v) {
				return v, true
			}
		}
	}

	for _, line := range raw.Lines {
		if !containsAny(strings.ToLower(line), abnContextWords...) {
			continue
		}
		if m := abnContextAmount.FindStringSubmatch(line); m != nil {
			if v, ok := ParseAmount(m[1]); ok {
				return v, true
			}
		}
	}

	for _, token := range findAmounts(raw.Full) {
		if v, ok := ParseAmount(token); ok && plausible(v) {
			return v, true
		}
	}

	return 0, false
}

func abnDate(full string) (time.Time, bool) {
	if m := abnExecution.FindStringSubmatch(full); m != nil {
		if fields := strings.Fields(m[1]); len(fields) >= 3 {
			if t, ok := parseDayMonthName(fields[len(fields)-3:]); ok {
				return t, true
			}
		}
	}
	if m := abnWeekdayDate.FindStringSubmatch(full); m != nil {
		if t, ok := parseDayMonthName(m[2:5]); ok {
			return t, true
		}
	}
	for _, pattern := range []*regexp.Regexp{abnEnglishDate, abnDutchDate} {
		if m := pattern.FindStringSubmatch(full); m != nil {
			if t, ok := parseDayMonthName(m[1:4]); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// abnDescription picks the first line that is not UI chrome, a timestamp,
// the amount, or the date.
func abnDescription(lines []string, amount float64, date time.Time, hasDate bool) string {
	amountText := ""
	if amount > 0 {
		amountText = FormatEuropean(amount)
	}
	monthName := ""
	if hasDate {
		monthName = strings.ToLower(date.Month().String())
	}

	for _, line := range lines {
		lower := strings.ToLower(line)
		switch {
		case containsAny(lower, abnJunk...):
			continue
		case abnTime.MatchString(line):
			continue
		case amountText != "" && strings.Contains(line, amountText):
			continue
		case monthName != "" && strings.Contains(lower, monthName):
			continue
		}
		if abnLetter.MatchString(line) && len(line) > 2 && !abnNumericOnly.MatchString(line) {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

// AbnAmroListParser reads an ABN AMRO day overview: a weekday date heading
// followed by "<description> - <amount>" rows.
type AbnAmroListParser struct {
	categorizer *Categorizer
	clock       TimeSource
}

func (p *AbnAmroListParser) Parse(text string) []Candidate {
	raw := NewRawText(text)
	if raw.Empty() {
		return nil
	}

	date := formatDate(p.clock.Now())
	for _, line := range raw.Lines {
		if t, ok := parseWeekdayDate(line); ok {
			date = formatDate(t)
			break
		}
	}

	var out []Candidate
	for _, line := range raw.Lines {
		m := abnListLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		description := strings.TrimSpace(m[1])
		if isWeekday(description) {
			continue
		}
		amount, ok := ParseAmount(m[2])
		if !ok {
			continue
		}
		cleaned := CleanDescription(description)
		out = append(out, Candidate{
			Amount:      amount,
			Currency:    DefaultCurrency,
			Date:        date,
			Description: cleaned,
			Category:    p.categorizer.Categorize(cleaned),
			Source:      SourceAbnAmroList,
		})
	}
	return out
}
