package parsing

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

var (
	revolutAmount   = regexp.MustCompile(`-?[€$£]?(` + amountToken + `)`)
	revolutCharged  = regexp.MustCompile(`(?i)charged by merchant\s+[€$£]\s*(` + amountToken + `)`)
	revolutTime     = regexp.MustCompile(`^\d{2}:\d{2}`)
	revolutNumeric  = regexp.MustCompile(`^[€$£\d\s,.-]+$`)
	revolutMonthDay = regexp.MustCompile(`([A-Za-z]+)\.?\s+(\d{1,2})\b`)
	revolutCategory = regexp.MustCompile(`(?i)^category(?:\s+([\w &]+))?$`)
)

// RevolutParser reads Revolut transaction-detail screenshots: the amount on
// top, the merchant right below it, then timestamp and category details.
type RevolutParser struct {
	categorizer *Categorizer
	currencies  currencySet
	clock       TimeSource
}

func (p *RevolutParser) Parse(text string) []Candidate {
	raw := NewRawText(text)
	if raw.Empty() {
		return nil
	}
	lines := raw.Lines

	c := Candidate{Currency: DefaultCurrency, Source: SourceRevolut}

	if phrase, ok := DetectRelativeDate(raw.Full); ok {
		slog.Info("Revolut: relative date, leaving date empty", "phrase", phrase)
		c.DateWarning = RelativeDateWarning(phrase)
	}

	if m := revolutAmount.FindStringSubmatch(lines[0]); m != nil {
		c.Amount, _ = ParseAmount(m[1])
		c.Currency = p.currencies.fromText(lines[0])
	} else {
		for _, line := range lines {
			if m := revolutCharged.FindStringSubmatch(line); m != nil {
				c.Amount, _ = ParseAmount(m[1])
				c.Currency = p.currencies.fromText(line)
				break
			}
		}
	}

	for i := 1; i < min(4, len(lines)); i++ {
		line := lines[i]
		if revolutTime.MatchString(line) || strings.Contains(strings.ToLower(line), "today") {
			continue
		}
		if len(line) > 1 && !revolutNumeric.MatchString(line) {
			c.Description = CleanDescription(line)
			break
		}
	}

	if c.DateWarning == "" {
		c.Date = p.monthDayDate(lines)
	}

	if label := revolutCategoryLabel(lines); label != "" {
		c.Category = p.categorizer.Resolve(label)
	}

	if c.Amount == 0 || c.Description == "" {
		return nil
	}
	if c.Category == "" {
		c.Category = p.categorizer.Categorize(c.Description)
	}
	return []Candidate{c}
}

// monthDayDate reads a "May 29" style token from the detail lines below the
// merchant and pins it to the current year.
func (p *RevolutParser) monthDayDate(lines []string) string {
	now := p.clock.Now()
	if len(lines) <= 3 {
		return formatDate(now)
	}
	window := strings.Join(lines[2:min(4, len(lines))], " ")
	for _, m := range revolutMonthDay.FindAllStringSubmatch(window, -1) {
		month, ok := lookupMonth(m[1])
		if !ok {
			continue
		}
		if t, ok := buildDate(m[2], month, strconv.Itoa(now.Year())); ok {
			return formatDate(t)
		}
	}
	return formatDate(now)
}

// revolutCategoryLabel finds "Category <label>" on one line, or the label on
// the line after a bare "Category" heading.
func revolutCategoryLabel(lines []string) string {
	for i, line := range lines {
		m := revolutCategory.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		if label := strings.TrimSpace(m[1]); label != "" {
			return label
		}
		if i+1 < len(lines) {
			return strings.TrimSpace(lines[i+1])
		}
	}
	return ""
}
