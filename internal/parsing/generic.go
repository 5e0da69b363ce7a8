package parsing

import (
	"regexp"
	"strconv"
	"time"
)

// ScannedExpenseSentinel is the description used when a receipt has no lines.
const ScannedExpenseSentinel = "Scanned Expense"

var (
	genericTotal = regexp.MustCompile(`(?i)(?:total|totaal|amount|bedrag)[:\s]+[€$£]?\s*(` + amountToken + `)`)
	genericDate  = regexp.MustCompile(`(?:^|[^\d])(\d{1,2})[./-](\d{1,2})[./-](\d{4}|\d{2})\b`)
	genericISO   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
)

// GenericParser is the fallback for receipts of unknown layout: the labelled
// total or the largest amount, the first line as merchant, the first
// year-month-day or day/month/year date.
type GenericParser struct {
	categorizer *Categorizer
	currencies  currencySet
	clock       TimeSource
}

func (p *GenericParser) Parse(text string) []Candidate {
	raw := NewRawText(text)

	amount := 0.0
	if m := genericTotal.FindStringSubmatch(text); m != nil {
		amount, _ = ParseAmount(m[1])
	} else {
		for _, token := range findAmounts(text) {
			if v, ok := ParseAmount(token); ok && v > amount {
				amount = v
			}
		}
	}

	description := ScannedExpenseSentinel
	if !raw.Empty() {
		description = raw.Lines[0]
	}

	date := formatDate(p.clock.Now())
	if t, ok := genericReceiptDate(text); ok {
		date = formatDate(t)
	}

	if amount == 0 && description == ScannedExpenseSentinel {
		return nil
	}

	cleaned := CleanDescription(description)
	return []Candidate{{
		Amount:      amount,
		Currency:    p.currencies.fromText(text),
		Date:        date,
		Description: cleaned,
		Category:    p.categorizer.Categorize(cleaned),
		Source:      SourceGeneric,
	}}
}

func genericReceiptDate(text string) (time.Time, bool) {
	if m := genericISO.FindStringSubmatch(text); m != nil {
		if month, ok := monthFromNumber(m[2]); ok {
			if t, ok := buildDate(m[3], month, m[1]); ok {
				return t, true
			}
		}
	}
	if m := genericDate.FindStringSubmatch(text); m != nil {
		if month, ok := monthFromNumber(m[2]); ok {
			return buildDate(m[1], month, m[3])
		}
	}
	return time.Time{}, false
}

func monthFromNumber(s string) (time.Month, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 12 {
		return 0, false
	}
	return time.Month(n), true
}
