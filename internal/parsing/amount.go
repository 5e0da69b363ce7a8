package parsing

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountToken matches a two-decimal amount, with or without thousands
// separators in either convention ("1.524,55", "1,524.55", "6,50").
const amountToken = `\d{1,3}(?:[.,]\d{3})+[.,]\d{2}|\d+[.,]\d{2}`

var (
	amountNoise   = regexp.MustCompile(`[€$£\-\s]`)
	amountPattern = regexp.MustCompile(`(` + amountToken + `)(?:\D|$)`)
)

// ParseDecimal parses a numeric fragment written in European or US
// convention. Currency glyphs and the minus sign are stripped, so the result
// is always a magnitude.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	cleaned := amountNoise.ReplaceAllString(s, "")
	if cleaned == "" {
		return decimal.Zero, false
	}

	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		if after := cleaned[lastComma+1:]; len(after) == 2 && isDigits(after) {
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		slog.Warn("Could not parse amount", "input", s, "error", err)
		return decimal.Zero, false
	}
	return d.Abs(), true
}

// ParseAmount is ParseDecimal returning a float64.
func ParseAmount(s string) (float64, bool) {
	d, ok := ParseDecimal(s)
	if !ok {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// FormatEuropean renders v with two decimals and a decimal comma, the way
// Dutch banking apps print amounts.
func FormatEuropean(v float64) string {
	return strings.Replace(decimal.NewFromFloat(v).StringFixed(2), ".", ",", 1)
}

// findAmounts returns every amount-shaped token in s, in order.
func findAmounts(s string) []string {
	matches := amountPattern.FindAllStringSubmatch(s, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
