package parsing

import (
	"regexp"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
)

// DefaultCurrency is used when a receipt carries no currency marker.
const DefaultCurrency = "EUR"

// Candidate is one extracted expense awaiting user confirmation.
type Candidate struct {
	Amount      float64    `json:"amount" csv:"amount"`
	Currency    string     `json:"currency" csv:"currency"`
	Date        string     `json:"date" csv:"date"`
	DateWarning string     `json:"date_warning,omitempty" csv:"date_warning"`
	Description string     `json:"description" csv:"description"`
	Category    string     `json:"category" csv:"category"`
	Person      string     `json:"person" csv:"person"`
	Beneficiary string     `json:"beneficiary" csv:"beneficiary"`
	FXRate      float64    `json:"fx_rate" csv:"fx_rate"`
	AmountEUR   float64    `json:"amount_eur" csv:"amount_eur"`
	Source      SourceKind `json:"source" csv:"source"`
}

// Valid reports whether the candidate carries the minimum useful data.
func (c Candidate) Valid() bool {
	return c.Amount > 0 && strings.TrimSpace(c.Description) != ""
}

// Parser extracts candidates from the OCR text of one image. Parsers never
// fail; a miss yields no candidates.
type Parser interface {
	Parse(text string) []Candidate
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Registry selects the parser for a source kind.
type Registry struct {
	parsers  map[SourceKind]Parser
	fallback Parser
}

// NewRegistry wires the built-in parsers around a shared categorizer.
// currencies lists the ISO codes a receipt may name next to an amount.
func NewRegistry(categorizer *Categorizer, currencies []string) *Registry {
	return NewRegistryWithTime(categorizer, currencies, defaultTimeSource{})
}

// NewRegistryWithTime is NewRegistry with an injectable clock for testing.
func NewRegistryWithTime(categorizer *Categorizer, currencies []string, clock TimeSource) *Registry {
	set := newCurrencySet(currencies)
	generic := &GenericParser{categorizer: categorizer, currencies: set, clock: clock}
	return &Registry{
		parsers: map[SourceKind]Parser{
			SourceRevolut:       &RevolutParser{categorizer: categorizer, currencies: set, clock: clock},
			SourceAbnAmroSingle: &AbnAmroSingleParser{categorizer: categorizer, clock: clock},
			SourceAbnAmroList:   &AbnAmroListParser{categorizer: categorizer, clock: clock},
			SourceGeneric:       generic,
		},
		fallback: generic,
	}
}

// For returns the parser for kind, or the generic parser for unknown kinds.
func (r *Registry) For(kind SourceKind) Parser {
	if p, ok := r.parsers[kind]; ok {
		return p
	}
	return r.fallback
}

// NormalizeCurrency upper-cases an ISO 4217 code, defaulting to EUR when
// empty. Codes go-money does not know are kept as given.
func NormalizeCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCurrency
	}
	if c := money.GetCurrency(code); c != nil {
		return c.Code
	}
	return code
}

var isoNextToAmount = regexp.MustCompile(`\b([A-Z]{3})\s*(?:` + amountToken + `)|(?:` + amountToken + `)\s*([A-Z]{3})\b`)

// currencySet holds the ISO codes accepted when printed next to an amount.
// Receipt words such as CUP or PEN are also ISO codes, so only configured
// currencies count.
type currencySet map[string]bool

func newCurrencySet(codes []string) currencySet {
	set := make(currencySet, len(codes))
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if money.GetCurrency(code) != nil {
			set[code] = true
		}
	}
	return set
}

// fromText infers the currency from a glyph in s, or from an accepted ISO
// code printed right next to an amount.
func (set currencySet) fromText(s string) string {
	switch {
	case strings.Contains(s, "€"):
		return "EUR"
	case strings.Contains(s, "$"):
		return "USD"
	case strings.Contains(s, "£"):
		return "GBP"
	}
	for _, m := range isoNextToAmount.FindAllStringSubmatch(s, -1) {
		for _, code := range m[1:] {
			if code != "" && set[code] {
				return code
			}
		}
	}
	return DefaultCurrency
}
