package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CategoryRule maps a category name to the lowercase keywords that select it.
type CategoryRule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Rules holds the domain tables the parsing pipeline reads. It is loaded once
// at startup and passed by value; nothing mutates it afterwards.
type Rules struct {
	// Categories is evaluated in order; the first rule with a matching
	// keyword wins.
	Categories      []CategoryRule     `yaml:"categories"`
	Vocabulary      []string           `yaml:"vocabulary"`
	FallbackRates   map[string]float64 `yaml:"fallback_rates"`
	DefaultPerson   string             `yaml:"default_person"`
	DefaultCurrency string             `yaml:"default_currency"`
	// Currencies are the ISO codes recognised when printed next to an
	// amount. Other three-letter words are ignored.
	Currencies []string `yaml:"currencies"`
}

// Default returns the built-in rules.
func Default() Rules {
	return Rules{
		Categories: []CategoryRule{
			{Name: "Restaurants", Keywords: []string{"restaurant", "pizzeria", "pompernikkel", "eetcafe"}},
			{Name: "Groceries", Keywords: []string{"supermarket", "albert heijn", "jumbo", "lidl", "aldi", "global supermarkt"}},
			{Name: "Household", Keywords: []string{"household", "bakkerij", "kiosk", "sapn"}},
			{Name: "Caffeine", Keywords: []string{"coffee", "cafe", "koffie", "starbucks", "espresso"}},
			{Name: "Car", Keywords: []string{"fuel", "gas", "petrol", "parking", "sanef", "autoroute", "esso", "rouenpalaisauto"}},
			{Name: "Transport", Keywords: []string{"transport", "taxi", "uber", "bus", "train"}},
			{Name: "Sport", Keywords: []string{"zwembad", "swimming", "gym", "fitness", "sport", "tennis", "voetbal", "hockey"}},
		},
		Vocabulary: []string{
			"Other", "Caffeine", "Household", "Car", "Snacks", "Office Lunch", "Brunch",
			"Clothing", "Dog", "Eating Out", "Groceries", "Restaurants", "Transport", "Sport",
		},
		FallbackRates: map[string]float64{
			"USD": 1.08,
			"HUF": 400.0,
		},
		DefaultPerson:   "Közös",
		DefaultCurrency: "EUR",
		Currencies:      []string{"EUR", "USD", "GBP", "HUF", "CHF"},
	}
}

// Load reads a YAML rules file. Sections missing from the file keep their
// built-in values. An empty path returns Default().
func Load(path string) (Rules, error) {
	rules := Default()
	if path == "" {
		return rules, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Rules{}, fmt.Errorf("opening rules file: %w", err)
	}
	defer f.Close()

	var fromFile Rules
	if err := yaml.NewDecoder(f).Decode(&fromFile); err != nil {
		return Rules{}, fmt.Errorf("decoding rules file: %w", err)
	}

	if len(fromFile.Categories) > 0 {
		rules.Categories = normalizeCategories(fromFile.Categories)
	}
	if len(fromFile.Vocabulary) > 0 {
		rules.Vocabulary = fromFile.Vocabulary
	}
	for code, rate := range fromFile.FallbackRates {
		rules.FallbackRates[strings.ToUpper(code)] = rate
	}
	if fromFile.DefaultPerson != "" {
		rules.DefaultPerson = fromFile.DefaultPerson
	}
	if len(fromFile.Currencies) > 0 {
		rules.Currencies = make([]string, 0, len(fromFile.Currencies))
		for _, code := range fromFile.Currencies {
			rules.Currencies = append(rules.Currencies, strings.ToUpper(strings.TrimSpace(code)))
		}
	}
	if fromFile.DefaultCurrency != "" {
		rules.DefaultCurrency = strings.ToUpper(fromFile.DefaultCurrency)
	}

	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

// Validate reports rules that would make the categorizer ambiguous.
func (r Rules) Validate() error {
	seen := make(map[string]bool, len(r.Categories))
	for i, c := range r.Categories {
		if c.Name == "" {
			return fmt.Errorf("category rule %d has no name", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("category %q is defined twice", c.Name)
		}
		seen[c.Name] = true
		if len(c.Keywords) == 0 {
			return fmt.Errorf("category %q has no keywords", c.Name)
		}
	}
	for code, rate := range r.FallbackRates {
		if rate <= 0 {
			return fmt.Errorf("fallback rate for %s must be positive", code)
		}
	}
	for _, code := range r.Currencies {
		if len(code) != 3 {
			return fmt.Errorf("currency %q is not a three-letter code", code)
		}
	}
	return nil
}

func normalizeCategories(in []CategoryRule) []CategoryRule {
	out := make([]CategoryRule, 0, len(in))
	for _, c := range in {
		kw := make([]string, 0, len(c.Keywords))
		for _, k := range c.Keywords {
			k = strings.ToLower(strings.TrimSpace(k))
			if k != "" {
				kw = append(kw, k)
			}
		}
		out = append(out, CategoryRule{Name: strings.TrimSpace(c.Name), Keywords: kw})
	}
	return out
}
