package parsing

import (
	"slices"
	"sort"
	"strings"
	"unicode"

	"github.com/cloudflare/ahocorasick"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/zombor/expense-tracker/internal/config"
)

// FallbackCategory is assigned when no keyword matches.
const FallbackCategory = "Other"

// Categorizer assigns a category from an ordered keyword table in a single
// pass over the text. When keywords from several categories occur, the
// category listed first in the table wins.
type Categorizer struct {
	names      []string
	owners     []int // keyword index -> category index
	vocabulary []string
	matcher    *ahocorasick.Matcher
}

// NewCategorizer builds a categorizer from the rules table.
func NewCategorizer(rules config.Rules) *Categorizer {
	c := &Categorizer{vocabulary: append([]string(nil), rules.Vocabulary...)}

	var patterns [][]byte
	seen := make(map[string]bool)
	for i, rule := range rules.Categories {
		c.names = append(c.names, rule.Name)
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(kw)
			// A keyword shared by two categories belongs to the earlier one.
			if kw == "" || seen[kw] {
				continue
			}
			seen[kw] = true
			patterns = append(patterns, []byte(kw))
			c.owners = append(c.owners, i)
		}
	}
	if len(patterns) > 0 {
		c.matcher = ahocorasick.NewMatcher(patterns)
	}
	return c
}

// Categorize returns the first category whose keywords occur in text.
func (c *Categorizer) Categorize(text string) string {
	if c.matcher == nil || text == "" {
		return FallbackCategory
	}

	hits := c.matcher.MatchThreadSafe([]byte(strings.ToLower(text)))

	best := -1
	for _, h := range hits {
		if h < 0 || h >= len(c.owners) {
			continue
		}
		if owner := c.owners[h]; best < 0 || owner < best {
			best = owner
		}
	}
	if best < 0 {
		return FallbackCategory
	}
	return c.names[best]
}

// Resolve maps a category label printed on a receipt onto the configured
// vocabulary. A label matches an entry exactly, as a prefix of it ("Restaur")
// or by containing it as whole words ("Groceries & household"). Anything
// else is returned trimmed but otherwise unchanged.
func (c *Categorizer) Resolve(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return ""
	}

	for _, v := range c.vocabulary {
		if strings.EqualFold(v, label) {
			return v
		}
	}

	if len([]rune(label)) >= minPrefixLen {
		var prefixed fuzzy.Ranks
		for _, r := range fuzzy.RankFindFold(label, c.vocabulary) {
			if strings.HasPrefix(strings.ToLower(r.Target), strings.ToLower(label)) {
				prefixed = append(prefixed, r)
			}
		}
		if len(prefixed) > 0 {
			sort.Sort(prefixed)
			return prefixed[0].Target
		}
	}

	labelWords := words(label)
	best := ""
	for _, v := range c.vocabulary {
		if containsWords(labelWords, words(v)) && len(v) > len(best) {
			best = v
		}
	}
	if best != "" {
		return best
	}
	return label
}

const minPrefixLen = 3

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsWords reports whether want occurs as a contiguous run in have.
func containsWords(have, want []string) bool {
	if len(want) == 0 {
		return false
	}
	for i := 0; i+len(want) <= len(have); i++ {
		if slices.Equal(have[i:i+len(want)], want) {
			return true
		}
	}
	return false
}

// Vocabulary returns a copy of the configured category names.
func (c *Categorizer) Vocabulary() []string {
	return append([]string(nil), c.vocabulary...)
}
