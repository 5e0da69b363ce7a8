package parsing

import (
	"regexp"
	"strings"
)

// SourceKind identifies the receipt or screenshot layout a text came from.
type SourceKind string

const (
	SourceRevolut       SourceKind = "Revolut"
	SourceAbnAmroSingle SourceKind = "ABN_AMRO_SINGLE"
	SourceAbnAmroList   SourceKind = "ABN_AMRO_LIST"
	SourceGeneric       SourceKind = "Generic"
)

var listAmount = regexp.MustCompile(`-\s*\d+,\d{2}`)

type sourceRule struct {
	matches func(lower string) bool
	kind    func(lower string) SourceKind
}

// sourceRules is evaluated in order. Revolut comes first because Revolut
// screenshots can mention bank names too.
var sourceRules = []sourceRule{
	{
		matches: func(t string) bool {
			return strings.Contains(t, "split bill") && containsAny(t, "points earned", "kiosk", "revolut")
		},
		kind: func(string) SourceKind { return SourceRevolut },
	},
	{
		matches: func(t string) bool {
			return containsAny(t, "abn amro", "payment terminal", "execution", "tikkie payment request", "nl50 abna")
		},
		kind: func(t string) SourceKind {
			if strings.Contains(t, "execution") && strings.Contains(t, "from account") {
				return SourceAbnAmroSingle
			}
			if len(listAmount.FindAllStringIndex(t, -1)) > 1 {
				return SourceAbnAmroList
			}
			return SourceAbnAmroSingle
		},
	},
}

// IdentifySource classifies OCR text by fingerprint phrases.
func IdentifySource(text string) SourceKind {
	lower := strings.ToLower(text)
	for _, r := range sourceRules {
		if r.matches(lower) {
			return r.kind(lower)
		}
	}
	return SourceGeneric
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
