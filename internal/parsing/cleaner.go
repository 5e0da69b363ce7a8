package parsing

import (
	"regexp"
	"strings"
)

var (
	descriptionNoise = []*regexp.Regexp{
		regexp.MustCompile(`(?i),PAS\d+`),
		regexp.MustCompile(`(?i)^BEA,\s*`),
		regexp.MustCompile(`\s*,\s*$`),
	}
	wordSeparator  = regexp.MustCompile(`[,\s]+`)
	technicalToken = regexp.MustCompile(`^(bea|pas\d+)$`)
)

// CleanDescription strips bank terminal codes from a transaction label.
func CleanDescription(s string) string {
	if s == "" {
		return s
	}

	cleaned := s
	for _, p := range descriptionNoise {
		cleaned = p.ReplaceAllString(cleaned, "")
	}

	lower := strings.ToLower(cleaned)
	if strings.Contains(lower, "sapn") && strings.Contains(lower, "google pay") {
		var parts []string
		for _, part := range wordSeparator.Split(cleaned, -1) {
			if part == "" || technicalToken.MatchString(strings.ToLower(part)) {
				continue
			}
			parts = append(parts, part)
		}
		if len(parts) > 1 {
			cleaned = strings.Join(parts, " ")
		}
	}

	return strings.TrimSpace(cleaned)
}
