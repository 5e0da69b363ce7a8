package parsing

import "strings"

// RawText is OCR output split into its non-empty, trimmed lines.
type RawText struct {
	Full  string
	Lines []string
}

// NewRawText splits text into lines, dropping blank ones.
func NewRawText(text string) RawText {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return RawText{Full: strings.Join(lines, "\n"), Lines: lines}
}

// Empty reports whether the text has no content.
func (t RawText) Empty() bool {
	return len(t.Lines) == 0
}
