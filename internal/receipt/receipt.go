package receipt

import (
	"time"

	"github.com/zombor/expense-tracker/internal/parsing"
)

// Upload is one image or PDF submitted for scanning
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ScanResult holds what was read from one upload
type ScanResult struct {
	Filename   string              `json:"filename"`
	Image      string              `json:"image,omitempty"` // archived copy in storage
	Source     parsing.SourceKind  `json:"source,omitempty"`
	Text       string              `json:"text,omitempty"`
	Candidates []parsing.Candidate `json:"candidates"`
}

// Batch groups the results of one upload request
type Batch struct {
	UploadGroupID string       `json:"upload_group_id"`
	Results       []ScanResult `json:"results"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Candidates flattens the batch in upload order
func (b *Batch) Candidates() []parsing.Candidate {
	out := make([]parsing.Candidate, 0)
	for _, r := range b.Results {
		out = append(out, r.Candidates...)
	}
	return out
}
