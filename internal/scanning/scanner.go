package scanning

import "context"

// Scanner turns a receipt image or PDF into raw text.
type Scanner interface {
	// ScanText reads all text on the first page, one visual line per line
	ScanText(ctx context.Context, imageData []byte, contentType string) (string, error)
	// Close closes the scanner and releases resources
	Close() error
}
