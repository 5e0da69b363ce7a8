package scanning

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguages covers Dutch bank apps and English receipts.
var DefaultLanguages = []string{"nld", "eng"}

// Tesseract implements the Scanner interface with the local Tesseract
// engine (default LSTM engine, single text block segmentation).
type Tesseract struct {
	languages      []string
	tessdataPrefix string
}

// NewTesseract creates a Tesseract scanner. An empty tessdataPrefix uses
// the engine's compiled-in data path.
func NewTesseract(tessdataPrefix string, languages ...string) *Tesseract {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	return &Tesseract{languages: languages, tessdataPrefix: tessdataPrefix}
}

type ocrResult struct {
	text string
	err  error
}

// ScanText runs OCR over a grayscale rendering of the image
func (t *Tesseract) ScanText(ctx context.Context, imageData []byte, contentType string) (string, error) {
	pngData, err := prepareGrayscalePNG(imageData, contentType)
	if err != nil {
		return "", err
	}

	// The engine call cannot be interrupted; stop waiting on cancellation.
	done := make(chan ocrResult, 1)
	go func() {
		text, err := t.recognize(pngData)
		done <- ocrResult{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("running tesseract: %w", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		return cleanTranscript(r.text), nil
	}
}

// recognize uses a fresh client per image; gosseract clients are not safe
// for concurrent use.
func (t *Tesseract) recognize(pngData []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if t.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.tessdataPrefix); err != nil {
			return "", fmt.Errorf("setting tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(t.languages...); err != nil {
		return "", fmt.Errorf("setting languages: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", fmt.Errorf("setting page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(pngData); err != nil {
		return "", fmt.Errorf("setting image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("extracting text: %w", err)
	}
	return text, nil
}

// Close is a no-op; clients are released after each scan
func (t *Tesseract) Close() error {
	return nil
}
