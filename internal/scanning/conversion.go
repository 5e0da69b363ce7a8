package scanning

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// transcriptionPrompt is shared by the LLM backends. They act as an OCR
// engine only; field extraction happens in the parsing pipeline.
const transcriptionPrompt = `Transcribe every piece of text visible in this receipt, invoice or banking app screenshot.

Rules:
- Output one visual line of the image per line of text, top to bottom.
- Keep the original language, spelling, capitalisation, currency symbols and number formats exactly as shown (for example "-€6,50" or "1.524,55").
- Keep labels such as "Execution", "From account", "Split bill" or "Category" exactly as printed.
- Do not summarise, translate, explain or add anything that is not in the image.
- Do not use markdown or code blocks.`

// pdfToImage renders the first page of a PDF
func pdfToImage(pdfData []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	// Receipts and screenshots are single page
	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return img, nil
}

// decodeImage decodes PDF, HEIC/HEIF and the standard library formats
func decodeImage(imageData []byte, mimeType string) (image.Image, error) {
	if mimeType == "application/pdf" {
		img, err := pdfToImage(imageData)
		if err != nil {
			return nil, fmt.Errorf("converting PDF to image: %w", err)
		}
		return img, nil
	}

	// HEIC/HEIF (iPhone screenshots) is not supported by the image package
	if isHEICFormat(imageData) || isHEICMimeType(mimeType) {
		img, err := heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		if strings.Contains(err.Error(), "unknown format") || strings.Contains(err.Error(), "unsupported") {
			return nil, fmt.Errorf("unsupported image format. Supported formats: JPEG, PNG, GIF, HEIC, HEIF, PDF. Error: %w", err)
		}
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// isHEICFormat checks for an ftyp box with a HEIC-family brand at offset 4
func isHEICFormat(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) == "ftyp" {
		brand := string(data[8:12])
		if brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1" {
			return true
		}
	}
	return false
}

// isHEICMimeType checks if the MIME type indicates HEIC/HEIF format
func isHEICMimeType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

// toGray converts img to 8-bit grayscale, which Tesseract reads more
// reliably than colour screenshots.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, img, b.Min, draw.Src)
	return gray
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func normalizeMimeType(contentType string) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return mimeType
}

// prepareImageData returns PNG bytes for any supported input. PNG input
// that needs no conversion is returned as-is; converted reports otherwise.
func prepareImageData(imageData []byte, contentType string) ([]byte, bool, error) {
	mimeType := normalizeMimeType(contentType)
	if mimeType == "image/png" && !isHEICFormat(imageData) {
		return imageData, false, nil
	}

	img, err := decodeImage(imageData, mimeType)
	if err != nil {
		return nil, false, err
	}
	pngData, err := encodePNG(img)
	if err != nil {
		return nil, false, err
	}
	return pngData, true, nil
}

// prepareGrayscalePNG decodes any supported input and re-encodes it as a
// grayscale PNG.
func prepareGrayscalePNG(imageData []byte, contentType string) ([]byte, error) {
	img, err := decodeImage(imageData, normalizeMimeType(contentType))
	if err != nil {
		return nil, err
	}
	return encodePNG(toGray(img))
}
