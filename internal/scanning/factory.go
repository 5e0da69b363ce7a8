package scanning

import (
	"fmt"
	"log/slog"
	"strings"
)

// Backend names accepted by New
const (
	BackendTesseract = "tesseract"
	BackendGemini    = "gemini"
	BackendOllama    = "ollama"
)

// Config selects and configures an OCR backend
type Config struct {
	Backend string

	TessdataPrefix string
	Languages      []string

	GeminiKey   string
	GeminiModel string

	OllamaURL   string
	OllamaModel string
}

// New builds the Scanner named by cfg.Backend
func New(cfg Config) (Scanner, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendTesseract, "":
		slog.Info("Initializing Tesseract scanner...", "languages", strings.Join(cfg.Languages, "+"))
		return NewTesseract(cfg.TessdataPrefix, cfg.Languages...), nil
	case BackendGemini:
		slog.Info("Initializing Gemini scanner...", "model", cfg.GeminiModel)
		g, err := NewGemini(cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("initializing gemini: %w", err)
		}
		return g, nil
	case BackendOllama:
		slog.Info("Initializing Ollama scanner...", "url", cfg.OllamaURL, "model", cfg.OllamaModel)
		o, err := NewOllama(cfg.OllamaURL, cfg.OllamaModel)
		if err != nil {
			return nil, fmt.Errorf("initializing ollama: %w", err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("unknown scanner backend %q (want tesseract, gemini or ollama)", cfg.Backend)
	}
}
