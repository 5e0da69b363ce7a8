package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/expense-tracker/internal/config"
	"github.com/zombor/expense-tracker/internal/fx"
	"github.com/zombor/expense-tracker/internal/parsing"
	"github.com/zombor/expense-tracker/internal/receipt"
	"github.com/zombor/expense-tracker/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	fs := ff.NewFlagSet("receipt-scan")
	var (
		format      = fs.StringEnumLong("format", "Output format: 'csv' or 'json'", "csv", "json")
		rulesPath   = fs.StringLong("rules", "", "YAML file with category rules, vocabulary and fallback rates (optional)")
		fxDBPath    = fs.StringLong("fx-db", "", "Exchange rate cache file path (optional)")
		fxURL       = fs.StringLong("fx-url", fx.DefaultBaseURL, "Exchange rate API base URL")
		fxTimeout   = fs.DurationLong("fx-timeout", fx.DefaultTimeout, "Exchange rate API request timeout")
		workers     = fs.IntLong("workers", receipt.DefaultWorkers, "Concurrent scans")
		scannerType = fs.StringLong("scanner", scanning.BackendTesseract, "Scanner type: 'tesseract', 'gemini' or 'ollama'")
		tessdata    = fs.StringLong("tessdata", "", "Tesseract tessdata directory (optional)")
		languages   = fs.StringLong("languages", strings.Join(scanning.DefaultLanguages, "+"), "Tesseract languages joined with '+'")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "qwen2-vl:7b", "Ollama vision model name")
		verbose     = fs.BoolLong("verbose", "Log progress to stderr")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_SCAN"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs, "receipt-scan [FLAGS] FILE..."))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	files := fs.GetArgs()
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs, "receipt-scan [FLAGS] FILE..."))
		fmt.Fprintln(os.Stderr, "error: no input files")
		os.Exit(1)
	}

	rules, err := config.Load(*rulesPath)
	if err != nil {
		slog.Error("Failed to load rules", "error", err)
		os.Exit(1)
	}

	var cache fx.Cache
	if *fxDBPath != "" {
		bolt, err := fx.NewBoltCache(*fxDBPath)
		if err != nil {
			slog.Error("Failed to initialize exchange rate cache", "error", err)
			os.Exit(1)
		}
		defer bolt.Close()
		cache = bolt
	}
	rates := fx.NewService(cache, fx.Config{
		BaseURL:  *fxURL,
		Timeout:  *fxTimeout,
		Fallback: rules.FallbackRates,
	})

	apiKey := *geminiKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	scanner, err := scanning.New(scanning.Config{
		Backend:        *scannerType,
		TessdataPrefix: *tessdata,
		Languages:      strings.Split(*languages, "+"),
		GeminiKey:      apiKey,
		GeminiModel:    *geminiModel,
		OllamaURL:      *ollamaURL,
		OllamaModel:    *ollamaModel,
	})
	if err != nil {
		slog.Error("Failed to initialize scanner", "error", err)
		os.Exit(1)
	}
	defer scanner.Close()

	service := receipt.NewService(scanner, rates, nil, receipt.Options{
		Rules:   rules,
		Workers: *workers,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batch, err := scanFiles(ctx, service, files)
	if err != nil {
		slog.Error("Failed to read input", "error", err)
		os.Exit(1)
	}

	if err := writeBatch(os.Stdout, *format, batch); err != nil {
		slog.Error("Failed to write output", "error", err)
		os.Exit(1)
	}
}

// scanFiles OCRs image files as one batch and parses .txt files as
// transcripts. Results follow the order of files.
func scanFiles(ctx context.Context, service *receipt.Service, files []string) (*receipt.Batch, error) {
	var (
		uploads    []receipt.Upload
		uploadIdx  []int
		textResult = make(map[int]receipt.ScanResult)
	)

	for i, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		name := filepath.Base(path)
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".txt" {
			text := string(data)
			textResult[i] = receipt.ScanResult{
				Filename:   name,
				Source:     parsing.IdentifySource(text),
				Text:       text,
				Candidates: service.ProcessText(ctx, text),
			}
			continue
		}

		contentType := mime.TypeByExtension(ext)
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		uploads = append(uploads, receipt.Upload{Filename: name, ContentType: contentType, Data: data})
		uploadIdx = append(uploadIdx, i)
	}

	batch := service.ProcessBatch(ctx, uploads)

	results := make([]receipt.ScanResult, len(files))
	for j, r := range batch.Results {
		results[uploadIdx[j]] = r
	}
	for i, r := range textResult {
		results[i] = r
	}
	batch.Results = results
	return batch, nil
}

func writeBatch(w io.Writer, format string, batch *receipt.Batch) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(batch); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	default:
		return receipt.WriteCSV(w, batch)
	}
}
