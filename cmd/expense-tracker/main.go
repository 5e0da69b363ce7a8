package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/expense-tracker/internal/config"
	"github.com/zombor/expense-tracker/internal/fx"
	"github.com/zombor/expense-tracker/internal/receipt"
	"github.com/zombor/expense-tracker/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("expense-tracker")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		rulesPath   = fs.StringLong("rules", "", "YAML file with category rules, vocabulary and fallback rates (optional)")
		fxDBPath    = fs.StringLong("fx-db", "expense-tracker.db", "Exchange rate cache file path")
		fxURL       = fs.StringLong("fx-url", fx.DefaultBaseURL, "Exchange rate API base URL")
		fxTimeout   = fs.DurationLong("fx-timeout", fx.DefaultTimeout, "Exchange rate API request timeout")
		storagePath = fs.StringLong("storage", "", "Directory for archiving uploaded images (optional)")
		workers     = fs.IntLong("workers", receipt.DefaultWorkers, "Concurrent scans per upload batch")
		scannerType = fs.StringLong("scanner", scanning.BackendTesseract, "Scanner type: 'tesseract', 'gemini' or 'ollama'")
		tessdata    = fs.StringLong("tessdata", "", "Tesseract tessdata directory (optional)")
		languages   = fs.StringLong("languages", strings.Join(scanning.DefaultLanguages, "+"), "Tesseract languages joined with '+'")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "qwen2-vl:7b", "Ollama vision model name")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("EXPENSE_TRACKER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	slog.Info("Loading rules...", "path", *rulesPath)
	rules, err := config.Load(*rulesPath)
	if err != nil {
		slog.Error("Failed to load rules", "error", err)
		os.Exit(1)
	}

	slog.Info("Initializing exchange rate cache...", "path", *fxDBPath)
	cache, err := fx.NewBoltCache(*fxDBPath)
	if err != nil {
		slog.Error("Failed to initialize exchange rate cache", "error", err)
		os.Exit(1)
	}
	defer cache.Close()

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

	// Archiving is optional; a nil Storage disables it
	var store receipt.Storage
	if *storagePath != "" {
		slog.Info("Initializing storage...", "path", *storagePath)
		local, err := receipt.NewLocalStorage(*storagePath)
		if err != nil {
			slog.Error("Failed to initialize storage", "error", err)
			os.Exit(1)
		}
		store = local
	}

	receiptService := receipt.NewService(scanner, rates, store, receipt.Options{
		Rules:   rules,
		Workers: *workers,
	})

	basicAuth := receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := receipt.NewServer(receiptService, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started",
		"address", fmt.Sprintf("http://localhost%s", addr),
		"version", version,
		"scanner", *scannerType,
		"started_at", time.Now().Format(time.RFC3339),
	)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
