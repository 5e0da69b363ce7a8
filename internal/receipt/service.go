package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/zombor/expense-tracker/internal/config"
	"github.com/zombor/expense-tracker/internal/fx"
	"github.com/zombor/expense-tracker/internal/parsing"
	"github.com/zombor/expense-tracker/internal/scanning"
)

// DefaultWorkers bounds concurrent scans within one batch
const DefaultWorkers = 4

// RateLookup returns units of currency per 1 EUR on a date. It never fails.
type RateLookup interface {
	Rate(ctx context.Context, currency, date string) float64
}

// RateReporter is a RateLookup that can also explain and list its rates
type RateReporter interface {
	RateLookup
	Lookup(ctx context.Context, currency, date string) fx.Rate
	CachedRates() ([]*fx.Rate, error)
}

// IDGenerator generates upload group IDs
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Options configures a Service
type Options struct {
	Rules   config.Rules
	Workers int
}

// Service turns receipt images into expense candidates
type Service struct {
	scanner     scanning.Scanner
	rates       RateLookup
	storage     Storage
	rules       config.Rules
	categorizer *parsing.Categorizer
	registry    *parsing.Registry
	workers     int
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source.
// storage may be nil, in which case uploads are not archived.
func NewService(scanner scanning.Scanner, rates RateLookup, storage Storage, opts Options) *Service {
	return NewServiceWithDeps(scanner, rates, storage, opts, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(scanner scanning.Scanner, rates RateLookup, storage Storage, opts Options, idGen IDGenerator, timeSrc TimeSource) *Service {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	categorizer := parsing.NewCategorizer(opts.Rules)
	return &Service{
		scanner:     scanner,
		rates:       rates,
		storage:     storage,
		rules:       opts.Rules,
		categorizer: categorizer,
		registry:    parsing.NewRegistryWithTime(categorizer, opts.Rules.Currencies, timeSrc),
		workers:     opts.Workers,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Categories returns the category vocabulary
func (s *Service) Categories() []string {
	return s.categorizer.Vocabulary()
}

// Rate exposes the service's currency lookup
func (s *Service) Rate(ctx context.Context, currency, date string) float64 {
	return s.rates.Rate(ctx, currency, date)
}

// RateDetail returns a rate with its provenance when the lookup can report it
func (s *Service) RateDetail(ctx context.Context, currency, date string) fx.Rate {
	if r, ok := s.rates.(RateReporter); ok {
		return r.Lookup(ctx, currency, date)
	}
	return fx.Rate{
		Currency: parsing.NormalizeCurrency(currency),
		Date:     date,
		Rate:     s.rates.Rate(ctx, currency, date),
	}
}

// CachedRates lists known rates, or none when the lookup keeps no cache
func (s *Service) CachedRates() ([]*fx.Rate, error) {
	r, ok := s.rates.(RateReporter)
	if !ok {
		return []*fx.Rate{}, nil
	}
	rates, err := r.CachedRates()
	if err != nil {
		return nil, fmt.Errorf("listing cached rates: %w", err)
	}
	return rates, nil
}

// Process reads one image and returns its expense candidates. It never
// fails: OCR errors and unexpected panics yield an empty result.
func (s *Service) Process(ctx context.Context, imageData []byte, contentType string) []parsing.Candidate {
	_, _, candidates := s.process(ctx, imageData, contentType)
	return candidates
}

// ProcessText runs the pipeline on text that has already been through OCR.
func (s *Service) ProcessText(ctx context.Context, text string) []parsing.Candidate {
	_, candidates := s.processText(ctx, text)
	return candidates
}

func (s *Service) process(ctx context.Context, imageData []byte, contentType string) (text string, kind parsing.SourceKind, candidates []parsing.Candidate) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Recovered from panic while scanning image", "panic", r)
			scansTotal.WithLabelValues("panic").Inc()
			text, kind, candidates = "", "", []parsing.Candidate{}
		}
	}()

	start := time.Now()
	text, err := s.scanner.ScanText(ctx, imageData, contentType)
	scanDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		slog.Error("Failed to scan image",
			"content_type", contentType,
			"file_size", len(imageData),
			"error", err,
		)
		scansTotal.WithLabelValues("ocr_error").Inc()
		return "", "", []parsing.Candidate{}
	}

	if strings.TrimSpace(text) == "" {
		slog.Warn("No text found in image", "content_type", contentType, "file_size", len(imageData))
		scansTotal.WithLabelValues("no_text").Inc()
		return "", "", []parsing.Candidate{}
	}

	kind, candidates = s.processText(ctx, text)
	return text, kind, candidates
}

func (s *Service) processText(ctx context.Context, text string) (kind parsing.SourceKind, candidates []parsing.Candidate) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Recovered from panic while parsing receipt", "panic", r)
			scansTotal.WithLabelValues("panic").Inc()
			kind, candidates = "", []parsing.Candidate{}
		}
	}()

	kind = parsing.IdentifySource(text)
	slog.Info("Identified receipt source", "source", kind)

	parsed := s.registry.For(kind).Parse(text)
	candidates = make([]parsing.Candidate, 0, len(parsed))
	for _, c := range parsed {
		if !c.Valid() {
			continue
		}
		s.enrich(ctx, &c, kind)
		candidates = append(candidates, c)
	}

	scansTotal.WithLabelValues(string(kind)).Inc()
	candidatesTotal.WithLabelValues(string(kind)).Add(float64(len(candidates)))
	return kind, candidates
}

// enrich fills currency conversion and attribution defaults
func (s *Service) enrich(ctx context.Context, c *parsing.Candidate, kind parsing.SourceKind) {
	if c.Currency == "" {
		c.Currency = s.rules.DefaultCurrency
	}
	c.Currency = parsing.NormalizeCurrency(c.Currency)
	if c.Source == "" {
		c.Source = kind
	}
	if c.Category == "" {
		c.Category = s.categorizer.Categorize(c.Description)
	}

	rateDate := c.Date
	if rateDate == "" {
		rateDate = s.timeSource.Now().Format(parsing.DateLayout)
	}
	c.FXRate = s.rates.Rate(ctx, c.Currency, rateDate)
	c.AmountEUR = toEUR(c.Amount, c.FXRate)

	if c.Person == "" {
		c.Person = s.rules.DefaultPerson
	}
}

// toEUR converts amount at rate (units per EUR), rounded half away from
// zero to cents. Missing inputs give 0.
func toEUR(amount, rate float64) float64 {
	if amount <= 0 || rate <= 0 {
		return 0
	}
	return decimal.NewFromFloat(amount).Div(decimal.NewFromFloat(rate)).Round(2).InexactFloat64()
}

// ProcessBatch scans uploads concurrently under one upload group ID.
// Results keep the order of uploads.
func (s *Service) ProcessBatch(ctx context.Context, uploads []Upload) *Batch {
	batch := &Batch{
		UploadGroupID: s.idGenerator.Generate(),
		Results:       make([]ScanResult, len(uploads)),
		CreatedAt:     s.timeSource.Now(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, u := range uploads {
		g.Go(func() error {
			batch.Results[i] = s.scanUpload(gctx, batch.UploadGroupID, i, u)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	slog.Info("Processed upload batch",
		"upload_group_id", batch.UploadGroupID,
		"files", len(uploads),
		"candidates", len(batch.Candidates()),
	)
	return batch
}

func (s *Service) scanUpload(ctx context.Context, groupID string, index int, u Upload) ScanResult {
	result := ScanResult{Filename: u.Filename}

	if s.storage != nil {
		name := fmt.Sprintf("%s_%d_%s", groupID, index, sanitizeFilename(u.Filename))
		saved, err := s.storage.Save(name, u.Data)
		if err != nil {
			slog.Warn("Failed to archive upload", "filename", u.Filename, "error", err)
		} else {
			result.Image = saved
		}
	}

	result.Text, result.Source, result.Candidates = s.process(ctx, u.Data, u.ContentType)
	return result
}

// ErrArchiveDisabled is returned by upload accessors when no Storage is configured
var ErrArchiveDisabled = errors.New("upload archive is disabled")

// ListUploads returns the names of archived uploads
func (s *Service) ListUploads() ([]string, error) {
	if s.storage == nil {
		return nil, ErrArchiveDisabled
	}
	names, err := s.storage.List()
	if err != nil {
		return nil, fmt.Errorf("listing uploads: %w", err)
	}
	return names, nil
}

// GetUpload returns an archived upload and its content type
func (s *Service) GetUpload(name string) ([]byte, string, error) {
	if s.storage == nil {
		return nil, "", ErrArchiveDisabled
	}
	data, err := s.storage.Get(name)
	if err != nil {
		return nil, "", fmt.Errorf("getting upload: %w", err)
	}
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

// DeleteUpload removes an archived upload
func (s *Service) DeleteUpload(name string) error {
	if s.storage == nil {
		return ErrArchiveDisabled
	}
	if err := s.storage.Delete(name); err != nil {
		return fmt.Errorf("deleting upload: %w", err)
	}
	return nil
}

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	// Keep only alphanumeric, spaces, hyphens, and underscores
	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	// Phone filenames get long
	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "receipt"
	}

	return base + ext
}
