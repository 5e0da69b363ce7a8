package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultBaseURL serves EUR-based rates at /v4/latest/EUR.
	DefaultBaseURL = "https://api.exchangerate-api.com"

	// DefaultTimeout bounds one rate API request.
	DefaultTimeout = 10 * time.Second

	baseCurrency = "EUR"
	dateLayout   = "2006-01-02"
)

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Config configures the rate service
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Fallback map[string]float64
}

// Service answers "how many units of currency per 1 EUR on date". Lookups
// never fail: cache, then the rate API, then the static fallback table, then
// 1.0.
type Service struct {
	cache      Cache
	client     *http.Client
	baseURL    string
	timeout    time.Duration
	fallback   map[string]float64
	timeSource TimeSource
	inflight   singleflight.Group
}

// NewService creates a rate service. cache may be nil.
func NewService(cache Cache, cfg Config) *Service {
	return NewServiceWithDeps(cache, cfg, http.DefaultClient, defaultTimeSource{})
}

// NewServiceWithDeps creates a Service with custom dependencies for testing
func NewServiceWithDeps(cache Cache, cfg Config, client *http.Client, timeSrc TimeSource) *Service {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	fallback := make(map[string]float64, len(cfg.Fallback))
	for code, rate := range cfg.Fallback {
		fallback[strings.ToUpper(code)] = rate
	}
	return &Service{
		cache:      cache,
		client:     client,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    cfg.Timeout,
		fallback:   fallback,
		timeSource: timeSrc,
	}
}

// Rate returns units of currency per 1 EUR on date (YYYY-MM-DD; empty
// means today).
func (s *Service) Rate(ctx context.Context, currency, date string) float64 {
	return s.Lookup(ctx, currency, date).Rate
}

// Lookup is Rate with the provenance of the answer.
func (s *Service) Lookup(ctx context.Context, currency, date string) Rate {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if date == "" {
		date = s.timeSource.Now().Format(dateLayout)
	}

	if currency == "" || currency == baseCurrency {
		lookupsTotal.WithLabelValues(SourceIdentity).Inc()
		return Rate{Currency: baseCurrency, Date: date, Rate: 1.0, Source: SourceIdentity}
	}

	if s.cache != nil {
		cached, err := s.cache.GetRate(date, currency)
		if err != nil {
			slog.Warn("Reading cached rate", "currency", currency, "date", date, "error", err)
		} else if cached != nil && cached.Rate > 0 {
			lookupsTotal.WithLabelValues(SourceCache).Inc()
			r := *cached
			r.Source = SourceCache
			return r
		}
	}

	v, err, _ := s.inflight.Do(date+"|"+currency, func() (interface{}, error) {
		return s.fetch(ctx, currency)
	})
	if err == nil {
		rate := Rate{
			Currency:  currency,
			Date:      date,
			Rate:      v.(float64),
			Source:    SourceAPI,
			FetchedAt: s.timeSource.Now(),
		}
		if s.cache != nil {
			if err := s.cache.SaveRate(&rate); err != nil {
				slog.Warn("Caching rate", "currency", currency, "date", date, "error", err)
			}
		}
		lookupsTotal.WithLabelValues(SourceAPI).Inc()
		return rate
	}
	slog.Warn("Fetching rate, using fallback", "currency", currency, "date", date, "error", err)

	lookupsTotal.WithLabelValues(SourceFallback).Inc()
	if fb, ok := s.fallback[currency]; ok {
		return Rate{Currency: currency, Date: date, Rate: fb, Source: SourceFallback}
	}
	return Rate{Currency: currency, Date: date, Rate: 1.0, Source: SourceFallback}
}

// CachedRates lists everything in the cache.
func (s *Service) CachedRates() ([]*Rate, error) {
	if s.cache == nil {
		return []*Rate{}, nil
	}
	return s.cache.ListRates()
}

type latestResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

func (s *Service) fetch(ctx context.Context, currency string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v4/latest/"+baseCurrency, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("calling rate API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate API returned status %d", resp.StatusCode)
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decoding rate response: %w", err)
	}

	rate, ok := body.Rates[currency]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("currency %s not in rate response", currency)
	}
	return rate, nil
}
