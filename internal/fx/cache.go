package fx

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

const ratesBucketName = "fx_rates"

// Rate is one EUR-based exchange rate observation.
type Rate struct {
	Currency  string    `json:"currency"`
	Date      string    `json:"date"`
	Rate      float64   `json:"rate"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at,omitempty"`
}

const (
	SourceIdentity = "identity"
	SourceCache    = "cache"
	SourceAPI      = "api"
	SourceFallback = "fallback"
)

// Cache defines the interface for rate persistence
type Cache interface {
	// GetRate returns the cached rate for a date and currency, or nil
	GetRate(date, currency string) (*Rate, error)

	// SaveRate stores a rate
	SaveRate(rate *Rate) error

	// ListRates returns all cached rates
	ListRates() ([]*Rate, error)

	// Close closes the cache
	Close() error
}

// BoltCache implements Cache using BoltDB
type BoltCache struct {
	db *bbolt.DB
}

// NewBoltCache opens (or creates) the rate cache at path
func NewBoltCache(path string) (*BoltCache, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(ratesBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltCache{db: db}, nil
}

func rateKey(date, currency string) []byte {
	return []byte(date + "|" + strings.ToUpper(currency))
}

// GetRate returns the cached rate, or nil when absent
func (b *BoltCache) GetRate(date, currency string) (*Rate, error) {
	var rate *Rate
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(ratesBucketName)).Get(rateKey(date, currency))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &rate)
	})
	if err != nil {
		return nil, fmt.Errorf("reading rate: %w", err)
	}
	return rate, nil
}

// SaveRate stores a rate under its date and currency
func (b *BoltCache) SaveRate(rate *Rate) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(rate)
		if err != nil {
			return fmt.Errorf("marshaling rate: %w", err)
		}
		return tx.Bucket([]byte(ratesBucketName)).Put(rateKey(rate.Date, rate.Currency), data)
	})
}

// ListRates returns all cached rates ordered by date, then currency
func (b *BoltCache) ListRates() ([]*Rate, error) {
	rates := make([]*Rate, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(ratesBucketName)).ForEach(func(k, v []byte) error {
			var rate Rate
			if err := json.Unmarshal(v, &rate); err != nil {
				return fmt.Errorf("unmarshaling rate: %w", err)
			}
			rates = append(rates, &rate)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return rates, nil
}

// Close closes the database
func (b *BoltCache) Close() error {
	return b.db.Close()
}
