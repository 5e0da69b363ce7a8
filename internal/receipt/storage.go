package receipt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrInvalidName is returned for archive names that are not a single path element
var ErrInvalidName = errors.New("invalid upload name")

// Storage archives uploaded receipt images
type Storage interface {
	// Save stores data under name and returns the stored name
	Save(name string, data []byte) (string, error)

	// Get retrieves an archived upload
	Get(name string) ([]byte, error)

	// Delete removes an archived upload
	Delete(name string) error

	// List returns archived upload names in lexical order
	List() ([]string, error)
}

// LocalStorage archives uploads in a flat directory
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates the archive directory if needed
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// resolve maps an archive name onto the base directory
func (l *LocalStorage) resolve(name string) (string, error) {
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(l.basePath, name), nil
}

// Save writes an upload to the archive
func (l *LocalStorage) Save(name string, data []byte) (string, error) {
	path, err := l.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return name, nil
}

// Get reads an upload from the archive
func (l *LocalStorage) Get(name string) ([]byte, error) {
	path, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes an upload from the archive
func (l *LocalStorage) Delete(name string) error {
	path, err := l.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// List returns the names of all archived uploads
func (l *LocalStorage) List() ([]string, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return nil, fmt.Errorf("reading storage directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
