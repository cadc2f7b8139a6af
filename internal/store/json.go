package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"ohv-go/internal/ohv"
)

// LockfileName is the name of the tracking document inside the cache root.
const LockfileName = "src-lock.json"

// DocumentVersion is the schema version written to new tracking documents.
const DocumentVersion = 1

// Document is the persisted form of the tracking store:
//
//	{"version": 1, "src": {"<path>": "<version>"}, "cache": {"<version>/<path>": "<hash>"}}
type Document struct {
	Version int               `json:"version"`
	Src     map[string]string `json:"src"`
	Cache   map[string]string `json:"cache"`
}

func newDocument() *Document {
	return &Document{
		Version: DocumentVersion,
		Src:     make(map[string]string),
		Cache:   make(map[string]string),
	}
}

// JSONStore is a TrackingStore persisted as a single JSON document at
// <dir>/src-lock.json. The document is loaded lazily on first use and
// rewritten in full on every mutation.
//
// An absent document starts a fresh store; a document that exists but cannot
// be parsed is reported as *ohv.StoreInitError and never overwritten.
type JSONStore struct {
	dir  string
	path string
	doc  *Document
	mu   sync.Mutex
}

// NewJSONStore creates a store whose document lives in dir.
func NewJSONStore(dir string) *JSONStore {
	return &JSONStore{
		dir:  dir,
		path: filepath.Join(dir, LockfileName),
	}
}

// Path returns the location of the tracking document.
func (s *JSONStore) Path() string {
	return s.path
}

// load reads the document if it has not been loaded yet. Caller holds s.mu.
func (s *JSONStore) load() error {
	if s.doc != nil {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.doc = newDocument()
			return nil
		}
		return fmt.Errorf("reading tracking store: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return &ohv.StoreInitError{Path: s.path, Err: err}
	}
	if doc.Version > DocumentVersion {
		return &ohv.StoreInitError{Path: s.path, Err: fmt.Errorf("unsupported document version %d", doc.Version)}
	}
	if doc.Version == 0 {
		doc.Version = DocumentVersion
	}
	if doc.Src == nil {
		doc.Src = make(map[string]string)
	}
	if doc.Cache == nil {
		doc.Cache = make(map[string]string)
	}

	s.doc = &doc
	return nil
}

// save rewrites the whole document. Caller holds s.mu.
func (s *JSONStore) save() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding tracking store: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("writing tracking store: %w", err)
	}
	return nil
}

// Sources returns a copy of the path -> origin version map.
func (s *JSONStore) Sources() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}
	return maps.Clone(s.doc.Src), nil
}

// Source returns the origin version recorded for path.
func (s *JSONStore) Source(path string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return "", false, err
	}
	v, ok := s.doc.Src[path]
	return v, ok, nil
}

// SetSource records the origin version for path and rewrites the document.
func (s *JSONStore) SetSource(path, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	s.doc.Src[path] = version
	return s.save()
}

// CacheHash returns the hash recorded for a cache key.
func (s *JSONStore) CacheHash(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return "", false, err
	}
	h, ok := s.doc.Cache[key]
	return h, ok, nil
}

// SetCacheHash records the hash for a cache key and rewrites the document.
func (s *JSONStore) SetCacheHash(key, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	s.doc.Cache[key] = hash
	return s.save()
}

// Close is a no-op; every mutation is already persisted.
func (s *JSONStore) Close() error {
	return nil
}

// Compile-time check that JSONStore implements ohv.TrackingStore interface
var _ ohv.TrackingStore = (*JSONStore)(nil)
