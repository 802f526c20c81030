// Package memory is an in-process record store used for development and
// tests. Nothing is persisted.
package memory

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"stockflow/internal/core"
	"stockflow/internal/interchange"
	"stockflow/internal/ports"
)

var (
	_ ports.RecordStore = (*Store)(nil)
	_ ports.Versioner   = (*Store)(nil)
)

type Store struct {
	mu      sync.Mutex
	items   map[string]core.Record
	version uint64
}

func New(seed ...core.Record) *Store {
	s := &Store{items: make(map[string]core.Record, len(seed))}
	for _, r := range seed {
		s.items[r.ID] = r
	}
	return s
}

// NewFromFiles seeds the store from base/records.csv when present. A
// missing or unreadable file yields an empty store.
func NewFromFiles(base string) *Store {
	path := filepath.Join(base, "records.csv")
	f, err := os.Open(path)
	if err != nil {
		return New()
	}
	defer f.Close()

	records, rejected, err := interchange.Import(f)
	if err != nil {
		slog.Warn("Failed to read seed records", "path", path, "error", err)
		return New()
	}
	if len(rejected) > 0 {
		slog.Warn("Skipped invalid seed records", "path", path, "rejected", len(rejected))
	}
	return New(records...)
}

// GetAll returns a snapshot ordered by creation time, newest first.
func (s *Store) GetAll(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Record, 0, len(s.items))
	for _, r := range s.items {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) Get(_ context.Context, id string) (core.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	return r, ok, nil
}

func (s *Store) Upsert(_ context.Context, r core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	s.items[r.ID] = r
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	delete(s.items, id)
	return nil
}

func (s *Store) ReplaceAll(_ context.Context, records []core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	s.items = make(map[string]core.Record, len(records))
	for _, r := range records {
		s.items[r.ID] = r
	}
	return nil
}

func (s *Store) InsertMany(_ context.Context, records []core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	for _, r := range records {
		s.items[r.ID] = r
	}
	return nil
}

// DataVersion counts writes since the store was created.
func (s *Store) DataVersion(context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
