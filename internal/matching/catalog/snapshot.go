// Package catalog reads career entries from the configured store into immutable, versioned
// snapshots used for one request.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"career-matching/internal/models"
)

// Snapshot is a read-only catalog view. Entries keep source order.
type Snapshot struct {
	source    string
	version   string
	fetchedAt time.Time
	entries   []models.CareerCatalogEntry
	byName    map[string]int
}

// NewSnapshot copies entries. Names compare case-insensitively after trimming; a repeated name
// keeps its first entry.
func NewSnapshot(source string, entries []models.CareerCatalogEntry) *Snapshot {
	s := &Snapshot{
		source:    source,
		fetchedAt: time.Now().UTC(),
		entries:   make([]models.CareerCatalogEntry, 0, len(entries)),
		byName:    make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		key := nameKey(e.Name)
		if key == "" {
			continue
		}
		if _, dup := s.byName[key]; dup {
			continue
		}
		e.RequiredSkills = append([]string{}, e.RequiredSkills...)
		s.byName[key] = len(s.entries)
		s.entries = append(s.entries, e)
	}
	s.version = contentVersion(s.entries)
	return s
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// contentVersion hashes the entries so equal catalogs share fitted similarity vectors.
func contentVersion(entries []models.CareerCatalogEntry) string {
	data, _ := json.Marshal(entries)
	sum := sha256.Sum256(data)
	return "catalog-" + hex.EncodeToString(sum[:])[:16]
}

// Entries returns a copy of the catalog in source order.
func (s *Snapshot) Entries() []models.CareerCatalogEntry {
	out := make([]models.CareerCatalogEntry, len(s.entries))
	for i, e := range s.entries {
		e.RequiredSkills = append([]string{}, e.RequiredSkills...)
		out[i] = e
	}
	return out
}

// Lookup finds an entry by case-insensitive exact name.
func (s *Snapshot) Lookup(name string) (models.CareerCatalogEntry, bool) {
	i, ok := s.byName[nameKey(name)]
	if !ok {
		return models.CareerCatalogEntry{}, false
	}
	e := s.entries[i]
	e.RequiredSkills = append([]string{}, e.RequiredSkills...)
	return e, true
}

func (s *Snapshot) Version() string      { return s.version }
func (s *Snapshot) Source() string       { return s.source }
func (s *Snapshot) FetchedAt() time.Time { return s.fetchedAt }
func (s *Snapshot) Len() int             { return len(s.entries) }
