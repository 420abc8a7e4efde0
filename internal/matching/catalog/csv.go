package catalog

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"career-matching/internal/common/config"
	apperrors "career-matching/internal/common/errors"
	"career-matching/internal/models"
)

// CSVSource reads a catalog export with a header row. Headers match case-insensitively:
// career_name (or name), description, required_skills, qualifications, industry_type.
type CSVSource struct {
	path string
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

func (s *CSVSource) Name() string { return config.CatalogSourceCSV }

func (s *CSVSource) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, apperrors.NewCatalogUnavailableError(s.Name(), err)
	}
	entries, err := ParseCSV(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewCatalogUnavailableError(s.Name(), err)
	}
	return requireEntries(s.Name(), entries)
}

var csvColumns = map[string]string{
	"career_name":     "name",
	"name":            "name",
	"description":     "description",
	"required_skills": "required_skills",
	"qualifications":  "qualifications",
	"industry_type":   "industry_type",
}

// ParseCSV decodes catalog rows. Input that is not valid UTF-8 is read as ISO-8859-1.
func ParseCSV(r io.Reader) ([]models.CareerCatalogEntry, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(raw) {
		if raw, err = charmap.ISO8859_1.NewDecoder().Bytes(raw); err != nil {
			return nil, fmt.Errorf("decode latin-1: %w", err)
		}
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv has no header row")
	}

	cols := make(map[string]int)
	for i, h := range records[0] {
		if field, ok := csvColumns[strings.ToLower(strings.TrimSpace(h))]; ok {
			if _, seen := cols[field]; !seen {
				cols[field] = i
			}
		}
	}
	if _, ok := cols["name"]; !ok {
		return nil, fmt.Errorf("csv header has no career_name column")
	}

	get := func(rec []string, field string) string {
		i, ok := cols[field]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	entries := make([]models.CareerCatalogEntry, 0, len(records)-1)
	for _, rec := range records[1:] {
		name := get(rec, "name")
		if name == "" {
			continue
		}
		entries = append(entries, models.CareerCatalogEntry{
			Name:           name,
			Description:    get(rec, "description"),
			RequiredSkills: ParseRequiredSkills(get(rec, "required_skills")),
			Qualifications: get(rec, "qualifications"),
			IndustryType:   get(rec, "industry_type"),
		})
	}
	return entries, nil
}
