package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"career-matching/internal/common/config"
	"career-matching/internal/common/database"
	apperrors "career-matching/internal/common/errors"
	"career-matching/internal/models"
)

// maxCatalogSize bounds one search page; the catalog is small and read whole.
const maxCatalogSize = 10000

// ElasticsearchSource reads careers from an index, ordered by the position stored at import.
type ElasticsearchSource struct {
	es    *database.ElasticsearchClient
	index string
}

type careerDocument struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	RequiredSkills json.RawMessage `json:"requiredSkills"`
	Qualifications string          `json:"qualifications"`
	IndustryType   string          `json:"industryType"`
	Position       int             `json:"position"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source careerDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func NewElasticsearchSource(es *database.ElasticsearchClient, index string) *ElasticsearchSource {
	if index == "" {
		index = "careers"
	}
	return &ElasticsearchSource{es: es, index: index}
}

func (s *ElasticsearchSource) Name() string { return config.CatalogSourceElasticsearch }

func (s *ElasticsearchSource) Load(ctx context.Context) (*Snapshot, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort":  []interface{}{map[string]interface{}{"position": map[string]interface{}{"order": "asc"}}},
	}
	payload, _ := json.Marshal(body)

	client := s.es.Client
	res, err := client.Search(
		client.Search.WithContext(ctx),
		client.Search.WithIndex(s.index),
		client.Search.WithBody(bytes.NewReader(payload)),
		client.Search.WithSize(maxCatalogSize),
	)
	if err != nil {
		return nil, apperrors.NewCatalogUnavailableError(s.Name(), err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, apperrors.NewIndexNotFoundError(s.index)
	}
	if res.IsError() {
		return nil, apperrors.NewSearchQueryFailedError(s.index, fmt.Errorf("%s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewSearchQueryFailedError(s.index, err)
	}

	entries := make([]models.CareerCatalogEntry, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		doc := hit.Source
		entries = append(entries, models.CareerCatalogEntry{
			Name:           doc.Name,
			Description:    doc.Description,
			RequiredSkills: decodeSkills(doc.RequiredSkills),
			Qualifications: doc.Qualifications,
			IndustryType:   doc.IndustryType,
		})
	}
	return requireEntries(s.Name(), entries)
}

// decodeSkills accepts either a JSON array or a string holding any ParseRequiredSkills format.
func decodeSkills(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return ParseRequiredSkills(text)
	}
	return ParseRequiredSkills(string(raw))
}

// Replace recreates the index with one document per entry, refreshed before returning.
func (s *ElasticsearchSource) Replace(ctx context.Context, entries []models.CareerCatalogEntry) (int, error) {
	client := s.es.Client

	del, err := client.Indices.Delete([]string{s.index},
		client.Indices.Delete.WithContext(ctx),
		client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return 0, apperrors.NewCatalogUnavailableError(s.Name(), err)
	}
	del.Body.Close()

	snap := NewSnapshot(s.Name(), entries)
	var buf bytes.Buffer
	for i, e := range snap.Entries() {
		meta, _ := json.Marshal(map[string]interface{}{
			"index": map[string]interface{}{"_index": s.index, "_id": strings.ToLower(strings.TrimSpace(e.Name))},
		})
		skills, _ := json.Marshal(e.RequiredSkills)
		doc, _ := json.Marshal(careerDocument{
			Name:           e.Name,
			Description:    e.Description,
			RequiredSkills: skills,
			Qualifications: e.Qualifications,
			IndustryType:   e.IndustryType,
			Position:       i,
		})
		buf.Write(meta)
		buf.WriteByte('\n')
		buf.Write(doc)
		buf.WriteByte('\n')
	}
	if buf.Len() == 0 {
		return 0, nil
	}

	res, err := client.Bulk(bytes.NewReader(buf.Bytes()),
		client.Bulk.WithContext(ctx),
		client.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return 0, apperrors.NewCatalogUnavailableError(s.Name(), err)
	}
	defer res.Body.Close()

	var bulk struct {
		Errors bool `json:"errors"`
	}
	if res.IsError() {
		return 0, apperrors.NewSearchQueryFailedError(s.index, fmt.Errorf("bulk: %s", res.Status()))
	}
	if err := json.NewDecoder(res.Body).Decode(&bulk); err == nil && bulk.Errors {
		return 0, apperrors.NewSearchQueryFailedError(s.index, fmt.Errorf("bulk request reported item errors"))
	}
	return snap.Len(), nil
}
