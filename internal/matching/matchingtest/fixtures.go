// Package matchingtest writes artifact bundles and catalogs for tests of the matching pipeline.
package matchingtest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"career-matching/internal/matching/encoders"
	"career-matching/internal/models"
)

type ScalerSpec struct {
	Features []string  `json:"features"`
	Mean     []float64 `json:"mean"`
	Scale    []float64 `json:"scale"`
}

type LinearSpec struct {
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// Bundle describes one artifact directory. Nil slices are written as empty lists.
type Bundle struct {
	Manifest     *encoders.Manifest
	Skills       []string
	Interests    []string
	Education    []string
	Target       []string
	FeatureNames []string
	Scaler       *ScalerSpec
	Linear       *LinearSpec
}

// DefaultBundle is a small four-career model. The schema order deliberately differs from the
// encoder order so reconciliation is exercised.
func DefaultBundle() Bundle {
	return Bundle{
		Manifest:     &encoders.Manifest{Version: "test-v1", ModelBackend: encoders.BackendLinear},
		Skills:       []string{"django", "java", "python", "sql"},
		Interests:    []string{"art", "data", "web"},
		Education:    []string{"Bachelor's", "High School", "Master's", "PhD"},
		Target:       []string{"Data Scientist", "Graphic Designer", "Software Engineer", "Web Developer"},
		FeatureNames: []string{"python", "django", "sql", "java", "data", "web", "art", "education_encoded"},
		Linear: &LinearSpec{
			// rows: target classes; columns: FeatureNames
			Weights: [][]float64{
				{2.0, 0.0, 1.5, 0.0, 2.0, 0.0, 0.0, 0.3},
				{0.0, 0.0, 0.0, 0.0, 0.0, 0.5, 2.5, 0.0},
				{1.0, 0.5, 0.5, 2.0, 0.0, 0.0, 0.0, 0.1},
				{0.5, 2.0, 0.0, 0.0, 0.0, 2.0, 0.5, 0.0},
			},
			Bias: []float64{0, 0, 0, 0},
		},
	}
}

// WriteBundle writes b into dir. Fields left nil are skipped so tests can omit artifacts.
func WriteBundle(t testing.TB, dir string, b Bundle) {
	t.Helper()
	if b.Manifest != nil {
		writeJSON(t, dir, "manifest.json", b.Manifest)
	}
	if b.Skills != nil {
		writeJSON(t, dir, "skills_encoder.json", map[string][]string{"classes": b.Skills})
	}
	if b.Interests != nil {
		writeJSON(t, dir, "interests_encoder.json", map[string][]string{"classes": b.Interests})
	}
	if b.Education != nil {
		writeJSON(t, dir, "education_encoder.json", map[string][]string{"classes": b.Education})
	}
	if b.Target != nil {
		writeJSON(t, dir, "target_encoder.json", map[string][]string{"classes": b.Target})
	}
	if b.FeatureNames != nil {
		writeJSON(t, dir, "feature_names.json", b.FeatureNames)
	}
	if b.Scaler != nil {
		writeJSON(t, dir, "scaler.json", b.Scaler)
	}
	if b.Linear != nil {
		writeJSON(t, dir, "rf_model.json", b.Linear)
	}
}

// WriteFile writes raw content, for corrupt-artifact cases.
func WriteFile(t testing.TB, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func writeJSON(t testing.TB, dir, name string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %s: %v", name, err)
	}
	WriteFile(t, dir, name, string(data))
}

// FixedModel returns the same probabilities for every input.
type FixedModel struct {
	Probs  []float64
	Err    error
	Calls  int
	Closed bool
	Last   []float64
}

func (m *FixedModel) PredictProba(_ context.Context, features []float64) ([]float64, error) {
	m.Calls++
	m.Last = append([]float64(nil), features...)
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]float64(nil), m.Probs...), nil
}

func (m *FixedModel) Close() error {
	m.Closed = true
	return nil
}

// FixedLoader always returns m.
func FixedLoader(m encoders.Model) encoders.ModelLoader {
	return func(encoders.ModelSpec) (encoders.Model, error) { return m, nil }
}

// LoadSet writes b to a temp dir and loads it with loader.
func LoadSet(t testing.TB, b Bundle, loader encoders.ModelLoader) *encoders.EncoderSet {
	t.Helper()
	dir := t.TempDir()
	WriteBundle(t, dir, b)
	set, err := encoders.Load(dir, encoders.LoadOptions{ModelLoader: loader})
	if err != nil {
		t.Fatalf("load bundle: %v", err)
	}
	return set
}

// SampleCatalog matches DefaultBundle's targets except "Graphic Designer", which is absent.
func SampleCatalog() []models.CareerCatalogEntry {
	return []models.CareerCatalogEntry{
		{
			Name:           "Data Scientist",
			Description:    "Analyze data and build statistical models",
			RequiredSkills: []string{"Python", "SQL", "Statistics"},
			Qualifications: "Master's",
			IndustryType:   "Technology",
		},
		{
			Name:           "Software Engineer",
			Description:    "Design and build software systems",
			RequiredSkills: []string{"Java", "Python", "Algorithms"},
			Qualifications: "Bachelor's",
			IndustryType:   "Technology",
		},
		{
			Name:           "Web Developer",
			Description:    "Build websites and web applications",
			RequiredSkills: []string{"Django", "JavaScript", "HTML"},
			Qualifications: "Bachelor's",
			IndustryType:   "Technology",
		},
		{
			Name:           "Accountant",
			Description:    "Prepare financial statements and audits",
			RequiredSkills: []string{"Excel", "Bookkeeping"},
			Qualifications: "Bachelor's",
			IndustryType:   "Finance",
		},
	}
}
