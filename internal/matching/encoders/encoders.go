// Package encoders holds the immutable, versioned bundle of pre-fit encoders, the frozen feature
// schema and the classifier model that every inference call is made against.
package encoders

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "career-matching/internal/common/errors"
)

// Model returns one probability per target class, in target-encoder order.
type Model interface {
	PredictProba(ctx context.Context, features []float64) ([]float64, error)
	Close() error
}

// LabelEncoder maps categorical values to dense integer codes. Codes are class indices.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

func NewLabelEncoder(classes []string) (*LabelEncoder, error) {
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("duplicate class %q", c)
		}
		index[c] = i
	}
	return &LabelEncoder{classes: append([]string(nil), classes...), index: index}, nil
}

// Transform returns the code for an exact class match.
func (e *LabelEncoder) Transform(value string) (int, bool) {
	i, ok := e.index[value]
	return i, ok
}

// TransformFold tries an exact match, then a case-insensitive match that must be unique.
func (e *LabelEncoder) TransformFold(value string) (int, bool) {
	if i, ok := e.index[value]; ok {
		return i, true
	}
	found := -1
	for i, c := range e.classes {
		if strings.EqualFold(c, value) {
			if found >= 0 {
				return 0, false
			}
			found = i
		}
	}
	return found, found >= 0
}

// Inverse decodes a class index.
func (e *LabelEncoder) Inverse(code int) (string, error) {
	if code < 0 || code >= len(e.classes) {
		return "", fmt.Errorf("class index %d out of range [0,%d)", code, len(e.classes))
	}
	return e.classes[code], nil
}

func (e *LabelEncoder) Len() int { return len(e.classes) }

func (e *LabelEncoder) Classes() []string { return append([]string(nil), e.classes...) }

// MultiLabelBinarizer is a fixed vocabulary; each class becomes one 0/1 column named after it.
type MultiLabelBinarizer struct {
	classes []string
	index   map[string]int
}

func NewMultiLabelBinarizer(classes []string) (*MultiLabelBinarizer, error) {
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("duplicate class %q", c)
		}
		index[c] = i
	}
	return &MultiLabelBinarizer{classes: append([]string(nil), classes...), index: index}, nil
}

func (b *MultiLabelBinarizer) Contains(token string) bool {
	_, ok := b.index[token]
	return ok
}

func (b *MultiLabelBinarizer) Len() int { return len(b.classes) }

func (b *MultiLabelBinarizer) Classes() []string { return append([]string(nil), b.classes...) }

// Scaler standardizes numeric features: (x - mean) / scale.
type Scaler struct {
	features []string
	mean     []float64
	scale    []float64
	index    map[string]int
}

func NewScaler(features []string, mean, scale []float64) (*Scaler, error) {
	if len(features) != len(mean) || len(features) != len(scale) {
		return nil, fmt.Errorf("scaler lengths differ: features=%d mean=%d scale=%d", len(features), len(mean), len(scale))
	}
	index := make(map[string]int, len(features))
	for i, f := range features {
		if scale[i] == 0 {
			return nil, fmt.Errorf("scaler feature %q has zero scale", f)
		}
		index[f] = i
	}
	return &Scaler{
		features: append([]string(nil), features...),
		mean:     append([]float64(nil), mean...),
		scale:    append([]float64(nil), scale...),
		index:    index,
	}, nil
}

// Features lists the numeric columns the scaler produces, in fitted order.
func (s *Scaler) Features() []string { return append([]string(nil), s.features...) }

// Transform scales value for the named feature.
func (s *Scaler) Transform(feature string, value float64) (float64, bool) {
	i, ok := s.index[feature]
	if !ok {
		return 0, false
	}
	return (value - s.mean[i]) / s.scale[i], true
}

// FeatureSchema is the frozen, ordered list of columns every inference vector must carry.
type FeatureSchema struct {
	names []string
	index map[string]int
}

// NewFeatureSchema rejects empty lists and blank or duplicate names.
func NewFeatureSchema(names []string) (*FeatureSchema, error) {
	if len(names) == 0 {
		return nil, apperrors.NewSchemaMismatchError("feature_names is empty")
	}
	index := make(map[string]int, len(names))
	for i, n := range names {
		if strings.TrimSpace(n) == "" {
			return nil, apperrors.NewSchemaMismatchError(fmt.Sprintf("feature_names[%d] is blank", i))
		}
		if _, dup := index[n]; dup {
			return nil, apperrors.NewSchemaMismatchError(fmt.Sprintf("feature_names contains %q twice", n))
		}
		index[n] = i
	}
	return &FeatureSchema{names: append([]string(nil), names...), index: index}, nil
}

func (s *FeatureSchema) Names() []string { return append([]string(nil), s.names...) }

func (s *FeatureSchema) Len() int { return len(s.names) }

// Index returns the column position of name.
func (s *FeatureSchema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// At returns the column name at position i.
func (s *FeatureSchema) At(i int) string { return s.names[i] }

// Manifest describes an artifact bundle.
type Manifest struct {
	Version      string `json:"version"`
	ModelBackend string `json:"modelBackend"`
	ModelFile    string `json:"modelFile,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

// EncoderSet is loaded once and never mutated. Scaler may be nil.
type EncoderSet struct {
	Manifest  Manifest
	Skills    *MultiLabelBinarizer
	Interests *MultiLabelBinarizer
	Education *LabelEncoder
	Target    *LabelEncoder
	Scaler    *Scaler
	Schema    *FeatureSchema
	Model     Model
	Directory string
	LoadedAt  time.Time
}

// Version identifies the bundle in logs and responses.
func (s *EncoderSet) Version() string { return s.Manifest.Version }

// Close releases the model.
func (s *EncoderSet) Close() error {
	if s == nil || s.Model == nil {
		return nil
	}
	return s.Model.Close()
}
