// Package features turns a user's attributes into the exact column vector the classifier was
// trained on.
package features

import (
	"fmt"
	"strings"

	apperrors "career-matching/internal/common/errors"
	"career-matching/internal/common/logger"
	"career-matching/internal/common/metrics"
	"career-matching/internal/matching/encoders"
	"career-matching/internal/models"
)

// EducationColumn is the single label-encoded education column.
const EducationColumn = "education_encoded"

const (
	FeatureAge        = "age"
	FeatureExperience = "experience"
)

// Input is the normalized request structure. Skills and interests entries may each hold a
// delimited list.
type Input struct {
	Age        *float64
	Experience *float64
	Education  string
	Skills     []string
	Interests  []string
	Numeric    map[string]float64
}

type Config struct {
	DefaultAge float64
}

func DefaultConfig() Config {
	return Config{DefaultAge: 25}
}

// FeatureVector holds values in schema order together with the evidence used to build them.
type FeatureVector struct {
	Columns        []string
	Values         []float64
	SchemaVersion  string
	Skills         []string // normalized, known to the encoder, input order
	Interests      []string
	UnknownTokens  map[string][]string
	EducationCode  int
	EducationLabel string
	Warnings       []models.Warning
}

type Builder struct {
	config Config
	logger logger.Logger
}

func NewBuilder(config Config, log logger.Logger) *Builder {
	if config.DefaultAge == 0 {
		config.DefaultAge = DefaultConfig().DefaultAge
	}
	return &Builder{config: config, logger: logger.ForComponent(log, "feature-builder")}
}

// Build encodes input against set. Unknown skill or interest tokens are dropped and reported as
// warnings; an unknown education value fails with UNKNOWN_CATEGORY.
func (b *Builder) Build(input Input, set *encoders.EncoderSet) (*FeatureVector, error) {
	if set == nil {
		return nil, apperrors.NewArtifactLoadError("encoder_set", fmt.Errorf("no encoder set loaded"))
	}

	fv := &FeatureVector{
		SchemaVersion: set.Version(),
		UnknownTokens: make(map[string][]string),
	}

	skillCols, skillVals := b.encodeMulti("skills", input.Skills, set.Skills, fv, &fv.Skills)
	interestCols, interestVals := b.encodeMulti("interests", input.Interests, set.Interests, fv, &fv.Interests)

	education := strings.TrimSpace(input.Education)
	code, ok := set.Education.TransformFold(education)
	if !ok {
		return nil, apperrors.NewUnknownCategoryError("education", education)
	}
	fv.EducationCode = code
	fv.EducationLabel, _ = set.Education.Inverse(code)

	columns := make([]string, 0, len(skillCols)+len(interestCols)+3)
	values := make([]float64, 0, cap(columns))
	columns = append(columns, skillCols...)
	values = append(values, skillVals...)
	columns = append(columns, interestCols...)
	values = append(values, interestVals...)
	columns = append(columns, EducationColumn)
	values = append(values, float64(code))

	numCols, numVals := b.encodeNumeric(input, set)
	columns = append(columns, numCols...)
	values = append(values, numVals...)

	columns, values = DropDuplicateColumns(columns, values)

	cols, vals, err := ReconcileToSchema(columns, values, set.Schema)
	if err != nil {
		return nil, err
	}
	if err := VerifyOrder(cols, set.Schema); err != nil {
		metrics.SchemaDrift.WithLabelValues(string(apperrors.ErrCodeFeatureOrderMismatch)).Inc()
		return nil, err
	}
	fv.Columns = cols
	fv.Values = vals

	if len(fv.Warnings) > 0 {
		b.logger.Warn("unknown tokens dropped from feature vector", map[string]interface{}{
			"schemaVersion": fv.SchemaVersion,
			"unknown":       fv.UnknownTokens,
		})
	}
	return fv, nil
}

// encodeMulti one-hot encodes tokens over the full vocabulary, in vocabulary order.
func (b *Builder) encodeMulti(field string, raw []string, vocab *encoders.MultiLabelBinarizer, fv *FeatureVector, known *[]string) ([]string, []float64) {
	classes := vocab.Classes()
	values := make([]float64, len(classes))
	pos := make(map[string]int, len(classes))
	for i, c := range classes {
		pos[c] = i
	}

	for _, tok := range NormalizeWithVocabulary(raw, vocab) {
		i, ok := pos[tok]
		if !ok {
			fv.UnknownTokens[field] = append(fv.UnknownTokens[field], tok)
			fv.Warnings = append(fv.Warnings, models.Warning{
				Code:    string(apperrors.WarnCodeUnknownToken),
				Field:   field,
				Value:   tok,
				Message: fmt.Sprintf("%q is not in the %s vocabulary and was ignored", tok, field),
			})
			metrics.UnknownTokens.WithLabelValues(field).Inc()
			continue
		}
		values[i] = 1
		*known = append(*known, tok)
	}
	return classes, values
}

// encodeNumeric emits scaled columns for every scaler feature, then raw age/experience when the
// schema wants them unscaled.
func (b *Builder) encodeNumeric(input Input, set *encoders.EncoderSet) ([]string, []float64) {
	raw := func(name string) float64 {
		switch name {
		case FeatureAge:
			if input.Age != nil {
				return *input.Age
			}
			return b.config.DefaultAge
		case FeatureExperience:
			if input.Experience != nil {
				return *input.Experience
			}
			return 0
		default:
			return input.Numeric[name]
		}
	}

	var cols []string
	var vals []float64
	scaled := make(map[string]bool)
	if set.Scaler != nil {
		for _, f := range set.Scaler.Features() {
			v, _ := set.Scaler.Transform(f, raw(f))
			cols = append(cols, f)
			vals = append(vals, v)
			scaled[f] = true
		}
	}
	for _, f := range []string{FeatureAge, FeatureExperience} {
		if scaled[f] {
			continue
		}
		if _, inSchema := set.Schema.Index(f); inSchema {
			cols = append(cols, f)
			vals = append(vals, raw(f))
		}
	}
	return cols, vals
}

// ActiveTokens decodes the vocabulary columns set to 1 in fv, in schema order.
func ActiveTokens(fv *FeatureVector, vocab *encoders.MultiLabelBinarizer) []string {
	var out []string
	for i, c := range fv.Columns {
		if fv.Values[i] == 1 && vocab.Contains(c) && c != EducationColumn {
			out = append(out, c)
		}
	}
	return out
}
