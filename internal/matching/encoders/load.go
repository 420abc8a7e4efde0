package encoders

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "career-matching/internal/common/errors"
)

// Artifact keys. File names default to DefaultFiles and may be overridden per key.
const (
	ArtifactManifest         = "manifest"
	ArtifactSkillsEncoder    = "skills_encoder"
	ArtifactInterestsEncoder = "interests_encoder"
	ArtifactEducationEncoder = "education_encoder"
	ArtifactTargetEncoder    = "target_encoder"
	ArtifactFeatureNames     = "feature_names"
	ArtifactScaler           = "scaler"
	ArtifactModel            = "model"
)

const (
	BackendONNX   = "onnx"
	BackendLinear = "linear"
)

var DefaultFiles = map[string]string{
	ArtifactManifest:         "manifest.json",
	ArtifactSkillsEncoder:    "skills_encoder.json",
	ArtifactInterestsEncoder: "interests_encoder.json",
	ArtifactEducationEncoder: "education_encoder.json",
	ArtifactTargetEncoder:    "target_encoder.json",
	ArtifactFeatureNames:     "feature_names.json",
	ArtifactScaler:           "scaler.json",
}

var defaultModelFiles = map[string]string{
	BackendONNX:   "rf_model.onnx",
	BackendLinear: "rf_model.json",
}

// ModelSpec tells a ModelLoader what to open and what shape to expect.
type ModelSpec struct {
	Backend     string
	Path        string
	NumFeatures int
	NumClasses  int
}

// ModelLoader opens the classifier for a bundle.
type ModelLoader func(spec ModelSpec) (Model, error)

type LoadOptions struct {
	Files       map[string]string
	ModelLoader ModelLoader
	// RetireAfter delays closing a replaced model. It must outlast the longest job timeout.
	RetireAfter time.Duration
}

// DefaultRetireAfter covers the default 30s worker timeout with margin.
const DefaultRetireAfter = time.Minute

// RetireMargin is added to the longest job timeout when deriving RetireAfter.
const RetireMargin = 15 * time.Second

func (o LoadOptions) retireAfter() time.Duration {
	if o.RetireAfter > 0 {
		return o.RetireAfter
	}
	return DefaultRetireAfter
}

func (o LoadOptions) file(key string) string {
	if f, ok := o.Files[key]; ok && f != "" {
		return f
	}
	return DefaultFiles[key]
}

type classesFile struct {
	Classes []string `json:"classes"`
}

type scalerFile struct {
	Features []string  `json:"features"`
	Mean     []float64 `json:"mean"`
	Scale    []float64 `json:"scale"`
}

// Load reads every artifact under dir into a new EncoderSet. Any missing or corrupt artifact is an
// ARTIFACT_LOAD_FAILED error; an empty or malformed feature list is SCHEMA_MISMATCH.
func Load(dir string, opts LoadOptions) (*EncoderSet, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, apperrors.NewArtifactLoadError(dir, err)
	}
	if !info.IsDir() {
		return nil, apperrors.NewArtifactLoadError(dir, fmt.Errorf("not a directory"))
	}

	manifest, err := loadManifest(dir, opts)
	if err != nil {
		return nil, err
	}

	skills, err := loadBinarizer(dir, opts, ArtifactSkillsEncoder)
	if err != nil {
		return nil, err
	}
	interests, err := loadBinarizer(dir, opts, ArtifactInterestsEncoder)
	if err != nil {
		return nil, err
	}
	education, err := loadLabelEncoder(dir, opts, ArtifactEducationEncoder)
	if err != nil {
		return nil, err
	}
	target, err := loadLabelEncoder(dir, opts, ArtifactTargetEncoder)
	if err != nil {
		return nil, err
	}
	if target.Len() == 0 {
		return nil, apperrors.NewArtifactLoadError(ArtifactTargetEncoder, fmt.Errorf("no classes"))
	}

	schema, rawNames, err := loadSchema(dir, opts)
	if err != nil {
		return nil, err
	}

	scaler, err := loadScaler(dir, opts)
	if err != nil {
		return nil, err
	}

	if manifest.Version == "" {
		manifest.Version = fingerprint(rawNames, target.Classes())
	}

	if opts.ModelLoader == nil {
		return nil, apperrors.NewArtifactLoadError(ArtifactModel, fmt.Errorf("no model loader configured"))
	}
	modelFile := opts.file(ArtifactModel)
	if modelFile == "" {
		modelFile = manifest.ModelFile
	}
	if modelFile == "" {
		modelFile = defaultModelFiles[manifest.ModelBackend]
	}
	model, err := opts.ModelLoader(ModelSpec{
		Backend:     manifest.ModelBackend,
		Path:        filepath.Join(dir, modelFile),
		NumFeatures: schema.Len(),
		NumClasses:  target.Len(),
	})
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		return nil, apperrors.NewArtifactLoadError(ArtifactModel, err)
	}

	return &EncoderSet{
		Manifest:  manifest,
		Skills:    skills,
		Interests: interests,
		Education: education,
		Target:    target,
		Scaler:    scaler,
		Schema:    schema,
		Model:     model,
		Directory: dir,
		LoadedAt:  time.Now().UTC(),
	}, nil
}

// loadManifest tolerates a missing manifest; the backend is then inferred from the model files present.
func loadManifest(dir string, opts LoadOptions) (Manifest, error) {
	var m Manifest
	path := filepath.Join(dir, opts.file(ArtifactManifest))
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		m.ModelBackend = BackendLinear
		if _, statErr := os.Stat(filepath.Join(dir, defaultModelFiles[BackendONNX])); statErr == nil {
			m.ModelBackend = BackendONNX
		}
		return m, nil
	case err != nil:
		return m, apperrors.NewArtifactLoadError(ArtifactManifest, err)
	}

	if err := json.Unmarshal(data, &m); err != nil {
		return m, apperrors.NewArtifactLoadError(ArtifactManifest, err)
	}
	m.ModelBackend = strings.ToLower(strings.TrimSpace(m.ModelBackend))
	if m.ModelBackend == "" {
		m.ModelBackend = BackendLinear
	}
	if _, ok := defaultModelFiles[m.ModelBackend]; !ok {
		return m, apperrors.NewArtifactLoadError(ArtifactManifest, fmt.Errorf("unsupported model backend %q", m.ModelBackend))
	}
	return m, nil
}

func readJSON(dir string, opts LoadOptions, key string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(dir, opts.file(key)))
	if err != nil {
		return apperrors.NewArtifactLoadError(key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.NewArtifactLoadError(key, err)
	}
	return nil
}

func loadBinarizer(dir string, opts LoadOptions, key string) (*MultiLabelBinarizer, error) {
	var f classesFile
	if err := readJSON(dir, opts, key, &f); err != nil {
		return nil, err
	}
	b, err := NewMultiLabelBinarizer(f.Classes)
	if err != nil {
		return nil, apperrors.NewArtifactLoadError(key, err)
	}
	return b, nil
}

func loadLabelEncoder(dir string, opts LoadOptions, key string) (*LabelEncoder, error) {
	var f classesFile
	if err := readJSON(dir, opts, key, &f); err != nil {
		return nil, err
	}
	e, err := NewLabelEncoder(f.Classes)
	if err != nil {
		return nil, apperrors.NewArtifactLoadError(key, err)
	}
	return e, nil
}

func loadSchema(dir string, opts LoadOptions) (*FeatureSchema, []string, error) {
	data, err := os.ReadFile(filepath.Join(dir, opts.file(ArtifactFeatureNames)))
	if err != nil {
		return nil, nil, apperrors.NewArtifactLoadError(ArtifactFeatureNames, err)
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, nil, apperrors.NewSchemaMismatchError(fmt.Sprintf("feature_names is not a list of strings: %v", err))
	}
	schema, err := NewFeatureSchema(names)
	if err != nil {
		return nil, nil, err
	}
	return schema, names, nil
}

func loadScaler(dir string, opts LoadOptions) (*Scaler, error) {
	path := filepath.Join(dir, opts.file(ArtifactScaler))
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	var f scalerFile
	if err := readJSON(dir, opts, ArtifactScaler, &f); err != nil {
		return nil, err
	}
	s, err := NewScaler(f.Features, f.Mean, f.Scale)
	if err != nil {
		return nil, apperrors.NewArtifactLoadError(ArtifactScaler, err)
	}
	return s, nil
}

func fingerprint(featureNames, targets []string) string {
	h := sha256.New()
	for _, n := range featureNames {
		h.Write([]byte(n))
		h.Write([]byte{0})
	}
	h.Write([]byte{1})
	for _, c := range targets {
		h.Write([]byte(c))
		h.Write([]byte{0})
	}
	return "sha256-" + hex.EncodeToString(h.Sum(nil))[:12]
}
