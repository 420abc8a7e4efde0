package features_test

import (
	"testing"

	apperrors "career-matching/internal/common/errors"
	"career-matching/internal/common/logger"
	"career-matching/internal/matching/encoders"
	"career-matching/internal/matching/features"
	"career-matching/internal/matching/matchingtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDefaultSet(t *testing.T) *encoders.EncoderSet {
	t.Helper()
	return matchingtest.LoadSet(t, matchingtest.DefaultBundle(), matchingtest.FixedLoader(&matchingtest.FixedModel{}))
}

func newBuilder(t *testing.T) *features.Builder {
	return features.NewBuilder(features.DefaultConfig(), logger.NewTestLogger(t))
}

func float(v float64) *float64 { return &v }

// ==========================
// Normalization
// ==========================

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want []string
	}{
		{"comma list", []string{"Python, Django"}, []string{"python", "django"}},
		{"whitespace and case", []string{"  SQL  ", "java\tPython"}, []string{"sql", "java", "python"}},
		{"dedupe keeps first", []string{"python", "Python", "django, PYTHON"}, []string{"python", "django"}},
		{"empty", []string{"", " , "}, nil},
		{"nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, features.Normalize(tt.raw))
		})
	}
}

type vocab map[string]bool

func (v vocab) Contains(tok string) bool { return v[tok] }

func TestNormalizeWithVocabulary_KeepsKnownPhrases(t *testing.T) {
	v := vocab{"machine learning": true, "python": true}

	got := features.NormalizeWithVocabulary([]string{"Machine  Learning, Python", "deep learning"}, v)
	assert.Equal(t, []string{"machine learning", "python", "deep", "learning"}, got)
}

// ==========================
// Build
// ==========================

func TestBuild_SchemaExactOutput(t *testing.T) {
	set := loadDefaultSet(t)

	inputs := []features.Input{
		{Education: "Bachelor's", Skills: []string{"Python, SQL"}, Interests: []string{"data"}},
		{Education: "PhD"},
		{Education: "  Master's ", Skills: []string{"cobol", "fortran"}, Interests: []string{"gardening"}},
		{Education: "High School", Skills: []string{"django", "java", "python", "sql"}, Interests: []string{"art", "web", "data"}},
	}

	for _, in := range inputs {
		fv, err := newBuilder(t).Build(in, set)
		require.NoError(t, err)
		assert.Equal(t, set.Schema.Names(), fv.Columns)
		assert.Len(t, fv.Values, set.Schema.Len())
		assert.NoError(t, features.VerifyOrder(fv.Columns, set.Schema))
	}
}

func TestBuild_EncodesValuesInSchemaOrder(t *testing.T) {
	set := loadDefaultSet(t)

	fv, err := newBuilder(t).Build(features.Input{
		Education: "Master's",
		Skills:    []string{"Python, SQL"},
		Interests: []string{"Data"},
	}, set)
	require.NoError(t, err)

	// schema: python, django, sql, java, data, web, art, education_encoded
	assert.Equal(t, []float64{1, 0, 1, 0, 1, 0, 0, 2}, fv.Values)
	assert.Equal(t, []string{"python", "sql"}, fv.Skills)
	assert.Equal(t, []string{"data"}, fv.Interests)
	assert.Equal(t, 2, fv.EducationCode)
	assert.Empty(t, fv.Warnings)
	assert.Equal(t, "test-v1", fv.SchemaVersion)
}

func TestBuild_UnknownTokensAreNonFatal(t *testing.T) {
	set := loadDefaultSet(t)

	base, err := newBuilder(t).Build(features.Input{Education: "Bachelor's", Skills: []string{"python"}}, set)
	require.NoError(t, err)

	withUnknown, err := newBuilder(t).Build(features.Input{
		Education: "Bachelor's",
		Skills:    []string{"python", "xyzlang"},
		Interests: []string{"knitting"},
	}, set)
	require.NoError(t, err)

	assert.Equal(t, base.Values, withUnknown.Values, "unknown tokens leave the vector unchanged")
	assert.Equal(t, []string{"xyzlang"}, withUnknown.UnknownTokens["skills"])
	assert.Equal(t, []string{"knitting"}, withUnknown.UnknownTokens["interests"])
	require.Len(t, withUnknown.Warnings, 2)
	assert.Equal(t, string(apperrors.WarnCodeUnknownToken), withUnknown.Warnings[0].Code)
	assert.Equal(t, "skills", withUnknown.Warnings[0].Field)
	assert.Equal(t, "xyzlang", withUnknown.Warnings[0].Value)
	assert.NotContains(t, withUnknown.Skills, "xyzlang")
}

func TestBuild_UnknownEducation(t *testing.T) {
	set := loadDefaultSet(t)

	for _, edu := range []string{"Doctorate", "Bachelors", ""} {
		t.Run(edu, func(t *testing.T) {
			_, err := newBuilder(t).Build(features.Input{Education: edu, Skills: []string{"python"}}, set)
			require.Error(t, err)
			stdErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrCodeUnknownCategory, stdErr.Code)
			assert.Equal(t, "education", stdErr.Metadata["field"])
		})
	}
}

func TestBuild_EducationCaseFold(t *testing.T) {
	set := loadDefaultSet(t)

	fv, err := newBuilder(t).Build(features.Input{Education: "bachelor's"}, set)
	require.NoError(t, err)
	assert.Equal(t, 0, fv.EducationCode)
	assert.Equal(t, "Bachelor's", fv.EducationLabel)
}

func TestBuild_RoundTripSkills(t *testing.T) {
	set := loadDefaultSet(t)

	fv, err := newBuilder(t).Build(features.Input{Education: "PhD", Skills: []string{"Python, Django"}}, set)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"python", "django"}, features.ActiveTokens(fv, set.Skills))
}

func TestBuild_ScaledNumericFeatures(t *testing.T) {
	b := matchingtest.DefaultBundle()
	b.FeatureNames = append(b.FeatureNames, "age", "experience", "salary_expectation")
	b.Scaler = &matchingtest.ScalerSpec{
		Features: []string{"age", "experience"},
		Mean:     []float64{30, 4},
		Scale:    []float64{10, 2},
	}
	set := matchingtest.LoadSet(t, b, matchingtest.FixedLoader(&matchingtest.FixedModel{}))

	fv, err := newBuilder(t).Build(features.Input{Education: "PhD", Experience: float(8)}, set)
	require.NoError(t, err)

	n := len(fv.Values)
	assert.InDelta(t, -0.5, fv.Values[n-3], 1e-12, "age defaults to 25")
	assert.InDelta(t, 2.0, fv.Values[n-2], 1e-12)
	assert.Equal(t, 0.0, fv.Values[n-1], "schema columns never produced are zero-filled")
}

func TestBuild_RawNumericWithoutScaler(t *testing.T) {
	b := matchingtest.DefaultBundle()
	b.FeatureNames = append([]string{"age"}, b.FeatureNames...)
	set := matchingtest.LoadSet(t, b, matchingtest.FixedLoader(&matchingtest.FixedModel{}))

	fv, err := newBuilder(t).Build(features.Input{Education: "PhD", Age: float(41)}, set)
	require.NoError(t, err)
	assert.Equal(t, "age", fv.Columns[0])
	assert.Equal(t, 41.0, fv.Values[0])
}

func TestBuild_SharedVocabularyKeepsFirstColumn(t *testing.T) {
	b := matchingtest.DefaultBundle()
	b.Interests = []string{"art", "data", "python", "web"}
	set := matchingtest.LoadSet(t, b, matchingtest.FixedLoader(&matchingtest.FixedModel{}))

	fv, err := newBuilder(t).Build(features.Input{Education: "PhD", Interests: []string{"python"}}, set)
	require.NoError(t, err)

	idx, _ := set.Schema.Index("python")
	assert.Equal(t, 0.0, fv.Values[idx], "the skills column for python comes first and wins")
}

func TestBuild_NilSet(t *testing.T) {
	_, err := newBuilder(t).Build(features.Input{Education: "PhD"}, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeArtifactLoadFailed))
}
