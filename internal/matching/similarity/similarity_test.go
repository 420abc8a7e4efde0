package similarity_test

import (
	"context"
	"math"
	"sync"
	"testing"

	apperrors "career-matching/internal/common/errors"
	"career-matching/internal/common/logger"
	"career-matching/internal/matching/matchingtest"
	"career-matching/internal/matching/similarity"
	"career-matching/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type corpus struct {
	entries []models.CareerCatalogEntry
	version string
}

func (c corpus) Entries() []models.CareerCatalogEntry { return c.entries }
func (c corpus) Version() string                      { return c.version }

func newMatcher(t *testing.T, cfg similarity.Config, cache *similarity.FitCache) *similarity.Matcher {
	return similarity.NewMatcher(cfg, cache, logger.NewTestLogger(t))
}

// ==========================
// TF-IDF
// ==========================

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"and", "go", "sql_db", "3d"}, similarity.Tokenize("C++ and Go, a b SQL_db 3d"))
	assert.Empty(t, similarity.Tokenize("  ,; x "))
}

func TestVectorizer_SmoothedIDF(t *testing.T) {
	v := similarity.FitVectorizer([]string{"python sql", "java python"})
	assert.Equal(t, 3, v.VocabularySize())

	// idf(python) = ln(3/3)+1 = 1, idf(sql) = ln(3/2)+1
	idfSQL := math.Log(1.5) + 1
	row := v.Transform("python sql")
	norm := math.Sqrt(1 + idfSQL*idfSQL)

	// vocabulary is sorted: java, python, sql
	assert.Equal(t, []int{1, 2}, row.Indices)
	assert.InDelta(t, 1/norm, row.Values[0], 1e-12)
	assert.InDelta(t, idfSQL/norm, row.Values[1], 1e-12)

	assert.Equal(t, 0, v.Transform("rust haskell").Len())
}

func TestCosine(t *testing.T) {
	a := similarity.Vector{Indices: []int{0, 2}, Values: []float64{0.6, 0.8}}
	b := similarity.Vector{Indices: []int{2, 5}, Values: []float64{1, 1}}
	assert.InDelta(t, 1.0, similarity.Cosine(a, a), 1e-12)
	assert.InDelta(t, 0.8/math.Sqrt2, similarity.Cosine(a, b), 1e-12)
	assert.Equal(t, 0.0, similarity.Cosine(a, similarity.Vector{Indices: []int{1}, Values: []float64{1}}))
	assert.Equal(t, 0.0, similarity.Cosine(a, similarity.Vector{}))
}

// ==========================
// Matcher
// ==========================

func TestMatch_RanksBySimilarity(t *testing.T) {
	c := corpus{entries: matchingtest.SampleCatalog(), version: "v1"}

	got, err := newMatcher(t, similarity.Config{}, nil).Match(context.Background(), similarity.Request{
		ProfileText: similarity.ProfileText("data analysis", []string{"python", "sql", "statistics"}),
	}, c)
	require.NoError(t, err)

	require.Len(t, got, len(c.entries))
	assert.Equal(t, "Data Scientist", got[0].Entry.Name)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Similarity, got[i].Similarity)
	}
	assert.InDelta(t, 1.0, got[0].Normalized, 1e-12)
	assert.InDelta(t, 1.0, got[0].Confidence, 1e-12, "default weights sum to 1")
}

func TestMatch_TiesKeepCatalogOrder(t *testing.T) {
	c := corpus{version: "ties", entries: []models.CareerCatalogEntry{
		{Name: "A", Description: "python sql"},
		{Name: "B", Description: "java python"},
		{Name: "C", Description: "cooking"},
	}}

	got, err := newMatcher(t, similarity.Config{}, nil).Match(context.Background(), similarity.Request{ProfileText: "python"}, c)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, names(got))
	assert.InDelta(t, got[0].Similarity, got[1].Similarity, 1e-12)
	idfPython := math.Log(4.0/3.0) + 1
	idfOther := math.Log(2) + 1
	assert.InDelta(t, idfPython/math.Sqrt(idfPython*idfPython+idfOther*idfOther), got[0].Similarity, 1e-9)
}

func TestMatch_NoOverlapKeepsZeroScores(t *testing.T) {
	c := corpus{entries: matchingtest.SampleCatalog(), version: "v1"}

	got, err := newMatcher(t, similarity.Config{}, nil).Match(context.Background(), similarity.Request{ProfileText: "underwater basket weaving"}, c)
	require.NoError(t, err)

	assert.Equal(t, []string{"Data Scientist", "Software Engineer", "Web Developer", "Accountant"}, names(got))
	for _, m := range got {
		assert.Equal(t, 0.0, m.Similarity)
		assert.Equal(t, 0.0, m.Normalized)
		assert.Equal(t, 0.0, m.Confidence)
	}
}

func TestMatch_WeightsAndTopN(t *testing.T) {
	c := corpus{entries: matchingtest.SampleCatalog(), version: "v1"}
	w := similarity.Weights{Skills: 1, Qualifications: 1, Industry: 0.5}

	got, err := newMatcher(t, similarity.Config{TopN: 5}, nil).Match(context.Background(), similarity.Request{
		ProfileText: "django html javascript",
		TopN:        2,
		Weights:     &w,
	}, c)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "Web Developer", got[0].Entry.Name)
	assert.InDelta(t, 2.5, got[0].Confidence, 1e-12, "weights are summed, so confidence can exceed 1")

	neg := similarity.Weights{Skills: -1}
	_, err = newMatcher(t, similarity.Config{}, nil).Match(context.Background(), similarity.Request{ProfileText: "x", Weights: &neg}, c)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInputValidationFailed))
}

func TestMatch_EmptyCatalog(t *testing.T) {
	_, err := newMatcher(t, similarity.Config{}, nil).Match(context.Background(), similarity.Request{ProfileText: "python"}, corpus{version: "empty"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCatalogEmpty))

	_, err = newMatcher(t, similarity.Config{}, nil).Match(context.Background(), similarity.Request{ProfileText: "python"}, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCatalogUnavailable))
}

func TestMatch_CachedFitGivesSameResult(t *testing.T) {
	c := corpus{entries: matchingtest.SampleCatalog(), version: "v1"}
	req := similarity.Request{ProfileText: "software java algorithms"}

	uncached, err := newMatcher(t, similarity.Config{}, nil).Match(context.Background(), req, c)
	require.NoError(t, err)

	cache := similarity.NewFitCache(2)
	m := newMatcher(t, similarity.Config{}, cache)
	first, err := m.Match(context.Background(), req, c)
	require.NoError(t, err)
	second, err := m.Match(context.Background(), req, c)
	require.NoError(t, err)

	assert.Equal(t, uncached, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.Len())
}

// ==========================
// Fit cache
// ==========================

func TestFitCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cache := similarity.NewFitCache(2)
	fits := 0
	fit := func() *similarity.Fitted {
		fits++
		return similarity.Fit(matchingtest.SampleCatalog())
	}

	cache.Get("a", fit)
	cache.Get("b", fit)
	cache.Get("a", fit)
	cache.Get("c", fit) // evicts b
	cache.Get("a", fit)
	assert.Equal(t, 3, fits)

	cache.Get("b", fit)
	assert.Equal(t, 4, fits)
	assert.Equal(t, 2, cache.Len())
}

func TestFitCache_ConcurrentMissesFitOnce(t *testing.T) {
	cache := similarity.NewFitCache(4)
	var mu sync.Mutex
	fits := 0
	fit := func() *similarity.Fitted {
		mu.Lock()
		fits++
		mu.Unlock()
		return similarity.Fit(matchingtest.SampleCatalog())
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NotNil(t, cache.Get("v", fit))
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, fits, 1)
	assert.Equal(t, 1, cache.Len())
}

func TestFitCache_NilAndEmptyVersionBypass(t *testing.T) {
	var cache *similarity.FitCache
	assert.Nil(t, similarity.NewFitCache(0))

	fits := 0
	fit := func() *similarity.Fitted { fits++; return &similarity.Fitted{} }
	cache.Get("v", fit)
	similarity.NewFitCache(1).Get("", fit)
	assert.Equal(t, 2, fits)
}

func names(ms []similarity.Match) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Entry.Name
	}
	return out
}
