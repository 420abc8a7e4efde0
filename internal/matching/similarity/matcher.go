// Package similarity ranks catalog careers against a user's free-text profile with TF-IDF
// cosine similarity. It does not depend on the trained classifier.
package similarity

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "career-matching/internal/common/errors"
	"career-matching/internal/common/logger"
	"career-matching/internal/common/metrics"
	"career-matching/internal/models"
)

// Corpus is an immutable catalog view. Version must change whenever Entries does.
type Corpus interface {
	Entries() []models.CareerCatalogEntry
	Version() string
}

type Weights struct {
	Skills         float64 `json:"skills"`
	Qualifications float64 `json:"qualifications"`
	Industry       float64 `json:"industry"`
}

func DefaultWeights() Weights {
	return Weights{Skills: 0.5, Qualifications: 0.3, Industry: 0.2}
}

// Sum is the effective multiplier applied to every similarity score.
func (w Weights) Sum() float64 {
	return w.Skills + w.Qualifications + w.Industry
}

func (w Weights) Validate() error {
	if w.Skills < 0 || w.Qualifications < 0 || w.Industry < 0 {
		return apperrors.NewInputValidationError("similarity weights must be non-negative")
	}
	return nil
}

type Config struct {
	TopN    int
	Weights Weights
}

// Match is one ranked catalog entry.
type Match struct {
	Entry      models.CareerCatalogEntry `json:"entry"`
	Position   int                       `json:"position"`   // catalog insertion index
	Similarity float64                   `json:"similarity"` // raw cosine
	Normalized float64                   `json:"normalized"` // divided by the max, when max > 0
	Confidence float64                   `json:"confidence"`
}

// Request describes one match call. Zero TopN and nil Weights fall back to the matcher config.
type Request struct {
	ProfileText string
	TopN        int
	Weights     *Weights
}

type Matcher struct {
	config Config
	cache  *FitCache
	logger logger.Logger
}

// NewMatcher builds a matcher. cache may be nil.
func NewMatcher(config Config, cache *FitCache, log logger.Logger) *Matcher {
	if config.Weights == (Weights{}) {
		config.Weights = DefaultWeights()
	}
	return &Matcher{config: config, cache: cache, logger: logger.ForComponent(log, "similarity")}
}

// ProfileText joins career preference and skills the way catalog rows are joined.
func ProfileText(careerPreference string, skills []string) string {
	return strings.TrimSpace(careerPreference + " " + strings.Join(skills, " "))
}

// CatalogText is the document an entry contributes to the fitted space.
func CatalogText(e models.CareerCatalogEntry) string {
	return e.Description + " " + e.SkillsText()
}

// Fit vectorizes every entry in catalog order.
func Fit(entries []models.CareerCatalogEntry) *Fitted {
	docs := make([]string, len(entries))
	for i, e := range entries {
		docs[i] = CatalogText(e)
	}
	v := FitVectorizer(docs)
	rows := make([]Vector, len(docs))
	for i, d := range docs {
		rows[i] = v.Transform(d)
	}
	return &Fitted{Vectorizer: v, Rows: rows}
}

// Match ranks the corpus by cosine similarity, descending, ties in catalog order, and keeps the
// first TopN. When the best similarity is 0 nothing is normalized and every confidence is 0.
func (m *Matcher) Match(ctx context.Context, req Request, corpus Corpus) ([]Match, error) {
	if corpus == nil {
		return nil, apperrors.NewCatalogUnavailableError("snapshot", fmt.Errorf("no catalog snapshot"))
	}
	entries := corpus.Entries()
	if len(entries) == 0 {
		return nil, apperrors.NewCatalogEmptyError(corpus.Version())
	}
	weights := m.config.Weights
	if req.Weights != nil {
		weights = *req.Weights
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	topN := req.TopN
	if topN <= 0 {
		topN = m.config.TopN
	}
	if topN <= 0 || topN > len(entries) {
		topN = len(entries)
	}

	start := time.Now()
	defer func() {
		metrics.InferenceDuration.WithLabelValues("similarity").Observe(time.Since(start).Seconds())
	}()

	fitted := m.cache.Get(corpus.Version(), func() *Fitted { return Fit(entries) })
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	user := fitted.Vectorizer.Transform(req.ProfileText)

	matches := make([]Match, len(entries))
	for i, e := range entries {
		matches[i] = Match{Entry: e, Position: i, Similarity: Cosine(user, fitted.Rows[i])}
	}
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Similarity > matches[b].Similarity
	})
	matches = matches[:topN]

	maxSim := matches[0].Similarity
	sum := weights.Sum()
	for i := range matches {
		s := matches[i].Similarity
		if maxSim > 0 {
			s /= maxSim
		}
		matches[i].Normalized = s
		matches[i].Confidence = s * sum
	}

	if maxSim == 0 {
		m.logger.Debug("profile has no lexical overlap with catalog", map[string]interface{}{
			"catalogVersion": corpus.Version(),
			"entries":        len(entries),
		})
	}
	return matches, nil
}
