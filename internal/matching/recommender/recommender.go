// Package recommender runs the full pipeline for one request: catalog snapshot, feature
// vector, classifier and similarity paths, and assembly.
package recommender

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"career-matching/internal/common/config"
	apperrors "career-matching/internal/common/errors"
	"career-matching/internal/common/logger"
	"career-matching/internal/common/metrics"
	"career-matching/internal/matching/assembler"
	"career-matching/internal/matching/catalog"
	"career-matching/internal/matching/classifier"
	"career-matching/internal/matching/encoders"
	"career-matching/internal/matching/features"
	"career-matching/internal/matching/similarity"
	"career-matching/internal/models"
)

// SetProvider hands out the encoder set for one request.
type SetProvider interface {
	Current() *encoders.EncoderSet
}

// Request is one recommendation call.
type Request struct {
	UserID           string
	Age              *float64
	Experience       *float64
	Education        string
	Skills           []string
	Interests        []string
	CareerPreference string
	TopK             int
	Strategy         string
	Weights          *similarity.Weights
}

// RequestFromProfile fills a request from a stored profile. Free-text skills and interests are
// passed through and split by the feature builder.
func RequestFromProfile(p *models.UserProfile) Request {
	req := Request{
		UserID:           p.UserID,
		Age:              p.Age,
		Education:        p.EducationLevel,
		CareerPreference: p.CareerPreference,
	}
	exp := p.Experience
	req.Experience = &exp
	if strings.TrimSpace(p.Skills) != "" {
		req.Skills = []string{p.Skills}
	}
	if strings.TrimSpace(p.Interests) != "" {
		req.Interests = []string{p.Interests}
	}
	return req
}

type Result struct {
	Recommendations models.RecommendationSet `json:"recommendations"`
	Strategy        string                   `json:"strategy"`
	ModelVersion    string                   `json:"modelVersion,omitempty"`
	CatalogVersion  string                   `json:"catalogVersion"`
	Warnings        []models.Warning         `json:"warnings"`
}

// Titles returns the recommended career names, classifier path first.
func (r *Result) Titles() []string {
	var out []string
	for _, rec := range r.Recommendations.Classifier {
		out = append(out, rec.Title)
	}
	for _, rec := range r.Recommendations.Similarity {
		out = append(out, rec.Title)
	}
	return out
}

type Service struct {
	sets      SetProvider
	catalog   catalog.Source
	builder   *features.Builder
	adapter   *classifier.Adapter
	matcher   *similarity.Matcher
	assembler *assembler.Assembler
	config    config.MatchingConfig
	logger    logger.Logger
}

// New wires a service. cache may be nil.
func New(cfg config.MatchingConfig, sets SetProvider, source catalog.Source, cache *similarity.FitCache, log logger.Logger) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = assembler.DefaultTopK
	}
	if cfg.DefaultStrategy == "" {
		cfg.DefaultStrategy = config.StrategyBoth
	}
	matcherConfig := similarity.Config{
		TopN: cfg.SimilarityTopN,
		Weights: similarity.Weights{
			Skills:         cfg.Weights.Skills,
			Qualifications: cfg.Weights.Qualifications,
			Industry:       cfg.Weights.Industry,
		},
	}
	return &Service{
		sets:      sets,
		catalog:   source,
		builder:   features.NewBuilder(features.Config{DefaultAge: cfg.DefaultAge}, log),
		adapter:   classifier.NewAdapter(log),
		matcher:   similarity.NewMatcher(matcherConfig, cache, log),
		assembler: assembler.New(log),
		config:    cfg,
		logger:    logger.ForComponent(log, "recommender"),
	}
}

// Recommend reads the catalog once and runs the requested paths against that snapshot. With
// strategy both the paths run concurrently and either failing fails the request.
func (s *Service) Recommend(ctx context.Context, req Request) (*Result, error) {
	strategy, topK, err := s.resolve(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		metrics.InferenceDuration.WithLabelValues("recommend").Observe(time.Since(start).Seconds())
	}()

	snap, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}

	var set *encoders.EncoderSet
	if s.sets != nil {
		set = s.sets.Current()
	}
	res := &Result{
		Strategy:       strategy,
		CatalogVersion: snap.Version(),
		Warnings:       []models.Warning{},
	}
	if set != nil {
		res.ModelVersion = set.Version()
	}

	var (
		fv      *features.FeatureVector
		preds   []classifier.Prediction
		matches []similarity.Match
	)
	g, gctx := errgroup.WithContext(ctx)
	if strategy != config.StrategySimilarity {
		g.Go(func() error {
			var err error
			fv, err = s.builder.Build(features.Input{
				Age:        req.Age,
				Experience: req.Experience,
				Education:  req.Education,
				Skills:     req.Skills,
				Interests:  req.Interests,
			}, set)
			if err != nil {
				return err
			}
			preds, err = s.adapter.Predict(gctx, fv, set, topK)
			return err
		})
	}
	if strategy != config.StrategyClassifier {
		g.Go(func() error {
			var err error
			matches, err = s.matcher.Match(gctx, similarity.Request{
				ProfileText: similarity.ProfileText(req.CareerPreference, req.Skills),
				TopN:        max(topK, s.config.SimilarityTopN),
				Weights:     req.Weights,
			}, snap)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var ev assembler.Evidence
	if fv != nil {
		ev = assembler.EvidenceFromVector(fv)
		res.Warnings = append(res.Warnings, fv.Warnings...)
	} else {
		ev = assembler.EvidenceFromInput(req.Skills, req.Interests, req.Education, set)
	}

	recs, warnings := s.assembler.Assemble(preds, matches, snap, ev, topK)
	res.Recommendations = recs
	res.Warnings = append(res.Warnings, warnings...)

	s.logger.Info("recommendations assembled", map[string]interface{}{
		"userId":          req.UserID,
		"strategy":        strategy,
		"modelVersion":    res.ModelVersion,
		"catalogVersion":  res.CatalogVersion,
		"classifierCount": len(recs.Classifier),
		"similarityCount": len(recs.Similarity),
		"warnings":        len(res.Warnings),
	})
	return res, nil
}

// ModelVersion is the version of the encoder set currently serving, or "" when none is loaded.
func (s *Service) ModelVersion() string {
	if s.sets == nil {
		return ""
	}
	if set := s.sets.Current(); set != nil {
		return set.Version()
	}
	return ""
}

func (s *Service) resolve(req Request) (string, int, error) {
	strategy := strings.ToLower(strings.TrimSpace(req.Strategy))
	if strategy == "" {
		strategy = s.config.DefaultStrategy
	}
	switch strategy {
	case config.StrategyClassifier, config.StrategySimilarity, config.StrategyBoth:
	default:
		return "", 0, apperrors.NewInputValidationError(fmt.Sprintf("unknown strategy %q", req.Strategy))
	}

	topK := req.TopK
	if topK < 0 {
		return "", 0, apperrors.NewInputValidationError(fmt.Sprintf("topK must be positive, got %d", topK))
	}
	if topK == 0 {
		topK = s.config.TopK
	}

	if req.Weights != nil {
		if err := req.Weights.Validate(); err != nil {
			return "", 0, err
		}
	}
	return strategy, topK, nil
}
