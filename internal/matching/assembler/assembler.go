// Package assembler turns classifier predictions and similarity matches into the external
// recommendation lists.
package assembler

import (
	"fmt"
	"math"
	"strings"

	apperrors "career-matching/internal/common/errors"
	"career-matching/internal/common/logger"
	"career-matching/internal/common/metrics"
	"career-matching/internal/matching/classifier"
	"career-matching/internal/matching/encoders"
	"career-matching/internal/matching/features"
	"career-matching/internal/matching/similarity"
	"career-matching/internal/models"
)

const (
	DefaultTopK = 3

	DefaultDescription  = "No description available"
	DefaultIndustryType = "Not specified"

	explanationLimit = 3
)

// Catalog is the lookup the assembler needs from a snapshot.
type Catalog interface {
	Lookup(name string) (models.CareerCatalogEntry, bool)
}

// Evidence is what the user supplied that the encoders recognise, in input order.
type Evidence struct {
	Skills         []string
	Interests      []string
	EducationLevel string
}

// EvidenceFromVector reuses the tokens the feature builder already matched.
func EvidenceFromVector(fv *features.FeatureVector) Evidence {
	return Evidence{
		Skills:         append([]string(nil), fv.Skills...),
		Interests:      append([]string(nil), fv.Interests...),
		EducationLevel: fv.EducationLabel,
	}
}

// EvidenceFromInput normalizes raw tokens and keeps those in the set's vocabularies. Without a
// set every normalized token counts.
func EvidenceFromInput(skills, interests []string, education string, set *encoders.EncoderSet) Evidence {
	ev := Evidence{EducationLevel: strings.TrimSpace(education)}
	if set == nil {
		ev.Skills = features.Normalize(skills)
		ev.Interests = features.Normalize(interests)
		return ev
	}
	for _, tok := range features.NormalizeWithVocabulary(skills, set.Skills) {
		if set.Skills.Contains(tok) {
			ev.Skills = append(ev.Skills, tok)
		}
	}
	for _, tok := range features.NormalizeWithVocabulary(interests, set.Interests) {
		if set.Interests.Contains(tok) {
			ev.Interests = append(ev.Interests, tok)
		}
	}
	return ev
}

type Assembler struct {
	logger logger.Logger
}

func New(log logger.Logger) *Assembler {
	return &Assembler{logger: logger.ForComponent(log, "assembler")}
}

// Assemble builds both labelled lists. Either input may be nil when its path did not run.
func (a *Assembler) Assemble(preds []classifier.Prediction, matches []similarity.Match, cat Catalog, ev Evidence, topK int) (models.RecommendationSet, []models.Warning) {
	var set models.RecommendationSet
	var warnings []models.Warning
	if preds != nil {
		set.Classifier, warnings = a.FromClassifier(preds, cat, ev, topK)
	}
	if matches != nil {
		set.Similarity = a.FromSimilarity(matches, ev, topK)
	}
	return set, warnings
}

// FromClassifier scores each prediction as round(p*1000). A career missing from the catalog gets
// placeholder details and a CATALOG_LOOKUP_MISS warning.
func (a *Assembler) FromClassifier(preds []classifier.Prediction, cat Catalog, ev Evidence, topK int) ([]models.Recommendation, []models.Warning) {
	n := limit(len(preds), topK)
	recs := make([]models.Recommendation, 0, n)
	var warnings []models.Warning
	explanation := explain(ev, true)

	for _, p := range preds[:n] {
		rec := models.Recommendation{
			Title:       p.Label,
			MatchScore:  math.Round(p.Probability * 1000),
			ScoreScale:  models.ScaleProbabilityPermille,
			Source:      models.SourceClassifier,
			Explanation: explanation.clone(),
		}

		entry, ok := lookup(cat, p.Label)
		if ok {
			fill(&rec, entry)
		} else {
			rec.Description = DefaultDescription
			rec.RequiredSkills = []string{}
			rec.IndustryType = DefaultIndustryType
			warnings = append(warnings, models.Warning{
				Code:    string(apperrors.WarnCodeCatalogLookupMiss),
				Field:   "title",
				Value:   p.Label,
				Message: fmt.Sprintf("%q has no catalog entry; default details used", p.Label),
			})
			metrics.CatalogMisses.Inc()
			a.logger.Warn("predicted career missing from catalog", map[string]interface{}{"career": p.Label})
		}
		recs = append(recs, rec)
	}
	return recs, warnings
}

// FromSimilarity uses the weighted confidence as the score. Entries come from the catalog, so no
// lookup can miss.
func (a *Assembler) FromSimilarity(matches []similarity.Match, ev Evidence, topK int) []models.Recommendation {
	n := limit(len(matches), topK)
	recs := make([]models.Recommendation, 0, n)
	for _, m := range matches[:n] {
		educationMatch := ev.EducationLevel != "" &&
			strings.EqualFold(strings.TrimSpace(m.Entry.Qualifications), ev.EducationLevel)
		rec := models.Recommendation{
			Title:       m.Entry.Name,
			MatchScore:  m.Confidence,
			ScoreScale:  models.ScaleWeightedSimilarity,
			Source:      models.SourceSimilarity,
			Explanation: explain(ev, educationMatch).clone(),
		}
		fill(&rec, m.Entry)
		recs = append(recs, rec)
	}
	return recs
}

func limit(n, topK int) int {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if n < topK {
		return n
	}
	return topK
}

func lookup(cat Catalog, name string) (models.CareerCatalogEntry, bool) {
	if cat == nil {
		return models.CareerCatalogEntry{}, false
	}
	return cat.Lookup(name)
}

func fill(rec *models.Recommendation, e models.CareerCatalogEntry) {
	rec.Description = e.Description
	if rec.Description == "" {
		rec.Description = DefaultDescription
	}
	rec.RequiredSkills = append([]string{}, e.RequiredSkills...)
	rec.IndustryType = e.IndustryType
	if rec.IndustryType == "" {
		rec.IndustryType = DefaultIndustryType
	}
}

type explanation models.Explanation

func explain(ev Evidence, educationMatch bool) explanation {
	return explanation{
		Skills:         firstN(ev.Skills, explanationLimit),
		Interests:      firstN(ev.Interests, explanationLimit),
		EducationMatch: educationMatch,
	}
}

func (e explanation) clone() models.Explanation {
	return models.Explanation{
		Skills:         append([]string{}, e.Skills...),
		Interests:      append([]string{}, e.Interests...),
		EducationMatch: e.EducationMatch,
	}
}

func firstN(tokens []string, n int) []string {
	if len(tokens) > n {
		tokens = tokens[:n]
	}
	return append([]string{}, tokens...)
}
