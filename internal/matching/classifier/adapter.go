// Package classifier wraps the trained career model and turns its probabilities into ranked,
// decoded labels.
package classifier

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	apperrors "career-matching/internal/common/errors"
	"career-matching/internal/common/logger"
	"career-matching/internal/common/metrics"
	"career-matching/internal/matching/encoders"
	"career-matching/internal/matching/features"
)

// Prediction is one decoded class with its probability.
type Prediction struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
	ClassIndex  int     `json:"classIndex"`
}

type Adapter struct {
	logger logger.Logger
}

func NewAdapter(log logger.Logger) *Adapter {
	return &Adapter{logger: logger.ForComponent(log, "classifier")}
}

// Predict runs the set's model on fv and returns the topK classes by probability descending, ties
// broken by class index. The result has min(topK, classes) entries.
func (a *Adapter) Predict(ctx context.Context, fv *features.FeatureVector, set *encoders.EncoderSet, topK int) ([]Prediction, error) {
	if topK < 1 {
		return nil, apperrors.NewInputValidationError(fmt.Sprintf("topK must be at least 1, got %d", topK))
	}
	if set == nil || set.Model == nil {
		return nil, apperrors.NewArtifactLoadError(encoders.ArtifactModel, fmt.Errorf("no model loaded"))
	}
	if fv == nil {
		return nil, apperrors.NewPredictionError("no feature vector", nil)
	}
	if fv.SchemaVersion != set.Version() {
		metrics.SchemaDrift.WithLabelValues(string(apperrors.ErrCodeSchemaMismatch)).Inc()
		return nil, apperrors.NewSchemaMismatchError(
			fmt.Sprintf("feature vector built for %s, model is %s", fv.SchemaVersion, set.Version()))
	}
	if err := features.VerifyOrder(fv.Columns, set.Schema); err != nil {
		metrics.SchemaDrift.WithLabelValues(string(apperrors.ErrCodeFeatureOrderMismatch)).Inc()
		return nil, err
	}

	start := time.Now()
	probs, err := set.Model.PredictProba(ctx, fv.Values)
	metrics.InferenceDuration.WithLabelValues("classifier").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, apperrors.NewPredictionError("model inference failed", err)
	}

	return TopK(probs, set.Target, topK)
}

// TopK ranks probs and decodes the first k indices through target. A probability vector whose
// length differs from the target classes is schema drift.
func TopK(probs []float64, target *encoders.LabelEncoder, k int) ([]Prediction, error) {
	if len(probs) != target.Len() {
		metrics.SchemaDrift.WithLabelValues(string(apperrors.ErrCodePredictionFailed)).Inc()
		return nil, apperrors.NewPredictionError(
			fmt.Sprintf("model returned %d probabilities for %d target classes", len(probs), target.Len()), nil).
			WithMetadata("probabilities", len(probs)).
			WithMetadata("classes", target.Len())
	}
	for i, p := range probs {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, apperrors.NewPredictionError(fmt.Sprintf("probability %d is not finite", i), nil)
		}
	}

	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		return probs[order[x]] > probs[order[y]]
	})

	if k > len(order) {
		k = len(order)
	}
	out := make([]Prediction, 0, k)
	for _, idx := range order[:k] {
		label, err := target.Inverse(idx)
		if err != nil {
			return nil, apperrors.NewPredictionError("decode class", err)
		}
		out = append(out, Prediction{Label: label, Probability: probs[idx], ClassIndex: idx})
	}
	return out, nil
}
