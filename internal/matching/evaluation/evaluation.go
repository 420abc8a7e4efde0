// Package evaluation scores recommendations against a user's known career.
package evaluation

import "strings"

const DefaultK = 5

// Result is the per-user Precision@K report.
type Result struct {
	UserID           string   `json:"userId,omitempty"`
	ActualCareer     string   `json:"actualCareer"`
	PredictedCareers []string `json:"predictedCareers"`
	K                int      `json:"k"`
	PrecisionAtK     float64  `json:"precisionAtK"`
}

// PrecisionAtK is 1 when actual appears among the first k predictions, else 0. Names compare
// case-insensitively after trimming. A non-positive k uses DefaultK.
func PrecisionAtK(actual string, predicted []string, k int) float64 {
	actual = strings.TrimSpace(actual)
	if actual == "" {
		return 0
	}
	for _, p := range truncate(predicted, k) {
		if strings.EqualFold(strings.TrimSpace(p), actual) {
			return 1
		}
	}
	return 0
}

// Evaluate builds the report for one user.
func Evaluate(userID, actual string, predicted []string, k int) Result {
	if k <= 0 {
		k = DefaultK
	}
	top := append([]string{}, truncate(predicted, k)...)
	return Result{
		UserID:           userID,
		ActualCareer:     strings.TrimSpace(actual),
		PredictedCareers: top,
		K:                k,
		PrecisionAtK:     PrecisionAtK(actual, top, k),
	}
}

// Mean averages PrecisionAtK over a batch. An empty batch scores 0.
func Mean(results []Result) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.PrecisionAtK
	}
	return sum / float64(len(results))
}

func truncate(predicted []string, k int) []string {
	if k <= 0 {
		k = DefaultK
	}
	if len(predicted) > k {
		return predicted[:k]
	}
	return predicted
}
