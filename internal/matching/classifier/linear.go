package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// LinearModel is a multinomial logistic classifier stored as JSON: one weight row per target
// class, one column per schema feature. It backs artifact bundles exported without ONNX.
type LinearModel struct {
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// LoadLinearModel reads path and checks the matrix shape against the bundle.
func LoadLinearModel(path string, numFeatures, numClasses int) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := m.validate(numFeatures, numClasses); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *LinearModel) validate(numFeatures, numClasses int) error {
	if len(m.Weights) != numClasses {
		return fmt.Errorf("model has %d weight rows, target encoder has %d classes", len(m.Weights), numClasses)
	}
	for i, row := range m.Weights {
		if len(row) != numFeatures {
			return fmt.Errorf("weight row %d has %d columns, schema has %d features", i, len(row), numFeatures)
		}
	}
	if m.Bias != nil && len(m.Bias) != numClasses {
		return fmt.Errorf("model has %d bias terms, expected %d", len(m.Bias), numClasses)
	}
	return nil
}

// PredictProba returns softmax(W·x + b).
func (m *LinearModel) PredictProba(ctx context.Context, features []float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logits := make([]float64, len(m.Weights))
	maxLogit := math.Inf(-1)
	for c, row := range m.Weights {
		if len(row) != len(features) {
			return nil, fmt.Errorf("expected %d features, got %d", len(row), len(features))
		}
		z := 0.0
		if m.Bias != nil {
			z = m.Bias[c]
		}
		for j, w := range row {
			z += w * features[j]
		}
		logits[c] = z
		if z > maxLogit {
			maxLogit = z
		}
	}

	sum := 0.0
	for c, z := range logits {
		logits[c] = math.Exp(z - maxLogit)
		sum += logits[c]
	}
	for c := range logits {
		logits[c] /= sum
	}
	return logits, nil
}

func (m *LinearModel) Close() error { return nil }
