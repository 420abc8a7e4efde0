package features

import (
	"fmt"

	apperrors "career-matching/internal/common/errors"
	"career-matching/internal/matching/encoders"
)

// DropDuplicateColumns keeps the first occurrence of each column name.
func DropDuplicateColumns(columns []string, values []float64) ([]string, []float64) {
	seen := make(map[string]struct{}, len(columns))
	outCols := make([]string, 0, len(columns))
	outVals := make([]float64, 0, len(values))
	for i, c := range columns {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		outCols = append(outCols, c)
		outVals = append(outVals, values[i])
	}
	return outCols, outVals
}

// ReconcileToSchema is the only place columns are aligned to the schema: columns not in the schema
// are dropped, schema columns not produced are zero-filled, and the result is in schema order.
// Duplicate input columns keep their first value.
func ReconcileToSchema(columns []string, values []float64, schema *encoders.FeatureSchema) ([]string, []float64, error) {
	if len(columns) != len(values) {
		return nil, nil, apperrors.NewFeatureOrderMismatchError(-1,
			fmt.Sprintf("%d columns", len(columns)), fmt.Sprintf("%d values", len(values)))
	}

	out := make([]float64, schema.Len())
	filled := make([]bool, schema.Len())
	for i, c := range columns {
		pos, ok := schema.Index(c)
		if !ok || filled[pos] {
			continue
		}
		out[pos] = values[i]
		filled[pos] = true
	}
	return schema.Names(), out, nil
}

// VerifyOrder asserts columns equal the schema exactly: same length, names and order.
func VerifyOrder(columns []string, schema *encoders.FeatureSchema) error {
	if len(columns) != schema.Len() {
		return apperrors.NewFeatureOrderMismatchError(len(columns),
			fmt.Sprintf("%d columns", schema.Len()), fmt.Sprintf("%d columns", len(columns)))
	}
	for i, c := range columns {
		if want := schema.At(i); c != want {
			return apperrors.NewFeatureOrderMismatchError(i, want, c)
		}
	}
	return nil
}
