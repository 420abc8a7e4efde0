// Package predictionlog persists delivered recommendations for later evaluation.
package predictionlog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/google/uuid"

	"career-matching/internal/common/database"
	apperrors "career-matching/internal/common/errors"
	"career-matching/internal/common/logger"
	"career-matching/internal/models"
)

var tablePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

type Writer struct {
	db     *database.PostgresClient
	table  string
	logger logger.Logger
	now    func() time.Time
	newID  func() string
}

func NewWriter(db *database.PostgresClient, table string, log logger.Logger) (*Writer, error) {
	if table == "" {
		table = "prediction_results"
	}
	if !tablePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid prediction table name %q", table)
	}
	return &Writer{
		db:     db,
		table:  table,
		logger: logger.ForComponent(log, "prediction-log"),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}, nil
}

// Records converts one recommendation set into log rows. Ranks are 1-based within each source.
func (w *Writer) Records(userID, modelVersion string, set models.RecommendationSet) []models.PredictionRecord {
	createdAt := w.now()
	records := make([]models.PredictionRecord, 0, len(set.Classifier)+len(set.Similarity))
	add := func(recs []models.Recommendation) {
		for i, r := range recs {
			records = append(records, models.PredictionRecord{
				ID:              w.newID(),
				UserID:          userID,
				PredictedCareer: r.Title,
				Confidence:      Confidence(r),
				Source:          r.Source,
				Rank:            i + 1,
				ModelVersion:    modelVersion,
				CreatedAt:       createdAt,
			})
		}
	}
	add(set.Classifier)
	add(set.Similarity)
	return records
}

// Write inserts all records in one transaction.
func (w *Writer) Write(ctx context.Context, records []models.PredictionRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := w.db.DB.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.NewDatabaseConnectionFailedError(err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, predicted_career, confidence_score, source, rank, model_version, created_at)
		VALUES (:id, :user_id, :predicted_career, :confidence_score, :source, :rank, :model_version, :created_at)`, w.table)

	for _, rec := range records {
		if _, err := tx.NamedExecContext(ctx, query, rec); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return apperrors.NewQueryTimeoutError(string(models.QueryTypePredictionLog))
			}
			return apperrors.NewDatabaseInsertFailedError(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return apperrors.NewDatabaseInsertFailedError(err)
	}

	w.logger.Info("prediction log written", map[string]interface{}{
		"userId": records[0].UserID,
		"rows":   len(records),
	})
	return nil
}

// Confidence maps a score onto [0,1] for storage, rounded to two decimals. Classifier scores are
// stored as the probability they were derived from.
func Confidence(r models.Recommendation) float64 {
	v := r.MatchScore
	if r.ScoreScale == models.ScaleProbabilityPermille {
		v /= 1000
	}
	return math.Round(v*100) / 100
}
