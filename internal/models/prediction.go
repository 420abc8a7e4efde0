package models

import "time"

// PredictionRecord is one row of the prediction log.
type PredictionRecord struct {
	ID              string    `json:"id" db:"id"`
	UserID          string    `json:"userId" db:"user_id"`
	PredictedCareer string    `json:"predictedCareer" db:"predicted_career"`
	Confidence      float64   `json:"confidence" db:"confidence_score"`
	Source          string    `json:"source" db:"source"`
	Rank            int       `json:"rank" db:"rank"`
	ModelVersion    string    `json:"modelVersion" db:"model_version"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}
