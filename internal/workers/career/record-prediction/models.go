package recordprediction

import "career-matching/internal/models"

type Input struct {
	UserID          string                   `json:"userId"`
	ModelVersion    string                   `json:"modelVersion,omitempty"`
	Recommendations models.RecommendationSet `json:"recommendations"`
}

type Output struct {
	RecordedCount int      `json:"recordedCount"`
	PredictionIDs []string `json:"predictionIds"`
}

const InputSchema = `{
  "type": "object",
  "required": ["userId", "recommendations"],
  "properties": {
    "userId": {"type": "string", "minLength": 1},
    "modelVersion": {"type": "string"},
    "recommendations": {
      "type": "object",
      "properties": {
        "classifier": {"type": "array", "items": {"$ref": "#/definitions/recommendation"}},
        "similarity": {"type": "array", "items": {"$ref": "#/definitions/recommendation"}}
      }
    }
  },
  "definitions": {
    "recommendation": {
      "type": "object",
      "required": ["title", "matchScore"],
      "properties": {
        "title": {"type": "string", "minLength": 1},
        "matchScore": {"type": "number", "minimum": 0}
      }
    }
  }
}`
