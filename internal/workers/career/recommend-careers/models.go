package recommendcareers

import (
	"career-matching/internal/matching/similarity"
	"career-matching/internal/models"
)

type Input struct {
	UserID           string              `json:"userId,omitempty"`
	Age              *float64            `json:"age,omitempty"`
	Education        string              `json:"education,omitempty"`
	Skills           []string            `json:"skills,omitempty"`
	Interests        []string            `json:"interests,omitempty"`
	CareerPreference string              `json:"careerPreference,omitempty"`
	Experience       *float64            `json:"experience,omitempty"`
	TopK             int                 `json:"topK,omitempty"`
	Strategy         string              `json:"strategy,omitempty"`
	Weights          *similarity.Weights `json:"weights,omitempty"`
}

type Output struct {
	Recommendations models.RecommendationSet `json:"recommendations"`
	Strategy        string                   `json:"strategy"`
	ModelVersion    string                   `json:"modelVersion"`
	CatalogVersion  string                   `json:"catalogVersion"`
	Warnings        []models.Warning         `json:"warnings"`
}

// InputSchema requires either a profile id or an education value to build features from.
const InputSchema = `{
  "type": "object",
  "anyOf": [
    {"required": ["education"]},
    {"required": ["userId"]}
  ],
  "properties": {
    "userId": {"type": "string", "minLength": 1},
    "age": {"type": "number", "minimum": 0, "maximum": 120},
    "education": {"type": "string", "minLength": 1, "maxLength": 100},
    "skills": {"type": "array", "items": {"type": "string", "maxLength": 500}, "maxItems": 100},
    "interests": {"type": "array", "items": {"type": "string", "maxLength": 500}, "maxItems": 100},
    "careerPreference": {"type": "string", "maxLength": 1000},
    "experience": {"type": "number", "minimum": 0, "maximum": 80},
    "topK": {"type": "integer", "minimum": 1, "maximum": 50},
    "strategy": {"type": "string", "enum": ["classifier", "similarity", "both"]},
    "weights": {
      "type": "object",
      "properties": {
        "skills": {"type": "number", "minimum": 0},
        "qualifications": {"type": "number", "minimum": 0},
        "industry": {"type": "number", "minimum": 0}
      },
      "additionalProperties": false
    }
  }
}`
