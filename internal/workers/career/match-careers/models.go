package matchcareers

import (
	"career-matching/internal/matching/similarity"
	"career-matching/internal/models"
)

type Input struct {
	UserID  string              `json:"userId"`
	TopK    int                 `json:"topK,omitempty"`
	Weights *similarity.Weights `json:"weights,omitempty"`
}

type Output struct {
	UserID           string                  `json:"userId"`
	UserName         string                  `json:"userName"`
	TopCareerMatches []models.Recommendation `json:"topCareerMatches"`
	CatalogVersion   string                  `json:"catalogVersion"`
}

const InputSchema = `{
  "type": "object",
  "required": ["userId"],
  "properties": {
    "userId": {"type": "string", "pattern": "^[0-9]+$"},
    "topK": {"type": "integer", "minimum": 1, "maximum": 50},
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
