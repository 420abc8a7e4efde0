package evaluatecareermatch

type Input struct {
	UserID       string `json:"userId"`
	ActualCareer string `json:"actualCareer,omitempty"`
	TopK         int    `json:"topK,omitempty"`
	Strategy     string `json:"strategy,omitempty"`
}

type Output struct {
	UserID           string   `json:"userId"`
	ActualCareer     string   `json:"actualCareer"`
	PredictedCareers []string `json:"predictedCareers"`
	K                int      `json:"k"`
	PrecisionAtK     float64  `json:"precisionAtK"`
	Strategy         string   `json:"strategy"`
	ModelVersion     string   `json:"modelVersion,omitempty"`
}

const InputSchema = `{
  "type": "object",
  "required": ["userId"],
  "properties": {
    "userId": {"type": "string", "pattern": "^[0-9]+$"},
    "actualCareer": {"type": "string", "maxLength": 200},
    "topK": {"type": "integer", "minimum": 1, "maximum": 50},
    "strategy": {"type": "string", "enum": ["classifier", "similarity"]}
  }
}`
