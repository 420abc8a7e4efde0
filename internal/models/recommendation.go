package models

// Recommendation sources. Scores from different sources are on different scales and are never
// compared or merged.
const (
	SourceClassifier = "classifier"
	SourceSimilarity = "similarity"
)

// Score scales carried alongside each score.
const (
	ScaleProbabilityPermille = "probability_x1000"
	ScaleWeightedSimilarity  = "weighted_similarity"
)

type Explanation struct {
	Skills         []string `json:"skills"`
	Interests      []string `json:"interests"`
	EducationMatch bool     `json:"educationMatch"`
}

type Recommendation struct {
	Title          string      `json:"title"`
	MatchScore     float64     `json:"matchScore"`
	ScoreScale     string      `json:"scoreScale"`
	Source         string      `json:"source"`
	Description    string      `json:"description"`
	RequiredSkills []string    `json:"requiredSkills"`
	IndustryType   string      `json:"industryType"`
	Explanation    Explanation `json:"explanation"`
}

// RecommendationSet keeps the two scoring paths in separate, labelled fields.
type RecommendationSet struct {
	Classifier []Recommendation `json:"classifier,omitempty"`
	Similarity []Recommendation `json:"similarity,omitempty"`
}

// Warning is a non-fatal condition surfaced to the caller.
type Warning struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}
