package models

// UserProfile is the stored user record. Read-only to the matching pipeline.
type UserProfile struct {
	UserID           string   `json:"userId"`
	Name             string   `json:"name"`
	Age              *float64 `json:"age,omitempty"`
	Gender           string   `json:"gender,omitempty"`
	EducationLevel   string   `json:"educationLevel"`
	Experience       float64  `json:"experience"`
	CareerPreference string   `json:"careerPreference"`
	Skills           string   `json:"skills"`
	Interests        string   `json:"interests,omitempty"`
	ActualCareer     string   `json:"actualCareer,omitempty"`
}
