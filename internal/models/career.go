package models

import "strings"

// CareerCatalogEntry is one row of the careers catalog. Name is the unique key and is compared
// case-insensitively.
type CareerCatalogEntry struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	RequiredSkills []string `json:"requiredSkills"`
	Qualifications string   `json:"qualifications"`
	IndustryType   string   `json:"industryType"`
}

// SkillsText joins required skills the way the vectorizer consumes them.
func (c CareerCatalogEntry) SkillsText() string {
	return strings.Join(c.RequiredSkills, ", ")
}
