package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "type": "object",
  "required": ["education", "skills"],
  "properties": {
    "education": {"type": "string", "minLength": 1},
    "skills": {"type": "array", "items": {"type": "string"}},
    "topK": {"type": "integer", "minimum": 1, "maximum": 20},
    "strategy": {"type": "string", "enum": ["classifier", "similarity", "both"]}
  }
}`

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name      string
		input     map[string]interface{}
		valid     bool
		errField  string
		errorCode string
	}{
		{
			name:  "valid",
			input: map[string]interface{}{"education": "Bachelor's", "skills": []interface{}{"python"}},
			valid: true,
		},
		{
			name:      "missing required",
			input:     map[string]interface{}{"skills": []interface{}{}},
			errField:  "education",
			errorCode: "REQUIRED",
		},
		{
			name:      "wrong item type",
			input:     map[string]interface{}{"education": "PhD", "skills": []interface{}{1.0}},
			errField:  "skills.0",
			errorCode: "INVALID_TYPE",
		},
		{
			name:      "topK out of range",
			input:     map[string]interface{}{"education": "PhD", "skills": []interface{}{}, "topK": 50.0},
			errField:  "topK",
			errorCode: "NUMBER_LTE",
		},
		{
			name:      "bad enum",
			input:     map[string]interface{}{"education": "PhD", "skills": []interface{}{}, "strategy": "vote"},
			errField:  "strategy",
			errorCode: "ENUM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateInput(tt.input, testSchema)
			assert.Equal(t, tt.valid, result.Valid)
			if tt.valid {
				assert.Empty(t, result.Errors)
				return
			}
			require.True(t, result.HasErrors(tt.errField), "errors: %v", result.GetErrorMessages())
			fieldErrs := result.GetErrorsForField(tt.errField)
			require.NotEmpty(t, fieldErrs)
			assert.Equal(t, tt.errorCode, fieldErrs[0].Code)
		})
	}
}

func TestValidateJSON(t *testing.T) {
	result := ValidateJSON(`{"education":"Master's","skills":["go","sql"]}`, testSchema)
	assert.True(t, result.Valid)

	result = ValidateJSON(`{"education":""}`, testSchema)
	assert.False(t, result.Valid)
	assert.Len(t, result.GetErrorMessages(), len(result.Errors))
}

func TestValidateInput_BadSchema(t *testing.T) {
	result := ValidateInput(map[string]interface{}{}, `{"type": 12}`)
	assert.False(t, result.Valid)
	assert.Equal(t, "SCHEMA_INVALID", result.Errors[0].Code)
}
