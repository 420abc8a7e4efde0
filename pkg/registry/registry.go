package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &reg, nil
}

// Save writes the registry as indented JSON.
func (r *ActivityRegistry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Find returns the activity registered for taskType.
func (r *ActivityRegistry) Find(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

// Validate reports duplicate or missing task types and activities without an input schema.
func (r *ActivityRegistry) Validate() []string {
	var problems []string
	seen := make(map[string]bool, len(r.Activities))
	for i, a := range r.Activities {
		switch {
		case a.TaskType == "":
			problems = append(problems, fmt.Sprintf("activity %d (%s) has no taskType", i, a.ID))
		case seen[a.TaskType]:
			problems = append(problems, fmt.Sprintf("taskType %s registered more than once", a.TaskType))
		}
		seen[a.TaskType] = true
		if len(a.InputSchema) == 0 {
			problems = append(problems, fmt.Sprintf("activity %s has no inputSchema", a.ID))
		}
	}
	return problems
}

// Missing lists the task types in want that the registry does not describe, sorted.
func (r *ActivityRegistry) Missing(want []string) []string {
	var missing []string
	for _, t := range want {
		if _, ok := r.Find(t); !ok {
			missing = append(missing, t)
		}
	}
	sort.Strings(missing)
	return missing
}

// SchemaFromJSON decodes a JSON Schema document for InputSchema.
func SchemaFromJSON(schema string) (map[string]interface{}, error) {
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(schema), &m); err != nil {
		return nil, err
	}
	return m, nil
}
