package classify

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// JSON Schemas for the model's structured response. The raw response is
// checked structurally here before any semantic validation or repair runs.

const lightSchema = `{
  "type": "object",
  "required": ["expanded_type_code", "difficulty", "cognitive_domain", "confidence"],
  "properties": {
    "expanded_type_code": {"type": "string", "minLength": 1},
    "difficulty": {"type": "integer", "minimum": 1, "maximum": 5},
    "cognitive_domain": {
      "type": "string",
      "enum": ["CALCULATION", "UNDERSTANDING", "INFERENCE", "PROBLEM_SOLVING"]
    },
    "confidence": {"type": "number", "minimum": 0, "maximum": 1}
  }
}`

const fullSchema = `{
  "type": "object",
  "required": ["expanded_type_code", "difficulty", "cognitive_domain", "confidence", "difficulty_scoring"],
  "properties": {
    "expanded_type_code": {"type": "string", "minLength": 1},
    "difficulty": {"type": "integer", "minimum": 1, "maximum": 5},
    "cognitive_domain": {
      "type": "string",
      "enum": ["CALCULATION", "UNDERSTANDING", "INFERENCE", "PROBLEM_SOLVING"]
    },
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "difficulty_scoring": {
      "type": "object",
      "required": ["concept_count", "step_count", "expression_complexity", "unknown_count", "calc_complexity", "trap_element"],
      "properties": {
        "concept_count": {"type": "integer"},
        "step_count": {"type": "integer"},
        "expression_complexity": {"type": "integer"},
        "unknown_count": {"type": "integer"},
        "calc_complexity": {"type": "integer"},
        "trap_element": {"type": "integer"},
        "total": {"type": "integer"},
        "grade": {"type": "string"}
      }
    }
  }
}`

// CheckSchema validates a raw model response against the schema for the
// given mode. Schema violations are contract violations: the response is
// rejected, not repaired.
func CheckSchema(raw []byte, mode Mode) error {
	schema := lightSchema
	if mode == ModeFull {
		schema = fullSchema
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("response is not valid JSON: %w", err)
	}
	if !result.Valid() {
		errs := result.Errors()
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("response schema violation: %v", msgs)
	}
	return nil
}
