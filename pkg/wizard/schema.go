package wizard

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ValidatePatch checks a raw JSON field patch against a wizard's patch schema.
func ValidatePatch(schema map[string]any, body []byte) error {
	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewBytesLoader(body)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			problems = append(problems, resultErr.String())
		}

		return &PatchError{Problems: problems}
	}

	return nil
}
