package file

import (
	"fmt"
	"strings"

	"github.com/dukex/driveflow/pkg/persistence"
	"github.com/xeipuuv/gojsonschema"
)

var stringList = map[string]any{
	"type":  []any{"array", "null"},
	"items": map[string]any{"type": "string"},
}

var workflowSchema = map[string]any{
	"type":     "object",
	"required": []any{"id", "owner_id", "flow_path"},
	"properties": map[string]any{
		"id":          map[string]any{"type": "string", "minLength": 1},
		"owner_id":    map[string]any{"type": "string"},
		"name":        map[string]any{"type": "string"},
		"published":   map[string]any{"type": "boolean"},
		"flow_path":   stringList,
		"resume_path": stringList,
		"chat_notify": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"channels": stringList,
			},
		},
	},
}

var userSchema = map[string]any{
	"type":     "object",
	"required": []any{"id", "credits"},
	"properties": map[string]any{
		"id":          map[string]any{"type": "string", "minLength": 1},
		"credits":     map[string]any{"type": "string"},
		"resource_id": map[string]any{"type": "string"},
	},
}

// validateDocument checks a raw stored document before it is decoded, so a
// hand-edited or foreign record is reported instead of half-loaded.
func validateDocument(schema map[string]any, body []byte) error {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", persistence.ErrInvalidDocument, err)
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}

		return fmt.Errorf("%w: %s", persistence.ErrInvalidDocument, strings.Join(errors, "; "))
	}

	return nil
}
