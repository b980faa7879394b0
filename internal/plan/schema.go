package plan

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// planResponseSchema constrains the planner collaborator's JSON output: an
// object with a non-empty pages array of {page, content} pairs and nothing
// else. Responses that drift from this shape are treated as failed attempts.
const planResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["pages"],
  "additionalProperties": false,
  "properties": {
    "pages": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["page", "content"],
        "additionalProperties": false,
        "properties": {
          "page": {"type": "integer", "minimum": 1},
          "content": {"type": "string"}
        }
      }
    }
  }
}`

type planResponse struct {
	Pages []struct {
		Page    int    `json:"page"`
		Content string `json:"content"`
	} `json:"pages"`
}

// parsePlanResponse validates raw planner output against the response schema
// and decodes it into planned pages.
func parsePlanResponse(raw string) ([]PlannedPage, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(planResponseSchema),
		gojsonschema.NewStringLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("planner response is not valid JSON: %w", err)
	}
	if !result.Valid() {
		var first string
		if errs := result.Errors(); len(errs) > 0 {
			first = errs[0].String()
		}
		return nil, fmt.Errorf("planner response failed schema validation: %s", first)
	}

	var resp planResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("failed to decode planner response: %w", err)
	}

	pages := make([]PlannedPage, 0, len(resp.Pages))
	for _, p := range resp.Pages {
		pages = append(pages, PlannedPage{PageNumber: p.Page, Content: p.Content})
	}
	return pages, nil
}
