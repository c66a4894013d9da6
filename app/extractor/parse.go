package extractor

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseResult decodes the model's text output into a Result, tolerating
// markdown code fences around the JSON, and sanitizes it.
func parseResult(text string) (*Result, error) {
	cleaned := stripCodeFences(text)
	if cleaned == "" {
		return nil, fmt.Errorf("model returned empty output")
	}

	var result Result
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("model output is not valid JSON: %w", err)
	}

	sanitize(&result)

	return &result, nil
}

// stripCodeFences removes a surrounding ```json ... ``` block, which
// models emit despite instructions not to.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	return strings.TrimSpace(text)
}

// sanitize enforces the schema at the trust boundary: strings are
// trimmed, blank skills dropped, and openings naming neither a company
// nor a role discarded. A video whose openings all fail sanitization is
// no longer a job video.
func sanitize(result *Result) {
	openings := make([]Opening, 0, len(result.Openings))

	for _, opening := range result.Openings {
		opening.Company = strings.TrimSpace(opening.Company)
		opening.Role = strings.TrimSpace(opening.Role)
		opening.EmploymentType = strings.TrimSpace(opening.EmploymentType)
		opening.WorkMode = strings.TrimSpace(opening.WorkMode)
		opening.Location = strings.TrimSpace(opening.Location)
		opening.ApplyLink = strings.TrimSpace(opening.ApplyLink)
		opening.Summary = strings.TrimSpace(opening.Summary)

		if opening.Duration != nil {
			trimmed := strings.TrimSpace(*opening.Duration)
			if trimmed == "" {
				opening.Duration = nil
			} else {
				opening.Duration = &trimmed
			}
		}

		skills := make([]string, 0, len(opening.RequiredSkills))
		for _, skill := range opening.RequiredSkills {
			if skill = strings.TrimSpace(skill); skill != "" {
				skills = append(skills, skill)
			}
		}
		opening.RequiredSkills = skills

		if opening.Company == "" && opening.Role == "" {
			continue
		}

		openings = append(openings, opening)
	}

	result.Openings = openings
	if len(result.Openings) == 0 {
		result.IsJobVideo = false
	}
}
