package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const defaultAPIBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Extractor turns a video's title, description, and transcript into a
// structured job-posting judgment using the Gemini API. The model's
// output is treated as untrusted input: it is parsed against a strict
// schema and sanitized before anything downstream sees it.
type Extractor struct {
	httpClient *http.Client
	apiKey     string
	model      string
	apiBaseURL string
}

func NewExtractor(httpClient *http.Client, apiKey, model string) *Extractor {
	return &Extractor{
		httpClient: httpClient,
		apiKey:     apiKey,
		model:      model,
		apiBaseURL: defaultAPIBaseURL,
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Extract asks the model for a job-posting judgment on one video.
func (e *Extractor) Extract(ctx context.Context, title, description, transcript string) (*Result, error) {
	if e.apiKey == "" {
		return nil, fmt.Errorf("extractor API key not configured")
	}

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: buildPrompt(title, description, transcript)}}}},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", e.apiBaseURL, e.model, e.apiKey)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call extraction model: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extraction model HTTP error: %d %s", resp.StatusCode, string(respBody))
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("model returned no candidates")
	}

	return parseResult(genResp.Candidates[0].Content.Parts[0].Text)
}

func buildPrompt(title, description, transcript string) string {
	return fmt.Sprintf(`You are an expert job-posting analyst. A YouTube video's title, description, and transcript follow.

Title:
"""
%s
"""

Description:
"""
%s
"""

Transcript:
"""
%s
"""

Decide whether this video announces job openings. Return ONLY valid JSON (no markdown, no explanation) with this exact structure:
{
  "isJobVideo": false,
  "openings": [
    {
      "company": "Company name",
      "role": "Job title",
      "employmentType": "Full-time|Part-time|Internship|Contract",
      "workMode": "Remote|Hybrid|On-site",
      "duration": null,
      "location": "City or country",
      "requiredSkills": ["Skill names"],
      "applyLink": "URL mentioned in the video or description",
      "summary": "One-sentence summary of the opening"
    }
  ]
}

Set isJobVideo to true only when the video announces at least one concrete opening. Use null for duration unless a fixed term is stated. Leave unknown string fields empty.`, title, description, transcript)
}
