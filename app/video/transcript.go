package video

import (
	"encoding/xml"
	"fmt"
	"html"
	"strings"
)

type transcriptXML struct {
	XMLName xml.Name `xml:"transcript"`
	Texts   []string `xml:"text"`
}

// parseTranscript flattens a timedtext caption document into one plain
// text string. Caption lines are HTML-entity encoded in the XML.
func parseTranscript(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("no transcript available")
	}

	var doc transcriptXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("failed to parse caption XML: %w", err)
	}

	if len(doc.Texts) == 0 {
		return "", fmt.Errorf("caption track is empty")
	}

	parts := make([]string, 0, len(doc.Texts))
	for _, line := range doc.Texts {
		line = strings.TrimSpace(html.UnescapeString(line))
		if line != "" {
			parts = append(parts, line)
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("caption track is empty")
	}

	return strings.Join(parts, " "), nil
}
