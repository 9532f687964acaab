package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/wealth-advisor/internal/model"
)

// rawSnippetLimit bounds the raw response carried by parse errors.
const rawSnippetLimit = 500

// cleanMarkdownWrapper strips surrounding whitespace and, when the text
// contains a ``` fence, returns only the first fenced block with an optional
// json language tag removed.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if !strings.Contains(content, "```") {
		return content
	}

	parts := strings.Split(content, "```")
	block := strings.TrimSpace(parts[1])
	if len(block) >= 4 && strings.EqualFold(block[:4], "json") {
		block = strings.TrimSpace(block[4:])
	}
	return block
}

// parsePayload decodes model output into a JSON object. A reply that is
// already a JSON object is used as-is, so backticks inside string values are
// left alone.
func parsePayload(content string) (model.Payload, error) {
	var payload model.Payload
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &payload); err == nil && payload != nil {
		return payload, nil
	}

	cleaned := cleanMarkdownWrapper(content)
	payload = nil
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	if payload == nil {
		return nil, fmt.Errorf("response is not a JSON object")
	}
	return payload, nil
}

// snippet returns at most rawSnippetLimit characters of s, with an ellipsis
// when it was cut.
func snippet(s string) string {
	runes := []rune(s)
	if len(runes) <= rawSnippetLimit {
		return s
	}
	return string(runes[:rawSnippetLimit]) + "..."
}
