package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rbelous/phishscope/internal/model"
)

var (
	thinkPattern  = regexp.MustCompile(`(?s)<think>.*?</think>`)
	fencedPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	bracesPattern = regexp.MustCompile(`(?s)(\{.*\})`)
)

// verdictPayload is the fixed response schema the prompt demands.
type verdictPayload struct {
	Label      string   `json:"label"`
	Confidence float64  `json:"confidence"`
	Rationale  string   `json:"rationale"`
	Anomalies  []string `json:"anomalies"`
}

// extractJSON pulls the JSON object out of a model reply, tolerating fenced
// code blocks, reasoning tags, and surrounding prose.
func extractJSON(text string) (string, bool) {
	text = thinkPattern.ReplaceAllString(text, "")

	if m := fencedPattern.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	if m := bracesPattern.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	return "", false
}

// parseVerdict validates raw model output against the verdict schema.
// Anything that does not strictly conform is an error; the caller decides
// whether to re-prompt.
func parseVerdict(text string) (model.ReasoningVerdict, error) {
	raw, found := extractJSON(text)
	if !found {
		return model.ReasoningVerdict{}, fmt.Errorf("no JSON object in response")
	}

	var payload verdictPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return model.ReasoningVerdict{}, fmt.Errorf("decode response: %w", err)
	}

	label := model.Label(strings.ToLower(strings.TrimSpace(payload.Label)))
	switch label {
	case model.LabelPhishing, model.LabelBenign, model.LabelUncertain:
	default:
		return model.ReasoningVerdict{}, fmt.Errorf("invalid label %q", payload.Label)
	}

	if payload.Confidence < 0 || payload.Confidence > 1 {
		return model.ReasoningVerdict{}, fmt.Errorf("confidence %v out of [0,1]", payload.Confidence)
	}

	anomalies := make([]string, 0, len(payload.Anomalies))
	for _, a := range payload.Anomalies {
		if a = strings.TrimSpace(a); a != "" {
			anomalies = append(anomalies, a)
		}
	}

	return model.ReasoningVerdict{
		Status:     model.StatusAvailable,
		Label:      label,
		Confidence: payload.Confidence,
		Rationale:  strings.TrimSpace(payload.Rationale),
		Anomalies:  anomalies,
	}, nil
}
