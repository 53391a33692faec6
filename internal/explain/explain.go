// Package explain renders a fused verdict into a structured, presentation
// independent explanation.
package explain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rbelous/phishscope/internal/model"
)

// topFeatures is how many classifier contributions an explanation surfaces.
const topFeatures = 5

// Build derives the explanation object for a verdict. Pure and
// deterministic: no logic beyond reorganizing what the result already
// carries.
func Build(result *model.VerdictResult) model.Explanation {
	exp := model.Explanation{
		URL:         result.URL.Raw,
		Label:       result.Label,
		Confidence:  result.Confidence,
		Policy:      result.Policy,
		GeneratedAt: result.EvaluatedAt,
	}

	if result.Classifier != nil {
		exp.Probability = result.Classifier.Probability
		exp.TopFeatures = result.Classifier.TopContributions(topFeatures)
		exp.SignalsUsed = append(exp.SignalsUsed, "classifier")
	}
	if result.Reasoning.Available() {
		exp.Rationale = result.Reasoning.Rationale
		exp.Anomalies = result.Reasoning.Anomalies
		exp.SignalsUsed = append(exp.SignalsUsed, "llm")
	}
	if len(result.Features) > 0 {
		exp.FeatureView = result.Features.Named()
	}

	return exp
}

// RenderJSON marshals the explanation for machine consumers.
func RenderJSON(exp model.Explanation) (string, error) {
	data, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal explanation: %w", err)
	}
	return string(data), nil
}

// RenderText renders a terminal-friendly summary.
func RenderText(exp model.Explanation) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "URL:        %s\n", exp.URL)
	fmt.Fprintf(&sb, "Verdict:    %s (confidence %.2f)\n", strings.ToUpper(string(exp.Label)), exp.Confidence)
	fmt.Fprintf(&sb, "Policy:     %s\n", exp.Policy)
	fmt.Fprintf(&sb, "Signals:    %s\n", strings.Join(exp.SignalsUsed, ", "))

	if len(exp.TopFeatures) > 0 {
		fmt.Fprintf(&sb, "Classifier: P(phishing) = %.2f\n", exp.Probability)
		for _, c := range exp.TopFeatures {
			fmt.Fprintf(&sb, "  %-28s %+.3f\n", c.Feature, c.Weight)
		}
	}
	if exp.Rationale != "" {
		fmt.Fprintf(&sb, "Rationale:  %s\n", exp.Rationale)
	}
	for _, a := range exp.Anomalies {
		fmt.Fprintf(&sb, "  anomaly: %s\n", a)
	}

	return sb.String()
}
