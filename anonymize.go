package main

import (
	"fmt"
	"strings"
)

// AnonymizedBundle maps opaque labels to the successful Stage-1 responses of
// a single turn. Labels are scoped to that turn and never reused across
// turns.
type AnonymizedBundle struct {
	// Labels in council display order
	Labels []string
	// LabelToModel is the reverse mapping used for de-anonymization
	LabelToModel map[string]string
	// Responses maps each label to its response text
	Responses map[string]string
}

// responseLabel returns the positional label for index i ("Response A",
// "Response B", ...).
func responseLabel(i int) string {
	return fmt.Sprintf("Response %s", string(rune('A'+i)))
}

// BuildAnonymizedBundle assigns anonymized labels to the successful Stage-1
// responses. stage1Results must be in the council's display order; failed
// members are skipped and consume no label, so the label count always equals
// the successful response count.
func BuildAnonymizedBundle(stage1Results []Stage1Response) AnonymizedBundle {
	bundle := AnonymizedBundle{
		LabelToModel: make(map[string]string),
		Responses:    make(map[string]string),
	}

	for _, result := range stage1Results {
		if !result.OK() {
			continue
		}
		label := responseLabel(len(bundle.Labels))
		bundle.Labels = append(bundle.Labels, label)
		bundle.LabelToModel[label] = result.Model
		bundle.Responses[label] = result.Response
	}

	return bundle
}

// PromptBlock renders the bundle as the anonymized text block shown to
// evaluators.
func (b AnonymizedBundle) PromptBlock() string {
	var text strings.Builder
	for _, label := range b.Labels {
		text.WriteString(fmt.Sprintf("%s:\n%s\n\n", label, b.Responses[label]))
	}
	return text.String()
}

// RevealLabels substitutes each anonymized label in text with its model
// name. This is a display-only transform; stored ranking text is never
// mutated.
func RevealLabels(text string, labelToModel map[string]string) string {
	pairs := make([]string, 0, len(labelToModel)*2)
	for label, model := range labelToModel {
		pairs = append(pairs, label, model)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
