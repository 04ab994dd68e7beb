package main

import (
	"strings"
	"testing"
)

// TestBuildAnonymizedBundle verifies label assignment over the successful
// Stage-1 subset
func TestBuildAnonymizedBundle(t *testing.T) {
	tests := []struct {
		name           string
		stage1         []Stage1Response
		expectedLabels []string
		expectedModels map[string]string
	}{
		{
			name: "all members succeed",
			stage1: []Stage1Response{
				{Model: "model-a", Response: "answer a"},
				{Model: "model-b", Response: "answer b"},
				{Model: "model-c", Response: "answer c"},
			},
			expectedLabels: []string{"Response A", "Response B", "Response C"},
			expectedModels: map[string]string{
				"Response A": "model-a",
				"Response B": "model-b",
				"Response C": "model-c",
			},
		},
		{
			name: "failed member consumes no label",
			stage1: []Stage1Response{
				{Model: "model-a", Response: "answer a"},
				{Model: "model-b", Error: "provider error"},
				{Model: "model-c", Response: "answer c"},
			},
			expectedLabels: []string{"Response A", "Response B"},
			expectedModels: map[string]string{
				"Response A": "model-a",
				"Response B": "model-c",
			},
		},
		{
			name: "all members fail",
			stage1: []Stage1Response{
				{Model: "model-a", Error: "boom"},
				{Model: "model-b", Error: "boom"},
			},
			expectedLabels: []string{},
			expectedModels: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewTestHelper(t)
			bundle := BuildAnonymizedBundle(tt.stage1)

			h.AssertStringSliceEqual(bundle.Labels, tt.expectedLabels, "labels")
			h.AssertEqual(len(bundle.LabelToModel), len(tt.expectedModels), "label map size")
			for label, model := range tt.expectedModels {
				h.AssertEqual(bundle.LabelToModel[label], model, "mapping for "+label)
			}

			// Label count always equals the successful response count
			successes := 0
			for _, entry := range tt.stage1 {
				if entry.OK() {
					successes++
				}
			}
			h.AssertEqual(len(bundle.Labels), successes, "label count vs successes")

			// Labels map injectively onto models
			seen := make(map[string]bool)
			for _, model := range bundle.LabelToModel {
				if seen[model] {
					t.Errorf("Model %s assigned to more than one label", model)
				}
				seen[model] = true
			}
		})
	}
}

// TestBundlePromptBlock verifies each label precedes its response text
func TestBundlePromptBlock(t *testing.T) {
	bundle := BuildAnonymizedBundle([]Stage1Response{
		{Model: "model-a", Response: "alpha answer"},
		{Model: "model-b", Response: "beta answer"},
	})

	block := bundle.PromptBlock()
	wantOrder := []string{"Response A:", "alpha answer", "Response B:", "beta answer"}
	last := -1
	for _, token := range wantOrder {
		idx := strings.Index(block, token)
		if idx < 0 {
			t.Fatalf("Prompt block missing %q:\n%s", token, block)
		}
		if idx < last {
			t.Errorf("Token %q out of order in prompt block", token)
		}
		last = idx
	}

	// Model names must never leak into the anonymized block
	for _, model := range []string{"model-a", "model-b"} {
		if strings.Contains(block, model) {
			t.Errorf("Prompt block leaks model name %s", model)
		}
	}
}

// TestRevealLabels verifies substituting labels back recovers model names
func TestRevealLabels(t *testing.T) {
	bundle := BuildAnonymizedBundle([]Stage1Response{
		{Model: "openai/gpt-5.1", Response: "one"},
		{Model: "x-ai/grok-4", Response: "two"},
	})

	text := "I prefer Response B over Response A, though Response A is concise."
	revealed := RevealLabels(text, bundle.LabelToModel)

	want := "I prefer x-ai/grok-4 over openai/gpt-5.1, though openai/gpt-5.1 is concise."
	if revealed != want {
		t.Errorf("Got %q, want %q", revealed, want)
	}

	// The original text is untouched
	if !strings.Contains(text, "Response B") {
		t.Error("RevealLabels mutated its input")
	}
}

// TestRevealLabelsNoLabels leaves text without labels unchanged
func TestRevealLabelsNoLabels(t *testing.T) {
	labelToModel := map[string]string{"Response A": "model-a"}
	text := "No labels here at all."
	if got := RevealLabels(text, labelToModel); got != text {
		t.Errorf("Got %q, want %q", got, text)
	}
}
