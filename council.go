package main

import (
	"context"
	"fmt"
	"strings"
)

// RunState identifies where a council run is in its lifecycle
type RunState string

const (
	StateIdle          RunState = "idle"
	StateStage1Running RunState = "stage1_running"
	StateStage1Done    RunState = "stage1_done"
	StateStage2Running RunState = "stage2_running"
	StateStage2Done    RunState = "stage2_done"
	StateStage3Running RunState = "stage3_running"
	StateComplete      RunState = "complete"
	StateAborted       RunState = "aborted"
	StateErrored       RunState = "errored"
)

// FatalOrchestrationError aborts a turn entirely; per-model provider
// failures never raise it, only conditions that make the remaining stages
// impossible.
type FatalOrchestrationError struct {
	Reason string
}

func (e *FatalOrchestrationError) Error() string {
	return e.Reason
}

// CouncilResult holds everything a run settled before finishing, aborting,
// or erroring out. Settled data is always retained, never silently dropped.
type CouncilResult struct {
	State    RunState
	Stage1   []Stage1Response
	Stage2   []Stage2Ranking
	Stage3   *Stage3Response
	Metadata Metadata
}

// CouncilOrchestrator drives the three council stages for a single turn and
// emits one event per state transition and per task settlement. A new
// orchestrator is created per turn; nothing is shared across turns except
// the read-only configuration.
type CouncilOrchestrator struct {
	client ModelClient
	config CouncilConfig
	events EventSink
	state  RunState
}

// NewCouncilOrchestrator creates an orchestrator for one turn. sink may be
// nil when the caller does not consume progress events.
func NewCouncilOrchestrator(client ModelClient, config CouncilConfig, sink EventSink) *CouncilOrchestrator {
	return &CouncilOrchestrator{
		client: client,
		config: config,
		events: sink,
		state:  StateIdle,
	}
}

// State returns the run's current lifecycle state
func (o *CouncilOrchestrator) State() RunState {
	return o.state
}

// Run executes the full 3-stage council process for one user message.
// history is the prior conversation; userQuery is the new message.
//
// The returned result always carries whatever data settled: a cancelled run
// comes back in StateAborted with partial data and a nil error, while a
// fatal condition (zero Stage-1 successes) returns StateErrored together
// with a *FatalOrchestrationError.
func (o *CouncilOrchestrator) Run(ctx context.Context, history []ChatMessage, userQuery string) (*CouncilResult, error) {
	result := &CouncilResult{State: StateIdle}

	// Stage 1: collect individual responses
	o.state = StateStage1Running
	o.events.Emit(Event{Type: EventStage1Start})

	messages := append(append([]ChatMessage{}, history...), ChatMessage{Role: "user", Content: userQuery})
	settled, err := o.collect(ctx, ModelTasks(o.client, o.config.CouncilModels, messages), Stage1ProgressEvent)

	result.Stage1 = o.stage1Entries(settled)
	if err != nil {
		o.state = StateAborted
		result.State = StateAborted
		return result, nil
	}
	o.state = StateStage1Done

	// Zero successes makes Stage 2 and Stage 3 impossible
	bundle := BuildAnonymizedBundle(result.Stage1)
	if len(bundle.Labels) == 0 {
		o.state = StateErrored
		result.State = StateErrored
		fatal := &FatalOrchestrationError{Reason: "all council models failed to respond"}
		o.events.Emit(ErrorEvent(fatal.Reason))
		return result, fatal
	}
	o.events.Emit(Stage1CompleteEvent(result.Stage1))

	// Stage 2: anonymized peer review. Every member evaluates, including
	// those whose own response is in the bundle.
	o.state = StateStage2Running
	o.events.Emit(Event{Type: EventStage2Start})

	rankingMessages := []ChatMessage{{Role: "user", Content: rankingPrompt(userQuery, bundle)}}
	settled, err = o.collect(ctx, ModelTasks(o.client, o.config.CouncilModels, rankingMessages), Stage2ProgressEvent)

	result.Stage2 = o.stage2Entries(settled, bundle)
	result.Metadata = Metadata{
		LabelToModel:      bundle.LabelToModel,
		AggregateRankings: CalculateAggregateRankings(result.Stage2, bundle.LabelToModel, o.config.CouncilModels),
	}
	if err != nil {
		o.state = StateAborted
		result.State = StateAborted
		return result, nil
	}

	// All evaluators failing is recoverable: the chairman still runs
	o.state = StateStage2Done
	o.events.Emit(Stage2CompleteEvent(result.Stage2, result.Metadata))

	// Stage 3: chairman synthesis
	o.state = StateStage3Running
	o.events.Emit(Event{Type: EventStage3Start})

	stage3, err := o.synthesize(ctx, userQuery, result)
	if ctx.Err() != nil {
		o.state = StateAborted
		result.State = StateAborted
		return result, nil
	}
	if err != nil {
		// The turn keeps its stage data; only the final response is missing
		o.events.Emit(Stage3CompleteEvent(nil))
	} else {
		result.Stage3 = stage3
		o.events.Emit(Stage3CompleteEvent(stage3))
	}

	o.state = StateComplete
	result.State = StateComplete
	return result, nil
}

// collect drains a fan-out in completion order, emitting one progress event
// per settlement. Returns the settled results keyed by model, and ctx.Err()
// if the turn was cancelled. Cancellation stops the event stream, not the
// record keeping: every settlement is still collected.
func (o *CouncilOrchestrator) collect(ctx context.Context, tasks []FanOutTask, progress func(TaskResult) Event) (map[string]TaskResult, error) {
	results := Dispatch(ctx, tasks)
	settled := make(map[string]TaskResult, len(tasks))

	for {
		// Cancellation wins over settlements already buffered, so no
		// progress event is emitted after the abort
		select {
		case <-ctx.Done():
			return drainSettled(results, settled), ctx.Err()
		default:
		}

		select {
		case result, ok := <-results:
			if !ok {
				return settled, nil
			}
			settled[result.Key] = result
			o.events.Emit(progress(result))
		case <-ctx.Done():
			return drainSettled(results, settled), ctx.Err()
		}
	}
}

// drainSettled records the remaining settlements after an abort without
// emitting events. In-flight tasks observe the cancelled context and settle
// promptly, at which point the channel closes.
func drainSettled(results <-chan TaskResult, settled map[string]TaskResult) map[string]TaskResult {
	for result := range results {
		settled[result.Key] = result
	}
	return settled
}

// stage1Entries orders settled Stage-1 results by council display order.
// Unsettled members (possible only after an abort) are omitted.
func (o *CouncilOrchestrator) stage1Entries(settled map[string]TaskResult) []Stage1Response {
	entries := make([]Stage1Response, 0, len(settled))
	for _, model := range o.config.CouncilModels {
		result, ok := settled[model]
		if !ok {
			continue
		}
		entry := Stage1Response{Model: model}
		if result.Err != nil {
			entry.Error = result.Err.Error()
		} else {
			entry.Response = result.Content
		}
		entries = append(entries, entry)
	}
	return entries
}

// stage2Entries orders settled Stage-2 results by council display order and
// parses each successful evaluator's ranking against the bundle's labels.
func (o *CouncilOrchestrator) stage2Entries(settled map[string]TaskResult, bundle AnonymizedBundle) []Stage2Ranking {
	entries := make([]Stage2Ranking, 0, len(settled))
	for _, model := range o.config.CouncilModels {
		result, ok := settled[model]
		if !ok {
			continue
		}
		entry := Stage2Ranking{Model: model, ParsedRanking: []string{}}
		if result.Err != nil {
			entry.Error = result.Err.Error()
		} else {
			entry.Ranking = result.Content
			entry.ParsedRanking = ParseRanking(result.Content, bundle.Labels)
		}
		entries = append(entries, entry)
	}
	return entries
}

// synthesize runs the single chairman call with the full original context
// plus the revealed Stage-1 answers and Stage-2 rankings.
func (o *CouncilOrchestrator) synthesize(ctx context.Context, userQuery string, result *CouncilResult) (*Stage3Response, error) {
	messages := []ChatMessage{{
		Role:    "user",
		Content: chairmanPrompt(userQuery, result.Stage1, result.Stage2, result.Metadata.LabelToModel),
	}}

	content, err := o.client.Generate(ctx, o.config.ChairmanModel, messages)
	if err != nil {
		return nil, fmt.Errorf("chairman model query failed: %w", err)
	}

	return &Stage3Response{
		Model:    o.config.ChairmanModel,
		Response: content,
	}, nil
}

// rankingPrompt builds the Stage-2 evaluation prompt over the anonymized
// response bundle.
func rankingPrompt(userQuery string, bundle AnonymizedBundle) string {
	return fmt.Sprintf(`You are evaluating different responses to the following question:

Question: %s

Here are the responses from different models (anonymized):

%s

Your task:
1. First, evaluate each response individually. For each response, explain what it does well and what it does poorly.
2. Then, at the very end of your response, provide a final ranking.

IMPORTANT: Your final ranking MUST be formatted EXACTLY as follows:
- Start with the line "FINAL RANKING:" (all caps, with colon)
- Then list the responses from best to worst as a numbered list
- Each line should be: number, period, space, then ONLY the response label (e.g., "1. Response A")
- Do not add any other text or explanations in the ranking section

Example of the correct format for your ENTIRE response:

Response A provides good detail on X but misses Y...
Response B is accurate but lacks depth on Z...
Response C offers the most comprehensive answer...

FINAL RANKING:
1. Response C
2. Response A
3. Response B

Now provide your evaluation and ranking:`, userQuery, bundle.PromptBlock())
}

// chairmanPrompt builds the Stage-3 synthesis prompt. Rankings are revealed
// (labels substituted with model names) for the chairman's benefit; the
// stored ranking text stays anonymized.
func chairmanPrompt(userQuery string, stage1 []Stage1Response, stage2 []Stage2Ranking, labelToModel map[string]string) string {
	var stage1Text strings.Builder
	for _, result := range stage1 {
		if !result.OK() {
			continue
		}
		stage1Text.WriteString(fmt.Sprintf("Model: %s\nResponse: %s\n\n", result.Model, result.Response))
	}

	var stage2Text strings.Builder
	for _, result := range stage2 {
		if !result.OK() {
			continue
		}
		stage2Text.WriteString(fmt.Sprintf("Model: %s\nRanking: %s\n\n", result.Model, RevealLabels(result.Ranking, labelToModel)))
	}

	return fmt.Sprintf(`You are the Chairman of an LLM Council. Multiple AI models have provided responses to a user's question, and then ranked each other's responses.

Original Question: %s

STAGE 1 - Individual Responses:
%s

STAGE 2 - Peer Rankings:
%s

Your task as Chairman is to synthesize all of this information into a single, comprehensive, accurate answer to the user's original question. Consider:
- The individual responses and their insights
- The peer rankings and what they reveal about response quality
- Any patterns of agreement or disagreement

Provide a clear, well-reasoned final answer that represents the council's collective wisdom:`, userQuery, stage1Text.String(), stage2Text.String())
}

// BuildHistory converts a conversation's prior messages into the chat
// history sent to council members. Assistant turns contribute their final
// synthesis; turns without one are skipped.
func BuildHistory(conversation *Conversation) []ChatMessage {
	history := []ChatMessage{}
	for _, message := range conversation.Messages {
		switch message.Role {
		case "user":
			history = append(history, ChatMessage{Role: "user", Content: message.Content})
		case "assistant":
			if message.Stage3 != nil {
				history = append(history, ChatMessage{Role: "assistant", Content: message.Stage3.Response})
			}
		}
	}
	return history
}

// GenerateConversationTitle generates a short title for a conversation.
// Uses the configured fast title model to create a 3-5 word summary of the
// user's query. Returns the generated title or an error if generation fails.
func GenerateConversationTitle(ctx context.Context, client ModelClient, userQuery string) (string, error) {
	titlePrompt := fmt.Sprintf(`Generate a very short title (3-5 words maximum) that summarizes the following question.
The title should be concise and descriptive. Do not use quotes or punctuation in the title.

Question: %s

Title:`, userQuery)

	ctx, cancel := context.WithTimeout(ctx, TitleGenTimeout)
	defer cancel()

	content, err := client.Generate(ctx, TitleModel, []ChatMessage{{Role: "user", Content: titlePrompt}})
	if err != nil {
		return "", fmt.Errorf("title generation failed: %w", err)
	}

	title := strings.TrimSpace(content)

	// Clean up the title - remove quotes
	title = strings.Trim(title, "\"'")

	// Truncate if too long
	if len(title) > 50 {
		title = title[:47] + "..."
	}

	return title, nil
}
