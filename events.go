package main

import (
	"encoding/json"
	"fmt"
	"io"
)

// EventType identifies a progress event in a turn's stream
type EventType string

// Event types emitted over one turn's stream, in protocol order
const (
	EventStage1Start    EventType = "stage1_start"
	EventStage1Progress EventType = "stage1_progress"
	EventStage1Complete EventType = "stage1_complete"
	EventStage2Start    EventType = "stage2_start"
	EventStage2Progress EventType = "stage2_progress"
	EventStage2Complete EventType = "stage2_complete"
	EventStage3Start    EventType = "stage3_start"
	EventStage3Complete EventType = "stage3_complete"
	EventTitleComplete  EventType = "title_complete"
	EventComplete       EventType = "complete"
	EventError          EventType = "error"
)

// Event is one entry in the ordered progress stream for a turn. Only the
// fields relevant to the event type are populated; progress events are
// additive and keyed by Model, so a later event for the same model in the
// same stage supersedes the earlier one.
type Event struct {
	Type     EventType   `json:"type"`
	Model    string      `json:"model,omitempty"`
	Status   string      `json:"status,omitempty"`
	Response *string     `json:"response,omitempty"`
	Ranking  *string     `json:"ranking,omitempty"`
	Data     interface{} `json:"data,omitempty"`
	Metadata *Metadata   `json:"metadata,omitempty"`
	Message  string      `json:"message,omitempty"`
}

// EventSink receives events as the orchestrator emits them. A nil sink
// discards events.
type EventSink func(Event)

// Emit sends an event to the sink, tolerating nil sinks
func (s EventSink) Emit(event Event) {
	if s != nil {
		s(event)
	}
}

// Stage1ProgressEvent reports one council member settling in Stage 1.
// An absent response denotes failure.
func Stage1ProgressEvent(result TaskResult) Event {
	event := Event{
		Type:   EventStage1Progress,
		Model:  result.Key,
		Status: "ok",
	}
	if result.Err != nil {
		event.Status = "error"
	} else {
		content := result.Content
		event.Response = &content
	}
	return event
}

// Stage2ProgressEvent reports one evaluator settling in Stage 2
func Stage2ProgressEvent(result TaskResult) Event {
	event := Event{
		Type:   EventStage2Progress,
		Model:  result.Key,
		Status: "ok",
	}
	if result.Err != nil {
		event.Status = "error"
	} else {
		content := result.Content
		event.Ranking = &content
	}
	return event
}

// Stage1CompleteEvent carries every settled Stage-1 entry
func Stage1CompleteEvent(stage1 []Stage1Response) Event {
	return Event{Type: EventStage1Complete, Data: stage1}
}

// Stage2CompleteEvent carries every settled Stage-2 entry plus the
// de-anonymization map and aggregate rankings
func Stage2CompleteEvent(stage2 []Stage2Ranking, metadata Metadata) Event {
	return Event{Type: EventStage2Complete, Data: stage2, Metadata: &metadata}
}

// Stage3CompleteEvent carries the chairman's synthesis; data is omitted when
// the chairman call failed
func Stage3CompleteEvent(stage3 *Stage3Response) Event {
	event := Event{Type: EventStage3Complete}
	if stage3 != nil {
		event.Data = stage3
	}
	return event
}

// TitleCompleteEvent signals that the conversation title is ready
func TitleCompleteEvent(title string) Event {
	return Event{Type: EventTitleComplete, Data: map[string]string{"title": title}}
}

// ErrorEvent is the terminal fatal event
func ErrorEvent(message string) Event {
	return Event{Type: EventError, Message: message}
}

// WriteSSE encodes an event in Server-Sent Events framing
func WriteSSE(w io.Writer, event Event) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", jsonData)
	return err
}
