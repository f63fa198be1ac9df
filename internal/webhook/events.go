package webhook

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/interviewmate/server/internal/model"
)

// Event is the closed set of provider webhook events. Unrecognized
// payloads parse to UnknownEvent so they are logged rather than silently
// dropped.
type Event interface {
	eventKind() string
}

type CallStartEvent struct {
	InterviewID uuid.UUID
	UserID      uuid.UUID
	CallID      string
}

type SpeechUpdateEvent struct {
	InterviewID uuid.UUID
	CallID      string
	Turns       []model.TranscriptTurn
}

type CallEndEvent struct {
	InterviewID     uuid.UUID
	UserID          uuid.UUID
	CallID          string
	DurationSeconds int
	Turns           []model.TranscriptTurn
}

type FunctionCallEvent struct {
	InterviewID uuid.UUID
	Name        string
	Parameters  json.RawMessage
}

type HangEvent struct {
	CallID string
}

type UnknownEvent struct {
	Type string
}

func (CallStartEvent) eventKind() string    { return "call-start" }
func (SpeechUpdateEvent) eventKind() string { return "speech-update" }
func (CallEndEvent) eventKind() string      { return "call-end" }
func (FunctionCallEvent) eventKind() string { return "function-call" }
func (HangEvent) eventKind() string         { return "hang" }
func (e UnknownEvent) eventKind() string    { return e.Type }

// wire mirrors the provider payload:
// {type, call:{id, metadata:{userId, interviewId}, transcript?, duration?}}.
type wire struct {
	Type string `json:"type"`
	Call struct {
		ID       string `json:"id"`
		Metadata struct {
			UserID      string `json:"userId"`
			InterviewID string `json:"interviewId"`
		} `json:"metadata"`
		Transcript []wireTurn `json:"transcript"`
		Duration   float64    `json:"duration"`
	} `json:"call"`
	FunctionCall struct {
		Name       string          `json:"name"`
		Parameters json.RawMessage `json:"parameters"`
	} `json:"functionCall"`
}

type wireTurn struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp"`
}

// ParseEvent decodes a provider payload into a typed event.
func ParseEvent(body []byte, now time.Time) (Event, error) {
	var w wire
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("malformed webhook payload: %w", err)
	}

	switch w.Type {
	case "call-start":
		interviewID, userID, err := parseMetadata(&w)
		if err != nil {
			return nil, err
		}
		return CallStartEvent{InterviewID: interviewID, UserID: userID, CallID: w.Call.ID}, nil
	case "speech-update":
		interviewID, _, err := parseMetadata(&w)
		if err != nil {
			return nil, err
		}
		return SpeechUpdateEvent{
			InterviewID: interviewID,
			CallID:      w.Call.ID,
			Turns:       mapTurns(w.Call.Transcript, now),
		}, nil
	case "call-end":
		interviewID, userID, err := parseMetadata(&w)
		if err != nil {
			return nil, err
		}
		return CallEndEvent{
			InterviewID:     interviewID,
			UserID:          userID,
			CallID:          w.Call.ID,
			DurationSeconds: int(w.Call.Duration),
			Turns:           mapTurns(w.Call.Transcript, now),
		}, nil
	case "function-call":
		interviewID, _, _ := parseMetadata(&w)
		return FunctionCallEvent{
			InterviewID: interviewID,
			Name:        w.FunctionCall.Name,
			Parameters:  w.FunctionCall.Parameters,
		}, nil
	case "hang":
		return HangEvent{CallID: w.Call.ID}, nil
	default:
		return UnknownEvent{Type: w.Type}, nil
	}
}

func parseMetadata(w *wire) (interviewID, userID uuid.UUID, err error) {
	interviewID, err = uuid.Parse(w.Call.Metadata.InterviewID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid interview id in call metadata: %w", err)
	}
	userID, err = uuid.Parse(w.Call.Metadata.UserID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid user id in call metadata: %w", err)
	}
	return interviewID, userID, nil
}

// mapTurns converts the provider's role/content pairs to transcript
// turns, stamping turns that carry no timestamp with the receive time.
func mapTurns(turns []wireTurn, now time.Time) []model.TranscriptTurn {
	mapped := make([]model.TranscriptTurn, 0, len(turns))
	for _, t := range turns {
		speaker := model.SpeakerInterviewer
		if t.Role == "user" {
			speaker = model.SpeakerCandidate
		}
		ts := now
		if t.Timestamp != nil {
			ts = *t.Timestamp
		}
		mapped = append(mapped, model.TranscriptTurn{
			Speaker:   speaker,
			Text:      t.Content,
			Timestamp: ts,
		})
	}
	return mapped
}
