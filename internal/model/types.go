package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList stores a []string as a JSON text column so the same schema
// works on Postgres and the in-memory SQLite used by tests.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *StringList) Scan(src any) error {
	return scanJSON(src, l)
}

type Speaker string

const (
	SpeakerInterviewer Speaker = "interviewer"
	SpeakerCandidate   Speaker = "candidate"
)

type TranscriptTurn struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type TranscriptTurns []TranscriptTurn

func (t TranscriptTurns) Value() (driver.Value, error) {
	if t == nil {
		t = TranscriptTurns{}
	}
	b, err := json.Marshal(t)
	return string(b), err
}

func (t *TranscriptTurns) Scan(src any) error {
	return scanJSON(src, t)
}

// FeedbackItem is one question/answer pair of a report with the AI's
// per-answer feedback.
type FeedbackItem struct {
	Question   string `json:"question"`
	UserAnswer string `json:"user_answer"`
	AIFeedback string `json:"ai_feedback"`
	Score      int    `json:"score"`
}

type FeedbackItems []FeedbackItem

func (f FeedbackItems) Value() (driver.Value, error) {
	if f == nil {
		f = FeedbackItems{}
	}
	b, err := json.Marshal(f)
	return string(b), err
}

func (f *FeedbackItems) Scan(src any) error {
	return scanJSON(src, f)
}

func scanJSON(src, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported column type %T", src)
	}
}
