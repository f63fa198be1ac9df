package webhook

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/interviewmate/server/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payload(eventType string, interviewID, userID uuid.UUID, extra string) []byte {
	if extra != "" {
		extra = "," + extra
	}
	return []byte(fmt.Sprintf(`{
		"type": %q,
		"call": {
			"id": "call-1",
			"metadata": {"userId": %q, "interviewId": %q}%s
		}
	}`, eventType, userID, interviewID, extra))
}

func TestParseEvent(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	interviewID := uuid.New()
	userID := uuid.New()

	t.Run("call-start", func(t *testing.T) {
		event, err := ParseEvent(payload("call-start", interviewID, userID, ""), now)
		require.NoError(t, err)
		start, ok := event.(CallStartEvent)
		require.True(t, ok)
		assert.Equal(t, interviewID, start.InterviewID)
		assert.Equal(t, userID, start.UserID)
		assert.Equal(t, "call-1", start.CallID)
	})

	t.Run("speech-update maps roles and stamps missing timestamps", func(t *testing.T) {
		ts := time.Date(2026, 3, 1, 9, 59, 0, 0, time.UTC)
		extra := fmt.Sprintf(`"transcript": [
			{"role": "assistant", "content": "Tell me about yourself.", "timestamp": %q},
			{"role": "user", "content": "I build backend services."}
		]`, ts.Format(time.RFC3339))

		event, err := ParseEvent(payload("speech-update", interviewID, userID, extra), now)
		require.NoError(t, err)
		update, ok := event.(SpeechUpdateEvent)
		require.True(t, ok)
		require.Len(t, update.Turns, 2)
		assert.Equal(t, model.SpeakerInterviewer, update.Turns[0].Speaker)
		assert.True(t, update.Turns[0].Timestamp.Equal(ts))
		assert.Equal(t, model.SpeakerCandidate, update.Turns[1].Speaker)
		assert.True(t, update.Turns[1].Timestamp.Equal(now))
	})

	t.Run("call-end", func(t *testing.T) {
		extra := `"transcript": [{"role": "user", "content": "Thanks"}], "duration": 745.2`
		event, err := ParseEvent(payload("call-end", interviewID, userID, extra), now)
		require.NoError(t, err)
		end, ok := event.(CallEndEvent)
		require.True(t, ok)
		assert.Equal(t, 745, end.DurationSeconds)
		require.Len(t, end.Turns, 1)
		assert.Equal(t, "Thanks", end.Turns[0].Text)
	})

	t.Run("function-call", func(t *testing.T) {
		body := []byte(fmt.Sprintf(`{
			"type": "function-call",
			"call": {"metadata": {"userId": %q, "interviewId": %q}},
			"functionCall": {"name": "lookupQuestion", "parameters": {"topic": "Go"}}
		}`, userID, interviewID))
		event, err := ParseEvent(body, now)
		require.NoError(t, err)
		fc, ok := event.(FunctionCallEvent)
		require.True(t, ok)
		assert.Equal(t, "lookupQuestion", fc.Name)
		assert.JSONEq(t, `{"topic": "Go"}`, string(fc.Parameters))
	})

	t.Run("hang", func(t *testing.T) {
		event, err := ParseEvent([]byte(`{"type": "hang", "call": {"id": "call-1"}}`), now)
		require.NoError(t, err)
		hang, ok := event.(HangEvent)
		require.True(t, ok)
		assert.Equal(t, "call-1", hang.CallID)
	})

	t.Run("unknown type is preserved", func(t *testing.T) {
		event, err := ParseEvent([]byte(`{"type": "transcript-complete"}`), now)
		require.NoError(t, err)
		unknown, ok := event.(UnknownEvent)
		require.True(t, ok)
		assert.Equal(t, "transcript-complete", unknown.Type)
	})

	t.Run("malformed json is rejected", func(t *testing.T) {
		_, err := ParseEvent([]byte(`{"type": `), now)
		assert.Error(t, err)
	})

	t.Run("bad metadata is rejected", func(t *testing.T) {
		body := []byte(`{"type": "call-end", "call": {"id": "c", "metadata": {"userId": "nope", "interviewId": "nope"}}}`)
		_, err := ParseEvent(body, now)
		assert.Error(t, err)
	})
}
