package webhook

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/interviewmate/server/internal/apperr"
	"github.com/interviewmate/server/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedCall struct {
	op     string
	callID string
	turns  int
}

type fakeSessionManager struct {
	calls  []recordedCall
	endErr error
}

func (f *fakeSessionManager) BindCall(ctx context.Context, interviewID uuid.UUID, callID string) error {
	f.calls = append(f.calls, recordedCall{op: "bind", callID: callID})
	return nil
}

func (f *fakeSessionManager) AppendTranscript(ctx context.Context, interviewID uuid.UUID, turns []model.TranscriptTurn) error {
	f.calls = append(f.calls, recordedCall{op: "append", turns: len(turns)})
	return nil
}

func (f *fakeSessionManager) EndSession(ctx context.Context, interviewID, requesterID uuid.UUID, requesterRole model.Role) (uuid.UUID, error) {
	f.calls = append(f.calls, recordedCall{op: "end"})
	if f.endErr != nil {
		return uuid.Nil, f.endErr
	}
	return uuid.New(), nil
}

func TestAdapterCallStart(t *testing.T) {
	sessions := &fakeSessionManager{}
	adapter := NewAdapter(sessions, zap.NewNop())

	adapter.Handle(context.Background(), payload("call-start", uuid.New(), uuid.New(), ""))

	require.Len(t, sessions.calls, 1)
	assert.Equal(t, recordedCall{op: "bind", callID: "call-1"}, sessions.calls[0])
}

func TestAdapterCallEnd(t *testing.T) {
	sessions := &fakeSessionManager{}
	adapter := NewAdapter(sessions, zap.NewNop())

	extra := `"transcript": [{"role": "user", "content": "Thanks"}], "duration": 745`
	adapter.Handle(context.Background(), payload("call-end", uuid.New(), uuid.New(), extra))

	// Bind happens first so a lost call-start still gets the id recorded.
	require.Len(t, sessions.calls, 3)
	assert.Equal(t, "bind", sessions.calls[0].op)
	assert.Equal(t, "append", sessions.calls[1].op)
	assert.Equal(t, 1, sessions.calls[1].turns)
	assert.Equal(t, "end", sessions.calls[2].op)
}

func TestAdapterDuplicateCallEndIsQuiet(t *testing.T) {
	sessions := &fakeSessionManager{
		endErr: apperr.New(apperr.KindAlreadyCompleted, "Interview already completed and report generated"),
	}
	adapter := NewAdapter(sessions, zap.NewNop())

	// A duplicate delivery must be swallowed, never panicked on.
	adapter.Handle(context.Background(), payload("call-end", uuid.New(), uuid.New(), ""))
	require.Len(t, sessions.calls, 3)
}

func TestAdapterIgnoresMalformedAndUnknown(t *testing.T) {
	sessions := &fakeSessionManager{}
	adapter := NewAdapter(sessions, zap.NewNop())

	adapter.Handle(context.Background(), []byte(`not json`))
	adapter.Handle(context.Background(), []byte(`{"type": "status-update"}`))
	adapter.Handle(context.Background(), []byte(fmt.Sprintf(
		`{"type": "hang", "call": {"id": "call-1", "metadata": {"userId": %q, "interviewId": %q}}}`,
		uuid.New(), uuid.New())))

	assert.Empty(t, sessions.calls)
}

func TestAdapterSpeechUpdate(t *testing.T) {
	sessions := &fakeSessionManager{}
	adapter := NewAdapter(sessions, zap.NewNop())

	extra := `"transcript": [{"role": "assistant", "content": "Next question"}, {"role": "user", "content": "Sure"}]`
	adapter.Handle(context.Background(), payload("speech-update", uuid.New(), uuid.New(), extra))

	require.Len(t, sessions.calls, 1)
	assert.Equal(t, "append", sessions.calls[0].op)
	assert.Equal(t, 2, sessions.calls[0].turns)
}
