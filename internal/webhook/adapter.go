package webhook

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/interviewmate/server/internal/metrics"
	"github.com/interviewmate/server/internal/model"
	"go.uber.org/zap"
)

// SessionManager is the slice of the session usecase the adapter drives.
type SessionManager interface {
	BindCall(ctx context.Context, interviewID uuid.UUID, callID string) error
	AppendTranscript(ctx context.Context, interviewID uuid.UUID, turns []model.TranscriptTurn) error
	EndSession(ctx context.Context, interviewID, requesterID uuid.UUID, requesterRole model.Role) (uuid.UUID, error)
}

// Adapter translates provider webhook events into session operations.
// Errors are logged, not returned to the provider: the webhook endpoint
// always acknowledges so the provider does not retry-storm, and the
// idempotent session operations make duplicate delivery safe.
type Adapter struct {
	sessions SessionManager
	log      *zap.Logger
	now      func() time.Time
}

func NewAdapter(sessions SessionManager, log *zap.Logger) *Adapter {
	return &Adapter{sessions: sessions, log: log, now: time.Now}
}

// Handle parses and dispatches one webhook delivery.
func (a *Adapter) Handle(ctx context.Context, body []byte) {
	event, err := ParseEvent(body, a.now())
	if err != nil {
		a.log.Warn("discarding malformed webhook payload", zap.Error(err))
		return
	}
	metrics.WebhookEvents.WithLabelValues(event.eventKind()).Inc()

	switch e := event.(type) {
	case CallStartEvent:
		if err := a.sessions.BindCall(ctx, e.InterviewID, e.CallID); err != nil {
			a.log.Error("call-start: bind failed",
				zap.String("interview_id", e.InterviewID.String()),
				zap.String("call_id", e.CallID), zap.Error(err))
		}
	case SpeechUpdateEvent:
		if err := a.sessions.AppendTranscript(ctx, e.InterviewID, e.Turns); err != nil {
			a.log.Warn("speech-update: transcript append failed",
				zap.String("interview_id", e.InterviewID.String()), zap.Error(err))
		}
	case CallEndEvent:
		a.handleCallEnd(ctx, e)
	case FunctionCallEvent:
		// Pass-through: no application functions are exposed to the
		// assistant yet.
		a.log.Info("function-call received",
			zap.String("name", e.Name),
			zap.String("interview_id", e.InterviewID.String()))
	case HangEvent:
		a.log.Info("call hung up", zap.String("call_id", e.CallID))
	case UnknownEvent:
		a.log.Warn("unhandled webhook event type", zap.String("type", e.Type))
	}
}

func (a *Adapter) handleCallEnd(ctx context.Context, e CallEndEvent) {
	// Bind first in case call-start was lost or arrived out of order.
	if err := a.sessions.BindCall(ctx, e.InterviewID, e.CallID); err != nil {
		a.log.Warn("call-end: bind failed",
			zap.String("interview_id", e.InterviewID.String()), zap.Error(err))
	}
	if err := a.sessions.AppendTranscript(ctx, e.InterviewID, e.Turns); err != nil {
		a.log.Warn("call-end: transcript append failed",
			zap.String("interview_id", e.InterviewID.String()), zap.Error(err))
	}
	// The session manager's atomic completion guard makes a duplicate
	// call-end a no-op.
	if _, err := a.sessions.EndSession(ctx, e.InterviewID, e.UserID, model.RoleUser); err != nil {
		a.log.Warn("call-end: end session failed",
			zap.String("interview_id", e.InterviewID.String()), zap.Error(err))
	}
}
