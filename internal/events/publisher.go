package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const InterviewCompletedChannel = "interview_completed"

// InterviewCompletedEvent is fanned out over Redis pub/sub whenever a
// session ends, for consumers like analytics or notifications.
type InterviewCompletedEvent struct {
	InterviewID uuid.UUID `json:"interview_id"`
	UserID      uuid.UUID `json:"user_id"`
	ReportID    uuid.UUID `json:"report_id"`
	Duration    int       `json:"duration_minutes"`
	CompletedAt time.Time `json:"completed_at"`
}

type Publisher struct {
	rdb *redis.Client
	log *zap.Logger
}

func NewPublisher(rdb *redis.Client, log *zap.Logger) *Publisher {
	return &Publisher{rdb: rdb, log: log}
}

// InterviewCompleted publishes the event. Publishing is best effort, a
// failure is logged and never propagated to the session flow.
func (p *Publisher) InterviewCompleted(ctx context.Context, evt InterviewCompletedEvent) {
	payload, err := json.Marshal(evt)
	if err != nil {
		p.log.Error("failed to marshal interview_completed event", zap.Error(err))
		return
	}
	if err := p.rdb.Publish(ctx, InterviewCompletedChannel, payload).Err(); err != nil {
		p.log.Error("failed to publish interview_completed event",
			zap.String("interview_id", evt.InterviewID.String()), zap.Error(err))
	}
}
