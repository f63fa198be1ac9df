package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/interviewmate/server/internal/apperr"
	"github.com/interviewmate/server/internal/model"
	"gorm.io/gorm"
)

type InterviewRepository struct {
	db *gorm.DB
}

func NewInterviewRepository(db *gorm.DB) *InterviewRepository {
	return &InterviewRepository{db}
}

func (r *InterviewRepository) Create(interview *model.Interview) error {
	return r.db.Create(interview).Error
}

func (r *InterviewRepository) FindByID(id uuid.UUID) (*model.Interview, error) {
	var interview model.Interview
	err := r.db.First(&interview, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "Interview not found")
	}
	return &interview, err
}

func (r *InterviewRepository) FindByUser(userID uuid.UUID) ([]model.Interview, error) {
	var interviews []model.Interview
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&interviews).Error
	return interviews, err
}

// Complete flips an interview to completed and fixes its duration in a
// single conditional UPDATE. Exactly one of any number of concurrent
// callers sees true; everyone else must treat the interview as already
// settled.
func (r *InterviewRepository) Complete(id uuid.UUID, duration int, now time.Time) (bool, error) {
	tx := r.db.Model(&model.Interview{}).
		Where("id = ? AND status IN ?", id, []model.InterviewStatus{model.StatusPending, model.StatusActive}).
		Updates(map[string]any{
			"status":     model.StatusCompleted,
			"duration":   duration,
			"updated_at": now,
		})
	return tx.RowsAffected == 1, tx.Error
}

// BindCall attaches the provider's call id. Re-binding the same id is a
// no-op; a second distinct id is rejected. The conditional WHERE keeps a
// concurrent bind from overwriting an existing id.
func (r *InterviewRepository) BindCall(id uuid.UUID, callID string, now time.Time) error {
	interview, err := r.FindByID(id)
	if err != nil {
		return err
	}
	if interview.ExternalCallID == callID {
		return nil
	}
	if interview.ExternalCallID != "" {
		return apperr.New(apperr.KindConflict, "Interview is already bound to a different call")
	}

	updates := map[string]any{
		"external_call_id": callID,
		"started_at":       now,
	}
	if interview.Status.CanTransitionTo(model.StatusActive) {
		updates["status"] = model.StatusActive
	}
	tx := r.db.Model(&model.Interview{}).
		Where("id = ? AND (external_call_id = '' OR external_call_id IS NULL OR external_call_id = ?)", id, callID).
		Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return apperr.New(apperr.KindConflict, "Interview is already bound to a different call")
	}
	return nil
}

// AppendTranscript adds turns in the order received. Transcript capture
// is best effort, so plain read-modify-write is acceptable here.
func (r *InterviewRepository) AppendTranscript(id uuid.UUID, turns []model.TranscriptTurn) error {
	interview, err := r.FindByID(id)
	if err != nil {
		return err
	}
	interview.Transcript = append(interview.Transcript, turns...)
	return r.db.Model(interview).Update("transcript", interview.Transcript).Error
}

// SetStatus applies a lifecycle transition, rejecting anything the
// transition table does not allow.
func (r *InterviewRepository) SetStatus(id uuid.UUID, next model.InterviewStatus) error {
	interview, err := r.FindByID(id)
	if err != nil {
		return err
	}
	if !interview.Status.CanTransitionTo(next) {
		return apperr.New(apperr.KindConflict, "Invalid interview status transition")
	}
	return r.db.Model(interview).Update("status", next).Error
}

func (r *InterviewRepository) DeleteByUser(userID uuid.UUID) error {
	return r.db.Where("user_id = ?", userID).Delete(&model.Interview{}).Error
}

func (r *InterviewRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Interview{}).Count(&count).Error
	return count, err
}
