package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Report is created exactly once per completed interview. The unique
// index on InterviewID is the storage-level backstop for that rule.
type Report struct {
	ID                  uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID              uuid.UUID     `gorm:"type:uuid;index;not null" json:"user_id"`
	InterviewID         uuid.UUID     `gorm:"type:uuid;uniqueIndex;not null" json:"interview_id"`
	InterviewType       InterviewType `gorm:"type:varchar(20);not null" json:"interview_type"`
	JobRole             string        `gorm:"not null" json:"job_role"`
	Difficulty          Difficulty    `gorm:"type:varchar(20);default:Medium" json:"difficulty"`
	Topics              StringList    `gorm:"type:text" json:"topics"`
	Duration            int           `gorm:"not null" json:"duration"`
	OverallScore        int           `gorm:"not null" json:"overall_score"`
	Strengths           StringList    `gorm:"type:text" json:"strengths"`
	AreasForImprovement StringList    `gorm:"type:text" json:"areas_for_improvement"`
	DetailedFeedback    FeedbackItems `gorm:"type:text" json:"detailed_feedback"`
	ResumeURL           string        `json:"resume_url,omitempty"`
	IsShareable         bool          `gorm:"default:false" json:"is_shareable"`
	SharedToken         string        `gorm:"index" json:"shared_token,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *Report) OwnedBy(userID uuid.UUID) bool {
	return r.UserID == userID
}
