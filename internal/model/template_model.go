package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// InterviewTemplate is an admin-curated interview preset. Embedding holds
// a Gemini embedding of the template content for similarity search.
type InterviewTemplate struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string          `gorm:"uniqueIndex;not null" json:"name"`
	Type         InterviewType   `gorm:"type:varchar(20);not null" json:"type"`
	JobRole      string          `gorm:"not null" json:"job_role"`
	Difficulty   Difficulty      `gorm:"type:varchar(20);default:Medium" json:"difficulty"`
	Topics       StringList      `gorm:"type:text" json:"topics"`
	Instructions string          `gorm:"type:text;not null" json:"instructions"`
	Embedding    pgvector.Vector `gorm:"type:vector(3072)" json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (t *InterviewTemplate) TableName() string {
	return "interview_templates"
}

func (t *InterviewTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// PromptText is the text fed to the embedding model.
func (t *InterviewTemplate) PromptText() string {
	text := t.JobRole + "\n" + t.Instructions
	for _, topic := range t.Topics {
		text += "\n" + topic
	}
	return text
}
