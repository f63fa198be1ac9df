package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InterviewType string

const (
	TypeHR        InterviewType = "HR"
	TypeTechnical InterviewType = "Technical"
	TypeCustom    InterviewType = "Custom"
)

func (t InterviewType) Valid() bool {
	switch t {
	case TypeHR, TypeTechnical, TypeCustom:
		return true
	}
	return false
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type InterviewStatus string

const (
	StatusPending   InterviewStatus = "pending"
	StatusActive    InterviewStatus = "active"
	StatusCompleted InterviewStatus = "completed"
	StatusCancelled InterviewStatus = "cancelled"
	StatusFailed    InterviewStatus = "failed"
)

// transitions is the full lifecycle table. completed, cancelled and
// failed are terminal.
var transitions = map[InterviewStatus][]InterviewStatus{
	StatusPending: {StatusActive, StatusCompleted, StatusCancelled, StatusFailed},
	StatusActive:  {StatusCompleted, StatusCancelled, StatusFailed},
}

func (s InterviewStatus) CanTransitionTo(next InterviewStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s InterviewStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

type Interview struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uuid.UUID       `gorm:"type:uuid;index;not null" json:"user_id"`
	InterviewType      InterviewType   `gorm:"type:varchar(20);not null" json:"interview_type"`
	JobRole            string          `gorm:"not null" json:"job_role"`
	Difficulty         Difficulty      `gorm:"type:varchar(20);default:Medium" json:"difficulty"`
	Topics             StringList      `gorm:"type:text" json:"topics"`
	CustomInstructions string          `gorm:"type:text" json:"custom_instructions"`
	ResumeURL          string          `json:"resume_url,omitempty"`
	ResumeText         string          `gorm:"type:text" json:"-"`
	Status             InterviewStatus `gorm:"type:varchar(20);index;default:pending" json:"status"`
	Duration           int             `json:"duration"` // minutes, fixed once completed
	ExternalCallID     string          `gorm:"index" json:"external_call_id,omitempty"`
	StartedAt          *time.Time      `json:"started_at,omitempty"`
	Transcript         TranscriptTurns `gorm:"type:text" json:"transcript"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (i *Interview) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i *Interview) OwnedBy(userID uuid.UUID) bool {
	return i.UserID == userID
}
