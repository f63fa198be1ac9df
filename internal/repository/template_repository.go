package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/interviewmate/server/internal/apperr"
	"github.com/interviewmate/server/internal/model"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db}
}

func (r *TemplateRepository) Create(template *model.InterviewTemplate) error {
	err := r.db.Create(template).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.New(apperr.KindConflict, "A template with this name already exists")
	}
	return err
}

func (r *TemplateRepository) Update(template *model.InterviewTemplate) error {
	return r.db.Save(template).Error
}

func (r *TemplateRepository) FindByID(id uuid.UUID) (*model.InterviewTemplate, error) {
	var template model.InterviewTemplate
	err := r.db.First(&template, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "Template not found")
	}
	return &template, err
}

func (r *TemplateRepository) List() ([]model.InterviewTemplate, error) {
	var templates []model.InterviewTemplate
	err := r.db.Order("name").Find(&templates).Error
	return templates, err
}

// Search returns the templates nearest to the query embedding, using the
// pgvector distance operator.
func (r *TemplateRepository) Search(embedding pgvector.Vector, topK int) ([]model.InterviewTemplate, error) {
	var templates []model.InterviewTemplate
	err := r.db.Raw(`
        SELECT *, embedding <-> ? AS distance
        FROM interview_templates
        ORDER BY embedding <-> ?
        LIMIT ?
    `, embedding, embedding, topK).Scan(&templates).Error
	return templates, err
}

func (r *TemplateRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&model.InterviewTemplate{}, "id = ?", id).Error
}
