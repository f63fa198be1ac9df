package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/interviewmate/server/internal/apperr"
	"github.com/interviewmate/server/internal/model"
	"github.com/interviewmate/server/internal/repository"
	"github.com/interviewmate/server/internal/service"
	"github.com/pgvector/pgvector-go"
)

type TemplateUsecase struct {
	templates *repository.TemplateRepository
	gemini    service.GeminiServiceInterface
}

func NewTemplateUsecase(templates *repository.TemplateRepository, gemini service.GeminiServiceInterface) *TemplateUsecase {
	return &TemplateUsecase{templates: templates, gemini: gemini}
}

// Create stores a template together with the embedding used for
// similarity search.
func (uc *TemplateUsecase) Create(ctx context.Context, template *model.InterviewTemplate) error {
	if template.Name == "" || template.JobRole == "" || template.Instructions == "" {
		return apperr.New(apperr.KindValidation, "Name, job role and instructions are required")
	}
	if !template.Type.Valid() {
		return apperr.New(apperr.KindValidation, "Invalid interview type")
	}
	if template.Difficulty == "" {
		template.Difficulty = model.DifficultyMedium
	}

	embedding, err := uc.gemini.GenerateEmbedding(ctx, template.PromptText())
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "Failed to embed template", err)
	}
	template.Embedding = pgvector.NewVector(embedding)
	return uc.templates.Create(template)
}

func (uc *TemplateUsecase) Update(ctx context.Context, id uuid.UUID, updated *model.InterviewTemplate) (*model.InterviewTemplate, error) {
	template, err := uc.templates.FindByID(id)
	if err != nil {
		return nil, err
	}
	if updated.Name != "" {
		template.Name = updated.Name
	}
	if updated.JobRole != "" {
		template.JobRole = updated.JobRole
	}
	if updated.Instructions != "" {
		template.Instructions = updated.Instructions
	}
	if updated.Type != "" {
		if !updated.Type.Valid() {
			return nil, apperr.New(apperr.KindValidation, "Invalid interview type")
		}
		template.Type = updated.Type
	}
	if updated.Difficulty != "" {
		if !updated.Difficulty.Valid() {
			return nil, apperr.New(apperr.KindValidation, "Invalid difficulty")
		}
		template.Difficulty = updated.Difficulty
	}
	if updated.Topics != nil {
		template.Topics = updated.Topics
	}

	embedding, err := uc.gemini.GenerateEmbedding(ctx, template.PromptText())
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to embed template", err)
	}
	template.Embedding = pgvector.NewVector(embedding)
	if err := uc.templates.Update(template); err != nil {
		return nil, err
	}
	return template, nil
}

func (uc *TemplateUsecase) List(ctx context.Context) ([]model.InterviewTemplate, error) {
	return uc.templates.List()
}

func (uc *TemplateUsecase) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := uc.templates.FindByID(id); err != nil {
		return err
	}
	return uc.templates.Delete(id)
}

// Recommend returns the templates closest to a free-text description of
// the role the user wants to practice for.
func (uc *TemplateUsecase) Recommend(ctx context.Context, query string, topK int) ([]model.InterviewTemplate, error) {
	if query == "" {
		return nil, apperr.New(apperr.KindValidation, "Query text is required")
	}
	if topK <= 0 {
		topK = 5
	}
	embedding, err := uc.gemini.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to embed query", err)
	}
	return uc.templates.Search(pgvector.NewVector(embedding), topK)
}
