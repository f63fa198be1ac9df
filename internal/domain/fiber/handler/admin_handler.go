package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/interviewmate/server/internal/apperr"
	"github.com/interviewmate/server/internal/dto"
	"github.com/interviewmate/server/internal/middleware"
	"github.com/interviewmate/server/internal/model"
	"github.com/interviewmate/server/internal/repository"
	"github.com/interviewmate/server/internal/usecase"
	"github.com/interviewmate/server/internal/util"
)

type AdminHandler struct {
	userUc     *usecase.UserUsecase
	templateUc *usecase.TemplateUsecase
	users      *repository.UserRepository
}

func NewAdminHandler(userUc *usecase.UserUsecase, templateUc *usecase.TemplateUsecase, users *repository.UserRepository) *AdminHandler {
	return &AdminHandler{userUc: userUc, templateUc: templateUc, users: users}
}

func (h *AdminHandler) RegisterRoutes(app *fiber.App) {
	// Template recommendation is available to any signed-in user.
	app.Get("/api/templates/recommend", middleware.Protect(h.users), h.Recommend)
	app.Get("/api/templates", middleware.Protect(h.users), h.ListTemplates)

	admin := app.Group("/api/admin", middleware.Protect(h.users), middleware.RequireRole(model.RoleAdmin))
	admin.Get("/stats", h.Stats)
	admin.Get("/users", h.ListUsers)
	admin.Post("/templates", h.CreateTemplate)
	admin.Put("/templates/:id", h.UpdateTemplate)
	admin.Delete("/templates/:id", h.DeleteTemplate)
}

func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.userUc.Stats(c.Context())
	if err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get stats",
		Data:    stats,
	})
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	users, err := h.userUc.ListUsers(c.Context(), limit, offset)
	if err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get users",
		Data:    dto.NewUserDTOs(users),
	})
}

type templateRequest struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	JobRole      string   `json:"job_role"`
	Difficulty   string   `json:"difficulty"`
	Topics       []string `json:"topics"`
	Instructions string   `json:"instructions"`
}

func (r *templateRequest) toModel() *model.InterviewTemplate {
	return &model.InterviewTemplate{
		Name:         r.Name,
		Type:         model.InterviewType(r.Type),
		JobRole:      r.JobRole,
		Difficulty:   model.Difficulty(r.Difficulty),
		Topics:       r.Topics,
		Instructions: r.Instructions,
	}
}

func (h *AdminHandler) CreateTemplate(c *fiber.Ctx) error {
	var req templateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.New(apperr.KindValidation, "Invalid request body")
	}
	template := req.toModel()
	if err := h.templateUc.Create(c.Context(), template); err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Template created",
		Data:    template,
	})
}

func (h *AdminHandler) UpdateTemplate(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req templateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.New(apperr.KindValidation, "Invalid request body")
	}
	template, err := h.templateUc.Update(c.Context(), id, req.toModel())
	if err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Template updated",
		Data:    template,
	})
}

func (h *AdminHandler) DeleteTemplate(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.templateUc.Delete(c.Context(), id); err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{Message: "Template deleted"})
}

func (h *AdminHandler) ListTemplates(c *fiber.Ctx) error {
	templates, err := h.templateUc.List(c.Context())
	if err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get templates",
		Data:    templates,
	})
}

func (h *AdminHandler) Recommend(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return apperr.New(apperr.KindValidation, "Query is required")
	}
	topK, _ := strconv.Atoi(c.Query("top_k", "5"))
	templates, err := h.templateUc.Recommend(c.Context(), query, topK)
	if err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get recommendations",
		Data:    templates,
	})
}
