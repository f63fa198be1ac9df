package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/interviewmate/server/internal/apperr"
	"github.com/interviewmate/server/internal/middleware"
	"github.com/interviewmate/server/internal/repository"
	"github.com/interviewmate/server/internal/usecase"
	"github.com/interviewmate/server/internal/util"
)

type ReportHandler struct {
	uc    *usecase.ReportUsecase
	users *repository.UserRepository
}

func NewReportHandler(uc *usecase.ReportUsecase, users *repository.UserRepository) *ReportHandler {
	return &ReportHandler{uc: uc, users: users}
}

func (h *ReportHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/api/reports/shared/:token", h.GetShared)

	reports := app.Group("/api/reports", middleware.Protect(h.users))
	reports.Get("/", h.List)
	reports.Get("/analytics", h.Analytics)
	reports.Get("/:id", h.Get)
	reports.Put("/:id/share", h.Share)
	reports.Delete("/:id", h.Delete)
}

func (h *ReportHandler) List(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	reports, err := h.uc.List(c.Context(), user.ID)
	if err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get reports",
		Data:    reports,
	})
}

func (h *ReportHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	user := middleware.CurrentUser(c)
	report, err := h.uc.Get(c.Context(), id, user.ID, user.Role)
	if err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get report",
		Data:    report,
	})
}

func (h *ReportHandler) GetShared(c *fiber.Ctx) error {
	report, err := h.uc.GetShared(c.Context(), c.Params("token"))
	if err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get shared report",
		Data:    report,
	})
}

func (h *ReportHandler) Share(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req struct {
		Shareable bool `json:"shareable"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.New(apperr.KindValidation, "Invalid request body")
	}
	user := middleware.CurrentUser(c)
	token, err := h.uc.Share(c.Context(), id, user.ID, user.Role, req.Shareable)
	if err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Report sharing updated",
		Data:    fiber.Map{"shared_token": token},
	})
}

func (h *ReportHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	user := middleware.CurrentUser(c)
	if err := h.uc.Delete(c.Context(), id, user.ID, user.Role); err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{Message: "Report deleted"})
}

func (h *ReportHandler) Analytics(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	analytics, err := h.uc.Analytics(c.Context(), user.ID, c.Query("timeframe", "alltime"))
	if err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get analytics",
		Data:    analytics,
	})
}
