package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/interviewmate/server/internal/apperr"
	"github.com/interviewmate/server/internal/middleware"
	"github.com/interviewmate/server/internal/model"
	"github.com/interviewmate/server/internal/repository"
	"github.com/interviewmate/server/internal/service"
	"github.com/interviewmate/server/internal/usecase"
	"github.com/interviewmate/server/internal/util"
	"go.uber.org/zap"
)

type InterviewHandler struct {
	uc    *usecase.SessionUsecase
	vapi  service.VapiServiceInterface
	users *repository.UserRepository
	log   *zap.Logger
}

func NewInterviewHandler(uc *usecase.SessionUsecase, vapi service.VapiServiceInterface, users *repository.UserRepository, log *zap.Logger) *InterviewHandler {
	return &InterviewHandler{uc: uc, vapi: vapi, users: users, log: log}
}

func (h *InterviewHandler) RegisterRoutes(app *fiber.App) {
	interviews := app.Group("/api/interviews", middleware.Protect(h.users))
	interviews.Post("/", h.Start)
	interviews.Get("/", h.List)
	interviews.Get("/:id", h.Get)
	interviews.Post("/:id/call", h.StartCall)
	interviews.Post("/:id/end", h.End)
	interviews.Post("/:id/report", h.RetryReport)
}

func (h *InterviewHandler) Start(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	cfg := usecase.StartConfig{
		InterviewType:      model.InterviewType(c.FormValue("interview_type")),
		JobRole:            c.FormValue("job_role"),
		Difficulty:         model.Difficulty(c.FormValue("difficulty")),
		CustomInstructions: c.FormValue("custom_instructions"),
	}
	if topics := c.FormValue("topics"); topics != "" {
		for _, t := range strings.Split(topics, ",") {
			if t = strings.TrimSpace(t); t != "" {
				cfg.Topics = append(cfg.Topics, t)
			}
		}
	}

	resume, resumeName, resumeText, err := h.processResume(c)
	if err != nil {
		return err
	}

	id, err := h.uc.StartSession(c.Context(), user.ID, cfg, resume, resumeName, resumeText)
	if err != nil {
		return err
	}

	assistantID, err := h.vapi.AssistantID(cfg.InterviewType)
	if err != nil {
		h.log.Warn("no assistant configured for interview type",
			zap.String("interview_type", string(cfg.InterviewType)))
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Interview started",
		Data:    fiber.Map{"id": id, "assistant_id": assistantID, "status": model.StatusActive},
	})
}

// processResume reads the optional resume upload and extracts its text
// for the report prompt. Text extraction failure is tolerated; the
// session just proceeds without resume context.
func (h *InterviewHandler) processResume(c *fiber.Ctx) ([]byte, string, string, error) {
	file, err := c.FormFile("resume")
	if err != nil {
		return nil, "", "", nil
	}
	if file.Size > 5*1024*1024 {
		return nil, "", "", apperr.New(apperr.KindValidation, "Resume file size is too large (max 5MB)")
	}
	if ext := strings.ToLower(filepath.Ext(file.Filename)); ext != ".pdf" {
		return nil, "", "", apperr.New(apperr.KindValidation, "Unsupported resume file type, only PDF is accepted")
	}

	content, err := readUpload(file)
	if err != nil {
		return nil, "", "", apperr.Wrap(apperr.KindUpload, "Cannot read resume file", err)
	}

	savePath := filepath.Join("./uploads/resumes/", fmt.Sprintf("%s-%s", uuid.NewString(), file.Filename))
	if err := c.SaveFile(file, savePath); err != nil {
		return nil, "", "", apperr.Wrap(apperr.KindUpload, "Cannot save resume file", err)
	}
	defer os.Remove(savePath)

	text, err := util.ExtractPDFText(savePath)
	if err != nil {
		h.log.Warn("resume text extraction failed", zap.Error(err))
		text = ""
	}
	return content, file.Filename, text, nil
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *InterviewHandler) List(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	interviews, err := h.uc.ListSessions(c.Context(), user.ID)
	if err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get interviews",
		Data:    interviews,
	})
}

func (h *InterviewHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	user := middleware.CurrentUser(c)
	interview, err := h.uc.GetSession(c.Context(), id, user.ID, user.Role)
	if err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get interview",
		Data:    interview,
	})
}

// StartCall dials the candidate through the voice provider and binds
// the resulting call id to the interview.
func (h *InterviewHandler) StartCall(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req struct {
		PhoneNumber string `json:"phone_number"`
	}
	if err := c.BodyParser(&req); err != nil || req.PhoneNumber == "" {
		return apperr.New(apperr.KindValidation, "Phone number is required")
	}

	user := middleware.CurrentUser(c)
	interview, err := h.uc.GetSession(c.Context(), id, user.ID, user.Role)
	if err != nil {
		return err
	}
	assistantID, err := h.vapi.AssistantID(interview.InterviewType)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "No assistant configured for this interview type", err)
	}

	callID, err := h.vapi.StartCall(c.Context(), assistantID, req.PhoneNumber, user.ID, interview.ID)
	if err != nil {
		return err
	}
	if err := h.uc.BindCall(c.Context(), interview.ID, callID); err != nil {
		return err
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Call started",
		Data:    fiber.Map{"call_id": callID},
	})
}

func (h *InterviewHandler) End(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	user := middleware.CurrentUser(c)
	interview, err := h.uc.GetSession(c.Context(), id, user.ID, user.Role)
	if err != nil {
		return err
	}
	if interview.ExternalCallID != "" && !interview.Status.Terminal() {
		// Best effort hangup; the session completes either way.
		if err := h.vapi.EndCall(c.Context(), interview.ExternalCallID); err != nil {
			h.log.Warn("failed to end provider call",
				zap.String("call_id", interview.ExternalCallID), zap.Error(err))
		}
	}
	reportID, err := h.uc.EndSession(c.Context(), id, user.ID, user.Role)
	if err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Interview completed",
		Data:    fiber.Map{"report_id": reportID},
	})
}

func (h *InterviewHandler) RetryReport(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	user := middleware.CurrentUser(c)
	reportID, err := h.uc.RetryReport(c.Context(), id, user.ID, user.Role)
	if err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Report generated",
		Data:    fiber.Map{"report_id": reportID},
	})
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperr.New(apperr.KindValidation, "Invalid id")
	}
	return id, nil
}
