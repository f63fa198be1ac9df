package handler

import (
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/interviewmate/server/internal/apperr"
	"github.com/interviewmate/server/internal/dto"
	"github.com/interviewmate/server/internal/middleware"
	"github.com/interviewmate/server/internal/repository"
	"github.com/interviewmate/server/internal/usecase"
	"github.com/interviewmate/server/internal/util"
)

type UserHandler struct {
	uc    *usecase.UserUsecase
	users *repository.UserRepository
}

func NewUserHandler(uc *usecase.UserUsecase, users *repository.UserRepository) *UserHandler {
	return &UserHandler{uc: uc, users: users}
}

func (h *UserHandler) RegisterRoutes(app *fiber.App) {
	users := app.Group("/api/users", middleware.Protect(h.users))
	users.Get("/profile", h.Profile)
	users.Put("/profile", h.UpdateProfile)
	users.Delete("/account", h.DeleteAccount)
}

func (h *UserHandler) Profile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	profile, err := h.uc.Profile(c.Context(), user.ID)
	if err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get profile",
		Data:    dto.NewUserDTO(profile),
	})
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var avatar []byte
	var avatarName string
	if file, err := c.FormFile("avatar"); err == nil {
		if file.Size > 5*1024*1024 {
			return apperr.New(apperr.KindValidation, "Avatar file size is too large (max 5MB)")
		}
		switch strings.ToLower(filepath.Ext(file.Filename)) {
		case ".png", ".jpg", ".jpeg", ".webp":
		default:
			return apperr.New(apperr.KindValidation, "Unsupported avatar file type")
		}
		avatar, err = readUpload(file)
		if err != nil {
			return apperr.Wrap(apperr.KindUpload, "Cannot read avatar file", err)
		}
		avatarName = file.Filename
	}

	updated, err := h.uc.UpdateProfile(c.Context(), user.ID,
		c.FormValue("name"), c.FormValue("email"), avatar, avatarName)
	if err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Profile updated",
		Data:    dto.NewUserDTO(updated),
	})
}

func (h *UserHandler) DeleteAccount(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if err := h.uc.DeleteAccount(c.Context(), user.ID); err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{Message: "Account deleted"})
}
