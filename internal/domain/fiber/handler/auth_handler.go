package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/interviewmate/server/internal/apperr"
	"github.com/interviewmate/server/internal/config"
	"github.com/interviewmate/server/internal/dto"
	"github.com/interviewmate/server/internal/middleware"
	"github.com/interviewmate/server/internal/model"
	"github.com/interviewmate/server/internal/repository"
	"github.com/interviewmate/server/internal/usecase"
	"github.com/interviewmate/server/internal/util"
)

type AuthHandler struct {
	uc    *usecase.AuthUsecase
	users *repository.UserRepository
}

func NewAuthHandler(uc *usecase.AuthUsecase, users *repository.UserRepository) *AuthHandler {
	return &AuthHandler{uc: uc, users: users}
}

func (h *AuthHandler) RegisterRoutes(app *fiber.App) {
	auth := app.Group("/api/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Post("/refresh-token", h.Refresh)
	auth.Get("/verify-email/:token", h.VerifyEmail)
	auth.Post("/forgot-password", h.ForgotPassword)
	auth.Put("/reset-password/:token", h.ResetPassword)
	auth.Get("/oauth/:provider/callback", h.OAuthCallback)

	protected := auth.Use(middleware.Protect(h.users))
	protected.Get("/me", h.Me)
	protected.Post("/logout", h.Logout)
	protected.Post("/change-password", h.ChangePassword)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.New(apperr.KindValidation, "Invalid request body")
	}
	if err := h.uc.Register(c.Context(), req.Name, req.Email, req.Password); err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: fmt.Sprintf("User registered. An email has been sent to %s for verification.", req.Email),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.New(apperr.KindValidation, "Invalid request body")
	}
	user, pair, err := h.uc.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Logged in successfully",
		Data: fiber.Map{
			"token":         pair.AccessToken,
			"refresh_token": pair.RefreshToken,
			"user":          dto.NewUserDTO(user),
		},
	})
}

type refreshRequest struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return apperr.New(apperr.KindUnauthenticated, "No refresh token provided")
	}
	access, err := h.uc.Refresh(c.Context(), req.Token)
	if err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Token refreshed",
		Data:    fiber.Map{"token": access},
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req refreshRequest
	_ = c.BodyParser(&req)
	if err := h.uc.Logout(c.Context(), req.Token); err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{Message: "Logged out successfully"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success",
		Data:    dto.NewUserDTO(user),
	})
}

func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	if err := h.uc.VerifyEmail(c.Context(), c.Params("token")); err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{Message: "Email verified successfully"})
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.New(apperr.KindValidation, "Invalid request body")
	}
	if err := h.uc.ForgotPassword(c.Context(), req.Email); err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{Message: "Email sent"})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.New(apperr.KindValidation, "Invalid request body")
	}
	pair, err := h.uc.ResetPassword(c.Context(), c.Params("token"), req.Password)
	if err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Password reset successful",
		Data:    fiber.Map{"token": pair.AccessToken, "refresh_token": pair.RefreshToken},
	})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.New(apperr.KindValidation, "Invalid request body")
	}
	user := middleware.CurrentUser(c)
	if err := h.uc.ChangePassword(c.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{Message: "Password updated successfully"})
}

// OAuthCallback is the thin adapter in front of the account decision
// table: the OAuth proxy in front of this service resolves the code
// exchange and forwards the provider profile.
func (h *AuthHandler) OAuthCallback(c *fiber.Ctx) error {
	provider := model.OAuthProvider(c.Params("provider"))
	externalID := c.Query("external_id")
	email := c.Query("email")
	name := c.Query("name")

	user, err := h.uc.ResolveOrCreateOAuthUser(c.Context(), provider, externalID, email, name)
	if err != nil {
		return err
	}
	pair, err := h.uc.IssueTokens(c.Context(), user.ID)
	if err != nil {
		return err
	}

	frontend := config.LoadAppConfig().FrontendURL
	return c.Redirect(fmt.Sprintf("%s/dashboard?token=%s&refreshToken=%s",
		frontend, pair.AccessToken, pair.RefreshToken))
}
