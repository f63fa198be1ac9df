package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/interviewmate/server/internal/apperr"
	"github.com/interviewmate/server/internal/middleware"
	"github.com/interviewmate/server/internal/model"
	"github.com/interviewmate/server/internal/repository"
	"github.com/interviewmate/server/internal/usecase"
	"github.com/interviewmate/server/internal/util"
)

type PaymentHandler struct {
	uc    *usecase.PaymentUsecase
	users *repository.UserRepository
}

func NewPaymentHandler(uc *usecase.PaymentUsecase, users *repository.UserRepository) *PaymentHandler {
	return &PaymentHandler{uc: uc, users: users}
}

func (h *PaymentHandler) RegisterRoutes(app *fiber.App) {
	payments := app.Group("/api/payments", middleware.Protect(h.users))
	payments.Post("/order", h.CreateOrder)
	payments.Post("/verify", h.Verify)
	payments.Get("/subscription", h.Subscription)
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Plan     string `json:"plan"`
}

func (h *PaymentHandler) CreateOrder(c *fiber.Ctx) error {
	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.New(apperr.KindValidation, "Invalid request body")
	}
	user := middleware.CurrentUser(c)
	order, err := h.uc.CreateOrder(c.Context(), user.ID, req.Amount, req.Currency, model.Plan(req.Plan))
	if err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Order created",
		Data:    order,
	})
}

type verifyPaymentRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
	Plan      string `json:"plan"`
}

func (h *PaymentHandler) Verify(c *fiber.Ctx) error {
	var req verifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.New(apperr.KindValidation, "Invalid request body")
	}
	user := middleware.CurrentUser(c)
	payment, err := h.uc.VerifyPayment(c.Context(), user.ID, req.OrderID, req.PaymentID, req.Signature, model.Plan(req.Plan))
	if err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Payment verified",
		Data:    payment,
	})
}

func (h *PaymentHandler) Subscription(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	details, err := h.uc.SubscriptionDetails(c.Context(), user.ID)
	if err != nil {
		return err
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get subscription",
		Data:    details,
	})
}
