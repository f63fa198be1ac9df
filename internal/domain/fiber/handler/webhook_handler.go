package handler

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/interviewmate/server/internal/config"
	"github.com/interviewmate/server/internal/util"
	"github.com/interviewmate/server/internal/webhook"
)

type WebhookHandler struct {
	adapter *webhook.Adapter
}

func NewWebhookHandler(adapter *webhook.Adapter) *WebhookHandler {
	return &WebhookHandler{adapter: adapter}
}

func (h *WebhookHandler) RegisterRoutes(app *fiber.App) {
	app.Post("/api/vapi/webhook", h.Receive)
}

// Receive acknowledges every delivery with 200 so the provider does not
// retry-storm. A shared-secret header gates the endpoint when one is
// configured.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	if secret := config.LoadVapiConfig().WebhookSecret; secret != "" {
		got := c.Get("X-Vapi-Secret")
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
	}

	h.adapter.Handle(c.Context(), c.Body())
	return util.SuccessResponse(c, util.SuccessResponseFormat{Message: "Received"})
}
