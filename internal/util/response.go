package util

import (
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"github.com/interviewmate/server/internal/apperr"
	"github.com/interviewmate/server/internal/config"
)

type SuccessResponseFormat struct {
	Code    int
	Message string
	Data    any
	Meta    any
}

type OrderedSuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Meta    any    `json:"meta,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type OrderedErrorResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	DevMessage string `json:"dev_message,omitempty"`
	Trace      string `json:"trace,omitempty"`
}

// SuccessResponse writes the standard success envelope.
func SuccessResponse(c *fiber.Ctx, params SuccessResponseFormat) error {
	if params.Code == 0 {
		params.Code = fiber.StatusOK
	}
	return c.Status(params.Code).JSON(OrderedSuccessResponse{
		Success: true,
		Message: params.Message,
		Data:    params.Data,
		Meta:    params.Meta,
	})
}

// ErrorResponse writes the standard error envelope. The status code and
// user-facing message come from the error taxonomy; raw error detail is
// exposed only outside production.
func ErrorResponse(c *fiber.Ctx, err error) error {
	response := OrderedErrorResponse{
		Success: false,
		Message: apperr.Message(err),
	}
	if config.LoadAppConfig().Env != "production" && err != nil {
		response.DevMessage = err.Error()
		if apperr.KindOf(err) == apperr.KindInternal {
			response.Trace = string(debug.Stack())
		}
	}
	return c.Status(apperr.StatusCode(err)).JSON(response)
}
