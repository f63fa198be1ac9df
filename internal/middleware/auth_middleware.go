package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/interviewmate/server/internal/apperr"
	"github.com/interviewmate/server/internal/config"
	"github.com/interviewmate/server/internal/model"
	"github.com/interviewmate/server/internal/repository"
	"github.com/interviewmate/server/internal/util"
)

const userLocalKey = "currentUser"

// Protect validates the bearer token and loads the account into the
// request context.
func Protect(users *repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			return apperr.New(apperr.KindUnauthenticated, "Not authorized to access this route")
		}
		tokenStr := strings.TrimPrefix(authz, "Bearer ")

		userID, err := util.VerifyToken(tokenStr, config.LoadJWTConfig().Secret)
		if err != nil {
			return apperr.New(apperr.KindUnauthenticated, "Not authorized to access this route")
		}
		user, err := users.FindByID(userID)
		if err != nil {
			return apperr.New(apperr.KindUnauthenticated, "No user found with this token")
		}

		c.Locals(userLocalKey, user)
		return c.Next()
	}
}

// RequireRole gates a route to specific roles; must run after Protect.
func RequireRole(roles ...model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return apperr.New(apperr.KindUnauthenticated, "Not authorized to access this route")
		}
		for _, role := range roles {
			if user.Role == role {
				return c.Next()
			}
		}
		return apperr.New(apperr.KindForbidden, "Your role is not authorized to access this route")
	}
}

// CurrentUser returns the authenticated user set by Protect, or nil.
func CurrentUser(c *fiber.Ctx) *model.User {
	user, _ := c.Locals(userLocalKey).(*model.User)
	return user
}
