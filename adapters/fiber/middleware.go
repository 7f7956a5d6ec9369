package fiber

import (
	"github.com/gofiber/fiber/v3"

	"github.com/restio/restio/core"
)

// RequireAuth returns a Fiber middleware that validates the request's bearer
// token against the API's token store and stores the resolved user in Locals
// under "user". Routes registered natively on the app can share credentials
// with the mounted API this way.
func RequireAuth(api *core.API) fiber.Handler {
	return func(c fiber.Ctx) error {
		auth := api.Auth()
		if auth == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}

		token := bearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": core.ErrMissingToken.Error(),
			})
		}

		user, err := auth.AuthenticateToken(c.Context(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}

		c.Locals("user", user)
		return c.Next()
	}
}

// UserFromCtx returns the user stored by RequireAuth, or nil.
func UserFromCtx(c fiber.Ctx) *core.UserRecord {
	user, _ := c.Locals("user").(*core.UserRecord)
	return user
}

func bearerToken(c fiber.Ctx) string {
	const prefix = "Bearer "
	header := c.Get(fiber.HeaderAuthorization)
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}
