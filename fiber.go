package session

import (
	"github.com/gofiber/fiber/v2"
)

// FiberMiddleware adapts the guard to Fiber applications that mount the
// platform's views directly.
func (g *Guard) FiberMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		outcome, target := g.Decide()

		switch outcome {
		case GuardLoading:
			return c.SendStatus(fiber.StatusNoContent)
		case GuardRedirectLogin, GuardRedirectFallback:
			g.logger.Debug("guard redirect to %s", target)
			return c.Redirect(target, fiber.StatusFound)
		default:
			return c.Next()
		}
	}
}
