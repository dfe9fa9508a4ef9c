package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Header carries the ray id on requests and responses.
const Header = "X-Ray-ID"

// LocalsKey is the fiber.Ctx locals key holding the ray id.
const LocalsKey = "ray_id"

// New returns a middleware that assigns every request a ray id. An
// incoming X-Ray-ID header is reused so callers can correlate requests.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(LocalsKey, id)
		c.Set(Header, id)
		return c.Next()
	}
}
