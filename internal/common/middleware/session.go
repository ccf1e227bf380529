package middleware

import (
	"context"
	"net/http"
	"strings"

	authmodels "scene-editor/internal/auth/models"

	"github.com/gofiber/fiber/v3"
)

const sessionKey = "session"

// SessionResolver looks up the session behind a bearer token.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*authmodels.Session, error)
}

// RequireSession rejects requests without a valid bearer token and stores
// the resolved session in the request locals.
func RequireSession(r SessionResolver) fiber.Handler {
	return func(c fiber.Ctx) error {
		auth := c.Get("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if !strings.HasPrefix(auth, "Bearer ") || token == "" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}

		sess, err := r.Resolve(c.Context(), token)
		if err != nil || sess == nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		c.Locals(sessionKey, sess)
		return c.Next()
	}
}

// Session returns the session stored by RequireSession.
func Session(c fiber.Ctx) (*authmodels.Session, bool) {
	sess, ok := c.Locals(sessionKey).(*authmodels.Session)
	return sess, ok && sess != nil
}
