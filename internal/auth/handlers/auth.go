package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"scene-editor/internal/auth/models"
	"scene-editor/internal/auth/repository"
	"scene-editor/internal/auth/service"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// ============================================================
// Auth Handler
// ============================================================

type AuthHandler struct {
	identity *service.Identity
	log      logrus.FieldLogger
}

func NewAuthHandler(identity *service.Identity, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		identity: identity,
		log:      log.WithField("component", "auth"),
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

type userPayload struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// SignUp registers a user by email and password.
func (h *AuthHandler) SignUp(c fiber.Ctx) error {
	req, err := parseCredentials(c)
	if err != nil {
		return err
	}

	user, err := h.identity.SignUp(c.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrPasswordTooLong):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrEmailTaken):
		return c.Status(http.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		h.log.WithError(err).Error("sign up failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "sign up failed"})
	}

	h.log.WithField("user_id", user.ID).Info("user registered")
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"user":    mapUser(user),
		"message": "Account created! Please sign in.",
	})
}

// SignIn issues a session token for valid credentials.
func (h *AuthHandler) SignIn(c fiber.Ctx) error {
	req, err := parseCredentials(c)
	if err != nil {
		return err
	}

	sess, err := h.identity.SignIn(c.Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
	}
	if err != nil {
		h.log.WithError(err).Error("sign in failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "sign in failed"})
	}

	return c.JSON(mapSession(sess))
}

// SignOut revokes the bearer token from the Authorization header.
func (h *AuthHandler) SignOut(c fiber.Ctx) error {
	if token, ok := BearerToken(c); ok {
		h.identity.SignOut(c.Context(), token)
	}
	return c.SendStatus(http.StatusNoContent)
}

// GetSession returns the current session.
func (h *AuthHandler) GetSession(c fiber.Ctx) error {
	token, ok := BearerToken(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}
	return h.resolve(c, token)
}

// GetSessionInternal resolves a token for other services.
func (h *AuthHandler) GetSessionInternal(c fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "token required"})
	}
	return h.resolve(c, token)
}

// ============================================================
// Helpers
// ============================================================

func (h *AuthHandler) resolve(c fiber.Ctx, token string) error {
	sess, err := h.identity.GetSession(c.Context(), token)
	if errors.Is(err, service.ErrNoSession) {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}
	if err != nil {
		h.log.WithError(err).Error("resolve session failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "session lookup failed"})
	}
	return c.JSON(mapSession(sess))
}

func parseCredentials(c fiber.Ctx) (*credentialsRequest, error) {
	if len(c.Body()) == 0 {
		return nil, fiber.NewError(http.StatusBadRequest, "empty body")
	}

	var req credentialsRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return nil, fiber.NewError(http.StatusBadRequest, "invalid json")
	}
	if req.Email == "" || req.Password == "" {
		return nil, fiber.NewError(http.StatusBadRequest, "email and password required")
	}
	return &req, nil
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(c fiber.Ctx) (string, bool) {
	auth := c.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return token, token != ""
}

func mapUser(u *models.User) userPayload {
	return userPayload{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func mapSession(s *models.Session) sessionResponse {
	return sessionResponse{Token: s.Token, User: mapUser(&s.User)}
}

// Register mounts the auth routes on r.
func (h *AuthHandler) Register(r fiber.Router) {
	r.Post("/signup", h.SignUp)
	r.Post("/signin", h.SignIn)
	r.Post("/signout", h.SignOut)
	r.Get("/session", h.GetSession)

	// Internal routes (service to service)
	r.Get("/internal/sessions/:token", h.GetSessionInternal)
}
