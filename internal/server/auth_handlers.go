package server

import (
	"fmt"
	"strings"
	"time"

	"knowhere/internal/middleware"
	"knowhere/internal/models"
	"knowhere/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// LoginRequest is the payload for POST /api/auth/login.
type LoginRequest struct {
	Role     string `json:"role"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the signed token plus a session snapshot.
type LoginResponse struct {
	Token   string          `json:"token"`
	Session SessionSnapshot `json:"session"`
}

// SessionSnapshot is the client-facing view of a session.
type SessionSnapshot struct {
	ID       string  `json:"id"`
	Role     string  `json:"role"`
	Username string  `json:"username"`
	Joined   []int64 `json:"joined"`
}

func snapshotSession(sess *models.Session) SessionSnapshot {
	joined := make([]int64, 0, len(sess.Joined))
	for id, ok := range sess.Joined {
		if ok {
			joined = append(joined, id)
		}
	}
	return SessionSnapshot{
		ID:       sess.ID,
		Role:     string(sess.Role),
		Username: sess.Username,
		Joined:   joined,
	}
}

// Login establishes a session for the requested role.
// Guests need no credential, users need a display name, admins authenticate
// against the configured credential provider.
//
//	POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	role := models.Role(strings.TrimSpace(req.Role))
	if role == "" {
		role = models.RoleGuest
	}
	if !models.IsValidRole(role) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unknown role: "+string(role)))
	}

	username := strings.TrimSpace(req.Username)
	switch role {
	case models.RoleGuest:
		if username == "" {
			username = "guest"
		}
	case models.RoleUser:
		if err := validation.ValidateUsername(username); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
	case models.RoleAdmin:
		if username == "" {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Username is required"))
		}
		if err := s.authProvider.Authenticate(username, req.Password); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "admin login rejected",
				"username", username)
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewAuthenticationError("Invalid credentials"))
		}
	}

	sess := s.sessions.Create(role, username)

	token, err := s.generateToken(sess)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	middleware.Logger.InfoContext(c.UserContext(), "session established",
		"session_id", sess.ID, "role", string(sess.Role))

	return c.Status(fiber.StatusOK).JSON(LoginResponse{
		Token:   token,
		Session: snapshotSession(sess),
	})
}

// Me returns the session snapshot for the presented token.
//
//	GET /api/auth/me
func (s *Server) Me(c *fiber.Ctx) error {
	sess := s.sessionFromLocals(c)
	if sess == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewAuthenticationError("No active session"))
	}
	return c.Status(fiber.StatusOK).JSON(snapshotSession(sess))
}

// Logout discards the in-memory session. The token itself expires on its own.
//
//	POST /api/auth/logout
func (s *Server) Logout(c *fiber.Ctx) error {
	sess := s.sessionFromLocals(c)
	if sess != nil {
		s.sessions.Delete(sess.ID)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Logged out",
	})
}

// generateToken signs a JWT bound to the session identity.
func (s *Server) generateToken(sess *models.Session) (string, error) {
	now := time.Now()
	ttl := time.Duration(s.config.SessionTTL) * time.Minute

	claims := jwt.MapClaims{
		"sub":      sess.ID,
		"role":     string(sess.Role),
		"username": sess.Username,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      now.Add(ttl).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8]),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}
