package middleware

import (
	"errors"
	"strings"

	"knowhere/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// ErrNoToken is returned when a request carries no usable bearer token.
var ErrNoToken = errors.New("no bearer token")

// SessionClaims is the session identity carried inside a signed token.
type SessionClaims struct {
	SessionID string
	Role      models.Role
	Username  string
	Issuer    string
	Audience  string
}

// ExtractToken pulls the bearer token from the Authorization header.
// WebSocket upgrades cannot carry headers from browsers, so allowQuery
// additionally accepts a "token" query parameter.
func ExtractToken(c *fiber.Ctx, allowQuery bool) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", ErrNoToken
		}
		return parts[1], nil
	}
	if allowQuery {
		if token := c.Query("token"); token != "" {
			return token, nil
		}
	}
	return "", ErrNoToken
}

// ParseSessionClaims validates the token signature and expiry and extracts
// the session identity from its claims.
func ParseSessionClaims(secret, tokenString string) (*SessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, errors.New("missing subject claim")
	}
	roleStr, _ := claims["role"].(string)
	role := models.Role(roleStr)
	if !models.IsValidRole(role) {
		return nil, errors.New("invalid role in token")
	}
	username, _ := claims["username"].(string)
	issuer, _ := claims["iss"].(string)
	audience, _ := claims["aud"].(string)

	return &SessionClaims{
		SessionID: sub,
		Role:      role,
		Username:  username,
		Issuer:    issuer,
		Audience:  audience,
	}, nil
}

// AdminRequired enforces that the authenticated session holds the admin role.
// It must run after the authentication middleware that sets the role local.
func AdminRequired(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(string)
	if models.Role(role) != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Admin access required",
			"code":  "AUTHORIZATION_ERROR",
		})
	}
	return c.Next()
}
