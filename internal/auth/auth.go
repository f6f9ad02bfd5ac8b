// Package auth resolves the viewer of a request from an optional bearer
// token. Requests without an Authorization header are served as anonymous.
package auth

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
)

// LocalsKey is where the parsed *jwt.Token is kept in the request locals.
const LocalsKey = "user"

// Viewer identifies who is making a request. The zero value is anonymous.
type Viewer struct {
	UserID int
	Email  string
	Admin  bool
}

func (v Viewer) Authenticated() bool {
	return v.UserID > 0
}

// New returns the token middleware. A missing Authorization header leaves
// the viewer anonymous; a present but invalid token is rejected with 401.
func New(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:    []byte(secret),
		SigningMethod: "HS256",
		ContextKey:    LocalsKey,
		Filter: func(c *fiber.Ctx) bool {
			return c.Get(fiber.HeaderAuthorization) == ""
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
		},
	})
}

// IssueToken signs the claims read back by ViewerFromCtx.
func IssueToken(secret string, v Viewer, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  v.UserID,
		"email":    v.Email,
		"is_admin": v.Admin,
		"exp":      time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ViewerFromCtx extracts the viewer from the JWT stored in c.Locals.
// Anything unexpected yields the anonymous viewer.
func ViewerFromCtx(c *fiber.Ctx) Viewer {
	tok, ok := c.Locals(LocalsKey).(*jwt.Token)
	if !ok || tok == nil {
		return Viewer{}
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Viewer{}
	}
	id, ok := userID(claims["user_id"])
	if !ok || id <= 0 {
		return Viewer{}
	}
	v := Viewer{UserID: id}
	v.Email, _ = claims["email"].(string)
	v.Admin, _ = claims["is_admin"].(bool)
	return v
}

// Required rejects anonymous viewers.
func Required(c *fiber.Ctx) error {
	if !ViewerFromCtx(c).Authenticated() {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	return c.Next()
}

// AdminOnly rejects viewers without the is_admin claim.
func AdminOnly(c *fiber.Ctx) error {
	v := ViewerFromCtx(c)
	if !v.Authenticated() {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	if !v.Admin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Invalid credentials or not an admin"})
	}
	return c.Next()
}

func userID(raw any) (int, bool) {
	switch v := raw.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		id, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}
