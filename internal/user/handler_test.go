package user

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/wichananm65/storefront-backend/internal/auth"
)

const testSecret = "test-secret"

// makeAppWithUserHandler injects a jwt.Token into locals when the X-User-ID
// header is provided, standing in for the real token middleware.
func makeAppWithUserHandler(uHandler *Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			id, err := strconv.Atoi(v)
			if err == nil {
				claims := jwt.MapClaims{"user_id": id}
				c.Locals(auth.LocalsKey, &jwt.Token{Claims: claims})
			}
		}
		return c.Next()
	})
	uHandler.RegisterPublicRoutes(app)
	uHandler.RegisterProtectedRoutes(app)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) (int, map[string]any) {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	out := map[string]any{}
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res.StatusCode, out
}

func TestSignUpAndSignIn(t *testing.T) {
	app := makeAppWithUserHandler(NewHandler(NewService(NewInMemoryRepository(nil)), testSecret))

	status, body := postJSON(t, app, "/api/v1/sign-up", registerRequest{Email: "j@example.com", Password: "pw123456"})
	if status != fiber.StatusCreated {
		t.Fatalf("sign-up: expected 201, got %d %v", status, body)
	}
	if _, ok := body["password"]; ok {
		t.Fatalf("password hash must not be returned")
	}

	if status, _ := postJSON(t, app, "/api/v1/sign-up", registerRequest{Email: "j@example.com", Password: "other"}); status != fiber.StatusConflict {
		t.Fatalf("duplicate sign-up: expected 409, got %d", status)
	}
	if status, _ := postJSON(t, app, "/api/v1/sign-up", registerRequest{Email: "x@example.com"}); status != fiber.StatusBadRequest {
		t.Fatalf("missing password: expected 400, got %d", status)
	}

	if status, _ := postJSON(t, app, "/api/v1/sign-in", loginRequest{Email: "j@example.com", Password: "wrong"}); status != fiber.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", status)
	}

	status, body = postJSON(t, app, "/api/v1/sign-in", loginRequest{Email: "j@example.com", Password: "pw123456"})
	if status != fiber.StatusOK {
		t.Fatalf("sign-in: expected 200, got %d", status)
	}
	signed, _ := body["token"].(string)
	tok, err := jwt.Parse(signed, func(*jwt.Token) (any, error) { return []byte(testSecret), nil })
	if err != nil || !tok.Valid {
		t.Fatalf("token does not verify: %v", err)
	}
	claims := tok.Claims.(jwt.MapClaims)
	if claims["email"] != "j@example.com" || claims["is_admin"] != false {
		t.Fatalf("unexpected claims %v", claims)
	}
}

func TestProfileRoute(t *testing.T) {
	repo := NewInMemoryRepository([]User{{ID: 7, Email: "j@example.com", Password: "$2a$hash"}})
	app := makeAppWithUserHandler(NewHandler(NewService(repo), testSecret))

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/profile", nil))
	if err != nil {
		t.Fatalf("profile request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.StatusCode)
	}

	req := httptest.NewRequest("GET", "/api/v1/profile", nil)
	req.Header.Set("X-User-ID", "7")
	res, err = app.Test(req)
	if err != nil {
		t.Fatalf("profile request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var u User
	if err := json.NewDecoder(res.Body).Decode(&u); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if u.ID != 7 || u.Password != "" {
		t.Fatalf("unexpected profile %+v", u)
	}
}
