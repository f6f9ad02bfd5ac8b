package auth

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

const secret = "test-secret"

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(New(secret))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		v := ViewerFromCtx(c)
		return c.JSON(fiber.Map{"id": v.UserID, "email": v.Email, "admin": v.Admin})
	})
	app.Get("/private", Required, func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/admin", AdminOnly, func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func whoami(t *testing.T, app *fiber.App, token string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("GET", "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body := map[string]any{}
	_ = json.NewDecoder(res.Body).Decode(&body)
	return res.StatusCode, body
}

func TestAnonymousWithoutHeader(t *testing.T) {
	app := newApp()
	code, body := whoami(t, app, "")
	if code != fiber.StatusOK {
		t.Fatalf("anonymous request should pass, got %d", code)
	}
	if body["id"].(float64) != 0 {
		t.Fatalf("expected anonymous viewer, got %v", body)
	}

	res, _ := app.Test(httptest.NewRequest("GET", "/private", nil))
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous private access, got %d", res.StatusCode)
	}
}

func TestIssuedTokenRoundTrip(t *testing.T) {
	app := newApp()
	tok, err := IssueToken(secret, Viewer{UserID: 5, Email: "a@b.c", Admin: true}, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	code, body := whoami(t, app, tok)
	if code != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["id"].(float64) != 5 || body["email"] != "a@b.c" || body["admin"] != true {
		t.Fatalf("unexpected viewer %v", body)
	}

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("admin should pass, got %d", res.StatusCode)
	}
}

func TestNonAdminForbidden(t *testing.T) {
	app := newApp()
	tok, _ := IssueToken(secret, Viewer{UserID: 6}, time.Hour)
	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	res, _ := app.Test(req)
	if res.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.StatusCode)
	}
}

func TestInvalidTokenRejected(t *testing.T) {
	app := newApp()
	tok, _ := IssueToken("other-secret", Viewer{UserID: 5}, time.Hour)
	if code, _ := whoami(t, app, tok); code != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for foreign signature, got %d", code)
	}
	expired, _ := IssueToken(secret, Viewer{UserID: 5}, -time.Minute)
	if code, _ := whoami(t, app, expired); code != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", code)
	}
}
