package cart

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/wichananm65/storefront-backend/internal/auth"
	"github.com/wichananm65/storefront-backend/internal/session"
)

const (
	countLocalsKey   = "cartCount"
	sessionLocalsKey = "cartSession"
	CountHeader      = "X-Cart-Count"
)

// Handler exposes the cart of whoever is making the request.
type Handler struct {
	service  *Service
	sessions *session.Store
}

func NewHandler(s *Service, sessions *session.Store) *Handler {
	return &Handler{service: s, sessions: sessions}
}

func (h *Handler) RegisterRoutes(r fiber.Router) {
	r.Get("/api/v1/cart", h.getCart)
	r.Get("/api/v1/cart/count", h.getCount)
	r.Post("/api/v1/cart/items/:productID<int>", h.addToCart)
	r.Delete("/api/v1/cart/items/:productID<int>", auth.Required, h.removeFromCart)
}

// For picks the cart backend for the current viewer.
func (h *Handler) For(c *fiber.Ctx) Shopper {
	if v := auth.ViewerFromCtx(c); v.Authenticated() {
		return h.service.ForUser(v.UserID)
	}
	b, ok := c.Locals(sessionLocalsKey).(*session.Binding)
	if !ok {
		b = h.sessions.Bind(c)
		c.Locals(sessionLocalsKey, b)
	}
	return h.service.ForSession(b)
}

// LoadCount computes the number of items in the viewer's cart once per
// request. Failures degrade to zero.
func (h *Handler) LoadCount(c *fiber.Ctx) error {
	n, err := h.For(c).Count(c.UserContext())
	if err != nil {
		log.Warnf("cart: count unavailable for %s: %v", c.Path(), err)
		n = 0
	}
	c.Locals(countLocalsKey, n)
	c.Set(CountHeader, strconv.Itoa(n))
	return c.Next()
}

// CountFromCtx returns the count stored by LoadCount, or 0.
func CountFromCtx(c *fiber.Ctx) int {
	n, _ := c.Locals(countLocalsKey).(int)
	return n
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	view, err := h.For(c).View(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(fiber.Map{
		"items":     view.Lines,
		"total":     view.Total,
		"cartCount": CountFromCtx(c),
	})
}

func (h *Handler) getCount(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"cartCount": CountFromCtx(c)})
}

func (h *Handler) addToCart(c *fiber.Ctx) error {
	productID, err := strconv.Atoi(c.Params("productID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid productID"})
	}
	if err := h.For(c).Add(c.UserContext(), productID); err != nil {
		if errors.Is(err, ErrInvalidProduct) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid productID"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Item added to cart"})
}

func (h *Handler) removeFromCart(c *fiber.Ctx) error {
	productID, err := strconv.Atoi(c.Params("productID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid productID"})
	}
	if err := h.For(c).Remove(c.UserContext(), productID); err != nil {
		if errors.Is(err, ErrLoginRequired) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Product removed from cart!"})
}
