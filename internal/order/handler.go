package order

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/wichananm65/storefront-backend/internal/auth"
	"github.com/wichananm65/storefront-backend/internal/product"
)

// Handler delegates order operations to the order service.
// The product service is only used by the admin dashboard.
type Handler struct {
	service        *Service
	productService *product.Service
}

func NewHandler(s *Service, ps *product.Service) *Handler {
	return &Handler{service: s, productService: ps}
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Post("/api/v1/checkout", auth.Required, h.checkout)
	r.Get("/api/v1/orders", auth.Required, h.getOrders)
}

func (h *Handler) RegisterAdminRoutes(r fiber.Router) {
	admin := r.Group("/api/v1/admin", auth.AdminOnly)
	admin.Get("/dashboard", h.dashboard)
	admin.Post("/orders/:id<int>/process", h.processOrder)
	admin.Post("/orders/:id<int>/deliver", h.deliverOrder)
}

func (h *Handler) checkout(c *fiber.Ctx) error {
	viewer := auth.ViewerFromCtx(c)

	created, err := h.service.Checkout(c.UserContext(), viewer.UserID)
	if err != nil {
		if errors.Is(err, ErrEmptyCart) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Your cart is empty."})
		}
		log.Errorf("checkout failed for user %d: %v", viewer.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	log.Infof("order %d placed by user %d, total %s", created.ID, viewer.UserID, created.Total.StringFixed(2))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Checkout complete! Your order has been placed.",
		"order":   created,
	})
}

// getOrders returns all orders belonging to the currently authenticated user,
// newest first.
func (h *Handler) getOrders(c *fiber.Ctx) error {
	viewer := auth.ViewerFromCtx(c)
	orders, err := h.service.ListForUser(c.UserContext(), viewer.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(orders)
}

func (h *Handler) dashboard(c *fiber.Ctx) error {
	products, err := h.productService.List(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	orders, err := h.service.ListAll(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(fiber.Map{"products": products, "orders": orders})
}

func (h *Handler) processOrder(c *fiber.Ctx) error {
	return h.updateStatus(c, h.service.MarkProcessed, "Order processed successfully!")
}

func (h *Handler) deliverOrder(c *fiber.Ctx) error {
	return h.updateStatus(c, h.service.MarkDelivered, "Order marked as delivered")
}

func (h *Handler) updateStatus(c *fiber.Ctx, apply func(ctx context.Context, id int) (Order, error), message string) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	updated, err := apply(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "order not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(fiber.Map{"message": message, "order": updated})
}
