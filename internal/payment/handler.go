package payment

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/wichananm65/storefront-backend/internal/auth"
	"github.com/wichananm65/storefront-backend/internal/order"
)

// Orders is the part of the order service payments depend on.
type Orders interface {
	GetForUser(ctx context.Context, userID, id int) (order.Order, error)
	MarkPaid(ctx context.Context, userID, id int) (order.Order, error)
}

type Handler struct {
	client *Client
	orders Orders
}

func NewHandler(client *Client, orders Orders) *Handler {
	return &Handler{client: client, orders: orders}
}

func (h *Handler) RegisterProtectedRoutes(r fiber.Router) {
	r.Post("/api/v1/orders/:id<int>/pay", auth.Required, h.pay)
	r.Get("/api/v1/payments/callback/:id<int>", auth.Required, h.callback)
}

func (h *Handler) pay(c *fiber.Ctx) error {
	viewer := auth.ViewerFromCtx(c)
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	ord, err := h.orders.GetForUser(c.UserContext(), viewer.UserID, id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "order not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}

	url, err := h.client.Initiate(c.UserContext(), Request{OrderID: ord.ID, Amount: ord.Total, Email: viewer.Email})
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"paymentURL": url})
	case errors.Is(err, ErrNotConfigured):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"message": "Payment configuration missing."})
	case errors.Is(err, ErrRejected):
		log.Warnf("payment for order %d rejected: %v", ord.ID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "Payment initialization failed."})
	default:
		log.Errorf("payment for order %d failed: %v", ord.ID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "Payment error: " + err.Error()})
	}
}

// callback marks the order paid. The provider's redirect is trusted as is.
func (h *Handler) callback(c *fiber.Ctx) error {
	viewer := auth.ViewerFromCtx(c)
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	ord, err := h.orders.MarkPaid(c.UserContext(), viewer.UserID, id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "order not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	log.Infof("order %d marked paid", ord.ID)
	return c.JSON(fiber.Map{"message": "Payment successful!", "order": ord})
}
