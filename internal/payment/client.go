package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/storefront-backend/internal/config"
)

var (
	ErrNotConfigured = errors.New("payment configuration missing")
	ErrRejected      = errors.New("payment initialization failed")
	ErrTransport     = errors.New("payment provider unreachable")
)

const (
	callbackPath  = "/api/v1/payments/callback/"
	statusSuccess = "success"
)

// Request describes the order a payment page is opened for.
type Request struct {
	OrderID int
	Amount  decimal.Decimal
	Email   string
}

type initiateBody struct {
	MerchantID    string `json:"merchant_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	CallbackURL   string `json:"callback_url"`
	CustomerEmail string `json:"customer_email"`
}

type initiateResponse struct {
	Status     string `json:"status"`
	PaymentURL string `json:"payment_url"`
}

// Client opens hosted payment pages with the provider.
type Client struct {
	cfg     config.PaymentConfig
	baseURL string
}

func NewClient(cfg config.PaymentConfig, publicBaseURL string) *Client {
	return &Client{cfg: cfg, baseURL: strings.TrimRight(publicBaseURL, "/")}
}

// CallbackURL is where the provider sends the buyer after paying for order id.
func (c *Client) CallbackURL(id int) string {
	return c.baseURL + callbackPath + strconv.Itoa(id)
}

// MinorUnits converts an amount to the provider's integer minor units,
// truncating any fraction below one unit.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}

// Initiate asks the provider for a payment URL. Errors wrap ErrNotConfigured,
// ErrRejected or ErrTransport.
func (c *Client) Initiate(ctx context.Context, req Request) (string, error) {
	if c.cfg.MerchantID == "" || c.cfg.APIKey == "" {
		return "", ErrNotConfigured
	}
	timeout := c.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		left := time.Until(deadline)
		if left <= 0 {
			return "", fmt.Errorf("%w: %v", ErrTransport, context.DeadlineExceeded)
		}
		if timeout <= 0 || left < timeout {
			timeout = left
		}
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}

	agent := fiber.Post(c.cfg.APIURL)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+c.cfg.APIKey)
	agent.Set(fiber.HeaderXRequestID, uuid.NewString())
	agent.JSON(initiateBody{
		MerchantID:    c.cfg.MerchantID,
		Amount:        MinorUnits(req.Amount),
		Currency:      c.cfg.Currency,
		CallbackURL:   c.CallbackURL(req.OrderID),
		CustomerEmail: req.Email,
	})
	if timeout > 0 {
		agent.Timeout(timeout)
	}
	if err := agent.Parse(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", fmt.Errorf("%w: %v", ErrTransport, errs[0])
	}
	var resp initiateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: malformed response: %v", ErrTransport, err)
	}
	if code < 200 || code >= 300 || resp.Status != statusSuccess || resp.PaymentURL == "" {
		return "", fmt.Errorf("%w: status %d %q", ErrRejected, code, resp.Status)
	}
	return resp.PaymentURL, nil
}
