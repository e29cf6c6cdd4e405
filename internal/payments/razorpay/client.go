// Package razorpay creates checkout orders through the Razorpay SDK.
package razorpay

import (
	"context"
	"fmt"
	"strings"

	"github.com/BEASTY2K3/marathon-registration/internal/models"

	rzp "github.com/razorpay/razorpay-go"
)

const DefaultBaseURL = "https://api.razorpay.com"

// requestTimeoutSeconds bounds each SDK call; the SDK takes no context.
const requestTimeoutSeconds = 10

type Client struct {
	keyID string
	api   *rzp.Client
}

// New builds a client. baseURL overrides the API host, without the /v1 prefix.
func New(keyID, keySecret, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	api := rzp.NewClient(keyID, keySecret)
	api.SetTimeout(requestTimeoutSeconds)
	api.Order.Request.BaseURL = strings.TrimSuffix(strings.TrimRight(baseURL, "/"), "/v1")
	return &Client{keyID: keyID, api: api}
}

func (c *Client) Name() string { return "razorpay" }

func (c *Client) KeyID() string { return c.keyID }

func (c *Client) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*models.CheckoutOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
	}
	if receipt != "" {
		data["receipt"] = receipt
	}

	body, err := c.api.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order failed: %w", err)
	}

	order := &models.CheckoutOrder{
		ID:       stringField(body, "id"),
		Amount:   int64Field(body, "amount"),
		Currency: stringField(body, "currency"),
		Receipt:  stringField(body, "receipt"),
		Status:   stringField(body, "status"),
	}
	if order.ID == "" {
		return nil, fmt.Errorf("razorpay returned an order without id")
	}
	return order, nil
}

func stringField(body map[string]interface{}, key string) string {
	s, _ := body[key].(string)
	return s
}

// int64Field reads a JSON number, which the SDK decodes as float64
func int64Field(body map[string]interface{}, key string) int64 {
	switch v := body[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}
