// Package checkout drives the browser side of a registration: fetch the key,
// create an order, run the payment widget, then hand the result to the server.
package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/BEASTY2K3/marathon-registration/internal/util"

	"go.uber.org/zap"
)

// ErrPaymentCancelled is returned when the widget closes without a payment id.
// The server is not contacted in that case.
var ErrPaymentCancelled = errors.New("payment failed or cancelled")

// Form is what the participant typed in
type Form struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Age      string `json:"age"`
	Gender   string `json:"gender"`
	Category string `json:"category"`
}

// WidgetOptions configures the hosted payment widget
type WidgetOptions struct {
	Key         string
	Amount      int64
	Currency    string
	Name        string
	Description string
	OrderID     string
	Prefill     Form
}

// WidgetResult is what the widget hands back on completion
type WidgetResult struct {
	PaymentID string
	OrderID   string
	Signature string
}

type Widget interface {
	Open(ctx context.Context, opts WidgetOptions) (WidgetResult, error)
}

// WidgetFunc adapts a function to Widget
type WidgetFunc func(ctx context.Context, opts WidgetOptions) (WidgetResult, error)

func (f WidgetFunc) Open(ctx context.Context, opts WidgetOptions) (WidgetResult, error) {
	return f(ctx, opts)
}

// RejectedError carries the server's message so it can be shown as is
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("registration failed: %s", e.Message)
}

// Outcome of a completed registration
type Outcome struct {
	ChestNumber int64
	Message     string
	// ResetForm is only set once the server confirmed the registration
	ResetForm bool
}

type Client struct {
	baseURL   string
	http      *http.Client
	amount    int64
	eventName string
	logger    *zap.Logger
}

// New creates a client for the API under baseURL (for example http://host:5000/api).
// amount is what the page asks the server to charge, in major units.
func New(baseURL string, amount int64, eventName string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: 15 * time.Second},
		amount:    amount,
		eventName: eventName,
		logger:    util.GetLogger(),
	}
}

type keyResponse struct {
	Key string `json:"key"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Error    string `json:"error"`
}

type verifyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type registerResponse struct {
	Msg         string `json:"msg"`
	ChestNumber int64  `json:"chestNumber"`
}

type registerPayload struct {
	Form
	PaymentID string `json:"paymentId"`
	OrderID   string `json:"orderId"`
	Signature string `json:"signature"`
}

// Register runs the whole checkout for form
func (c *Client) Register(ctx context.Context, form Form, widget Widget) (*Outcome, error) {
	var key keyResponse
	if _, err := c.call(ctx, http.MethodGet, "/get-razorpay-key", nil, &key); err != nil {
		return nil, fmt.Errorf("failed to fetch checkout key: %w", err)
	}

	var order orderResponse
	status, err := c.call(ctx, http.MethodPost, "/createOrder", map[string]int64{"amount": c.amount}, &order)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	if order.ID == "" {
		return nil, &RejectedError{Status: status, Message: "Error creating order. Please try again."}
	}
	c.logger.Info("Checkout order created", zap.String("order_id", order.ID), zap.Int64("amount", order.Amount))

	result, err := widget.Open(ctx, WidgetOptions{
		Key:         key.Key,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Name:        c.eventName,
		Description: "Marathon Registration Fee",
		OrderID:     order.ID,
		Prefill:     form,
	})
	if err != nil {
		return nil, fmt.Errorf("payment widget: %w", err)
	}
	if result.PaymentID == "" {
		return nil, ErrPaymentCancelled
	}

	var verified verifyResponse
	status, err = c.call(ctx, http.MethodPost, "/auth/payment/verify", map[string]string{
		"razorpay_payment_id": result.PaymentID,
		"razorpay_order_id":   result.OrderID,
		"razorpay_signature":  result.Signature,
	}, &verified)
	if err != nil {
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}
	if !verified.Success {
		return nil, &RejectedError{Status: status, Message: verified.Message}
	}

	var registered registerResponse
	status, err = c.call(ctx, http.MethodPost, "/auth/register", registerPayload{
		Form:      form,
		PaymentID: result.PaymentID,
		OrderID:   result.OrderID,
		Signature: result.Signature,
	}, &registered)
	if err != nil {
		return nil, fmt.Errorf("failed to register: %w", err)
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return nil, &RejectedError{Status: status, Message: registered.Msg}
	}

	return &Outcome{ChestNumber: registered.ChestNumber, Message: registered.Msg, ResetForm: true}, nil
}

// call sends body as JSON and decodes any JSON reply into out, whatever the status
func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("unexpected response (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		}
	}
	return resp.StatusCode, nil
}
