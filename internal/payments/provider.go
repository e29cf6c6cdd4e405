package payments

import (
	"context"

	"github.com/BEASTY2K3/marathon-registration/internal/models"
)

type Provider interface {
	Name() string

	// KeyID is the publishable key handed to the checkout widget
	KeyID() string

	// CreateOrder registers an order of amount (smallest currency unit) with the provider
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*models.CheckoutOrder, error)
}
