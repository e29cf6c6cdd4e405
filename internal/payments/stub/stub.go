package stub

import (
	"context"
	"fmt"
	"strings"

	"github.com/BEASTY2K3/marathon-registration/internal/models"

	"github.com/google/uuid"
)

// Stub provider:
// - CreateOrder: issues order_<hex> ids locally, no network
// - signatures are still checked with the configured key secret

const defaultKeyID = "rzp_test_stub"

type Provider struct {
	keyID string
}

func New(keyID string) *Provider {
	if keyID == "" {
		keyID = defaultKeyID
	}
	return &Provider{keyID: keyID}
}

func (p *Provider) Name() string { return "stub" }

func (p *Provider) KeyID() string { return p.keyID }

func (p *Provider) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*models.CheckoutOrder, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
	return &models.CheckoutOrder{
		ID:       "order_" + id,
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}, nil
}
