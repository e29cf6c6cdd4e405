package checkout

import (
	"context"
	"strings"

	"github.com/BEASTY2K3/marathon-registration/internal/payments"

	"github.com/google/uuid"
)

// SigningWidget completes every payment locally and signs it with the key secret,
// standing in for the hosted widget against a server running the stub provider.
type SigningWidget struct {
	Secret string
}

func (w SigningWidget) Open(ctx context.Context, opts WidgetOptions) (WidgetResult, error) {
	if err := ctx.Err(); err != nil {
		return WidgetResult{}, err
	}
	paymentID := "pay_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
	return WidgetResult{
		PaymentID: paymentID,
		OrderID:   opts.OrderID,
		Signature: payments.Sign(w.Secret, opts.OrderID, paymentID),
	}, nil
}
