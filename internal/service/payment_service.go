package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BEASTY2K3/marathon-registration/internal/broker"
	"github.com/BEASTY2K3/marathon-registration/internal/models"
	"github.com/BEASTY2K3/marathon-registration/internal/payments"
	"github.com/BEASTY2K3/marathon-registration/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrInvalidSignature means the checkout callback did not come from the provider
	ErrInvalidSignature = errors.New("payment signature mismatch")
	// ErrPaymentNotVerified means no successful payment backs a registration
	ErrPaymentNotVerified = errors.New("payment not verified")
)

// PaymentStore is the persistence PaymentService needs
type PaymentStore interface {
	SavePayment(ctx context.Context, payment *models.Payment) error
}

// PaymentService verifies checkout callbacks and creates provider orders
type PaymentService struct {
	store    PaymentStore
	verifier *payments.SignatureVerifier
	provider payments.Provider
	events   broker.Publisher
	fee      int64
	currency string
	logger   *zap.Logger
}

// NewPaymentService creates a new payment service. fee is in the smallest currency unit.
func NewPaymentService(
	store PaymentStore,
	verifier *payments.SignatureVerifier,
	provider payments.Provider,
	events broker.Publisher,
	fee int64,
	currency string,
) *PaymentService {
	if events == nil {
		events = broker.NopPublisher{}
	}
	return &PaymentService{
		store:    store,
		verifier: verifier,
		provider: provider,
		events:   events,
		fee:      fee,
		currency: currency,
		logger:   util.GetLogger(),
	}
}

// KeyID returns the publishable key for the checkout widget
func (ps *PaymentService) KeyID() string {
	return ps.provider.KeyID()
}

// VerifyPayment checks the callback signature and records the payment as successful.
// Nothing is stored when the signature does not match.
func (ps *PaymentService) VerifyPayment(ctx context.Context, orderID, paymentID, signature string) error {
	ctx, span := util.StartSpan(ctx, "PaymentService.VerifyPayment")
	defer span.End()

	if !ps.verifier.Verify(orderID, paymentID, signature) {
		util.PaymentVerificationsFailedTotal.WithLabelValues("invalid_signature").Inc()
		ps.logger.Warn("Payment signature mismatch",
			zap.String("order_id", orderID),
			zap.String("payment_id", paymentID))
		return ErrInvalidSignature
	}

	payment := &models.Payment{
		OrderID:   orderID,
		PaymentID: paymentID,
		Status:    models.PaymentStatusSuccess,
		CreatedAt: time.Now().UTC(),
	}
	if err := ps.store.SavePayment(ctx, payment); err != nil {
		util.PaymentVerificationsFailedTotal.WithLabelValues("store_error").Inc()
		util.FailSpan(span, err)
		return fmt.Errorf("failed to save payment: %w", err)
	}

	util.PaymentsVerifiedTotal.Inc()
	ps.logger.Info("Payment verified",
		zap.String("order_id", orderID),
		zap.String("payment_id", paymentID))

	if err := ps.events.PublishPaymentVerified(ctx, broker.NewPaymentVerifiedEvent(orderID, paymentID)); err != nil {
		util.EventsPublishFailedTotal.WithLabelValues(models.EventTypePaymentVerified).Inc()
		ps.logger.Error("Failed to publish PaymentVerified event", zap.Error(err))
	}
	return nil
}

// CreateCheckoutOrder creates a provider order for the registration fee.
// The amount the browser asks for is only compared against the fee; the page
// sends it in major units (499 for a fee of 49900).
func (ps *PaymentService) CreateCheckoutOrder(ctx context.Context, requested int64) (*models.CheckoutOrder, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.CreateCheckoutOrder")
	defer span.End()

	if requested != 0 && requested != ps.fee && requested*100 != ps.fee {
		ps.logger.Warn("Ignoring client supplied amount",
			zap.Int64("requested", requested),
			zap.Int64("fee", ps.fee))
	}

	receipt := "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	order, err := ps.provider.CreateOrder(ctx, ps.fee, ps.currency, receipt)
	if err != nil {
		util.CheckoutOrdersFailedTotal.Inc()
		util.FailSpan(span, err)
		return nil, fmt.Errorf("%s: failed to create order: %w", ps.provider.Name(), err)
	}

	util.CheckoutOrdersCreatedTotal.Inc()
	ps.logger.Info("Checkout order created",
		zap.String("order_id", order.ID),
		zap.Int64("amount", order.Amount),
		zap.String("provider", ps.provider.Name()))
	return order, nil
}
