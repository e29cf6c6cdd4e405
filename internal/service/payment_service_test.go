package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/BEASTY2K3/marathon-registration/internal/models"
	"github.com/BEASTY2K3/marathon-registration/internal/payments"
	"github.com/BEASTY2K3/marathon-registration/internal/payments/stub"
	"github.com/BEASTY2K3/marathon-registration/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	verified []*models.PaymentVerifiedEvent
	err      error
}

func (r *recordingPublisher) PublishPaymentVerified(ctx context.Context, e *models.PaymentVerifiedEvent) error {
	r.verified = append(r.verified, e)
	return r.err
}

func (r *recordingPublisher) PublishParticipantRegistered(ctx context.Context, e *models.ParticipantRegisteredEvent) error {
	return r.err
}

type failingProvider struct{}

func (failingProvider) Name() string  { return "failing" }
func (failingProvider) KeyID() string { return "rzp_test_x" }
func (failingProvider) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*models.CheckoutOrder, error) {
	return nil, errors.New("provider unavailable")
}

type saveFailingStore struct{}

func (saveFailingStore) SavePayment(ctx context.Context, p *models.Payment) error {
	return errors.New("disk full")
}

func newPaymentService(s PaymentStore, pub *recordingPublisher) *PaymentService {
	return NewPaymentService(s, payments.NewSignatureVerifier(testSecret), stub.New(""), pub, 49900, "INR")
}

func TestVerifyPayment_ValidSignatureStoresSuccess(t *testing.T) {
	s := store.NewMemoryStore()
	pub := &recordingPublisher{}
	svc := newPaymentService(s, pub)

	err := svc.VerifyPayment(context.Background(), "order_1", "pay_1", payments.Sign(testSecret, "order_1", "pay_1"))

	require.NoError(t, err)
	p, err := s.FindPayment(context.Background(), "order_1", "pay_1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccess, p.Status)
	require.Len(t, pub.verified, 1)
	assert.Equal(t, "pay_1", pub.verified[0].PaymentID)
}

func TestVerifyPayment_InvalidSignatureStoresNothing(t *testing.T) {
	s := store.NewMemoryStore()
	pub := &recordingPublisher{}
	svc := newPaymentService(s, pub)

	err := svc.VerifyPayment(context.Background(), "order_1", "pay_1", payments.Sign("other", "order_1", "pay_1"))

	assert.ErrorIs(t, err, ErrInvalidSignature)
	_, err = s.FindPayment(context.Background(), "order_1", "pay_1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, pub.verified)
}

func TestVerifyPayment_StoreFailure(t *testing.T) {
	svc := newPaymentService(saveFailingStore{}, &recordingPublisher{})

	err := svc.VerifyPayment(context.Background(), "order_1", "pay_1", payments.Sign(testSecret, "order_1", "pay_1"))

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyPayment_PublishFailureIsIgnored(t *testing.T) {
	svc := newPaymentService(store.NewMemoryStore(), &recordingPublisher{err: errors.New("kafka down")})

	err := svc.VerifyPayment(context.Background(), "order_1", "pay_1", payments.Sign(testSecret, "order_1", "pay_1"))

	assert.NoError(t, err)
}

func TestCreateCheckoutOrder_UsesConfiguredFee(t *testing.T) {
	svc := newPaymentService(store.NewMemoryStore(), &recordingPublisher{})

	order, err := svc.CreateCheckoutOrder(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, int64(49900), order.Amount)
	assert.Equal(t, "INR", order.Currency)
	assert.True(t, strings.HasPrefix(order.ID, "order_"))
	assert.True(t, strings.HasPrefix(order.Receipt, "rcpt_"))
	assert.LessOrEqual(t, len(order.Receipt), 40)
	assert.Equal(t, "rzp_test_stub", svc.KeyID())
}

func TestCreateCheckoutOrder_ProviderError(t *testing.T) {
	svc := NewPaymentService(store.NewMemoryStore(), payments.NewSignatureVerifier(testSecret), failingProvider{}, nil, 49900, "INR")

	_, err := svc.CreateCheckoutOrder(context.Background(), 49900)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider unavailable")
}
