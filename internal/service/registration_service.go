package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/BEASTY2K3/marathon-registration/internal/broker"
	"github.com/BEASTY2K3/marathon-registration/internal/models"
	"github.com/BEASTY2K3/marathon-registration/internal/notification"
	"github.com/BEASTY2K3/marathon-registration/internal/payments"
	"github.com/BEASTY2K3/marathon-registration/internal/store"
	"github.com/BEASTY2K3/marathon-registration/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RegistrationState is a step of the registration workflow
type RegistrationState string

const (
	StateReceived        RegistrationState = "received"
	StatePaymentChecked  RegistrationState = "payment_checked"
	StateNumberAllocated RegistrationState = "number_allocated"
	StatePersisted       RegistrationState = "persisted"
	StateNotified        RegistrationState = "notified"
	StateRejected        RegistrationState = "rejected"
)

const defaultNotifyTimeout = 15 * time.Second

// ParticipantStore is the persistence RegistrationService needs
type ParticipantStore interface {
	FindPayment(ctx context.Context, orderID, paymentID string) (*models.Payment, error)
	InsertParticipant(ctx context.Context, participant *models.Participant) error
}

// RegistrationRequest carries the form fields and the checkout result
type RegistrationRequest struct {
	Name      string
	Email     string
	Phone     string
	Age       string
	Gender    string
	Category  string
	PaymentID string
	OrderID   string
	Signature string
}

type RegistrationOptions struct {
	// NotifyTimeout bounds each background notification
	NotifyTimeout time.Duration
	// Verifier, when set, makes Register check the signature again instead of
	// trusting the stored payment status alone.
	Verifier *payments.SignatureVerifier
}

// RegistrationService turns a verified payment into a participant with a chest number
type RegistrationService struct {
	store         ParticipantStore
	sequence      SequenceAllocator
	notifier      notification.Notifier
	events        broker.Publisher
	verifier      *payments.SignatureVerifier
	notifyTimeout time.Duration
	pending       sync.WaitGroup
	logger        *zap.Logger
}

// NewRegistrationService creates the workflow. notifier may be nil when
// confirmations are sent by the notification worker instead.
func NewRegistrationService(
	store ParticipantStore,
	sequence SequenceAllocator,
	notifier notification.Notifier,
	events broker.Publisher,
	opts RegistrationOptions,
) *RegistrationService {
	if events == nil {
		events = broker.NopPublisher{}
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = defaultNotifyTimeout
	}
	return &RegistrationService{
		store:         store,
		sequence:      sequence,
		notifier:      notifier,
		events:        events,
		verifier:      opts.Verifier,
		notifyTimeout: opts.NotifyTimeout,
		logger:        util.GetLogger(),
	}
}

type registration struct {
	state  RegistrationState
	span   trace.Span
	logger *zap.Logger
}

func (r *registration) advance(to RegistrationState) {
	r.logger.Debug("Registration state changed",
		zap.String("from", string(r.state)),
		zap.String("to", string(to)))
	r.state = to
	r.span.SetAttributes(attribute.String("registration.state", string(to)))
}

func (r *registration) reject(reason string, err error) error {
	r.advance(StateRejected)
	util.RegistrationsRejectedTotal.WithLabelValues(reason).Inc()
	if !errors.Is(err, ErrPaymentNotVerified) {
		util.FailSpan(r.span, err)
	}
	return err
}

// Register runs received → payment_checked → number_allocated → persisted → notified.
// ErrPaymentNotVerified is returned when no successful payment matches the request;
// any other error is a storage fault. Notification failures are never returned.
func (s *RegistrationService) Register(ctx context.Context, req RegistrationRequest) (*models.Participant, error) {
	ctx, span := util.StartSpan(ctx, "RegistrationService.Register")
	defer span.End()

	start := time.Now()
	reg := &registration{
		state: StateReceived,
		span:  span,
		logger: s.logger.With(
			zap.String("order_id", req.OrderID),
			zap.String("payment_id", req.PaymentID)),
	}

	if s.verifier != nil && !s.verifier.Verify(req.OrderID, req.PaymentID, req.Signature) {
		reg.logger.Warn("Registration signature mismatch")
		return nil, reg.reject("invalid_signature", ErrPaymentNotVerified)
	}

	payment, err := s.store.FindPayment(ctx, req.OrderID, req.PaymentID)
	if errors.Is(err, store.ErrNotFound) {
		reg.logger.Warn("Registration without a recorded payment")
		return nil, reg.reject("payment_not_found", ErrPaymentNotVerified)
	}
	if err != nil {
		return nil, reg.reject("store_error", fmt.Errorf("failed to look up payment: %w", err))
	}
	if !payment.IsVerified() {
		reg.logger.Warn("Registration with unverified payment", zap.String("status", payment.Status))
		return nil, reg.reject("payment_not_verified", ErrPaymentNotVerified)
	}
	reg.advance(StatePaymentChecked)

	participant := models.Participant{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Age:       req.Age,
		Gender:    req.Gender,
		Category:  req.Category,
		PaymentID: req.PaymentID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.allocateAndInsert(ctx, reg, &participant); err != nil {
		return nil, err
	}
	reg.advance(StatePersisted)

	util.RegistrationsTotal.Inc()
	util.RegistrationLatency.Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int64("registration.chest_number", participant.ChestNumber))
	reg.logger.Info("Participant registered", zap.Int64("chest_number", participant.ChestNumber))

	s.dispatch(participant)
	reg.advance(StateNotified)

	return &participant, nil
}

// allocateAndInsert retries once when another registration took the number first
func (s *RegistrationService) allocateAndInsert(ctx context.Context, reg *registration, p *models.Participant) error {
	for attempt := 1; ; attempt++ {
		n, err := s.sequence.Next(ctx)
		if err != nil {
			return reg.reject("store_error", fmt.Errorf("failed to allocate chest number: %w", err))
		}
		p.ChestNumber = n
		reg.advance(StateNumberAllocated)

		err = s.store.InsertParticipant(ctx, p)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrDuplicateChestNumber) {
			return reg.reject("store_error", fmt.Errorf("failed to insert participant: %w", err))
		}

		util.ChestNumberConflictsTotal.Inc()
		reg.logger.Warn("Chest number already taken",
			zap.Int64("chest_number", n),
			zap.Int("attempt", attempt))
		if attempt == 2 {
			return reg.reject("chest_number_conflict", fmt.Errorf("failed to insert participant: %w", err))
		}
	}
}

// dispatch publishes the registration event and runs the notifier on its own
// goroutine and context, so neither a slow broker or relay nor a cancelled
// request affects the registration.
func (s *RegistrationService) dispatch(p models.Participant) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				util.NotificationDispatchFailuresTotal.Inc()
				s.logger.Error("Notification panicked",
					zap.Int64("chest_number", p.ChestNumber),
					zap.Any("panic", r))
			}
		}()

		s.publishRegistered(p)

		if s.notifier == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, p); err != nil {
			util.NotificationDispatchFailuresTotal.Inc()
			s.logger.Error("Failed to notify participant",
				zap.Int64("chest_number", p.ChestNumber),
				zap.String("channel", s.notifier.Channel()),
				zap.Error(err))
		}
	}()
}

func (s *RegistrationService) publishRegistered(p models.Participant) {
	ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
	defer cancel()

	if err := s.events.PublishParticipantRegistered(ctx, broker.NewParticipantRegisteredEvent(p)); err != nil {
		util.EventsPublishFailedTotal.WithLabelValues(models.EventTypeParticipantRegistered).Inc()
		s.logger.Error("Failed to publish ParticipantRegistered event",
			zap.Int64("chest_number", p.ChestNumber),
			zap.Error(err))
	}
}

// Wait blocks until background notifications finish or ctx is done
func (s *RegistrationService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
