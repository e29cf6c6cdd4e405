package worker

import (
	"context"
	"time"

	"github.com/BEASTY2K3/marathon-registration/internal/broker"
	"github.com/BEASTY2K3/marathon-registration/internal/models"
	"github.com/BEASTY2K3/marathon-registration/internal/notification"
	"github.com/BEASTY2K3/marathon-registration/internal/util"

	"go.uber.org/zap"
)

type messageConsumer interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// NotificationWorker sends confirmations for ParticipantRegistered events
type NotificationWorker struct {
	consumer     messageConsumer
	eventHandler *broker.EventHandler
	notifier     notification.Notifier
	timeout      time.Duration
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer messageConsumer, notifier notification.Notifier, timeout time.Duration) *NotificationWorker {
	w := &NotificationWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		notifier:     notifier,
		timeout:      timeout,
		logger:       util.GetLogger(),
	}
	w.eventHandler.OnParticipantRegistered(w.handleParticipantRegistered)
	w.eventHandler.OnPaymentVerified(w.handlePaymentVerified)
	return w
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker", zap.Strings("channels", channels(w.notifier)))
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	w.logger.Info("Stopping notification worker")
	return w.consumer.Close()
}

// handleParticipantRegistered never returns the notifier's error: the message is
// committed either way, so a broken relay cannot make the worker resend forever.
func (w *NotificationWorker) handleParticipantRegistered(ctx context.Context, event *models.ParticipantRegisteredEvent) error {
	ctx, span := util.StartSpan(ctx, "NotificationWorker.HandleParticipantRegistered")
	defer span.End()

	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	p := event.Participant
	if err := w.notifier.Notify(ctx, p); err != nil {
		util.NotificationDispatchFailuresTotal.Inc()
		util.FailSpan(span, err)
		w.logger.Error("Failed to notify participant",
			zap.String("event_id", event.EventID),
			zap.Int64("chest_number", p.ChestNumber),
			zap.Error(err))
		return nil
	}

	w.logger.Info("Participant notified",
		zap.String("event_id", event.EventID),
		zap.Int64("chest_number", p.ChestNumber))
	return nil
}

func (w *NotificationWorker) handlePaymentVerified(ctx context.Context, event *models.PaymentVerifiedEvent) error {
	w.logger.Debug("Payment verified",
		zap.String("order_id", event.OrderID),
		zap.String("payment_id", event.PaymentID))
	return nil
}

func channels(n notification.Notifier) []string {
	if f, ok := n.(*notification.Fanout); ok {
		return f.Channels()
	}
	return []string{n.Channel()}
}
