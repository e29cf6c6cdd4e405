package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/BEASTY2K3/marathon-registration/internal/models"
	"github.com/BEASTY2K3/marathon-registration/internal/util"

	"go.uber.org/zap"
)

// Notifier tells someone about a completed registration
type Notifier interface {
	Channel() string
	Notify(ctx context.Context, p models.Participant) error
}

// Fanout delivers to every channel concurrently, each under its own timeout,
// so a failing or hanging channel does not hold back the others.
type Fanout struct {
	notifiers []Notifier
	timeout   time.Duration
	logger    *zap.Logger
}

// NewFanout creates a fanout. A zero timeout leaves each channel bounded only by the caller's context.
func NewFanout(timeout time.Duration, notifiers ...Notifier) *Fanout {
	return &Fanout{notifiers: notifiers, timeout: timeout, logger: util.GetLogger()}
}

func (f *Fanout) Channel() string { return "fanout" }

// Channels lists the configured channel names
func (f *Fanout) Channels() []string {
	out := make([]string, 0, len(f.notifiers))
	for _, n := range f.notifiers {
		out = append(out, n.Channel())
	}
	return out
}

func (f *Fanout) Notify(ctx context.Context, p models.Participant) error {
	errs := make([]error, len(f.notifiers))

	var wg sync.WaitGroup
	for i, n := range f.notifiers {
		wg.Add(1)
		go func(i int, n Notifier) {
			defer wg.Done()
			errs[i] = f.notifyOne(ctx, n, p)
		}(i, n)
	}
	wg.Wait()

	return errors.Join(errs...)
}

func (f *Fanout) notifyOne(ctx context.Context, n Notifier, p models.Participant) error {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	if err := n.Notify(ctx, p); err != nil {
		util.NotificationsFailedTotal.WithLabelValues(n.Channel()).Inc()
		return fmt.Errorf("%s: %w", n.Channel(), err)
	}
	util.NotificationsSentTotal.WithLabelValues(n.Channel()).Inc()
	f.logger.Debug("Notification delivered",
		zap.String("channel", n.Channel()),
		zap.Int64("chest_number", p.ChestNumber))
	return nil
}
