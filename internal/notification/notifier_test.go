package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BEASTY2K3/marathon-registration/internal/mailer"
	"github.com/BEASTY2K3/marathon-registration/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	channel string
	err     error
	calls   int
}

func (r *recordingNotifier) Channel() string { return r.channel }

func (r *recordingNotifier) Notify(ctx context.Context, p models.Participant) error {
	r.calls++
	return r.err
}

type fakeBot struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

type fakeRoster struct {
	rows []models.Participant
}

func (f *fakeRoster) AppendParticipant(ctx context.Context, p models.Participant) error {
	f.rows = append(f.rows, p)
	return nil
}

func sampleParticipant() models.Participant {
	return models.Participant{
		Name:        "Asha",
		Email:       "asha@example.com",
		Phone:       "9999999999",
		Age:         "29",
		Gender:      "F",
		Category:    "10K",
		PaymentID:   "pay_1",
		ChestNumber: 1000,
	}
}

func TestEmailSender_Compose(t *testing.T) {
	s := NewEmailSender(&mailer.Mock{}, "race@example.com", "Polo Marathon", "Polo Marathon")

	e := s.Compose(sampleParticipant())

	assert.Equal(t, []string{"asha@example.com"}, e.To)
	assert.Equal(t, "Polo Marathon Registration Confirmation", e.Subject)
	assert.Contains(t, e.TextBody, "Hello Asha,")
	assert.Contains(t, e.TextBody, "Your Chest Number: 1000")
	assert.Equal(t, "race@example.com", e.From)
}

func TestEmailSender_NotifySendsOneMail(t *testing.T) {
	m := &mailer.Mock{}
	s := NewEmailSender(m, "race@example.com", "", "Polo Marathon")

	require.NoError(t, s.Notify(context.Background(), sampleParticipant()))
	assert.Len(t, m.Sent(), 1)
}

func TestFanout_ContinuesAfterFailure(t *testing.T) {
	failing := &recordingNotifier{channel: "email", err: errors.New("smtp down")}
	ok := &recordingNotifier{channel: "telegram"}
	f := NewFanout(time.Second, failing, ok)

	err := f.Notify(context.Background(), sampleParticipant())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "email: smtp down")
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, []string{"email", "telegram"}, f.Channels())
}

func TestFanout_AllDelivered(t *testing.T) {
	f := NewFanout(0, &recordingNotifier{channel: "email"})
	assert.NoError(t, f.Notify(context.Background(), sampleParticipant()))
}

type hangingNotifier struct{}

func (hangingNotifier) Channel() string { return "email" }

func (hangingNotifier) Notify(ctx context.Context, p models.Participant) error {
	<-ctx.Done()
	return ctx.Err()
}

type deadlineRecorder struct {
	remaining time.Duration
	err       error
}

func (d *deadlineRecorder) Channel() string { return "telegram" }

func (d *deadlineRecorder) Notify(ctx context.Context, p models.Participant) error {
	time.Sleep(30 * time.Millisecond)
	d.err = ctx.Err()
	if deadline, ok := ctx.Deadline(); ok {
		d.remaining = time.Until(deadline)
	}
	return nil
}

func TestFanout_HangingChannelDoesNotStarveOthers(t *testing.T) {
	other := &deadlineRecorder{}
	f := NewFanout(100*time.Millisecond, hangingNotifier{}, other)

	start := time.Now()
	err := f.Notify(context.Background(), sampleParticipant())

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "email:")
	assert.NotContains(t, err.Error(), "telegram:")
	assert.NoError(t, other.err)
	assert.Greater(t, other.remaining, time.Duration(0))
	assert.Less(t, time.Since(start), time.Second)
}

func TestTelegramAlerter_SendsToEveryChat(t *testing.T) {
	bot := &fakeBot{}
	a := &TelegramAlerter{bot: bot, chatIDs: []int64{1, 2}, eventName: "Polo Marathon"}

	require.NoError(t, a.Notify(context.Background(), sampleParticipant()))

	require.Len(t, bot.sent, 2)
	assert.Equal(t, int64(1), bot.sent[0].ChatID)
	assert.Contains(t, bot.sent[0].Text, "#1000")
	assert.Contains(t, bot.sent[1].Text, "pay_1")
}

func TestTelegramAlerter_SendError(t *testing.T) {
	bot := &fakeBot{err: errors.New("forbidden")}
	a := &TelegramAlerter{bot: bot, chatIDs: []int64{7}, eventName: "Polo Marathon"}

	err := a.Notify(context.Background(), sampleParticipant())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat 7")
}

func TestNewTelegramAlerter_RequiresChats(t *testing.T) {
	_, err := NewTelegramAlerter("token", nil, "Polo Marathon")
	assert.Error(t, err)
}

func TestRosterRecorder_Appends(t *testing.T) {
	roster := &fakeRoster{}
	r := NewRosterRecorder(roster)

	require.NoError(t, r.Notify(context.Background(), sampleParticipant()))
	assert.Equal(t, "roster", r.Channel())
	require.Len(t, roster.rows, 1)
	assert.Equal(t, int64(1000), roster.rows[0].ChestNumber)
}
