package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/BEASTY2K3/marathon-registration/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramAlerter posts each new registration to the organizers' chats
type TelegramAlerter struct {
	bot       messageSender
	chatIDs   []int64
	eventName string
}

// NewTelegramAlerter authenticates the bot token against the Telegram API
func NewTelegramAlerter(token string, chatIDs []int64, eventName string) (*TelegramAlerter, error) {
	if len(chatIDs) == 0 {
		return nil, errors.New("telegram: no chat ids configured")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &TelegramAlerter{bot: bot, chatIDs: chatIDs, eventName: eventName}, nil
}

func (a *TelegramAlerter) Channel() string { return "telegram" }

func (a *TelegramAlerter) Notify(ctx context.Context, p models.Participant) error {
	text := fmt.Sprintf("%s: new registration #%d\n%s (%s, %s)\nCategory: %s\nPayment: %s",
		a.eventName, p.ChestNumber, p.Name, p.Gender, p.Age, p.Category, p.PaymentID)

	var errs []error
	for _, id := range a.chatIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := a.bot.Send(tgbotapi.NewMessage(id, text)); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
