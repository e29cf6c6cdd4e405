package notification

import (
	"context"
	"fmt"

	"github.com/BEASTY2K3/marathon-registration/internal/mailer"
	"github.com/BEASTY2K3/marathon-registration/internal/models"
)

// EmailSender sends the participant their confirmation and chest number
type EmailSender struct {
	mailer    mailer.Service
	from      string
	fromName  string
	eventName string
}

func NewEmailSender(m mailer.Service, from, fromName, eventName string) *EmailSender {
	return &EmailSender{mailer: m, from: from, fromName: fromName, eventName: eventName}
}

func (s *EmailSender) Channel() string { return "email" }

// Compose builds the confirmation message for p
func (s *EmailSender) Compose(p models.Participant) mailer.Email {
	return mailer.Email{
		FromName: s.fromName,
		From:     s.from,
		To:       []string{p.Email},
		Subject:  fmt.Sprintf("%s Registration Confirmation", s.eventName),
		TextBody: fmt.Sprintf("Hello %s,\n\nYour registration for the %s is confirmed!\nYour Chest Number: %d\n\nThank you!",
			p.Name, s.eventName, p.ChestNumber),
	}
}

func (s *EmailSender) Notify(ctx context.Context, p models.Participant) error {
	return s.mailer.Send(ctx, s.Compose(p))
}
