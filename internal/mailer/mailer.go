// Package mailer sends plain-text mail through an SMTP relay.
package mailer

import (
	"context"
	"errors"
)

var (
	ErrNoRecipient = errors.New("mailer: at least one recipient required")
	ErrNoSender    = errors.New("mailer: from address required")
	ErrEmptyEmail  = errors.New("mailer: subject and body required")
)

type Service interface {
	Send(ctx context.Context, e Email) error
}

type Email struct {
	FromName string
	From     string
	To       []string
	Subject  string
	TextBody string
}

func (e Email) validate() error {
	if len(e.To) == 0 {
		return ErrNoRecipient
	}
	if e.From == "" {
		return ErrNoSender
	}
	if e.Subject == "" || e.TextBody == "" {
		return ErrEmptyEmail
	}
	return nil
}
