package core

import (
	"context"
	"net/mail"
)

type (
	// SMSService is any service that can deliver a text message to a phone
	// number. Delivery failures are the service's own concern; callers treat
	// them as non-fatal and log.
	SMSService interface {
		SendSMS(ctx context.Context, phone, message string) error
	}

	// EmailMessage is a simple plain-text message for operator alerts.
	EmailMessage struct {
		To      []mail.Address
		Subject string
		Body    string
	}

	// EmailService is any service that can send emails.
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.Body != "" }
