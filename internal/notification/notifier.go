// Package notification renders per-status messages and hands them to a sender.
package notification

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/tradein-service/internal/domain"
	apperrors "github.com/spec-kit/tradein-service/pkg/util"
)

var (
	// ErrTemplateNotFound is returned when a status has no message template.
	ErrTemplateNotFound = errors.New("notification template not found")
	// ErrNoRecipient is returned when the recipient address is empty.
	ErrNoRecipient = errors.New("notification recipient missing")
)

// Data is the request state exposed to templates.
type Data struct {
	Brand          string
	Model          string
	EstimatedPrice float64
	FinalPrice     *float64
	TrackingNumber string
	Note           string
}

type view struct {
	Data
	RequestID string
	Status    domain.TradeInStatus
}

// Notifier renders and delivers status notifications.
type Notifier struct {
	from      string
	sender    Sender
	templates map[domain.TradeInStatus]messageTemplate
}

// NewNotifier builds a notifier with the built-in templates.
func NewNotifier(from string, sender Sender) (*Notifier, error) {
	templates, err := parseTemplates(defaultTemplates)
	if err != nil {
		return nil, err
	}
	return &Notifier{from: from, sender: sender, templates: templates}, nil
}

// HasTemplate reports whether status produces a message.
func (n *Notifier) HasTemplate(status domain.TradeInStatus) bool {
	_, ok := n.templates[status]
	return ok
}

// Notify renders the template for status and sends it to recipientEmail.
// Every failure is a NOTIFICATION_FAILED DomainError wrapping the cause.
func (n *Notifier) Notify(ctx context.Context, recipientEmail, requestID string, status domain.TradeInStatus, data Data) error {
	details := map[string]any{"requestId": requestID, "status": status}

	tmpl, ok := n.templates[status]
	if !ok {
		return apperrors.NewNotificationError("no template for status", details, ErrTemplateNotFound)
	}
	recipientEmail = strings.TrimSpace(recipientEmail)
	if recipientEmail == "" {
		return apperrors.NewNotificationError("no recipient for notification", details, ErrNoRecipient)
	}

	v := view{Data: data, RequestID: requestID, Status: status}
	var subject, body bytes.Buffer
	if err := tmpl.subject.Execute(&subject, v); err != nil {
		return apperrors.NewNotificationError("render notification subject", details, err)
	}
	if err := tmpl.body.Execute(&body, v); err != nil {
		return apperrors.NewNotificationError("render notification body", details, err)
	}

	msg := Message{
		From:      n.from,
		To:        recipientEmail,
		Subject:   subject.String(),
		Body:      body.String(),
		RequestID: requestID,
		Status:    string(status),
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		return apperrors.NewNotificationError("deliver notification", details, err)
	}
	return nil
}
