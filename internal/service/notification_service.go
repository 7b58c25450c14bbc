package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/tradein-service/internal/domain"
	"github.com/spec-kit/tradein-service/internal/events"
	"github.com/spec-kit/tradein-service/internal/notification"
	apperrors "github.com/spec-kit/tradein-service/pkg/util"
)

// Notifier renders and delivers a status message to the request owner.
type Notifier interface {
	Notify(ctx context.Context, recipientEmail, requestID string, status domain.TradeInStatus, data notification.Data) error
}

// NotificationService turns domain events into owner notifications.
type NotificationService struct {
	dispatcher events.Dispatcher
	notifier   Notifier
	metrics    MetricsRecorder
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, notifier Notifier, metrics MetricsRecorder, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &NotificationService{
		dispatcher: dispatcher,
		notifier:   notifier,
		metrics:    metrics,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTradeInCreated, n.handleCreated)
	n.dispatcher.Subscribe(events.EventTradeInStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventTradeInInspected, n.handleInspected)
}

func (n *NotificationService) handleCreated(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.TradeInCreatedPayload)
	if !ok {
		return nil
	}
	return n.send(ctx, p.OwnerEmail, event.RequestID, domain.StatusPending, notification.Data{
		Brand:          p.Brand,
		Model:          p.Model,
		EstimatedPrice: p.EstimatedPrice,
	})
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.TradeInStatusChangedPayload)
	if !ok {
		return nil
	}
	return n.send(ctx, p.OwnerEmail, event.RequestID, p.NewStatus, notification.Data{
		EstimatedPrice: p.EstimatedPrice,
		FinalPrice:     p.FinalPrice,
		TrackingNumber: deref(p.TrackingNumber),
		Note:           deref(p.Note),
	})
}

func (n *NotificationService) handleInspected(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.TradeInInspectedPayload)
	if !ok {
		return nil
	}
	final := p.FinalPrice
	return n.send(ctx, p.OwnerEmail, event.RequestID, domain.StatusInspected, notification.Data{
		EstimatedPrice: p.EstimatedPrice,
		FinalPrice:     &final,
	})
}

// send never fails the caller for a status without a template; every other
// failure is logged, counted and returned to the dispatcher.
func (n *NotificationService) send(ctx context.Context, recipient, requestID string, status domain.TradeInStatus, data notification.Data) error {
	err := n.notifier.Notify(ctx, recipient, requestID, status, data)
	if err == nil {
		return nil
	}
	if errors.Is(err, notification.ErrTemplateNotFound) {
		n.logger.Debug("no notification template", zap.String("request_id", requestID), zap.String("status", string(status)))
		return nil
	}
	code := apperrors.ToDomainError(err).Code
	n.metrics.RecordNotificationFailure(status, code)
	n.logger.Warn("notification failed",
		zap.String("request_id", requestID),
		zap.String("status", string(status)),
		zap.String("code", code),
		zap.Error(err))
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
