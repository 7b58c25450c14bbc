package worker

import (
	"github.com/spec-kit/tradein-service/internal/events"
	"github.com/spec-kit/tradein-service/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// StartEventForwarder subscribes the publisher to every domain event so they
// reach the broker after commit.
func StartEventForwarder(publisher *events.KafkaPublisher, dispatcher events.Dispatcher) {
	if publisher == nil || dispatcher == nil {
		return
	}
	publisher.Register(dispatcher)
}
