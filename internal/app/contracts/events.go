package contracts

import (
	"careflow-service/internal/app/models"
	"context"
)

// EventPublisher forwards outbound events to the notification/dashboard
// consumer. Publishing happens after ApplyEvent has returned the events
// synchronously; a publish failure never rolls back a committed transition.
type EventPublisher interface {
	Publish(ctx context.Context, event *models.OutboundEvent) error
}
