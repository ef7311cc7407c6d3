package eventpublisher

import (
	"careflow-service/internal/app/contracts"
	"careflow-service/internal/app/models"
	"careflow-service/internal/pkg/constvars"
	"careflow-service/internal/pkg/exceptions"
	"context"
	"sync"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Queue names consumed by the notification/dashboard services. Urgent cases
// go to their own queue so the on-call consumer never sits behind routine
// traffic.
const (
	UrgentCaseQueueName = "careflow_urgent_case_queue"
	FlowEventQueueName  = "careflow_flow_event_queue"
)

// rabbitMQEventPublisher forwards committed outbound events. Delivery is
// at-most-once from this service's point of view: callers already received
// the events synchronously and a broker failure is only logged upstream.
type rabbitMQEventPublisher struct {
	ch  *amqp.Channel
	log *zap.Logger
	mu  sync.Mutex
}

func NewRabbitMQEventPublisher(conn *amqp.Connection, logger *zap.Logger) (contracts.EventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, exceptions.ErrRabbitMQOpenChannel(err)
	}

	for _, queueName := range []string{UrgentCaseQueueName, FlowEventQueueName} {
		_, err = ch.QueueDeclare(
			queueName,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			return nil, exceptions.ErrRabbitMQPublishMessage(err, queueName)
		}
	}

	return &rabbitMQEventPublisher{
		ch:  ch,
		log: logger,
	}, nil
}

func (p *rabbitMQEventPublisher) Publish(ctx context.Context, event *models.OutboundEvent) error {
	queueName := queueFor(event.Type)

	body, err := json.Marshal(event)
	if err != nil {
		return exceptions.ErrCannotMarshalJSON(err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx,
		"",        // exchange
		queueName, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         string(event.Type),
			Body:         body,
		},
	)
	if err != nil {
		return exceptions.ErrRabbitMQPublishMessage(err, queueName)
	}

	p.log.Info("rabbitMQEventPublisher.Publish succeeded",
		zap.String(constvars.LoggingQueueNameKey, queueName),
		zap.String(constvars.LoggingEventTypeKey, string(event.Type)),
		zap.String(constvars.LoggingFlowIDKey, event.FlowID),
	)
	return nil
}

func queueFor(eventType models.OutboundEventType) string {
	if eventType == models.OutboundUrgentCaseRaised {
		return UrgentCaseQueueName
	}
	return FlowEventQueueName
}
