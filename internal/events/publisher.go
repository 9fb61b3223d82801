package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	cb "github.com/togocar/fleet-service/pkg/circuit_breaker"
	"github.com/togocar/fleet-service/pkg/kafka"
)

// Publisher sends reservation events to Kafka behind a circuit breaker, so a
// broker outage degrades to dropped events instead of slow requests.
type Publisher struct {
	producer sarama.SyncProducer
	breaker  cb.CircuitBreaker
	log      *zap.Logger
}

func NewPublisher(producer sarama.SyncProducer, log *zap.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		breaker:  cb.New(20, 30*time.Second, 0.5, 5),
		log:      log.Named("events"),
	}
}

func (p *Publisher) Publish(_ context.Context, event kafka.ReservationEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.log.Error("marshal event", zap.Error(err))
		return
	}
	err = p.breaker.Call(func() error {
		msg := &sarama.ProducerMessage{
			Topic: kafka.ReservationEventsTopic,
			Key:   sarama.StringEncoder(event.ReservationID),
			Value: sarama.ByteEncoder(data),
		}
		_, _, err := p.producer.SendMessage(msg)
		return err
	})
	if err != nil {
		p.log.Warn("publish event",
			zap.String("reservationId", event.ReservationID),
			zap.String("status", event.Status),
			zap.Error(err))
	}
}

// NopPublisher drops events; used when Kafka is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, kafka.ReservationEvent) {}
