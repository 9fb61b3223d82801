package kafka

import (
	"time"

	"github.com/IBM/sarama"
)

const ReservationEventsTopic = "reservation-events"

type Config struct {
	Addrs []string `envconfig:"KAFKA_ADDRS"`
}

// ReservationEvent is published on every reservation state change.
type ReservationEvent struct {
	ReservationID string    `json:"reservationId"`
	VehicleID     string    `json:"vehicleId"`
	UserID        string    `json:"userId"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurredAt"`
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}
