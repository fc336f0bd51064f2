package events

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/ride-booking-bot/internal/models"
)

const (
	TypeRideCreated   = "ride_created"
	TypeStatusChanged = "ride_status_changed"
)

// RideEvent is the payload written to the ride topic.
type RideEvent struct {
	Type string      `json:"type"`
	Ride models.Ride `json:"ride"`
	At   time.Time   `json:"at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer publishes ride ledger changes and operator locations. It
// satisfies ledger.Sink.
type KafkaProducer struct {
	rides     messageWriter
	locations messageWriter
	timeout   time.Duration
}

// Writes happen inside a chat turn, so the batch window is kept short.
const batchTimeout = 10 * time.Millisecond

func NewKafkaProducer(brokers []string, rideTopic, locationTopic string) *KafkaProducer {
	return &KafkaProducer{
		rides:     newWriter(brokers, rideTopic, &kafka.Hash{}),
		locations: newWriter(brokers, locationTopic, &kafka.LeastBytes{}),
		timeout:   2 * time.Second,
	}
}

func newWriter(brokers []string, topic string, balancer kafka.Balancer) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     balancer,
		BatchTimeout: batchTimeout,
		RequiredAcks: kafka.RequireOne,
	}
}

func (k *KafkaProducer) SaveRide(ctx context.Context, r models.Ride) error {
	return k.publishRide(ctx, TypeRideCreated, r)
}

func (k *KafkaProducer) UpdateRide(ctx context.Context, r models.Ride) error {
	return k.publishRide(ctx, TypeStatusChanged, r)
}

// rides of one client share a key so they land on one partition in order
func (k *KafkaProducer) publishRide(ctx context.Context, typ string, r models.Ride) error {
	b, err := json.Marshal(RideEvent{Type: typ, Ride: r, At: r.UpdatedAt})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()
	return k.rides.WriteMessages(ctx, kafka.Message{
		Key:     []byte(r.ClientIdentity),
		Value:   b,
		Headers: []kafka.Header{{Key: "type", Value: []byte(typ)}, {Key: "ride_id", Value: []byte(strconv.FormatInt(r.ID, 10))}},
	})
}

func (k *KafkaProducer) PublishLocation(ctx context.Context, loc models.OperatorLocation) error {
	b, err := json.Marshal(loc)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()
	return k.locations.WriteMessages(ctx, kafka.Message{Key: []byte(loc.OperatorID), Value: b})
}

func (k *KafkaProducer) Close() error {
	var errs []error
	for _, w := range []messageWriter{k.rides, k.locations} {
		if w != nil {
			errs = append(errs, w.Close())
		}
	}
	return errors.Join(errs...)
}
