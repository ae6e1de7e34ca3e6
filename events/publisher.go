// Package events publishes domain events (registrations, joins, donations)
// for downstream consumers such as mailers and analytics.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Event types.
const (
	UserRegistered    = "user.registered"
	InitiativeCreated = "initiative.created"
	InitiativeJoined  = "initiative.joined"
	VolunteerApplied  = "volunteer.applied"
	VolunteerReviewed = "volunteer.reviewed"
	DonationCreated   = "donation.created"
	DonationSettled   = "donation.settled"
)

const publishTimeout = 3 * time.Second

// Publisher delivers an encoded event keyed for partitioning.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, key string) error
	Close() error
}

// Envelope wraps every published payload.
type Envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

// Emit encodes data in an Envelope and publishes it. Failures are logged and
// never returned: events are best effort and must not fail a request.
func Emit(ctx context.Context, p Publisher, log logrus.FieldLogger, eventType, key string, data any) {
	if p == nil {
		return
	}
	payload, err := json.Marshal(Envelope{ID: uuid.NewString(), Type: eventType, OccurredAt: time.Now().UTC(), Data: data})
	if err != nil {
		log.WithError(err).WithField("event", eventType).Error("encode event")
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.Publish(ctx, eventType, payload, key); err != nil {
		log.WithError(err).WithField("event", eventType).Warn("publish event")
	}
}

// KafkaPublisher writes events to one topic per event type. Writes block
// until the brokers acknowledge; wrap it in an AsyncPublisher to keep them
// off the request path.
type KafkaPublisher struct {
	writer      *kafka.Writer
	topicPrefix string
}

func NewKafkaPublisher(brokers []string, topicPrefix string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			RequiredAcks:           kafka.RequireAll,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
		topicPrefix: topicPrefix,
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, payload []byte, key string) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topicPrefix + eventType,
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now().UTC(),
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher records events in the log. Used when no broker is configured.
type LogPublisher struct {
	Log logrus.FieldLogger
}

func (p LogPublisher) Publish(_ context.Context, eventType string, payload []byte, key string) error {
	p.Log.WithFields(logrus.Fields{
		"event": eventType,
		"key":   key,
		"bytes": len(payload),
	}).Debug("event")
	return nil
}

func (LogPublisher) Close() error { return nil }
