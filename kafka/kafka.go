package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"secretbox/logger"
	"secretbox/models"

	"github.com/segmentio/kafka-go"
)

// Envelope is the dead-letter record. Message text stays escaped as stored.
type Envelope struct {
	Message  models.Message `json:"message"`
	Reason   string         `json:"reason"`
	FailedAt time.Time      `json:"failed_at"`
}

// Encode builds the value written to the dead-letter topic.
func Encode(msg models.Message, reason string, at time.Time) ([]byte, error) {
	return json.Marshal(Envelope{Message: msg, Reason: reason, FailedAt: at.UTC()})
}

// DeadLetterWriter republishes secrets whose datastore write failed.
type DeadLetterWriter struct {
	w *kafka.Writer
}

func NewDeadLetterWriter(broker, topic string) *DeadLetterWriter {
	logger.Info("dead-letter writer configured", logger.FieldKV("broker", broker), logger.FieldKV("topic", topic))
	return &DeadLetterWriter{w: &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 5 * time.Second,
	}}
}

// Publish writes one envelope keyed by message id.
func (d *DeadLetterWriter) Publish(ctx context.Context, msg models.Message, reason string) error {
	value, err := Encode(msg, reason, time.Now())
	if err != nil {
		return fmt.Errorf("encode dead letter: %w", err)
	}
	err = d.w.WriteMessages(ctx, kafka.Message{
		Key:     []byte(msg.MessageID),
		Value:   value,
		Headers: []kafka.Header{{Key: "reason", Value: []byte(reason)}},
	})
	if err != nil {
		return fmt.Errorf("write dead letter: %w", err)
	}
	logger.Debug("dead letter written", logger.FieldKV("message_id", msg.MessageID), logger.FieldKV("reason", reason))
	return nil
}

func (d *DeadLetterWriter) Close() error {
	return d.w.Close()
}
