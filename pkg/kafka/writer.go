package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"activity_tracker/pkg/dto"
	"activity_tracker/pkg/errs"
)

type DelivererConfig struct {
	Addr         []string
	Topic        string
	MaxAttempts  int
	BatchSize    int
	BatchTimeout time.Duration
	WriteTimeout time.Duration
}

// KafkaDeliverer posts commit notifications to the topic consumed by the
// chat relay. Messages are keyed by destination channel so the relay keeps
// per-channel ordering.
type KafkaDeliverer struct {
	writer *kafka.Writer
}

func NewKafkaDeliverer(config DelivererConfig) (*KafkaDeliverer, error) {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Addr...),
		Balancer:     &kafka.LeastBytes{},
		Topic:        config.Topic,
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  config.MaxAttempts,
		BatchSize:    config.BatchSize,
		BatchTimeout: config.BatchTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return &KafkaDeliverer{writer}, nil
}

func (kd *KafkaDeliverer) Deliver(ctx context.Context, channelID string, notification *dto.CommitNotification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("%w: encode notification: %v", errs.ErrDeliveryFailed, err)
	}
	err = kd.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(channelID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("%w: write to %s: %v", errs.ErrDeliveryFailed, channelID, err)
	}
	return nil
}

func (kd *KafkaDeliverer) Close() error {
	return kd.writer.Close()
}
