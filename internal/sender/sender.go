// Package sender publishes combined records outside the local artifact tree.
package sender

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/navid-fn/deribit-collector/configs"
	"github.com/navid-fn/deribit-collector/internal/models"
	"github.com/sirupsen/logrus"
)

// flushTimeoutMs bounds how long Close waits for queued messages.
const flushTimeoutMs = 15 * 1000

type Sender interface {
	SendCombined(ctx context.Context, rec models.CombinedRecord) error
	Close()
}

// New returns a KafkaSender when publishing is enabled and a NopSender otherwise.
func New(cfg configs.KafkaConfig, logger *logrus.Logger) (Sender, error) {
	if !cfg.Enabled {
		return NopSender{}, nil
	}
	s, err := NewKafkaSender(cfg, logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NopSender drops every record.
type NopSender struct{}

func (NopSender) SendCombined(context.Context, models.CombinedRecord) error { return nil }

func (NopSender) Close() {}

type KafkaSender struct {
	producer *kafka.Producer
	topic    string
	logger   *logrus.Entry
	done     chan struct{}
}

func NewKafkaSender(cfg configs.KafkaConfig, logger *logrus.Logger) (*KafkaSender, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Broker,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	s := &KafkaSender{
		producer: producer,
		topic:    cfg.Topic,
		logger:   logger.WithField("component", "sender"),
		done:     make(chan struct{}),
	}
	go s.deliveryReport()

	s.logger.WithField("topic", cfg.Topic).Info("Kafka Producer initialized successfully")
	return s, nil
}

func (s *KafkaSender) deliveryReport() {
	defer close(s.done)
	for e := range s.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				s.logger.Errorf("Message delivery failed: %v", ev.TopicPartition.Error)
			}
		case kafka.Error:
			s.logger.Warnf("Kafka error: %v", ev)
		}
	}
}

// SendCombined queues rec keyed by instrument. Delivery failures are only logged.
func (s *KafkaSender) SendCombined(ctx context.Context, rec models.CombinedRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := newMessage(s.topic, rec)
	if err != nil {
		return err
	}
	if err := s.producer.Produce(msg, nil); err != nil {
		return fmt.Errorf("failed to send to Kafka for %s: %w", rec.Instrument, err)
	}
	return nil
}

// Close flushes pending messages and shuts the producer down.
func (s *KafkaSender) Close() {
	if remaining := s.producer.Flush(flushTimeoutMs); remaining > 0 {
		s.logger.Warnf("%d messages were not delivered before shutdown", remaining)
	}
	s.producer.Close()
	<-s.done
}

func newMessage(topic string, rec models.CombinedRecord) (*kafka.Message, error) {
	value, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal combined record: %w", err)
	}
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(rec.Instrument),
		Value:          value,
	}, nil
}
