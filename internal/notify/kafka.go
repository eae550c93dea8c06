package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rs/xid"
	"github.com/segmentio/kafka-go"
)

// KafkaFeed shares change events between server instances through a
// Kafka topic. Publish writes to the topic; Run reads the topic and
// forwards every event into the local Broker, so subscribers on every
// instance wake up, including the one that wrote.
type KafkaFeed struct {
	writer messageWriter
	reader messageReader
	local  *Broker
	logger *slog.Logger
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

var (
	_ messageWriter = (*kafka.Writer)(nil)
	_ messageReader = (*kafka.Reader)(nil)
)

var _ Publisher = (*KafkaFeed)(nil)

// NewKafkaFeed creates the writer and a reader in a consumer group of
// its own, so each instance sees every event. Only events published
// after startup are delivered.
func NewKafkaFeed(brokers []string, topic string, local *Broker, logger *slog.Logger) *KafkaFeed {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     "slay-vote-" + xid.New().String(),
		MinBytes:    1,
		MaxBytes:    1e6,
		MaxWait:     500 * time.Millisecond,
		StartOffset: kafka.LastOffset,
	})

	return newKafkaFeed(w, r, local, logger)
}

func newKafkaFeed(w messageWriter, r messageReader, local *Broker, logger *slog.Logger) *KafkaFeed {
	return &KafkaFeed{writer: w, reader: r, local: local, logger: logger}
}

// Publish writes the event to the topic, keyed by category. If the
// write fails, local subscribers are signalled directly so this
// instance still refreshes, and the error is returned.
func (k *KafkaFeed) Publish(ctx context.Context, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("notify: marshaling event: %w", err)
	}

	if err := k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.CategoryID),
		Value: b,
	}); err != nil {
		_ = k.local.Publish(ctx, ev)
		return fmt.Errorf("notify: writing event to kafka: %w", err)
	}
	return nil
}

// Run forwards events from the topic into the local broker until ctx is
// cancelled or the reader is closed.
func (k *KafkaFeed) Run(ctx context.Context) error {
	for {
		msg, err := k.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("notify: reading from kafka: %w", err)
		}

		var ev Event
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			k.logger.Warn("dropping malformed change event",
				slog.Int64("offset", msg.Offset),
				slog.String("error", err.Error()),
			)
			continue
		}
		_ = k.local.Publish(ctx, ev)
	}
}

// Close closes the writer and the reader.
func (k *KafkaFeed) Close() error {
	return errors.Join(k.writer.Close(), k.reader.Close())
}
