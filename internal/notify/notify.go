// internal/notify/notify.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event announces a view of a shared page.
type Event struct {
	Type     string    `json:"type"`
	Login    string    `json:"login"`
	Platform string    `json:"platform"`
	Browser  string    `json:"browser"`
	Device   string    `json:"device"`
	At       time.Time `json:"at"`
}

// Summary is the one-line form used in chat notifications and logs.
func (e Event) Summary() string {
	return fmt.Sprintf("[%s:%s] %s:%s:%s",
		strings.ToUpper(e.Type), e.Login,
		strings.ToUpper(e.Device), strings.ToUpper(e.Platform), strings.ToUpper(e.Browser))
}

// Notifier publishes view events.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
	Close() error
}

// KafkaNotifier writes events to a Kafka topic, keyed by page type.
type KafkaNotifier struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewKafkaNotifier creates a notifier writing asynchronously to topic.
// Delivery failures are logged.
func NewKafkaNotifier(brokers []string, topic string, logger *slog.Logger) *KafkaNotifier {
	logger = logger.With("topic", topic)
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to deliver view notifications", "count", len(messages), "error", err)
			}
		},
	}
	return &KafkaNotifier{writer: writer, logger: logger}
}

func (n *KafkaNotifier) Notify(ctx context.Context, e Event) error {
	msg, err := message(e)
	if err != nil {
		return err
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write view notification: %w", err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

func message(e Event) (kafka.Message, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode view notification: %w", err)
	}
	return kafka.Message{
		Key:   []byte(e.Type),
		Value: b,
		Time:  e.At,
	}, nil
}

// LogNotifier only logs events. It is used when no broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, e Event) error {
	n.logger.Info("Page viewed", "summary", e.Summary())
	return nil
}

func (n *LogNotifier) Close() error { return nil }
