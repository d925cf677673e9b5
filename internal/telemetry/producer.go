// Package telemetry emits per-request events to Kafka and wires OTLP tracing.
package telemetry

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event is one handled HTTP request.
type Event struct {
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Status     int       `json:"status"`
	DurationMS int64     `json:"durationMs"`
	UserID     string    `json:"userId,omitempty"`
	At         time.Time `json:"at"`
}

// Producer writes request events to a Kafka topic. Emission is best-effort;
// a broker outage is logged, never surfaced to the request path.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           100 * time.Millisecond,
		},
	}
}

// Emit publishes the event. Errors are logged and swallowed.
func (p *Producer) Emit(ctx context.Context, e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		log.Printf("telemetry: marshal event: %v", err)
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Path),
		Value: payload,
	}); err != nil {
		log.Printf("telemetry: write event: %v", err)
	}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
