package outbox

import (
	"context"
	"log/slog"
)

// LogProducer writes events to the logger instead of a broker. Used when no
// Kafka brokers are configured.
type LogProducer struct {
	Logger *slog.Logger
}

func (p LogProducer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	if p.Logger == nil {
		return nil
	}
	p.Logger.InfoContext(ctx, "event published", "topic", topic, "key", key, "bytes", len(payload), "request_id", headers["x-request-id"])
	return nil
}

var _ Producer = LogProducer{}
