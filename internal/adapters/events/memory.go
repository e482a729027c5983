package events

import (
	"context"
	"log/slog"
	"sync"
)

// LoggingPublisher is the fallback publisher used when no broker is
// configured; events are logged and dropped.
type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error {
	p.logger.InfoContext(ctx, "event published (log only)",
		"type", eventType, "partition_key", partitionKey, "bytes", len(payload))
	return nil
}

// MemoryPublisher records published events for assertions in tests.
type MemoryPublisher struct {
	mu       sync.Mutex
	Messages []PublishedMessage
}

type PublishedMessage struct {
	EventType    string
	Payload      []byte
	PartitionKey string
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(_ context.Context, eventType string, payload []byte, partitionKey string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Messages = append(p.Messages, PublishedMessage{
		EventType:    eventType,
		Payload:      append([]byte(nil), payload...),
		PartitionKey: partitionKey,
	})
	return nil
}

func (p *MemoryPublisher) ByType(eventType string) []PublishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []PublishedMessage
	for _, m := range p.Messages {
		if m.EventType == eventType {
			out = append(out, m)
		}
	}
	return out
}
