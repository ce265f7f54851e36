package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// LoopbackSink hands events straight to an in-process consumer, encoded
// exactly as the Kafka producer would. It stands in for a broker when none
// is configured so that consumers still run.
type LoopbackSink struct {
	mu      sync.RWMutex
	handler MessageHandler
}

// NewLoopbackSink creates a sink with no consumer attached yet
func NewLoopbackSink() *LoopbackSink {
	return &LoopbackSink{}
}

// Attach sets the consumer. Events published before Attach are logged and dropped.
func (l *LoopbackSink) Attach(handler MessageHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handler = handler
}

func (l *LoopbackSink) PublishEvent(ctx context.Context, key string, event interface{}) error {
	l.mu.RLock()
	handler := l.handler
	l.mu.RUnlock()

	if handler == nil {
		return LogSink{}.PublishEvent(ctx, key, event)
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return handler(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	})
}
