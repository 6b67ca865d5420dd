package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type SourcingMessage struct {
	RequestID     int64
	TenantID      string
	ExternalJobID string
	TraceID       *string
	Attempt       int
}

type Producer interface {
	// Enqueue adds the message to the stream and returns the stream message
	// id, which callers persist so a stale entry can be removed before a
	// retry re-enqueues under the same request id.
	Enqueue(ctx context.Context, msg SourcingMessage) (string, error)
	// Remove deletes a previously enqueued message from the stream.
	Remove(ctx context.Context, messageID string) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, msg SourcingMessage) (string, error) {
	attempt := msg.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	fields := map[string]any{
		"task_type":       string(TaskTypeSourcingRequest),
		"request_id":      msg.RequestID,
		"tenant_id":       msg.TenantID,
		"external_job_id": msg.ExternalJobID,
		"attempt":         attempt,
	}

	if msg.TraceID != nil && *msg.TraceID != "" {
		fields["trace_id"] = *msg.TraceID
	}

	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("enqueue sourcing request: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued sourcing request", "request_id", msg.RequestID, "external_job_id", msg.ExternalJobID, "attempt", attempt, "message_id", messageID)
	return messageID, nil
}

func (p *redisProducer) Remove(ctx context.Context, messageID string) error {
	if messageID == "" {
		return nil
	}
	if err := p.client.XDel(ctx, p.stream, messageID).Err(); err != nil {
		return fmt.Errorf("remove queue message: %w", err)
	}
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
