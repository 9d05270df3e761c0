package redisclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Client wraps a Redis client with OpenTelemetry tracing
type Client struct {
	cmdable redis.Cmdable
}

// NewClient creates a new traced Redis client for a single Redis instance
func NewClient(client *redis.Client) *Client {
	return &Client{cmdable: client}
}

// NewClusterClient creates a new traced Redis client for a Redis cluster
func NewClusterClient(client *redis.ClusterClient) *Client {
	return &Client{cmdable: client}
}

// startSpan opens a span for a Redis command with common attributes
func startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	attrs = append(attrs,
		attribute.String("redis.operation", operation),
		attribute.String("redis.client", "app-guestlist"),
	)
	ctx, span := otel.Tracer("redis").Start(ctx, "redis."+operation, trace.WithAttributes(attrs...))
	return ctx, span, time.Now()
}

// endSpan records timing and outcome on a span. redis.Nil is a miss, not an error.
func endSpan(span trace.Span, start time.Time, err error) {
	duration := time.Since(start)
	span.SetAttributes(
		attribute.Int64("redis.duration_ms", duration.Milliseconds()),
		attribute.String("redis.duration", duration.String()),
	)
	if err != nil && err != redis.Nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("redis.error", err.Error()))
	} else {
		span.SetStatus(codes.Ok, "success")
	}
	span.End()
}

// Get wraps Redis GET with tracing
func (c *Client) Get(ctx context.Context, key string) *redis.StringCmd {
	ctx, span, start := startSpan(ctx, "get", attribute.String("redis.key", key))
	cmd := c.cmdable.Get(ctx, key)
	endSpan(span, start, cmd.Err())
	return cmd
}

// Set wraps Redis SET with tracing
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	ctx, span, start := startSpan(ctx, "set",
		attribute.String("redis.key", key),
		attribute.String("redis.expiration", expiration.String()),
	)
	cmd := c.cmdable.Set(ctx, key, value, expiration)
	endSpan(span, start, cmd.Err())
	return cmd
}

// Del wraps Redis DEL with tracing
func (c *Client) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	ctx, span, start := startSpan(ctx, "del",
		attribute.StringSlice("redis.keys", keys),
		attribute.Int("redis.key_count", len(keys)),
	)
	cmd := c.cmdable.Del(ctx, keys...)
	endSpan(span, start, cmd.Err())
	return cmd
}

// Exists wraps Redis EXISTS with tracing
func (c *Client) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	ctx, span, start := startSpan(ctx, "exists",
		attribute.StringSlice("redis.keys", keys),
		attribute.Int("redis.key_count", len(keys)),
	)
	cmd := c.cmdable.Exists(ctx, keys...)
	endSpan(span, start, cmd.Err())
	return cmd
}

// TTL wraps Redis TTL with tracing
func (c *Client) TTL(ctx context.Context, key string) *redis.DurationCmd {
	ctx, span, start := startSpan(ctx, "ttl", attribute.String("redis.key", key))
	cmd := c.cmdable.TTL(ctx, key)
	endSpan(span, start, cmd.Err())
	return cmd
}

// Ping wraps Redis PING with tracing
func (c *Client) Ping(ctx context.Context) *redis.StatusCmd {
	ctx, span, start := startSpan(ctx, "ping")
	cmd := c.cmdable.Ping(ctx)
	endSpan(span, start, cmd.Err())
	return cmd
}

// Info wraps Redis INFO with tracing
func (c *Client) Info(ctx context.Context, section ...string) *redis.StringCmd {
	ctx, span, start := startSpan(ctx, "info", attribute.StringSlice("redis.sections", section))
	cmd := c.cmdable.Info(ctx, section...)
	endSpan(span, start, cmd.Err())
	return cmd
}

// LPush wraps Redis LPUSH with tracing
func (c *Client) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	ctx, span, start := startSpan(ctx, "lpush",
		attribute.String("redis.key", key),
		attribute.Int("redis.value_count", len(values)),
	)
	cmd := c.cmdable.LPush(ctx, key, values...)
	endSpan(span, start, cmd.Err())
	return cmd
}

// RPop wraps Redis RPOP with tracing
func (c *Client) RPop(ctx context.Context, key string) *redis.StringCmd {
	ctx, span, start := startSpan(ctx, "rpop", attribute.String("redis.key", key))
	cmd := c.cmdable.RPop(ctx, key)
	endSpan(span, start, cmd.Err())
	return cmd
}

// Keys wraps Redis KEYS with tracing
func (c *Client) Keys(ctx context.Context, pattern string) *redis.StringSliceCmd {
	ctx, span, start := startSpan(ctx, "keys", attribute.String("redis.pattern", pattern))
	cmd := c.cmdable.Keys(ctx, pattern)
	endSpan(span, start, cmd.Err())
	return cmd
}

// LLen wraps Redis LLEN with tracing
func (c *Client) LLen(ctx context.Context, key string) *redis.IntCmd {
	ctx, span, start := startSpan(ctx, "llen", attribute.String("redis.key", key))
	cmd := c.cmdable.LLen(ctx, key)
	endSpan(span, start, cmd.Err())
	return cmd
}

// Pipeline returns a Redis pipeline
func (c *Client) Pipeline() redis.Pipeliner {
	return c.cmdable.Pipeline()
}

// PoolStats returns connection pool statistics when available
func (c *Client) PoolStats() *redis.PoolStats {
	if singleClient, ok := c.cmdable.(*redis.Client); ok {
		return singleClient.PoolStats()
	}
	if clusterClient, ok := c.cmdable.(*redis.ClusterClient); ok {
		return clusterClient.PoolStats()
	}
	return &redis.PoolStats{}
}
