package notify

import (
	"context"
	"fmt"
	"time"

	appreceivable "github.com/finvera/receivables/internal/application/receivable"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStreamNotifier publishes paid notifications to a Redis stream.
// Consumers (reporting, email) read the stream with their own consumer
// groups; the publisher does not wait for them.
type RedisStreamNotifier struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

// NewRedisStreamNotifier creates a new RedisStreamNotifier
func NewRedisStreamNotifier(client *redis.Client, stream string, logger *zap.Logger) *RedisStreamNotifier {
	return &RedisStreamNotifier{
		client: client,
		stream: stream,
		logger: logger.Named("notify"),
	}
}

// NotifyPaid appends a paid notification to the stream
func (n *RedisStreamNotifier) NotifyPaid(ctx context.Context, msg appreceivable.SettlementNotification) error {
	err := n.client.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		Values: map[string]any{
			"receivable_id":   msg.ReceivableID.String(),
			"debtor_name":     msg.DebtorName,
			"amount":          msg.Amount.String(),
			"settled_by":      msg.SettledBy.String(),
			"settled_by_name": msg.SettledByName,
			"occurred_at":     time.Now().UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish paid notification: %w", err)
	}

	n.logger.Debug("paid notification published",
		zap.String("stream", n.stream),
		zap.String("receivable_id", msg.ReceivableID.String()))
	return nil
}

// NoopNotifier drops notifications, used when notifications are disabled
type NoopNotifier struct{}

// NotifyPaid implements the notifier interface and does nothing
func (NoopNotifier) NotifyPaid(ctx context.Context, msg appreceivable.SettlementNotification) error {
	return nil
}
