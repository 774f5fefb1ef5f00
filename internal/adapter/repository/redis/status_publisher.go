package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/restnav/internal/adapter/metrics"
	"github.com/V4T54L/restnav/internal/domain"
)

// Publish outcomes reported to metrics.
const (
	statusPublished = "published"
	statusFailed    = "failed"
	statusDropped   = "dropped"
	statusSkipped   = "skipped"
)

// StatusPublisher appends every entry status change to a Redis Stream.
// UpdateStatus never blocks the caller: snapshots are queued and written by
// Run. While Redis is unreachable updates are skipped.
type StatusPublisher struct {
	client      *redis.Client
	logger      *slog.Logger
	metrics     *metrics.ClientMetrics
	streamKey   string
	maxLen      int64
	queue       chan domain.EntrySnapshot
	isAvailable atomic.Bool
}

// NewStatusPublisher creates a publisher for streamKey, trimmed to roughly
// maxLen entries.
func NewStatusPublisher(client *redis.Client, logger *slog.Logger, m *metrics.ClientMetrics, streamKey string, maxLen int64, queueSize int) *StatusPublisher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	p := &StatusPublisher{
		client:    client,
		logger:    logger.With("component", "redis_status_publisher"),
		metrics:   m,
		streamKey: streamKey,
		maxLen:    maxLen,
		queue:     make(chan domain.EntrySnapshot, queueSize),
	}
	p.isAvailable.Store(true) // Assume available initially
	m.SetStreamAvailable(true)
	return p
}

// UpdateStatus queues the entry's snapshot.
func (p *StatusPublisher) UpdateStatus(entry *domain.LogEntry) {
	if !p.isAvailable.Load() {
		p.metrics.ObservePublish(statusSkipped)
		return
	}
	select {
	case p.queue <- entry.Snapshot():
	default:
		p.metrics.ObservePublish(statusDropped)
		p.logger.Warn("status queue is full, dropping update", "entry_id", entry.ID)
	}
}

// Run writes queued snapshots until ctx is cancelled.
func (p *StatusPublisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case snapshot := <-p.queue:
			if err := p.publish(ctx, snapshot); err != nil {
				p.metrics.ObservePublish(statusFailed)
				if isNetworkError(err) && p.isAvailable.CompareAndSwap(true, false) {
					p.metrics.SetStreamAvailable(false)
					p.logger.Error("Redis connection lost during publish", "error", err)
				} else {
					p.logger.Warn("failed to publish status", "entry_id", snapshot.ID, "error", err)
				}
				continue
			}
			p.metrics.ObservePublish(statusPublished)
		}
	}
}

func (p *StatusPublisher) publish(ctx context.Context, snapshot domain.EntrySnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal entry snapshot: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.streamKey,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"entry_id": snapshot.ID,
			"state":    snapshot.State,
			"payload":  payload,
		},
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to XADD to redis stream: %w", err)
	}
	return nil
}

// StartHealthCheck pings Redis on every tick and toggles availability.
func (p *StatusPublisher) StartHealthCheck(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.logger.Info("Starting Redis health check")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Stopping Redis health check")
			return nil
		case <-ticker.C:
			err := p.client.Ping(ctx).Err()
			if err != nil {
				if p.isAvailable.CompareAndSwap(true, false) {
					p.metrics.SetStreamAvailable(false)
					p.logger.Error("Redis connection lost", "error", err)
				}
			} else if p.isAvailable.CompareAndSwap(false, true) {
				p.metrics.SetStreamAvailable(true)
				p.logger.Info("Redis connection recovered")
			}
		}
	}
}

// Available reports the last known connectivity.
func (p *StatusPublisher) Available() bool {
	return p.isAvailable.Load()
}

func isNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, redis.ErrClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

var _ domain.StatusObserver = (*StatusPublisher)(nil)
