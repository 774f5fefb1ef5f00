package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/V4T54L/restnav/internal/adapter/metrics"
	"github.com/V4T54L/restnav/internal/adapter/pii"
	"github.com/V4T54L/restnav/internal/domain"
)

const (
	defaultBatchSize    = 500
	defaultRetryCount   = 3
	defaultRetryBackoff = 1 * time.Second
)

// ArchiveUseCase collects snapshots of finished entries from status updates
// and writes them to the archive sink in batches.
type ArchiveUseCase struct {
	sink         domain.ArchiveRepository
	redactor     *pii.Redactor
	metrics      *metrics.ClientMetrics
	logger       *slog.Logger
	batchSize    int
	retryCount   int
	retryBackoff time.Duration

	mu      sync.Mutex
	pending map[string]domain.EntrySnapshot
	order   []string
	full    chan struct{}
}

// NewArchiveUseCase creates a new archive use case. Zero values select the defaults.
func NewArchiveUseCase(sink domain.ArchiveRepository, redactor *pii.Redactor, m *metrics.ClientMetrics, logger *slog.Logger,
	batchSize, retryCount int, retryBackoff time.Duration) *ArchiveUseCase {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if retryCount <= 0 {
		retryCount = defaultRetryCount
	}
	if retryBackoff <= 0 {
		retryBackoff = defaultRetryBackoff
	}
	return &ArchiveUseCase{
		sink:         sink,
		redactor:     redactor,
		metrics:      m,
		logger:       logger.With("component", "archive"),
		batchSize:    batchSize,
		retryCount:   retryCount,
		retryBackoff: retryBackoff,
		pending:      make(map[string]domain.EntrySnapshot),
		full:         make(chan struct{}, 1),
	}
}

// UpdateStatus queues a snapshot of every entry that reached a settled
// state. A later snapshot of the same entry replaces a queued one.
func (uc *ArchiveUseCase) UpdateStatus(entry *domain.LogEntry) {
	if !isSettled(entry.State()) {
		return
	}
	snapshot := entry.Snapshot()
	if uc.redactor != nil {
		if err := uc.redactor.Redact(&snapshot); err != nil {
			// unparseable bodies are not archived verbatim
			snapshot.Request = pii.RedactedPlaceholder
			snapshot.Redacted = true
		}
	}

	uc.mu.Lock()
	if _, ok := uc.pending[snapshot.ID]; !ok {
		uc.order = append(uc.order, snapshot.ID)
	}
	uc.pending[snapshot.ID] = snapshot
	n := len(uc.order)
	uc.mu.Unlock()

	if n >= uc.batchSize {
		select {
		case uc.full <- struct{}{}:
		default:
		}
	}
}

func isSettled(state domain.EventState) bool {
	switch state {
	case domain.StateSuccess, domain.StateCached, domain.StateError,
		domain.StateClosed, domain.StateDuplicate, domain.StateUndefined:
		return true
	}
	return false
}

// Pending returns the number of queued snapshots.
func (uc *ArchiveUseCase) Pending() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return len(uc.order)
}

// Flush writes the queued snapshots with retries. On failure the batch is
// queued again behind any newer snapshots of the same entries.
func (uc *ArchiveUseCase) Flush(ctx context.Context) (int, error) {
	batch := uc.take()
	if len(batch) == 0 {
		return 0, nil
	}

	uc.logger.Debug("flushing archive batch", "count", len(batch))
	if err := writeWithRetry(ctx, uc.sink, batch, uc.retryCount, uc.retryBackoff, uc.logger); err != nil {
		uc.logger.Error("failed to write archive batch after retries", "error", err, "count", len(batch))
		uc.metrics.ObserveArchive(len(batch), err)
		uc.requeue(batch)
		return 0, err
	}

	uc.metrics.ObserveArchive(len(batch), nil)
	uc.logger.Info("archived log entries", "count", len(batch))
	return len(batch), nil
}

func (uc *ArchiveUseCase) take() []domain.EntrySnapshot {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	batch := make([]domain.EntrySnapshot, 0, len(uc.order))
	for _, id := range uc.order {
		batch = append(batch, uc.pending[id])
	}
	uc.pending = make(map[string]domain.EntrySnapshot)
	uc.order = nil
	return batch
}

func (uc *ArchiveUseCase) requeue(batch []domain.EntrySnapshot) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	var order []string
	for _, s := range batch {
		if _, newer := uc.pending[s.ID]; newer {
			continue
		}
		uc.pending[s.ID] = s
		order = append(order, s.ID)
	}
	uc.order = append(order, uc.order...)
}

func writeWithRetry(ctx context.Context, sink domain.ArchiveRepository, batch []domain.EntrySnapshot,
	retryCount int, backoff time.Duration, logger *slog.Logger) error {
	var lastErr error
	for i := 0; i < retryCount; i++ {
		err := sink.WriteBatch(ctx, batch)
		if err == nil {
			return nil
		}
		lastErr = err
		logger.Warn("failed to write archive batch, retrying...", "attempt", i+1, "error", err)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

// Run flushes on every tick and whenever a batch fills up. Remaining
// snapshots are flushed once more on shutdown.
func (uc *ArchiveUseCase) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if _, err := uc.Flush(shutdownCtx); err != nil {
				uc.logger.Error("final archive flush failed", "error", err, "pending", uc.Pending())
			}
			return nil
		case <-ticker.C:
		case <-uc.full:
		}
		if _, err := uc.Flush(ctx); err != nil && ctx.Err() == nil {
			uc.logger.Warn("archive flush failed, will retry on next tick", "error", err)
		}
	}
}

var _ domain.StatusObserver = (*ArchiveUseCase)(nil)
