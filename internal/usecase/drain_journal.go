package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/V4T54L/restnav/internal/adapter/metrics"
	"github.com/V4T54L/restnav/internal/domain"
)

// DrainJournalUseCase moves sealed journal segments into the archive sink.
// A segment is only removed after its batch was written.
type DrainJournalUseCase struct {
	journal      domain.JournalRepository
	sink         domain.ArchiveRepository
	metrics      *metrics.ClientMetrics
	logger       *slog.Logger
	retryCount   int
	retryBackoff time.Duration
}

func NewDrainJournalUseCase(journal domain.JournalRepository, sink domain.ArchiveRepository, m *metrics.ClientMetrics,
	logger *slog.Logger, retryCount int, retryBackoff time.Duration) *DrainJournalUseCase {
	if retryCount <= 0 {
		retryCount = defaultRetryCount
	}
	if retryBackoff <= 0 {
		retryBackoff = defaultRetryBackoff
	}
	return &DrainJournalUseCase{
		journal:      journal,
		sink:         sink,
		metrics:      m,
		logger:       logger.With("component", "drain_journal"),
		retryCount:   retryCount,
		retryBackoff: retryBackoff,
	}
}

// DrainOnce archives every sealed segment and returns the number of
// snapshots written.
func (uc *DrainJournalUseCase) DrainOnce(ctx context.Context) (int, error) {
	return uc.journal.Drain(ctx, func(batch []domain.EntrySnapshot) error {
		err := writeWithRetry(ctx, uc.sink, batch, uc.retryCount, uc.retryBackoff, uc.logger)
		uc.metrics.ObserveArchive(len(batch), err)
		return err
	})
}

// Run drains on every tick until ctx is cancelled.
func (uc *DrainJournalUseCase) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := uc.DrainOnce(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			uc.logger.Error("failed to drain journal", "error", err, "archived", n)
		case n > 0:
			uc.logger.Info("journal archived", "count", n)
		}

		select {
		case <-ctx.Done():
			uc.logger.Info("drain loop stopped")
			return nil
		case <-ticker.C:
		}
	}
}
