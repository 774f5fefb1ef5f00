package usecase

import (
	"fmt"
	"log/slog"

	"github.com/V4T54L/restnav/internal/domain"
)

// LogViewUseCase serves the log to the HTTP API. Reads go straight to the
// store; mutations that touch aggregators are posted to the scheduler.
type LogViewUseCase struct {
	store     *EventStore
	scheduler domain.Scheduler
	logger    *slog.Logger
}

func NewLogViewUseCase(store *EventStore, scheduler domain.Scheduler, logger *slog.Logger) *LogViewUseCase {
	return &LogViewUseCase{
		store:     store,
		scheduler: scheduler,
		logger:    logger.With("component", "log_view"),
	}
}

// Entries returns snapshots in log order, optionally filtered by state name.
func (uc *LogViewUseCase) Entries(state string) ([]domain.EntrySnapshot, error) {
	var want domain.EventState
	if state != "" {
		s, ok := domain.ParseEventState(state)
		if !ok {
			return nil, fmt.Errorf("unknown state %q", state)
		}
		want = s
	}

	entries := uc.store.Entries()
	out := make([]domain.EntrySnapshot, 0, len(entries))
	for _, e := range entries {
		if state != "" && e.State() != want {
			continue
		}
		out = append(out, e.Snapshot())
	}
	return out, nil
}

func (uc *LogViewUseCase) Entry(id string) (domain.EntrySnapshot, bool) {
	e := uc.store.FindByID(id)
	if e == nil {
		return domain.EntrySnapshot{}, false
	}
	return e.Snapshot(), true
}

// Track appends a placeholder entry for a URL the caller wants to follow.
func (uc *LogViewUseCase) Track(url, subType string) domain.EntrySnapshot {
	e := uc.store.Add(domain.NewResourceSpecification(url, subType))
	uc.logger.Info("tracking entry added", "url", url, "id", e.ID)
	return e.Snapshot()
}

// CloseView schedules closing the view. Unknown titles fail immediately.
func (uc *LogViewUseCase) CloseView(title string) error {
	if uc.store.FindView(title) == nil {
		return fmt.Errorf("%w: %q", domain.ErrViewNotFound, title)
	}
	uc.scheduler.Post(func() {
		if err := uc.store.CloseView(title); err != nil {
			uc.logger.Warn("failed to close view", "title", title, "error", err)
		}
	})
	return nil
}

// Reset schedules clearing the whole log.
func (uc *LogViewUseCase) Reset() {
	uc.scheduler.Post(uc.store.Reset)
}
