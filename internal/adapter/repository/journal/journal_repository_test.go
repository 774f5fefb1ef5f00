package journal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/V4T54L/restnav/internal/domain"
)

func setupTestJournal(t *testing.T, maxSegmentSize, maxTotalSize int64) *JournalRepository {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	j, err := NewJournalRepository(t.TempDir(), maxSegmentSize, maxTotalSize, logger)
	if err != nil {
		t.Fatalf("failed to create JournalRepository: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func snapshot(url string) domain.EntrySnapshot {
	return domain.EntrySnapshot{ID: uuid.NewString(), URL: url, Method: domain.MethodGet, State: "SUCCESS"}
}

func TestJournal_WriteBatchAndDrain(t *testing.T) {
	j := setupTestJournal(t, 1024, 10*1024)

	first := []domain.EntrySnapshot{snapshot("http://h/1"), snapshot("http://h/2")}
	second := []domain.EntrySnapshot{snapshot("http://h/3")}
	if err := j.WriteBatch(context.Background(), first); err != nil {
		t.Fatalf("failed to write batch: %v", err)
	}
	if err := j.WriteBatch(context.Background(), second); err != nil {
		t.Fatalf("failed to write batch: %v", err)
	}

	var batches [][]domain.EntrySnapshot
	n, err := j.Drain(context.Background(), func(batch []domain.EntrySnapshot) error {
		batches = append(batches, batch)
		return nil
	})
	if err != nil {
		t.Fatalf("failed to drain: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 drained snapshots, got %d", n)
	}
	if len(batches) != 2 || batches[0][1].ID != first[1].ID || batches[1][0].ID != second[0].ID {
		t.Errorf("expected batches in write order, got %+v", batches)
	}

	segments, _ := j.segments(sealedSuffix)
	if len(segments) != 0 {
		t.Errorf("expected drained segments to be removed, got %d", len(segments))
	}
}

func TestJournal_OpenSegmentIsNotDrained(t *testing.T) {
	j := setupTestJournal(t, 1024, 10*1024)

	if err := j.Write(context.Background(), snapshot("http://h/1")); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	n, err := j.Drain(context.Background(), func([]domain.EntrySnapshot) error { return nil })
	if err != nil || n != 0 {
		t.Fatalf("expected nothing drained from open segment, got %d, %v", n, err)
	}

	if err := j.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}
	n, _ = j.Drain(context.Background(), func([]domain.EntrySnapshot) error { return nil })
	if n != 1 {
		t.Errorf("expected sealed segment to be drained after close, got %d", n)
	}
}

func TestJournal_ReopenSealsLeftovers(t *testing.T) {
	j := setupTestJournal(t, 1024, 10*1024)
	if err := j.Write(context.Background(), snapshot("http://h/1")); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	// simulate a crash: the open segment is never closed
	j.currentSegment.Close()

	reopened, err := NewJournalRepository(j.dir, 1024, 10*1024, j.logger)
	if err != nil {
		t.Fatalf("failed to re-open journal: %v", err)
	}
	n, err := reopened.Drain(context.Background(), func([]domain.EntrySnapshot) error { return nil })
	if err != nil || n != 1 {
		t.Errorf("expected leftover segment to be drained, got %d, %v", n, err)
	}
}

func TestJournal_DrainStopsOnHandlerError(t *testing.T) {
	j := setupTestJournal(t, 1024, 10*1024)
	j.WriteBatch(context.Background(), []domain.EntrySnapshot{snapshot("http://h/1")})
	j.WriteBatch(context.Background(), []domain.EntrySnapshot{snapshot("http://h/2")})

	calls := 0
	_, err := j.Drain(context.Background(), func([]domain.EntrySnapshot) error {
		calls++
		return errors.New("database is down")
	})
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if calls != 1 {
		t.Errorf("expected drain to stop after first failure, got %d calls", calls)
	}
	segments, _ := j.segments(sealedSuffix)
	if len(segments) != 2 {
		t.Errorf("expected both segments kept, got %d", len(segments))
	}
}

func TestJournal_SegmentRotation(t *testing.T) {
	// Set a very small segment size to force rotation
	j := setupTestJournal(t, 100, 64*1024)

	for i := 0; i < 5; i++ {
		if err := j.Write(context.Background(), snapshot("http://h/a-url-long-enough-to-cause-rotation")); err != nil {
			t.Fatalf("failed to write: %v", err)
		}
	}

	segments, err := j.segments(sealedSuffix)
	if err != nil {
		t.Fatalf("failed to list segments: %v", err)
	}
	if len(segments) < 2 {
		t.Errorf("expected at least 2 sealed segments, got %d", len(segments))
	}
}

func TestJournal_MaxTotalSize(t *testing.T) {
	j := setupTestJournal(t, 100, 300) // Max total size is very small

	var err error
	for i := 0; i < 10; i++ { // Write until we expect an error
		err = j.Write(context.Background(), snapshot("http://h/some-data-that-will-fill-up-the-journal"))
		if err != nil {
			break
		}
	}
	if err == nil {
		t.Fatal("expected an error when writing beyond max total size, but got nil")
	}
}
