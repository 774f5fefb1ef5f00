package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/V4T54L/restnav/internal/domain"
)

const (
	segmentPrefix = "segment-"
	sealedSuffix  = ".log"
	openSuffix    = ".open"
	filePerm      = 0644
	maxLineSize   = 16 << 20
)

// JournalRepository stores entry snapshots as NDJSON segment files. The
// open segment carries the ".open" suffix and is renamed to ".log" when
// sealed, so a reader in another process never sees a partial segment.
type JournalRepository struct {
	dir            string
	maxSegmentSize int64
	maxTotalSize   int64
	logger         *slog.Logger

	mu             sync.Mutex
	currentSegment *os.File
	currentSize    int64
	seq            uint64
}

// NewJournalRepository creates the journal directory and seals segments
// left open by a previous run.
func NewJournalRepository(dir string, maxSegmentSize, maxTotalSize int64, logger *slog.Logger) (*JournalRepository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory %s: %w", dir, err)
	}

	j := &JournalRepository{
		dir:            dir,
		maxSegmentSize: maxSegmentSize,
		maxTotalSize:   maxTotalSize,
		logger:         logger.With("component", "journal_repository"),
	}

	open, err := j.segments(openSuffix)
	if err != nil {
		return nil, err
	}
	for _, path := range open {
		if err := j.sealPath(path); err != nil {
			return nil, err
		}
	}
	return j, nil
}

// Write appends one snapshot to the open segment.
func (j *JournalRepository) Write(ctx context.Context, entry domain.EntrySnapshot) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.appendLocked([]domain.EntrySnapshot{entry})
}

// WriteBatch appends the batch and seals the segment, making the batch
// visible to readers.
func (j *JournalRepository) WriteBatch(ctx context.Context, entries []domain.EntrySnapshot) error {
	if len(entries) == 0 {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.appendLocked(entries); err != nil {
		return err
	}
	return j.sealLocked()
}

func (j *JournalRepository) appendLocked(entries []domain.EntrySnapshot) error {
	var data []byte
	for _, e := range entries {
		line, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal entry snapshot for journal: %w", err)
		}
		data = append(data, line...)
		data = append(data, '\n')
	}

	totalSize, err := j.calculateTotalSize()
	if err != nil {
		j.logger.Error("Failed to calculate total journal size", "error", err)
		return fmt.Errorf("could not verify journal disk space: %w", err)
	}
	if totalSize+int64(len(data)) > j.maxTotalSize {
		return fmt.Errorf("journal max total size exceeded (%d > %d)", totalSize, j.maxTotalSize)
	}

	if j.currentSegment == nil {
		if err := j.openSegment(); err != nil {
			return err
		}
	}

	n, err := j.currentSegment.Write(data)
	j.currentSize += int64(n)
	if err != nil {
		return fmt.Errorf("failed to write to journal segment: %w", err)
	}

	if j.currentSize >= j.maxSegmentSize {
		if err := j.sealLocked(); err != nil {
			j.logger.Error("Failed to seal journal segment", "error", err)
		}
	}
	return nil
}

func (j *JournalRepository) openSegment() error {
	j.seq++
	name := fmt.Sprintf("%s%020d-%06d%s", segmentPrefix, time.Now().UnixNano(), j.seq%1000000, openSuffix)
	path := filepath.Join(j.dir, name)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to create journal segment %s: %w", path, err)
	}
	j.currentSegment = f
	j.currentSize = 0
	j.logger.Debug("Opened journal segment", "path", path)
	return nil
}

func (j *JournalRepository) sealLocked() error {
	if j.currentSegment == nil {
		return nil
	}
	f := j.currentSegment
	j.currentSegment = nil
	j.currentSize = 0

	if err := f.Sync(); err != nil {
		j.logger.Error("Failed to sync journal segment before sealing", "error", err)
	}
	if err := f.Close(); err != nil {
		j.logger.Error("Failed to close journal segment before sealing", "error", err)
	}
	return j.sealPath(f.Name())
}

func (j *JournalRepository) sealPath(path string) error {
	sealed := strings.TrimSuffix(path, openSuffix) + sealedSuffix
	if err := os.Rename(path, sealed); err != nil {
		return fmt.Errorf("failed to seal journal segment %s: %w", path, err)
	}
	j.logger.Debug("Sealed journal segment", "path", sealed)
	return nil
}

// Drain reads sealed segments oldest first, hands each one to handler as a
// batch and removes it once handler returns nil.
func (j *JournalRepository) Drain(ctx context.Context, handler func(batch []domain.EntrySnapshot) error) (int, error) {
	segments, err := j.segments(sealedSuffix)
	if err != nil {
		return 0, err
	}

	drained := 0
	for _, path := range segments {
		if err := ctx.Err(); err != nil {
			return drained, err
		}

		batch, err := j.readSegment(path)
		if err != nil {
			return drained, err
		}
		if len(batch) > 0 {
			if err := handler(batch); err != nil {
				j.logger.Error("Journal drain handler failed, stopping", "path", path, "error", err)
				return drained, fmt.Errorf("drain handler failed: %w", err)
			}
		}
		if err := os.Remove(path); err != nil {
			return drained, fmt.Errorf("failed to remove drained segment %s: %w", path, err)
		}
		drained += len(batch)
	}

	if drained > 0 {
		j.logger.Info("Journal drained", "segments", len(segments), "entries", drained)
	}
	return drained, nil
}

func (j *JournalRepository) readSegment(path string) ([]domain.EntrySnapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open segment %s: %w", path, err)
	}
	defer file.Close()

	var batch []domain.EntrySnapshot
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		var entry domain.EntrySnapshot
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			j.logger.Warn("Failed to unmarshal snapshot from journal, skipping", "error", err, "path", path)
			continue
		}
		batch = append(batch, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning segment %s: %w", path, err)
	}
	return batch, nil
}

func (j *JournalRepository) segments(suffix string) ([]string, error) {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal directory: %w", err)
	}

	var segments []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, segmentPrefix) && strings.HasSuffix(name, suffix) {
			segments = append(segments, filepath.Join(j.dir, name))
		}
	}
	sort.Strings(segments)
	return segments, nil
}

func (j *JournalRepository) calculateTotalSize() (int64, error) {
	var totalSize int64
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), segmentPrefix) {
			info, err := entry.Info()
			if err != nil {
				return 0, err
			}
			totalSize += info.Size()
		}
	}
	return totalSize, nil
}

// Close seals the open segment.
func (j *JournalRepository) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.sealLocked()
}

var _ domain.JournalRepository = (*JournalRepository)(nil)
